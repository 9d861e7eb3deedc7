package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fairview/review-cycle-service/internal/apperrors"
	"github.com/fairview/review-cycle-service/internal/domain"
	"github.com/fairview/review-cycle-service/internal/repository"
	"github.com/fairview/review-cycle-service/internal/schedule"
	"github.com/fairview/review-cycle-service/pkg/logger/sl"
)

// EndDateInfo is the current end-date view of one assignment.
type EndDateInfo struct {
	EmployeeName string    `json:"employee_name"`
	ProjectName  string    `json:"project_name"`
	EndDate      time.Time `json:"end_date"`
	Today        time.Time `json:"today"`
}

// EndDateService lets project partners inspect, confirm and correct
// assignment end dates.
type EndDateService interface {
	// Get returns the recorded end date of an employee on a project.
	Get(ctx context.Context, employeeID, projectID string) (*EndDateInfo, error)

	// Post records a changed end date (resets partner approval and
	// requests it again) or, when the date is unchanged, confirms it.
	// Returns apperrors.ErrEndDateInPast for a date not in the future.
	Post(ctx context.Context, employeeID, projectID string, endDate time.Time) error

	// Confirm marks the recorded end date as partner approved.
	Confirm(ctx context.Context, employeeID, projectID string) error
}

type EndDateServiceImpl struct {
	roster repository.RosterQueryRepository
	marks  repository.RosterCommandRepository
	audit  repository.AuditRepository
	today  time.Time
	log    *slog.Logger
}

func NewEndDateService(
	roster repository.RosterQueryRepository,
	marks repository.RosterCommandRepository,
	audit repository.AuditRepository,
	today time.Time,
	log *slog.Logger,
) *EndDateServiceImpl {
	return &EndDateServiceImpl{
		roster: roster,
		marks:  marks,
		audit:  audit,
		today:  today,
		log:    log,
	}
}

// resolve loads the employee, project and their assignment by ids.
func (s *EndDateServiceImpl) resolve(ctx context.Context, employeeID, projectID string) (*domain.Employee, *domain.Project, *domain.Assignment, error) {
	employee, err := s.roster.GetEmployeeByID(ctx, employeeID)
	if err != nil {
		return nil, nil, nil, err
	}

	project, err := s.roster.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, nil, nil, err
	}

	assignment, err := s.roster.GetAssignment(ctx, employee.Name, project.Name)
	if err != nil {
		return nil, nil, nil, err
	}

	return employee, project, assignment, nil
}

// projectPartner names the partner on a project for the audit trail.
func (s *EndDateServiceImpl) projectPartner(ctx context.Context, projectName string) string {
	assignments, err := s.roster.GetAssignments(ctx)
	if err != nil {
		s.log.Warn("failed to resolve project partner", sl.Err(err))
		return ""
	}

	for _, a := range assignments {
		if a.Role == domain.RolePartner && normalizeName(a.ProjectName) == normalizeName(projectName) {
			return a.EmployeeName
		}
	}

	return ""
}

func (s *EndDateServiceImpl) Get(ctx context.Context, employeeID, projectID string) (*EndDateInfo, error) {
	const op = "internal.service.EndDateService.Get"

	employee, project, assignment, err := s.resolve(ctx, employeeID, projectID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &EndDateInfo{
		EmployeeName: employee.Name,
		ProjectName:  project.Name,
		EndDate:      assignment.EndDate,
		Today:        s.today,
	}, nil
}

func (s *EndDateServiceImpl) Post(ctx context.Context, employeeID, projectID string, endDate time.Time) error {
	const op = "internal.service.EndDateService.Post"

	employee, project, assignment, err := s.resolve(ctx, employeeID, projectID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if endDate.Before(s.today) {
		return fmt.Errorf("%s: %w", op, apperrors.ErrEndDateInPast)
	}

	action := "End Date Confirmed"

	if !schedule.SameDay(endDate, assignment.EndDate) {
		if err := s.marks.UpdateEndDate(ctx, employee.Name, project.Name, endDate); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		action = "End Date Changed"
	} else {
		if err := s.marks.ApproveEndDate(ctx, employee.Name, project.Name); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	s.appendAudit(ctx, employee.Name, project.Name, assignment.EndDate, action)

	return nil
}

func (s *EndDateServiceImpl) Confirm(ctx context.Context, employeeID, projectID string) error {
	const op = "internal.service.EndDateService.Confirm"

	employee, project, assignment, err := s.resolve(ctx, employeeID, projectID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.marks.ApproveEndDate(ctx, employee.Name, project.Name); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.appendAudit(ctx, employee.Name, project.Name, assignment.EndDate, "End Date Confirmed")

	return nil
}

func (s *EndDateServiceImpl) appendAudit(ctx context.Context, employeeName, projectName string, prevEndDate time.Time, action string) {
	if err := s.audit.Append(ctx, &domain.AuditEntry{
		LoggedOn: s.today,
		Actor:    s.projectPartner(ctx, projectName),
		Subject:  employeeName,
		Project:  projectName,
		Action:   action,
		Detail:   fmt.Sprintf("end date on record: %s", prevEndDate.Format("2006-01-02")),
	}); err != nil {
		s.log.Error("failed to append audit entry", sl.Err(err))
	}
}
