package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/fairview/review-cycle-service/internal/apperrors"
	"github.com/fairview/review-cycle-service/internal/domain"
)

type RosterRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewRosterRepository(db *sqlx.DB, log *slog.Logger) *RosterRepository {
	return &RosterRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

var employeeColumns = []string{
	"id", "name", "email", "employment_today", "employment_two_months_ago",
	"joined_on", "departed_on", "is_partner", "mentor", "primary_manager",
}

func (r *RosterRepository) GetEmployees(ctx context.Context) ([]domain.Employee, error) {
	const op = "internal.repository.postgres.GetEmployees"

	query, args, err := r.sq.Select(employeeColumns...).
		From("employees").
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var employees []domain.Employee
	if err := r.db.SelectContext(ctx, &employees, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return employees, nil
}

func (r *RosterRepository) GetEmployeeByID(ctx context.Context, id string) (*domain.Employee, error) {
	const op = "internal.repository.postgres.GetEmployeeByID"

	query, args, err := r.sq.Select(employeeColumns...).
		From("employees").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var e domain.Employee
	if err := r.db.GetContext(ctx, &e, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: employee with id '%s'", op, apperrors.ErrNotFound, id)
		}

		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return &e, nil
}

var assignmentColumns = []string{
	"employee_name", "project_name", "role", "client_contact_name",
	"start_date", "end_date", "external_review_requested",
	"roll_off_notified", "end_date_approved", "approval_requested",
}

func (r *RosterRepository) GetAssignments(ctx context.Context) ([]domain.Assignment, error) {
	const op = "internal.repository.postgres.GetAssignments"

	query, args, err := r.sq.Select(assignmentColumns...).
		From("assignments").
		OrderBy("project_name", "employee_name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var assignments []domain.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return assignments, nil
}

func (r *RosterRepository) GetAssignment(ctx context.Context, employeeName, projectName string) (*domain.Assignment, error) {
	const op = "internal.repository.postgres.GetAssignment"

	query, args, err := r.sq.Select(assignmentColumns...).
		From("assignments").
		Where(sq.Eq{"employee_name": employeeName, "project_name": projectName}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var a domain.Assignment
	if err := r.db.GetContext(ctx, &a, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: assignment of '%s' on '%s'", op, apperrors.ErrNotFound, employeeName, projectName)
		}

		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return &a, nil
}

func (r *RosterRepository) GetProjects(ctx context.Context) ([]domain.Project, error) {
	const op = "internal.repository.postgres.GetProjects"

	query, args, err := r.sq.Select("id", "name", "status", "start_date", "end_date", "client_company").
		From("projects").
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var projects []domain.Project
	if err := r.db.SelectContext(ctx, &projects, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return projects, nil
}

func (r *RosterRepository) GetProjectByID(ctx context.Context, id string) (*domain.Project, error) {
	const op = "internal.repository.postgres.GetProjectByID"

	query, args, err := r.sq.Select("id", "name", "status", "start_date", "end_date", "client_company").
		From("projects").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var p domain.Project
	if err := r.db.GetContext(ctx, &p, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: project with id '%s'", op, apperrors.ErrNotFound, id)
		}

		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return &p, nil
}

func (r *RosterRepository) GetClientContacts(ctx context.Context) ([]domain.ClientContact, error) {
	const op = "internal.repository.postgres.GetClientContacts"

	query, args, err := r.sq.Select("id", "name", "company", "email").
		From("client_contacts").
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var contacts []domain.ClientContact
	if err := r.db.SelectContext(ctx, &contacts, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return contacts, nil
}

func (r *RosterRepository) GetTrainingRecords(ctx context.Context, employeeName string) ([]domain.TrainingRecord, error) {
	const op = "internal.repository.postgres.GetTrainingRecords"

	query, args, err := r.sq.Select(
		"employee_name", "employee_email", "course", "start_date", "end_date",
		"rescheduled", "completed", "online",
	).
		From("training_records").
		Where(sq.Eq{"employee_name": employeeName}).
		OrderBy("start_date").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var records []domain.TrainingRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return records, nil
}

func (r *RosterRepository) GetFormFields(ctx context.Context, kind domain.ReviewKind) ([]domain.FormField, error) {
	const op = "internal.repository.postgres.GetFormFields"

	query, args, err := r.sq.Select("kind", "position", "question", "field_type", "options").
		From("form_fields").
		Where(sq.Eq{"kind": kind}).
		OrderBy("position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var fields []domain.FormField
	if err := r.db.SelectContext(ctx, &fields, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return fields, nil
}

func (r *RosterRepository) MarkApprovalRequested(ctx context.Context, employeeName, projectName string) error {
	const op = "internal.repository.postgres.MarkApprovalRequested"

	return r.updateAssignment(ctx, op, employeeName, projectName, map[string]interface{}{
		"approval_requested": true,
	})
}

func (r *RosterRepository) MarkRollOffNotified(ctx context.Context, employeeName, projectName string) error {
	const op = "internal.repository.postgres.MarkRollOffNotified"

	return r.updateAssignment(ctx, op, employeeName, projectName, map[string]interface{}{
		"roll_off_notified": true,
	})
}

func (r *RosterRepository) UpdateEndDate(ctx context.Context, employeeName, projectName string, endDate time.Time) error {
	const op = "internal.repository.postgres.UpdateEndDate"

	return r.updateAssignment(ctx, op, employeeName, projectName, map[string]interface{}{
		"end_date":           endDate,
		"end_date_approved":  false,
		"approval_requested": false,
	})
}

func (r *RosterRepository) ApproveEndDate(ctx context.Context, employeeName, projectName string) error {
	const op = "internal.repository.postgres.ApproveEndDate"

	return r.updateAssignment(ctx, op, employeeName, projectName, map[string]interface{}{
		"end_date_approved": true,
	})
}

func (r *RosterRepository) updateAssignment(ctx context.Context, op, employeeName, projectName string, set map[string]interface{}) error {
	updateBuilder := r.sq.Update("assignments").
		Where(sq.Eq{"employee_name": employeeName, "project_name": projectName})

	for col, val := range set {
		updateBuilder = updateBuilder.Set(col, val)
	}

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: failed to execute update: %w", op, err)
	}

	if rowsAffected, err := res.RowsAffected(); err == nil && rowsAffected == 0 {
		return fmt.Errorf("%s: %w: assignment of '%s' on '%s'", op, apperrors.ErrNotFound, employeeName, projectName)
	}

	return nil
}
