package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/fairview/review-cycle-service/internal/domain"
	"github.com/fairview/review-cycle-service/internal/notify"
	"github.com/fairview/review-cycle-service/internal/repository"
)

// PartnerReminderService sends the weekly end-date digest to partners.
type PartnerReminderService interface {
	// Run sends each partner a list of upcoming end dates on their
	// projects. Meant for Mondays; force sends on any day.
	Run(ctx context.Context, force bool) error
}

type PartnerReminderServiceImpl struct {
	cycle  *Cycle
	roster repository.RosterQueryRepository
	sender notify.Sender
	log    *slog.Logger
}

func NewPartnerReminderService(
	cycle *Cycle,
	roster repository.RosterQueryRepository,
	sender notify.Sender,
	log *slog.Logger,
) *PartnerReminderServiceImpl {
	return &PartnerReminderServiceImpl{
		cycle:  cycle,
		roster: roster,
		sender: sender,
		log:    log,
	}
}

func (s *PartnerReminderServiceImpl) Run(ctx context.Context, force bool) error {
	const op = "internal.service.PartnerReminderService.Run"

	if !force && s.cycle.Today.Weekday() != time.Monday {
		s.log.Info("not Monday, skipping partner reminders")
		return nil
	}

	snap, err := LoadSnapshot(ctx, s.roster)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	// Partner name -> upcoming end dates on their projects.
	digests := make(map[string][]notify.PartnerEndDateRow)

	for _, a := range snap.Assignments {
		if a.Role != domain.RolePartner {
			continue
		}

		for _, other := range snap.ProjectAssignments(a.ProjectName) {
			if normalizeName(other.EmployeeName) == normalizeName(a.EmployeeName) {
				continue
			}

			if other.EndDate.Before(s.cycle.Today) {
				continue
			}

			digests[a.EmployeeName] = append(digests[a.EmployeeName], notify.PartnerEndDateRow{
				EmployeeName: other.EmployeeName,
				ProjectName:  other.ProjectName,
				EndDate:      other.EndDate,
			})
		}
	}

	for partnerName, rows := range digests {
		partner := snap.EmployeeByName(partnerName)
		if partner == nil || partner.Email == "" {
			continue
		}

		sort.Slice(rows, func(i, j int) bool { return rows[i].EndDate.Before(rows[j].EndDate) })

		msg := notify.PartnerWeeklyReminder(partner.Email, partner.Name, rows,
			s.cycle.Settings.StaffingSheetURL)
		if err := s.sender.Send(ctx, msg); err != nil {
			reportFailure(ctx, s.log, s.sender, s.cycle.Settings.AdminEmails, "partner-reminders",
				fmt.Sprintf("digest to '%s'", partner.Name), err)
		}
	}

	s.log.Info("partner reminders sent", slog.Int("partners", len(digests)))

	return nil
}
