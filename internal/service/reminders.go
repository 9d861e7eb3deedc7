package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fairview/review-cycle-service/internal/domain"
	"github.com/fairview/review-cycle-service/internal/notify"
	"github.com/fairview/review-cycle-service/internal/repository"
	"github.com/fairview/review-cycle-service/internal/schedule"
)

// Notification-log milestone keys.
const (
	milestoneReminder = "reminder"
	milestoneStrict   = "strict"
	milestoneFinal    = "final"
)

// ReminderService sends the periodic, strict and final reminders for
// open ledger entries.
type ReminderService interface {
	// Run sends today's regular reminders.
	Run(ctx context.Context) error

	// RunStrict sends the escalated reminders on the strict-reminder day.
	RunStrict(ctx context.Context) error

	// RunFinal sends one last-call mail per reviewer with open entries.
	RunFinal(ctx context.Context) error
}

type ReminderServiceImpl struct {
	cycle  *Cycle
	ledger repository.LedgerQueryRepository
	sent   repository.NotificationLogRepository
	sender notify.Sender
	log    *slog.Logger
}

func NewReminderService(
	cycle *Cycle,
	ledger repository.LedgerQueryRepository,
	sent repository.NotificationLogRepository,
	sender notify.Sender,
	log *slog.Logger,
) *ReminderServiceImpl {
	return &ReminderServiceImpl{
		cycle:  cycle,
		ledger: ledger,
		sent:   sent,
		sender: sender,
		log:    log,
	}
}

func (s *ReminderServiceImpl) openEntries(ctx context.Context) ([]domain.NeededReview, error) {
	return s.ledger.FindNeededReviews(ctx, repository.NeededReviewFilter{
		Status: domain.StatusIncomplete,
	})
}

// reminderDue reports whether an open entry is due a reminder today:
// on the cycle reminder day, on the entry's creation-relative reminder
// day, or on the weekly cadence after it.
func (s *ReminderServiceImpl) reminderDue(entry domain.NeededReview) bool {
	today := s.cycle.Today

	if schedule.SameDay(today, s.cycle.Milestones.Reminder) {
		return true
	}

	// External contacts get the single cycle-day reminder only.
	if entry.Kind == domain.ReviewExternal {
		return false
	}

	offsets := s.cycle.Settings.ProjectEndOffsets
	entryReminder := schedule.AddWorkdays(entry.CreatedAt, offsets[1]+offsets[2])

	if schedule.SameDay(today, entryReminder) {
		return true
	}

	if today.After(entryReminder) {
		days := int(today.Sub(dateOnly(entryReminder)).Hours() / 24)
		return days%7 == 0
	}

	return false
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *ReminderServiceImpl) Run(ctx context.Context) error {
	const op = "internal.service.ReminderService.Run"

	entries, err := s.openEntries(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	due := make(map[string][]domain.NeededReview)

	for _, entry := range entries {
		if !s.reminderDue(entry) {
			continue
		}

		fresh, err := s.sent.RecordSent(ctx, entry.ID, milestoneReminder, s.cycle.Today)
		if err != nil {
			reportFailure(ctx, s.log, s.sender, s.cycle.Settings.AdminEmails, "reminders",
				fmt.Sprintf("record reminder for '%s'", entry.ID), err)
			continue
		}

		if !fresh {
			continue
		}

		due[entry.ReviewerEmail] = append(due[entry.ReviewerEmail], entry)
	}

	for email, group := range due {
		lines := notify.Lines(group, s.cycle.Settings.FormBaseURL)

		var msg notify.Message
		if group[0].Kind == domain.ReviewExternal {
			msg = notify.ExternalReviewRequested(email, group[0].ReviewerName, lines)
		} else {
			msg = notify.ReviewsReminder(email, group[0].ReviewerName, lines)
		}

		if err := s.sender.Send(ctx, msg); err != nil {
			reportFailure(ctx, s.log, s.sender, s.cycle.Settings.AdminEmails, "reminders",
				fmt.Sprintf("reminder mail to '%s'", group[0].ReviewerName), err)
		}
	}

	s.log.Info("reminders sent", slog.Int("reviewers", len(due)))

	return nil
}

func (s *ReminderServiceImpl) RunStrict(ctx context.Context) error {
	const op = "internal.service.ReminderService.RunStrict"

	if !schedule.SameDay(s.cycle.Today, s.cycle.Milestones.Strict) {
		s.log.Info("not the strict-reminder day, nothing to send")
		return nil
	}

	entries, err := s.openEntries(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	lastDay := schedule.AddWorkdays(s.cycle.Milestones.DropDead, -1)
	due := make(map[string][]domain.NeededReview)

	for _, entry := range entries {
		if entry.Kind == domain.ReviewExternal {
			continue
		}

		fresh, err := s.sent.RecordSent(ctx, entry.ID, milestoneStrict, s.cycle.Today)
		if err != nil {
			reportFailure(ctx, s.log, s.sender, s.cycle.Settings.AdminEmails, "strict-reminders",
				fmt.Sprintf("record strict reminder for '%s'", entry.ID), err)
			continue
		}

		if !fresh {
			continue
		}

		due[entry.ReviewerEmail] = append(due[entry.ReviewerEmail], entry)
	}

	for email, group := range due {
		msg := notify.StrictReminder(email, group[0].ReviewerName,
			s.cycle.Settings.StrictCC,
			notify.Lines(group, s.cycle.Settings.FormBaseURL), lastDay)

		if err := s.sender.Send(ctx, msg); err != nil {
			reportFailure(ctx, s.log, s.sender, s.cycle.Settings.AdminEmails, "strict-reminders",
				fmt.Sprintf("strict reminder mail to '%s'", group[0].ReviewerName), err)
		}
	}

	s.log.Info("strict reminders sent", slog.Int("reviewers", len(due)))

	return nil
}

func (s *ReminderServiceImpl) RunFinal(ctx context.Context) error {
	const op = "internal.service.ReminderService.RunFinal"

	cutoff, err := s.cycle.Settings.FinalRemindersCutoff()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	entries, err := s.ledger.FindNeededReviews(ctx, repository.NeededReviewFilter{
		Status:       domain.StatusIncomplete,
		ExcludeKinds: []domain.ReviewKind{domain.ReviewExternal},
		CreatedFrom:  &cutoff,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	due := make(map[string][]domain.NeededReview)

	for _, entry := range entries {
		fresh, err := s.sent.RecordSent(ctx, entry.ID, milestoneFinal, s.cycle.Today)
		if err != nil {
			reportFailure(ctx, s.log, s.sender, s.cycle.Settings.AdminEmails, "final-reminders",
				fmt.Sprintf("record final reminder for '%s'", entry.ID), err)
			continue
		}

		if !fresh {
			continue
		}

		due[entry.ReviewerEmail] = append(due[entry.ReviewerEmail], entry)
	}

	for email, group := range due {
		msg := notify.FinalReminder(email, group[0].ReviewerName,
			notify.Lines(group, s.cycle.Settings.FormBaseURL))

		if err := s.sender.Send(ctx, msg); err != nil {
			reportFailure(ctx, s.log, s.sender, s.cycle.Settings.AdminEmails, "final-reminders",
				fmt.Sprintf("final reminder mail to '%s'", group[0].ReviewerName), err)
		}
	}

	s.log.Info("final reminders sent", slog.Int("reviewers", len(due)))

	return nil
}
