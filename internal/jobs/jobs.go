// Package jobs names and runs the batch jobs of the review cycle. Each
// job is invoked by an external scheduler through cmd/jobs.
package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fairview/review-cycle-service/internal/apperrors"
	"github.com/fairview/review-cycle-service/internal/notify"
	"github.com/fairview/review-cycle-service/internal/schedule"
	"github.com/fairview/review-cycle-service/internal/service"
	"github.com/fairview/review-cycle-service/pkg/logger/sl"
)

// Job names accepted by Run.
const (
	JobDaily            = "daily"
	JobGenerate         = "generate"
	JobReminders        = "reminders"
	JobStrictReminders  = "strict-reminders"
	JobFinalReminders   = "final-reminders"
	JobDropDead         = "drop-dead"
	JobPartnerReminders = "partner-reminders"
	JobReviewLog        = "review-log"
	JobAccessOff        = "access-off"
)

// Runner dispatches named jobs to the services.
type Runner struct {
	cycle     *service.Cycle
	generate  service.GenerationService
	reminders service.ReminderService
	finalizer service.FinalizerService
	partners  service.PartnerReminderService
	reviewLog service.ReviewLogService
	sender    notify.Sender
	log       *slog.Logger
}

func NewRunner(
	cycle *service.Cycle,
	generate service.GenerationService,
	reminders service.ReminderService,
	finalizer service.FinalizerService,
	partners service.PartnerReminderService,
	reviewLog service.ReviewLogService,
	sender notify.Sender,
	log *slog.Logger,
) *Runner {
	return &Runner{
		cycle:     cycle,
		generate:  generate,
		reminders: reminders,
		finalizer: finalizer,
		partners:  partners,
		reviewLog: reviewLog,
		sender:    sender,
		log:       log,
	}
}

// Run executes one named job. Returns apperrors.ErrUnknownJob for an
// unrecognized name.
func (r *Runner) Run(ctx context.Context, name string) error {
	const op = "internal.jobs.Run"

	r.log.Info("job starting", slog.String("job", name),
		slog.Time("run_date", r.cycle.Today))

	var err error

	switch name {
	case JobDaily:
		err = r.runDaily(ctx)
	case JobGenerate:
		err = r.generate.Run(ctx)
	case JobReminders:
		err = r.reminders.Run(ctx)
	case JobStrictReminders:
		err = r.reminders.RunStrict(ctx)
	case JobFinalReminders:
		err = r.reminders.RunFinal(ctx)
	case JobDropDead:
		err = r.finalizer.Run(ctx, true)
	case JobPartnerReminders:
		err = r.partners.Run(ctx, true)
	case JobReviewLog:
		err = r.reviewLog.Refresh(ctx)
	case JobAccessOff:
		err = r.finalizer.RunAccessOff(ctx, true)
	default:
		return fmt.Errorf("%s: %w: '%s'", op, apperrors.ErrUnknownJob, name)
	}

	if err != nil {
		return fmt.Errorf("%s: job '%s': %w", op, name, err)
	}

	r.log.Info("job finished", slog.String("job", name))

	return nil
}

// runDaily is the cron entrypoint: it chains the day's work and lets the
// date checks inside each service decide what actually fires.
func (r *Runner) runDaily(ctx context.Context) error {
	admins := r.cycle.Settings.AdminEmails

	if len(admins) > 0 {
		if err := r.sender.Send(ctx, notify.JobNotice(admins, JobDaily, "started", r.cycle.Today)); err != nil {
			r.log.Error("failed to send start notice", sl.Err(err))
		}
	}

	if err := r.generate.Run(ctx); err != nil {
		return err
	}

	if err := r.reminders.Run(ctx); err != nil {
		return err
	}

	if err := r.reminders.RunStrict(ctx); err != nil {
		return err
	}

	if schedule.SameDay(r.cycle.Today, r.cycle.Milestones.DropDead) {
		if err := r.finalizer.Run(ctx, false); err != nil {
			return err
		}
	}

	if schedule.SameDay(r.cycle.Today, r.cycle.Milestones.AccessOff) {
		if err := r.finalizer.RunAccessOff(ctx, false); err != nil {
			return err
		}
	}

	if err := r.partners.Run(ctx, false); err != nil {
		return err
	}

	if len(admins) > 0 {
		if err := r.sender.Send(ctx, notify.JobNotice(admins, JobDaily, "completed", r.cycle.Today)); err != nil {
			r.log.Error("failed to send completion notice", sl.Err(err))
		}
	}

	return nil
}
