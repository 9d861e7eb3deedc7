// Package service implements the business logic of the review cycle:
// generating needed reviews, sending notifications, closing the cycle
// and handling submissions.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fairview/review-cycle-service/internal/config"
	"github.com/fairview/review-cycle-service/internal/domain"
	"github.com/fairview/review-cycle-service/internal/notify"
	"github.com/fairview/review-cycle-service/internal/schedule"
	"github.com/fairview/review-cycle-service/pkg/logger/sl"
)

type Transactor interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type BaseService struct {
	db  Transactor
	log *slog.Logger
}

func NewBaseService(db Transactor, log *slog.Logger) BaseService {
	return BaseService{
		db:  db,
		log: log,
	}
}

func (s *BaseService) transaction(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			s.log.Error("failed to rollback transaction", sl.Err(err))
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return nil
}

// Cycle bundles the resolved run date with the milestone chains and the
// business settings every job needs. It is computed once per run.
type Cycle struct {
	Today      time.Time
	Anchor     time.Time
	Milestones schedule.CycleMilestones
	Flavor     domain.Flavor
	Settings   config.Cycle
}

// NewCycle resolves today's cycle context from the configuration.
func NewCycle(cfg config.Cycle) (*Cycle, error) {
	today, err := cfg.RunDate()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve run date: %w", err)
	}

	anchor := schedule.CycleAnchor(today)

	return &Cycle{
		Today:      today,
		Anchor:     anchor,
		Milestones: schedule.ResolveCycle(anchor, cfg.CycleOffsets),
		Flavor:     schedule.FlavorFor(today, domain.Flavor(cfg.ManualFlavor)),
		Settings:   cfg,
	}, nil
}

// PeriodLabel names the half-year under review.
func (c *Cycle) PeriodLabel() string {
	return schedule.PeriodLabel(c.Anchor)
}

// IsKickoffDay reports whether today is the cycle first-email day.
func (c *Cycle) IsKickoffDay() bool {
	return schedule.SameDay(c.Today, c.Milestones.FirstEmail)
}

// reportFailure emails a per-row failure to the admins and logs it. Row
// failures never abort a run.
func reportFailure(ctx context.Context, log *slog.Logger, sender notify.Sender, admins []string, job, context_ string, err error) {
	log.Error("row processing failed",
		slog.String("job", job), slog.String("context", context_), sl.Err(err))

	if len(admins) == 0 {
		return
	}

	if sendErr := sender.Send(ctx, notify.AdminFailureReport(admins, job, context_, err)); sendErr != nil {
		log.Error("failed to send failure report", sl.Err(sendErr))
	}
}
