// Command jobs runs one named batch job of the review cycle and exits.
// An external scheduler (cron) invokes it with the job name as the only
// argument, e.g. `jobs daily`.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/fairview/review-cycle-service/internal/calendar"
	"github.com/fairview/review-cycle-service/internal/config"
	"github.com/fairview/review-cycle-service/internal/drive/s3"
	"github.com/fairview/review-cycle-service/internal/jobs"
	"github.com/fairview/review-cycle-service/internal/kms"
	"github.com/fairview/review-cycle-service/internal/notify"
	"github.com/fairview/review-cycle-service/internal/repository/postgres"
	"github.com/fairview/review-cycle-service/internal/service"
	"github.com/fairview/review-cycle-service/pkg/logger/slogpretty"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if len(os.Args) != 2 {
		return fmt.Errorf("usage: %s <job-name>", os.Args[0])
	}
	jobName := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	log := slogpretty.SetupLogger(cfg.Env)

	log.Info("starting review-cycle job runner",
		slog.String("env", cfg.Env), slog.String("job", jobName))

	db, err := postgres.NewDB(cfg.Postgres, log)
	if err != nil {
		return fmt.Errorf("failed to init db: %v", err)
	}
	defer db.DB().Close()

	cycle, err := service.NewCycle(cfg.Cycle)
	if err != nil {
		return fmt.Errorf("failed to resolve cycle: %v", err)
	}

	store, err := s3.NewStore(cfg.Storage, cfg.Cycle.SchedulerEmail, log)
	if err != nil {
		return fmt.Errorf("failed to init document store: %v", err)
	}

	if err := store.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("failed to ensure storage bucket: %v", err)
	}

	roster := postgres.NewRosterRepository(db.DB(), log)
	ledger := postgres.NewLedgerRepository(db.DB(), log)
	submissions := postgres.NewSubmissionRepository(db.DB(), log)
	folders := postgres.NewFolderRepository(db.DB(), log)
	notifications := postgres.NewNotificationLogRepository(db.DB(), log)

	mailer := notify.NewMailer(cfg.SMTP)
	inviter := calendar.NewMailInviter(mailer)
	kmsClient := kms.NewHTTPClient(cfg.KMS)

	generation := service.NewGenerationService(cycle, roster, roster, ledger, mailer, log)
	reminders := service.NewReminderService(cycle, ledger, notifications, mailer, log)
	finalizer := service.NewFinalizerService(cycle, roster, ledger, ledger, submissions,
		folders, store, kmsClient, inviter, mailer, log)
	partners := service.NewPartnerReminderService(cycle, roster, mailer, log)
	reviewLog := service.NewReviewLogService(cycle, ledger, store, log)

	runner := jobs.NewRunner(cycle, generation, reminders, finalizer, partners, reviewLog, mailer, log)

	return runner.Run(ctx, jobName)
}
