package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/fairview/review-cycle-service/internal/config"
	"github.com/fairview/review-cycle-service/internal/drive/s3"
	"github.com/fairview/review-cycle-service/internal/repository/postgres"
	"github.com/fairview/review-cycle-service/internal/service"
	myhttp "github.com/fairview/review-cycle-service/internal/transport/http"
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
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	log := slogpretty.SetupLogger(cfg.Env)

	log.Info("starting review-cycle-service", slog.String("env", cfg.Env))

	errChan := make(chan error, 1)

	db, err := postgres.NewDB(cfg.Postgres, log)
	if err != nil {
		return fmt.Errorf("failed to init db: %v", err)
	}
	defer func() {
		err = db.DB().Close()
		if err != nil {
			errChan <- fmt.Errorf("db close failed: %v", err)
		}
	}()

	cycle, err := service.NewCycle(cfg.Cycle)
	if err != nil {
		return fmt.Errorf("failed to resolve cycle: %v", err)
	}

	store, err := s3.NewStore(cfg.Storage, cfg.Cycle.SchedulerEmail, log)
	if err != nil {
		return fmt.Errorf("failed to init document store: %v", err)
	}

	roster := postgres.NewRosterRepository(db.DB(), log)
	ledger := postgres.NewLedgerRepository(db.DB(), log)
	submissions := postgres.NewSubmissionRepository(db.DB(), log)
	audit := postgres.NewAuditRepository(db.DB(), log)

	base := service.NewBaseService(db.DB(), log)

	submissionService := service.NewSubmissionService(base, ledger, ledger, submissions,
		audit, store, cfg.Cycle.BackupFolderID, cycle.Today, log)
	queryService := service.NewQueryService(ledger, roster, submissions, cycle.Today)
	endDateService := service.NewEndDateService(roster, roster, audit, cycle.Today, log)

	srv := myhttp.NewServer(log, submissionService, queryService, endDateService)
	httpServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler: srv.Routes(),
	}

	go startServer(log, httpServer, errChan)

	select {
	case err := <-errChan:
		return fmt.Errorf("http server error: %v", err)

	case <-ctx.Done():
		log.Info("stopping server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shuting down http server: %v", err)
	}

	return nil
}

func startServer(log *slog.Logger, httpServer *http.Server, errChan chan error) {
	defer close(errChan)

	log.Info("service started", slog.String("addr", httpServer.Addr))

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		errChan <- fmt.Errorf("error listening and serving: %v", err)
	}
}
