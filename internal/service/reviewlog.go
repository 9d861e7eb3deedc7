package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fairview/review-cycle-service/internal/drive"
	"github.com/fairview/review-cycle-service/internal/repository"
	"github.com/fairview/review-cycle-service/internal/sheet"
)

// ReviewLogService regenerates the ledger overview workbook in the
// document store.
type ReviewLogService interface {
	Refresh(ctx context.Context) error
}

type ReviewLogServiceImpl struct {
	cycle  *Cycle
	ledger repository.LedgerQueryRepository
	store  drive.Store
	log    *slog.Logger
}

func NewReviewLogService(
	cycle *Cycle,
	ledger repository.LedgerQueryRepository,
	store drive.Store,
	log *slog.Logger,
) *ReviewLogServiceImpl {
	return &ReviewLogServiceImpl{
		cycle:  cycle,
		ledger: ledger,
		store:  store,
		log:    log,
	}
}

func (s *ReviewLogServiceImpl) Refresh(ctx context.Context) error {
	const op = "internal.service.ReviewLogService.Refresh"

	entries, err := s.ledger.FindNeededReviews(ctx, repository.NeededReviewFilter{})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	workbook, err := sheet.ReviewLog(entries)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.store.UploadFile(ctx, s.cycle.Settings.EmployeesFolderID,
		"review log.xlsx", workbook,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("review log refreshed", slog.Int("entries", len(entries)))

	return nil
}
