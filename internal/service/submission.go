package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fairview/review-cycle-service/internal/apperrors"
	"github.com/fairview/review-cycle-service/internal/domain"
	"github.com/fairview/review-cycle-service/internal/drive"
	"github.com/fairview/review-cycle-service/internal/repository"
	"github.com/fairview/review-cycle-service/pkg/logger/sl"
)

// SubmissionService handles completed review forms, exactly once per
// ledger entry.
type SubmissionService interface {
	// Submit stores a review form for a needed review and completes the
	// ledger entry. Returns apperrors.ErrNotFound for an unknown id,
	// apperrors.ErrReviewResolved when the entry is completed or expired
	// and apperrors.ErrAlreadyExists on a concurrent double submit.
	Submit(ctx context.Context, neededReviewID string, form map[string]string) (*domain.SubmittedReview, error)
}

type SubmissionServiceImpl struct {
	BaseService
	ledger      repository.LedgerQueryRepository
	ledgerCmd   repository.LedgerCommandRepository
	submissions repository.SubmissionRepository
	audit       repository.AuditRepository
	store       drive.Store
	backupDir   string
	today       time.Time
	log         *slog.Logger
}

func NewSubmissionService(
	base BaseService,
	ledger repository.LedgerQueryRepository,
	ledgerCmd repository.LedgerCommandRepository,
	submissions repository.SubmissionRepository,
	audit repository.AuditRepository,
	store drive.Store,
	backupDir string,
	today time.Time,
	log *slog.Logger,
) *SubmissionServiceImpl {
	return &SubmissionServiceImpl{
		BaseService: base,
		ledger:      ledger,
		ledgerCmd:   ledgerCmd,
		submissions: submissions,
		audit:       audit,
		store:       store,
		backupDir:   backupDir,
		today:       today,
		log:         log,
	}
}

func (s *SubmissionServiceImpl) Submit(ctx context.Context, neededReviewID string, form map[string]string) (*domain.SubmittedReview, error) {
	const op = "internal.service.SubmissionService.Submit"

	entry, err := s.ledger.GetNeededReviewByID(ctx, neededReviewID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if entry.Status != domain.StatusIncomplete {
		return nil, fmt.Errorf("%s: %w: needed review '%s' is %s",
			op, apperrors.ErrReviewResolved, neededReviewID, entry.Status)
	}

	sr := &domain.SubmittedReview{
		ID:                  uuid.NewString(),
		NeededReviewID:      entry.ID,
		Kind:                entry.Kind,
		Form:                form,
		ReviewerID:          entry.ReviewerID,
		ReviewerName:        entry.ReviewerName,
		ReviewerEmail:       entry.ReviewerEmail,
		EmployeeID:          entry.EmployeeID,
		EmployeeName:        entry.EmployeeName,
		EmployeeEmail:       entry.EmployeeEmail,
		ProjectID:           entry.ProjectID,
		ProjectName:         entry.ProjectName,
		ReviewerProjectRole: entry.ReviewerProjectRole,
		SubmittedAt:         time.Now().UTC(),
	}

	err = s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		if err := s.submissions.CreateSubmission(ctx, tx, sr); err != nil {
			return err
		}

		return s.ledgerCmd.CompleteNeededReview(ctx, tx, entry.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.audit.Append(ctx, &domain.AuditEntry{
		LoggedOn: s.today,
		Actor:    entry.ReviewerName,
		Subject:  entry.EmployeeName,
		Project:  entry.ProjectName,
		Action:   "Review Submitted",
		Detail:   entry.Description,
	}); err != nil {
		s.log.Error("failed to append audit entry", sl.Err(err))
	}

	go s.backup(sr)

	return sr, nil
}

// backup uploads a raw JSON copy of the submission. Best effort: the
// submission is already durable in the database.
func (s *SubmissionServiceImpl) backup(sr *domain.SubmittedReview) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	data, err := json.MarshalIndent(sr, "", "  ")
	if err != nil {
		s.log.Error("failed to encode submission backup", sl.Err(err))
		return
	}

	name := fmt.Sprintf("%s.json", sr.ID)
	if _, err := s.store.UploadFile(ctx, s.backupDir, name, data, "application/json"); err != nil {
		s.log.Error("failed to upload submission backup",
			slog.String("submission", sr.ID), sl.Err(err))
	}
}
