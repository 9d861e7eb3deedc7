package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fairview/review-cycle-service/internal/apperrors"
	"github.com/fairview/review-cycle-service/internal/domain"
	"github.com/fairview/review-cycle-service/internal/repository"
)

// statsWindowDays is how far back process statistics look.
const statsWindowDays = 180

// ProcessStats is the per-kind completion report plus totals.
type ProcessStats struct {
	ByKind          map[domain.ReviewKind]domain.ProcessStat `json:"by_kind"`
	TotalIncomplete int                                      `json:"total_incomplete"`
	TotalCompleted  int                                      `json:"total_completed"`
}

// QueryService serves the read endpoints over the ledger and the roster.
type QueryService interface {
	// OpenReviews returns a reviewer's incomplete entries.
	OpenReviews(ctx context.Context, reviewerID string) ([]domain.NeededReview, error)

	// ReviewByID returns one open ledger entry.
	// Returns apperrors.ErrReviewResolved when it is completed or expired.
	ReviewByID(ctx context.Context, id string) (*domain.NeededReview, error)

	// CompletedReviews returns a reviewer's completed entries, optionally
	// narrowed to a created-at range.
	CompletedReviews(ctx context.Context, reviewerID string, from, to *time.Time) ([]domain.NeededReview, error)

	// Submission returns the stored answer set for a completed entry.
	Submission(ctx context.Context, neededReviewID string) (*domain.SubmittedReview, error)

	// FormFields returns the form definition for a review kind.
	FormFields(ctx context.Context, kind domain.ReviewKind) ([]domain.FormField, error)

	// Stats reports completion counts per kind over the last six months.
	Stats(ctx context.Context) (*ProcessStats, error)
}

type QueryServiceImpl struct {
	ledger      repository.LedgerQueryRepository
	roster      repository.RosterQueryRepository
	submissions repository.SubmissionRepository
	today       time.Time
}

func NewQueryService(
	ledger repository.LedgerQueryRepository,
	roster repository.RosterQueryRepository,
	submissions repository.SubmissionRepository,
	today time.Time,
) *QueryServiceImpl {
	return &QueryServiceImpl{
		ledger:      ledger,
		roster:      roster,
		submissions: submissions,
		today:       today,
	}
}

func (s *QueryServiceImpl) OpenReviews(ctx context.Context, reviewerID string) ([]domain.NeededReview, error) {
	const op = "internal.service.QueryService.OpenReviews"

	reviews, err := s.ledger.FindNeededReviews(ctx, repository.NeededReviewFilter{
		ReviewerID: reviewerID,
		Status:     domain.StatusIncomplete,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return reviews, nil
}

func (s *QueryServiceImpl) ReviewByID(ctx context.Context, id string) (*domain.NeededReview, error) {
	const op = "internal.service.QueryService.ReviewByID"

	review, err := s.ledger.GetNeededReviewByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if review.Status != domain.StatusIncomplete {
		return nil, fmt.Errorf("%s: %w: needed review '%s' is %s",
			op, apperrors.ErrReviewResolved, id, review.Status)
	}

	return review, nil
}

func (s *QueryServiceImpl) CompletedReviews(ctx context.Context, reviewerID string, from, to *time.Time) ([]domain.NeededReview, error) {
	const op = "internal.service.QueryService.CompletedReviews"

	reviews, err := s.ledger.FindNeededReviews(ctx, repository.NeededReviewFilter{
		ReviewerID:  reviewerID,
		Status:      domain.StatusCompleted,
		CreatedFrom: from,
		CreatedTo:   to,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return reviews, nil
}

func (s *QueryServiceImpl) Submission(ctx context.Context, neededReviewID string) (*domain.SubmittedReview, error) {
	const op = "internal.service.QueryService.Submission"

	sr, err := s.submissions.GetSubmissionByNeededReviewID(ctx, neededReviewID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return sr, nil
}

func (s *QueryServiceImpl) FormFields(ctx context.Context, kind domain.ReviewKind) ([]domain.FormField, error) {
	const op = "internal.service.QueryService.FormFields"

	fields, err := s.roster.GetFormFields(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return fields, nil
}

func (s *QueryServiceImpl) Stats(ctx context.Context) (*ProcessStats, error) {
	const op = "internal.service.QueryService.Stats"

	since := s.today.AddDate(0, 0, -statsWindowDays)

	byKind, err := s.ledger.GetProcessStats(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	stats := &ProcessStats{ByKind: byKind}

	for _, st := range byKind {
		stats.TotalIncomplete += st.Incomplete
		stats.TotalCompleted += st.Completed
	}

	return stats, nil
}
