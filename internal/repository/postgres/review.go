package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/fairview/review-cycle-service/internal/apperrors"
	"github.com/fairview/review-cycle-service/internal/domain"
)

type SubmissionRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewSubmissionRepository(db *sqlx.DB, log *slog.Logger) *SubmissionRepository {
	return &SubmissionRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

var submissionColumns = []string{
	"id", "needed_review_id", "kind", "form",
	"reviewer_id", "reviewer_name", "reviewer_email",
	"employee_id", "employee_name", "employee_email",
	"project_id", "project_name", "reviewer_project_role", "submitted_at",
}

// submissionRow mirrors SubmittedReview with the form as raw JSONB.
type submissionRow struct {
	domain.SubmittedReview
	FormRaw []byte `db:"form"`
}

func (row *submissionRow) toDomain() (*domain.SubmittedReview, error) {
	sr := row.SubmittedReview
	if len(row.FormRaw) > 0 {
		if err := json.Unmarshal(row.FormRaw, &sr.Form); err != nil {
			return nil, fmt.Errorf("failed to decode form: %w", err)
		}
	}

	return &sr, nil
}

func (r *SubmissionRepository) CreateSubmission(ctx context.Context, tx *sqlx.Tx, sr *domain.SubmittedReview) error {
	const op = "internal.repository.postgres.CreateSubmission"

	form, err := json.Marshal(sr.Form)
	if err != nil {
		return fmt.Errorf("%s: failed to encode form: %w", op, err)
	}

	query, args, err := r.sq.Insert("reviews").
		Columns(submissionColumns...).
		Values(
			sr.ID, sr.NeededReviewID, sr.Kind, form,
			sr.ReviewerID, sr.ReviewerName, sr.ReviewerEmail,
			sr.EmployeeID, sr.EmployeeName, sr.EmployeeEmail,
			sr.ProjectID, sr.ProjectName, sr.ReviewerProjectRole, sr.SubmittedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" {
				return &apperrors.SubmissionExistsError{NeededReviewID: sr.NeededReviewID}
			}

			if pqErr.Code == "23503" {
				return fmt.Errorf("%s: %w: needed review with id '%s'", op, apperrors.ErrNotFound, sr.NeededReviewID)
			}
		}

		return fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	return nil
}

func (r *SubmissionRepository) GetSubmissionByNeededReviewID(ctx context.Context, neededReviewID string) (*domain.SubmittedReview, error) {
	const op = "internal.repository.postgres.GetSubmissionByNeededReviewID"

	query, args, err := r.sq.Select(submissionColumns...).
		From("reviews").
		Where(sq.Eq{"needed_review_id": neededReviewID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var row submissionRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: submission for needed review '%s'", op, apperrors.ErrNotFound, neededReviewID)
		}

		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	sr, err := row.toDomain()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return sr, nil
}

func (r *SubmissionRepository) GetSubmissionsOfEmployee(ctx context.Context, employeeID string, kind domain.ReviewKind, since time.Time) ([]domain.SubmittedReview, error) {
	const op = "internal.repository.postgres.GetSubmissionsOfEmployee"

	queryBuilder := r.sq.Select(submissionColumns...).
		From("reviews").
		Where(sq.Eq{"employee_id": employeeID}).
		Where(sq.GtOrEq{"submitted_at": since}).
		OrderBy("submitted_at")

	if kind != "" {
		queryBuilder = queryBuilder.Where(sq.Eq{"kind": kind})
	}

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var rows []submissionRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	submissions := make([]domain.SubmittedReview, 0, len(rows))

	for i := range rows {
		sr, err := rows[i].toDomain()
		if err != nil {
			r.log.Error("skipping undecodable submission",
				slog.String("op", op), slog.String("id", rows[i].ID))
			continue
		}

		submissions = append(submissions, *sr)
	}

	return submissions, nil
}
