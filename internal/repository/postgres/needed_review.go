package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/fairview/review-cycle-service/internal/apperrors"
	"github.com/fairview/review-cycle-service/internal/domain"
	"github.com/fairview/review-cycle-service/internal/repository"
)

type LedgerRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewLedgerRepository(db *sqlx.DB, log *slog.Logger) *LedgerRepository {
	return &LedgerRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

var neededReviewColumns = []string{
	"id", "kind",
	"reviewer_id", "reviewer_name", "reviewer_email",
	"employee_id", "employee_name", "employee_email",
	"project_id", "project_name", "reviewer_project_role",
	"due_date", "description", "status", "cycle_start", "created_at",
}

func (r *LedgerRepository) CreateNeededReview(ctx context.Context, nr *domain.NeededReview) error {
	const op = "internal.repository.postgres.CreateNeededReview"

	query, args, err := r.sq.Insert("needed_reviews").
		Columns(neededReviewColumns...).
		Values(
			nr.ID, nr.Kind,
			nr.ReviewerID, nr.ReviewerName, nr.ReviewerEmail,
			nr.EmployeeID, nr.EmployeeName, nr.EmployeeEmail,
			nr.ProjectID, nr.ProjectName, nr.ReviewerProjectRole,
			nr.DueDate, nr.Description, nr.Status, nr.CycleStart, nr.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return &apperrors.DuplicateReviewError{
				ReviewerName: nr.ReviewerName,
				EmployeeName: nr.EmployeeName,
				ProjectName:  nr.ProjectName,
			}
		}

		return fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	return nil
}

func (r *LedgerRepository) GetNeededReviewByID(ctx context.Context, id string) (*domain.NeededReview, error) {
	const op = "internal.repository.postgres.GetNeededReviewByID"

	query, args, err := r.sq.Select(neededReviewColumns...).
		From("needed_reviews").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var nr domain.NeededReview
	if err := r.db.GetContext(ctx, &nr, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: needed review with id '%s'", op, apperrors.ErrNotFound, id)
		}

		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return &nr, nil
}

func (r *LedgerRepository) FindNeededReviews(ctx context.Context, filter repository.NeededReviewFilter) ([]domain.NeededReview, error) {
	const op = "internal.repository.postgres.FindNeededReviews"

	queryBuilder := r.sq.Select(neededReviewColumns...).
		From("needed_reviews").
		OrderBy("created_at DESC")

	if filter.ReviewerID != "" {
		queryBuilder = queryBuilder.Where(sq.Eq{"reviewer_id": filter.ReviewerID})
	}

	if filter.EmployeeID != "" {
		queryBuilder = queryBuilder.Where(sq.Eq{"employee_id": filter.EmployeeID})
	}

	if filter.Status != "" {
		queryBuilder = queryBuilder.Where(sq.Eq{"status": filter.Status})
	}

	if filter.Kind != "" {
		queryBuilder = queryBuilder.Where(sq.Eq{"kind": filter.Kind})
	}

	if len(filter.ExcludeKinds) > 0 {
		queryBuilder = queryBuilder.Where(sq.NotEq{"kind": filter.ExcludeKinds})
	}

	if filter.CreatedFrom != nil {
		queryBuilder = queryBuilder.Where(sq.GtOrEq{"created_at": *filter.CreatedFrom})
	}

	if filter.CreatedTo != nil {
		queryBuilder = queryBuilder.Where(sq.LtOrEq{"created_at": *filter.CreatedTo})
	}

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var reviews []domain.NeededReview
	if err := r.db.SelectContext(ctx, &reviews, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return reviews, nil
}

func (r *LedgerRepository) CompleteNeededReview(ctx context.Context, tx *sqlx.Tx, id string) error {
	const op = "internal.repository.postgres.CompleteNeededReview"

	query, args, err := r.sq.Update("needed_reviews").
		Set("status", domain.StatusCompleted).
		Where(sq.Eq{"id": id, "status": domain.StatusIncomplete}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: failed to execute update: %w", op, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get rows affected: %w", op, err)
	}

	if rowsAffected > 0 {
		return nil
	}

	// Nothing matched: distinguish missing from already resolved.
	existsQuery, existsArgs, err := r.sq.Select("status").
		From("needed_reviews").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build status query: %w", op, err)
	}

	var status domain.ReviewStatus
	if err := tx.GetContext(ctx, &status, existsQuery, existsArgs...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s: %w: needed review with id '%s'", op, apperrors.ErrNotFound, id)
		}

		return fmt.Errorf("%s: failed to execute status query: %w", op, err)
	}

	return fmt.Errorf("%s: %w: needed review '%s' is %s", op, apperrors.ErrReviewResolved, id, status)
}

func (r *LedgerRepository) ExpireAllUnfinished(ctx context.Context) (int64, error) {
	const op = "internal.repository.postgres.ExpireAllUnfinished"

	query, args, err := r.sq.Update("needed_reviews").
		Set("status", domain.StatusExpired).
		Where(sq.Eq{"status": domain.StatusIncomplete}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to execute update: %w", op, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to count affected rows: %w", op, err)
	}

	return rowsAffected, nil
}

func (r *LedgerRepository) GetProcessStats(ctx context.Context, since time.Time) (map[domain.ReviewKind]domain.ProcessStat, error) {
	const op = "internal.repository.postgres.GetProcessStats"

	query, args, err := r.sq.Select(
		"kind",
		"COUNT(CASE WHEN status = 'incomplete' THEN 1 END) as incomplete",
		"COUNT(CASE WHEN status = 'completed' THEN 1 END) as completed",
	).
		From("needed_reviews").
		Where(sq.GtOrEq{"created_at": since}).
		GroupBy("kind").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	rows := []struct {
		Kind       domain.ReviewKind `db:"kind"`
		Incomplete int               `db:"incomplete"`
		Completed  int               `db:"completed"`
	}{}

	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	stats := make(map[domain.ReviewKind]domain.ProcessStat, len(rows))
	for _, row := range rows {
		stats[row.Kind] = domain.ProcessStat{
			Incomplete: row.Incomplete,
			Completed:  row.Completed,
		}
	}

	return stats, nil
}
