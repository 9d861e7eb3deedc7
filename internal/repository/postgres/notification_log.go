package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

type NotificationLogRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewNotificationLogRepository(db *sqlx.DB, log *slog.Logger) *NotificationLogRepository {
	return &NotificationLogRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// RecordSent inserts a send record for (entry, milestone, day). The
// primary key makes re-sends a no-op: false means the record was already
// there and the caller must not dispatch again.
func (r *NotificationLogRepository) RecordSent(ctx context.Context, neededReviewID, milestone string, sentOn time.Time) (bool, error) {
	const op = "internal.repository.postgres.RecordSent"

	query, args, err := r.sq.Insert("notification_log").
		Columns("needed_review_id", "milestone", "sent_on").
		Values(neededReviewID, milestone, sentOn).
		Suffix("ON CONFLICT DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: failed to count affected rows: %w", op, err)
	}

	return rowsAffected > 0, nil
}
