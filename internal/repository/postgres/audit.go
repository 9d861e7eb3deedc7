package postgres

import (
	"context"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/fairview/review-cycle-service/internal/domain"
)

type AuditRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewAuditRepository(db *sqlx.DB, log *slog.Logger) *AuditRepository {
	return &AuditRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *AuditRepository) Append(ctx context.Context, e *domain.AuditEntry) error {
	const op = "internal.repository.postgres.Append"

	query, args, err := r.sq.Insert("audit_log").
		Columns("logged_on", "actor", "subject", "project", "action", "detail").
		Values(e.LoggedOn, e.Actor, e.Subject, e.Project, e.Action, e.Detail).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	return nil
}
