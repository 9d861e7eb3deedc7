package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/fairview/review-cycle-service/internal/apperrors"
	"github.com/fairview/review-cycle-service/internal/domain"
)

type FolderRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewFolderRepository(db *sqlx.DB, log *slog.Logger) *FolderRepository {
	return &FolderRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *FolderRepository) GetFolder(ctx context.Context, employeeID string) (*domain.FolderMapping, error) {
	const op = "internal.repository.postgres.GetFolder"

	query, args, err := r.sq.Select("employee_id", "employee_name", "folder_id").
		From("employee_folders").
		Where(sq.Eq{"employee_id": employeeID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var m domain.FolderMapping
	if err := r.db.GetContext(ctx, &m, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: folder for employee '%s'", op, apperrors.ErrNotFound, employeeID)
		}

		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return &m, nil
}

func (r *FolderRepository) SaveFolder(ctx context.Context, m *domain.FolderMapping) error {
	const op = "internal.repository.postgres.SaveFolder"

	query, args, err := r.sq.Insert("employee_folders").
		Columns("employee_id", "employee_name", "folder_id").
		Values(m.EmployeeID, m.EmployeeName, m.FolderID).
		Suffix("ON CONFLICT (employee_id) DO UPDATE SET folder_id = EXCLUDED.folder_id").
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	return nil
}
