// package repository defines the interfaces for the data persistence layer.
// These interfaces abstract the underlying database implementation from the service layer.
package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fairview/review-cycle-service/internal/domain"
)

// NeededReviewFilter narrows ledger queries. Zero-valued fields are not
// applied.
type NeededReviewFilter struct {
	ReviewerID   string
	EmployeeID   string
	Status       domain.ReviewStatus
	Kind         domain.ReviewKind
	ExcludeKinds []domain.ReviewKind
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
}

// RosterQueryRepository reads the roster tables mirrored from the
// staffing sheet. Snapshot loads return every row; unparseable rows are
// skipped at scan time.
type RosterQueryRepository interface {
	// GetEmployees returns all roster employees.
	GetEmployees(ctx context.Context) ([]domain.Employee, error)

	// GetEmployeeByID returns one employee.
	// Returns apperrors.ErrNotFound when the id is unknown.
	GetEmployeeByID(ctx context.Context, id string) (*domain.Employee, error)

	// GetAssignments returns all project assignments.
	GetAssignments(ctx context.Context) ([]domain.Assignment, error)

	// GetAssignment returns the assignment of an employee on a project.
	// Returns apperrors.ErrNotFound when there is none.
	GetAssignment(ctx context.Context, employeeName, projectName string) (*domain.Assignment, error)

	// GetProjects returns all projects.
	GetProjects(ctx context.Context) ([]domain.Project, error)

	// GetProjectByID returns one project.
	// Returns apperrors.ErrNotFound when the id is unknown.
	GetProjectByID(ctx context.Context, id string) (*domain.Project, error)

	// GetClientContacts returns all client contacts.
	GetClientContacts(ctx context.Context) ([]domain.ClientContact, error)

	// GetTrainingRecords returns the training records of one employee.
	GetTrainingRecords(ctx context.Context, employeeName string) ([]domain.TrainingRecord, error)

	// GetFormFields returns the review-form field definitions for a kind,
	// ordered by position.
	GetFormFields(ctx context.Context, kind domain.ReviewKind) ([]domain.FormField, error)
}

// RosterCommandRepository holds the narrow writes back to the roster.
type RosterCommandRepository interface {
	// MarkApprovalRequested flags an assignment as having a pending
	// partner end-date approval request.
	MarkApprovalRequested(ctx context.Context, employeeName, projectName string) error

	// MarkRollOffNotified flags an assignment so its end is not processed
	// again.
	MarkRollOffNotified(ctx context.Context, employeeName, projectName string) error

	// UpdateEndDate sets a new assignment end date and clears the partner
	// approval flags.
	// Returns apperrors.ErrNotFound when the assignment does not exist.
	UpdateEndDate(ctx context.Context, employeeName, projectName string, endDate time.Time) error

	// ApproveEndDate marks the current end date as partner approved.
	// Returns apperrors.ErrNotFound when the assignment does not exist.
	ApproveEndDate(ctx context.Context, employeeName, projectName string) error
}

// LedgerQueryRepository reads the needed-review ledger.
type LedgerQueryRepository interface {
	// GetNeededReviewByID returns one ledger entry.
	// Returns apperrors.ErrNotFound when the id is unknown.
	GetNeededReviewByID(ctx context.Context, id string) (*domain.NeededReview, error)

	// FindNeededReviews returns the entries matching the filter, newest
	// first.
	FindNeededReviews(ctx context.Context, filter NeededReviewFilter) ([]domain.NeededReview, error)

	// GetProcessStats returns completed/incomplete counts per kind for
	// entries created since the given date.
	GetProcessStats(ctx context.Context, since time.Time) (map[domain.ReviewKind]domain.ProcessStat, error)
}

// LedgerCommandRepository writes the needed-review ledger. The ledger is
// append-and-update only; entries are never deleted.
type LedgerCommandRepository interface {
	// CreateNeededReview inserts a ledger entry. It returns
	// apperrors.DuplicateReviewError when a non-expired entry for the
	// same reviewer, reviewee and project already exists in the cycle.
	CreateNeededReview(ctx context.Context, nr *domain.NeededReview) error

	// CompleteNeededReview flips an incomplete entry to completed.
	// Test-and-set on status: returns apperrors.ErrNotFound for an
	// unknown id and apperrors.ErrReviewResolved when the entry is
	// already completed or expired.
	CompleteNeededReview(ctx context.Context, tx *sqlx.Tx, id string) error

	// ExpireAllUnfinished expires every entry that is not completed and
	// returns how many were expired.
	ExpireAllUnfinished(ctx context.Context) (int64, error)
}

// SubmissionRepository stores completed review forms. Write-once: one
// submission per ledger entry.
type SubmissionRepository interface {
	// CreateSubmission inserts a submitted review. Returns
	// apperrors.SubmissionExistsError when the ledger entry already has
	// one.
	CreateSubmission(ctx context.Context, tx *sqlx.Tx, sr *domain.SubmittedReview) error

	// GetSubmissionByNeededReviewID returns the submission for a ledger
	// entry. Returns apperrors.ErrNotFound when there is none.
	GetSubmissionByNeededReviewID(ctx context.Context, neededReviewID string) (*domain.SubmittedReview, error)

	// GetSubmissionsOfEmployee returns submissions about an employee
	// created since the given date, optionally narrowed to one kind.
	GetSubmissionsOfEmployee(ctx context.Context, employeeID string, kind domain.ReviewKind, since time.Time) ([]domain.SubmittedReview, error)
}

// FolderRepository caches document-store folders per employee.
type FolderRepository interface {
	// GetFolder returns the cached folder mapping for an employee.
	// Returns apperrors.ErrNotFound when no folder was created yet.
	GetFolder(ctx context.Context, employeeID string) (*domain.FolderMapping, error)

	// SaveFolder upserts the folder mapping for an employee.
	SaveFolder(ctx context.Context, m *domain.FolderMapping) error
}

// NotificationLogRepository records dispatched notifications so a
// milestone email is sent at most once per entry and day.
type NotificationLogRepository interface {
	// RecordSent inserts a send record. Returns false without error when
	// the (entry, milestone, day) triple was already recorded.
	RecordSent(ctx context.Context, neededReviewID, milestone string, sentOn time.Time) (bool, error)
}

// AuditRepository appends to the audit log.
type AuditRepository interface {
	// Append inserts one audit row.
	Append(ctx context.Context, e *domain.AuditEntry) error
}
