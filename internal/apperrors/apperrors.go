// Package apperrors defines the error values shared between the service
// and transport layers. Services return these (wrapped), the HTTP layer
// maps them onto declined results and status codes.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned on unique-constraint conflicts.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidRequest is returned for malformed request payloads.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrReviewResolved is returned when a ledger entry is already
	// completed or expired and can no longer be acted on.
	ErrReviewResolved = errors.New("review already resolved")

	// ErrEndDateInPast is returned when a posted end date is not in the
	// future.
	ErrEndDateInPast = errors.New("end date must be in the future")

	// ErrUnknownJob is returned when a job name does not resolve.
	ErrUnknownJob = errors.New("unknown job")
)

// DuplicateReviewError reports a declined ledger insert: a non-expired
// entry for the same reviewer, reviewee and project already exists in the
// open cycle.
type DuplicateReviewError struct {
	ReviewerName string
	EmployeeName string
	ProjectName  string
}

func (e *DuplicateReviewError) Error() string {
	return fmt.Sprintf("needed review for %s on %s (%s) already exists",
		e.ReviewerName, e.EmployeeName, e.ProjectName)
}

func (e *DuplicateReviewError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// SubmissionExistsError reports a declined review submission: the ledger
// entry already has a submitted review.
type SubmissionExistsError struct {
	NeededReviewID string
}

func (e *SubmissionExistsError) Error() string {
	return fmt.Sprintf("review %s already submitted", e.NeededReviewID)
}

func (e *SubmissionExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}
