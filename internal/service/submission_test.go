package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fairview/review-cycle-service/internal/apperrors"
	"github.com/fairview/review-cycle-service/internal/domain"
)

func newMockBase(t *testing.T) (BaseService, sqlmock.Sqlmock) {
	t.Helper()

	db, smock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewBaseService(sqlx.NewDb(db, "sqlmock"), testLogger()), smock
}

func incompleteEntry() *domain.NeededReview {
	return &domain.NeededReview{
		ID:                  "nr-1",
		Kind:                domain.ReviewStaff,
		ReviewerID:          "emp-2",
		ReviewerName:        "grace",
		ReviewerEmail:       "grace@fairview.example",
		EmployeeID:          "emp-1",
		EmployeeName:        "ada",
		EmployeeEmail:       "ada@fairview.example",
		ProjectID:           "prj-1",
		ProjectName:         "Atlas",
		ReviewerProjectRole: domain.RoleStaff,
		DueDate:             date(2024, time.July, 22),
		Description:         "Staff Review of ada on Atlas",
		Status:              domain.StatusIncomplete,
		CycleStart:          date(2024, time.July, 1),
		CreatedAt:           date(2024, time.July, 8),
	}
}

func TestSubmit_Success(t *testing.T) {
	base, smock := newMockBase(t)
	entry := incompleteEntry()
	form := map[string]string{"Quality of work": "H"}

	ledgerQMock := new(LedgerQueryRepositoryMock)
	ledgerQMock.On("GetNeededReviewByID", mock.Anything, "nr-1").Return(entry, nil).Once()

	smock.ExpectBegin()
	smock.ExpectCommit()

	submissionsMock := new(SubmissionRepositoryMock)
	submissionsMock.On("CreateSubmission", mock.Anything, mock.Anything,
		mock.MatchedBy(func(sr *domain.SubmittedReview) bool {
			return sr.NeededReviewID == "nr-1" &&
				sr.Kind == domain.ReviewStaff &&
				sr.ReviewerName == "grace" &&
				sr.EmployeeName == "ada" &&
				assert.ObjectsAreEqual(form, sr.Form)
		})).Return(nil).Once()

	ledgerCmdMock := new(LedgerCommandRepositoryMock)
	ledgerCmdMock.On("CompleteNeededReview", mock.Anything, mock.Anything, "nr-1").Return(nil).Once()

	auditMock := new(AuditRepositoryMock)
	auditMock.On("Append", mock.Anything, mock.MatchedBy(func(e *domain.AuditEntry) bool {
		return e.Action == "Review Submitted" && e.Actor == "grace" && e.Subject == "ada"
	})).Return(nil).Once()

	// The async backup may or may not land before the test ends.
	storeMock := new(StoreMock)
	storeMock.On("UploadFile", mock.Anything, "backup-folder", mock.Anything, mock.Anything, "application/json").
		Return("file-1", nil).Maybe()

	svc := NewSubmissionService(base, ledgerQMock, ledgerCmdMock, submissionsMock,
		auditMock, storeMock, "backup-folder", date(2024, time.July, 22), testLogger())

	sr, err := svc.Submit(context.Background(), "nr-1", form)
	require.NoError(t, err)
	require.NotNil(t, sr)
	assert.NotEmpty(t, sr.ID)
	assert.Equal(t, "nr-1", sr.NeededReviewID)
	assert.Equal(t, "grace", sr.ReviewerName)

	require.NoError(t, smock.ExpectationsWereMet())
	ledgerQMock.AssertExpectations(t)
	submissionsMock.AssertExpectations(t)
	ledgerCmdMock.AssertExpectations(t)
	auditMock.AssertExpectations(t)
}

func TestSubmit_DeclinedWhenEntryResolved(t *testing.T) {
	base, smock := newMockBase(t)

	testCases := []struct {
		name   string
		status domain.ReviewStatus
	}{
		{name: "completed entry", status: domain.StatusCompleted},
		{name: "expired entry", status: domain.StatusExpired},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			entry := incompleteEntry()
			entry.Status = tc.status

			ledgerQMock := new(LedgerQueryRepositoryMock)
			ledgerQMock.On("GetNeededReviewByID", mock.Anything, "nr-1").Return(entry, nil).Once()

			submissionsMock := new(SubmissionRepositoryMock)

			svc := NewSubmissionService(base, ledgerQMock, new(LedgerCommandRepositoryMock),
				submissionsMock, new(AuditRepositoryMock), new(StoreMock), "backup-folder",
				date(2024, time.July, 22), testLogger())

			sr, err := svc.Submit(context.Background(), "nr-1", map[string]string{"q": "a"})
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrReviewResolved)
			assert.Nil(t, sr)

			submissionsMock.AssertNotCalled(t, "CreateSubmission", mock.Anything, mock.Anything, mock.Anything)
		})
	}

	require.NoError(t, smock.ExpectationsWereMet())
}

func TestSubmit_UnknownEntry(t *testing.T) {
	base, _ := newMockBase(t)

	ledgerQMock := new(LedgerQueryRepositoryMock)
	ledgerQMock.On("GetNeededReviewByID", mock.Anything, "nr-404").Return(nil, apperrors.ErrNotFound).Once()

	svc := NewSubmissionService(base, ledgerQMock, new(LedgerCommandRepositoryMock),
		new(SubmissionRepositoryMock), new(AuditRepositoryMock), new(StoreMock), "backup-folder",
		date(2024, time.July, 22), testLogger())

	_, err := svc.Submit(context.Background(), "nr-404", map[string]string{"q": "a"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSubmit_ConcurrentDoubleSubmitRollsBack(t *testing.T) {
	base, smock := newMockBase(t)
	entry := incompleteEntry()

	ledgerQMock := new(LedgerQueryRepositoryMock)
	ledgerQMock.On("GetNeededReviewByID", mock.Anything, "nr-1").Return(entry, nil).Once()

	smock.ExpectBegin()
	smock.ExpectRollback()

	submissionsMock := new(SubmissionRepositoryMock)
	submissionsMock.On("CreateSubmission", mock.Anything, mock.Anything, mock.Anything).
		Return(&apperrors.SubmissionExistsError{NeededReviewID: "nr-1"}).Once()

	ledgerCmdMock := new(LedgerCommandRepositoryMock)

	svc := NewSubmissionService(base, ledgerQMock, ledgerCmdMock, submissionsMock,
		new(AuditRepositoryMock), new(StoreMock), "backup-folder",
		date(2024, time.July, 22), testLogger())

	_, err := svc.Submit(context.Background(), "nr-1", map[string]string{"q": "a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)

	require.NoError(t, smock.ExpectationsWereMet())
	ledgerCmdMock.AssertNotCalled(t, "CompleteNeededReview", mock.Anything, mock.Anything, mock.Anything)
}
