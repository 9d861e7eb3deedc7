package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/fairview/review-cycle-service/internal/calendar"
	"github.com/fairview/review-cycle-service/internal/domain"
	"github.com/fairview/review-cycle-service/internal/kms"
	"github.com/fairview/review-cycle-service/internal/notify"
	"github.com/fairview/review-cycle-service/internal/repository"
)

type RosterQueryRepositoryMock struct {
	mock.Mock
}

func (m *RosterQueryRepositoryMock) GetEmployees(ctx context.Context) ([]domain.Employee, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.Employee), args.Error(1)
}

func (m *RosterQueryRepositoryMock) GetEmployeeByID(ctx context.Context, id string) (*domain.Employee, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Employee), args.Error(1)
}

func (m *RosterQueryRepositoryMock) GetAssignments(ctx context.Context) ([]domain.Assignment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.Assignment), args.Error(1)
}

func (m *RosterQueryRepositoryMock) GetAssignment(ctx context.Context, employeeName, projectName string) (*domain.Assignment, error) {
	args := m.Called(ctx, employeeName, projectName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Assignment), args.Error(1)
}

func (m *RosterQueryRepositoryMock) GetProjects(ctx context.Context) ([]domain.Project, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.Project), args.Error(1)
}

func (m *RosterQueryRepositoryMock) GetProjectByID(ctx context.Context, id string) (*domain.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Project), args.Error(1)
}

func (m *RosterQueryRepositoryMock) GetClientContacts(ctx context.Context) ([]domain.ClientContact, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.ClientContact), args.Error(1)
}

func (m *RosterQueryRepositoryMock) GetTrainingRecords(ctx context.Context, employeeName string) ([]domain.TrainingRecord, error) {
	args := m.Called(ctx, employeeName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.TrainingRecord), args.Error(1)
}

func (m *RosterQueryRepositoryMock) GetFormFields(ctx context.Context, kind domain.ReviewKind) ([]domain.FormField, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.FormField), args.Error(1)
}

type RosterCommandRepositoryMock struct {
	mock.Mock
}

func (m *RosterCommandRepositoryMock) MarkApprovalRequested(ctx context.Context, employeeName, projectName string) error {
	args := m.Called(ctx, employeeName, projectName)

	return args.Error(0)
}

func (m *RosterCommandRepositoryMock) MarkRollOffNotified(ctx context.Context, employeeName, projectName string) error {
	args := m.Called(ctx, employeeName, projectName)

	return args.Error(0)
}

func (m *RosterCommandRepositoryMock) UpdateEndDate(ctx context.Context, employeeName, projectName string, endDate time.Time) error {
	args := m.Called(ctx, employeeName, projectName, endDate)

	return args.Error(0)
}

func (m *RosterCommandRepositoryMock) ApproveEndDate(ctx context.Context, employeeName, projectName string) error {
	args := m.Called(ctx, employeeName, projectName)

	return args.Error(0)
}

type LedgerQueryRepositoryMock struct {
	mock.Mock
}

func (m *LedgerQueryRepositoryMock) GetNeededReviewByID(ctx context.Context, id string) (*domain.NeededReview, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.NeededReview), args.Error(1)
}

func (m *LedgerQueryRepositoryMock) FindNeededReviews(ctx context.Context, filter repository.NeededReviewFilter) ([]domain.NeededReview, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.NeededReview), args.Error(1)
}

func (m *LedgerQueryRepositoryMock) GetProcessStats(ctx context.Context, since time.Time) (map[domain.ReviewKind]domain.ProcessStat, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(map[domain.ReviewKind]domain.ProcessStat), args.Error(1)
}

type LedgerCommandRepositoryMock struct {
	mock.Mock
}

func (m *LedgerCommandRepositoryMock) CreateNeededReview(ctx context.Context, nr *domain.NeededReview) error {
	args := m.Called(ctx, nr)

	return args.Error(0)
}

func (m *LedgerCommandRepositoryMock) CompleteNeededReview(ctx context.Context, tx *sqlx.Tx, id string) error {
	args := m.Called(ctx, tx, id)

	return args.Error(0)
}

func (m *LedgerCommandRepositoryMock) ExpireAllUnfinished(ctx context.Context) (int64, error) {
	args := m.Called(ctx)

	return args.Get(0).(int64), args.Error(1)
}

type SubmissionRepositoryMock struct {
	mock.Mock
}

func (m *SubmissionRepositoryMock) CreateSubmission(ctx context.Context, tx *sqlx.Tx, sr *domain.SubmittedReview) error {
	args := m.Called(ctx, tx, sr)

	return args.Error(0)
}

func (m *SubmissionRepositoryMock) GetSubmissionByNeededReviewID(ctx context.Context, neededReviewID string) (*domain.SubmittedReview, error) {
	args := m.Called(ctx, neededReviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.SubmittedReview), args.Error(1)
}

func (m *SubmissionRepositoryMock) GetSubmissionsOfEmployee(ctx context.Context, employeeID string, kind domain.ReviewKind, since time.Time) ([]domain.SubmittedReview, error) {
	args := m.Called(ctx, employeeID, kind, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.SubmittedReview), args.Error(1)
}

type FolderRepositoryMock struct {
	mock.Mock
}

func (m *FolderRepositoryMock) GetFolder(ctx context.Context, employeeID string) (*domain.FolderMapping, error) {
	args := m.Called(ctx, employeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.FolderMapping), args.Error(1)
}

func (m *FolderRepositoryMock) SaveFolder(ctx context.Context, fm *domain.FolderMapping) error {
	args := m.Called(ctx, fm)

	return args.Error(0)
}

type NotificationLogRepositoryMock struct {
	mock.Mock
}

func (m *NotificationLogRepositoryMock) RecordSent(ctx context.Context, neededReviewID, milestone string, sentOn time.Time) (bool, error) {
	args := m.Called(ctx, neededReviewID, milestone, sentOn)

	return args.Bool(0), args.Error(1)
}

type AuditRepositoryMock struct {
	mock.Mock
}

func (m *AuditRepositoryMock) Append(ctx context.Context, e *domain.AuditEntry) error {
	args := m.Called(ctx, e)

	return args.Error(0)
}

type SenderMock struct {
	mock.Mock
}

func (m *SenderMock) Send(ctx context.Context, msg notify.Message) error {
	args := m.Called(ctx, msg)

	return args.Error(0)
}

type StoreMock struct {
	mock.Mock
}

func (m *StoreMock) EnsureFolder(ctx context.Context, parentID, name string) (string, error) {
	args := m.Called(ctx, parentID, name)

	return args.String(0), args.Error(1)
}

func (m *StoreMock) UploadFile(ctx context.Context, folderID, name string, content []byte, contentType string) (string, error) {
	args := m.Called(ctx, folderID, name, content, contentType)

	return args.String(0), args.Error(1)
}

func (m *StoreMock) GrantRead(ctx context.Context, folderID string, emails []string) error {
	args := m.Called(ctx, folderID, emails)

	return args.Error(0)
}

func (m *StoreMock) GrantWrite(ctx context.Context, folderID, email string) error {
	args := m.Called(ctx, folderID, email)

	return args.Error(0)
}

func (m *StoreMock) StripPermissions(ctx context.Context, folderID string) error {
	args := m.Called(ctx, folderID)

	return args.Error(0)
}

func (m *StoreMock) FolderLink(folderID string) string {
	args := m.Called(folderID)

	return args.String(0)
}

type InviterMock struct {
	mock.Mock
}

func (m *InviterMock) Invite(ctx context.Context, ev calendar.Event) error {
	args := m.Called(ctx, ev)

	return args.Error(0)
}

type KMSClientMock struct {
	mock.Mock
}

func (m *KMSClientMock) ProjectCounts(ctx context.Context, employeeName string) ([]kms.ProjectCount, error) {
	args := m.Called(ctx, employeeName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]kms.ProjectCount), args.Error(1)
}
