package http

import (
	"context"
	"time"

	"github.com/fairview/review-cycle-service/internal/domain"
	"github.com/fairview/review-cycle-service/internal/service"
	"github.com/stretchr/testify/mock"
)

type SubmissionServiceMock struct {
	mock.Mock
}

func (m *SubmissionServiceMock) Submit(ctx context.Context, neededReviewID string, form map[string]string) (*domain.SubmittedReview, error) {
	args := m.Called(ctx, neededReviewID, form)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.SubmittedReview), args.Error(1)
}

type QueryServiceMock struct {
	mock.Mock
}

func (m *QueryServiceMock) OpenReviews(ctx context.Context, reviewerID string) ([]domain.NeededReview, error) {
	args := m.Called(ctx, reviewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.NeededReview), args.Error(1)
}

func (m *QueryServiceMock) ReviewByID(ctx context.Context, id string) (*domain.NeededReview, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.NeededReview), args.Error(1)
}

func (m *QueryServiceMock) CompletedReviews(ctx context.Context, reviewerID string, from, to *time.Time) ([]domain.NeededReview, error) {
	args := m.Called(ctx, reviewerID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.NeededReview), args.Error(1)
}

func (m *QueryServiceMock) Submission(ctx context.Context, neededReviewID string) (*domain.SubmittedReview, error) {
	args := m.Called(ctx, neededReviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.SubmittedReview), args.Error(1)
}

func (m *QueryServiceMock) FormFields(ctx context.Context, kind domain.ReviewKind) ([]domain.FormField, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.FormField), args.Error(1)
}

func (m *QueryServiceMock) Stats(ctx context.Context) (*service.ProcessStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*service.ProcessStats), args.Error(1)
}

type EndDateServiceMock struct {
	mock.Mock
}

func (m *EndDateServiceMock) Get(ctx context.Context, employeeID, projectID string) (*service.EndDateInfo, error) {
	args := m.Called(ctx, employeeID, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*service.EndDateInfo), args.Error(1)
}

func (m *EndDateServiceMock) Post(ctx context.Context, employeeID, projectID string, endDate time.Time) error {
	args := m.Called(ctx, employeeID, projectID, endDate)

	return args.Error(0)
}

func (m *EndDateServiceMock) Confirm(ctx context.Context, employeeID, projectID string) error {
	args := m.Called(ctx, employeeID, projectID)

	return args.Error(0)
}
