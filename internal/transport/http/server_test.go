package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fairview/review-cycle-service/internal/apperrors"
	"github.com/fairview/review-cycle-service/internal/domain"
	"github.com/fairview/review-cycle-service/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func testRouter(subs service.SubmissionService, qs service.QueryService, eds service.EndDateService) http.Handler {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	return NewServer(log, subs, qs, eds).Routes()
}

func sampleNeededReview() domain.NeededReview {
	return domain.NeededReview{
		ID:                  "nr-1",
		Kind:                domain.ReviewStaff,
		ReviewerID:          "emp-2",
		ReviewerName:        "Grace Hopper",
		ReviewerEmail:       "grace@fairview.example",
		EmployeeID:          "emp-1",
		EmployeeName:        "Ada Lovelace",
		EmployeeEmail:       "ada@fairview.example",
		ProjectID:           "prj-1",
		ProjectName:         "Atlas",
		ReviewerProjectRole: domain.RoleStaff,
		DueDate:             time.Date(2024, 7, 22, 0, 0, 0, 0, time.UTC),
		Description:         "Staff Review for Ada Lovelace on Atlas",
		Status:              domain.StatusIncomplete,
		CycleStart:          time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		CreatedAt:           time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC),
	}
}

const sampleNeededReviewJSON = `{
	"id": "nr-1",
	"kind": "staff",
	"reviewer_id": "emp-2",
	"reviewer_name": "Grace Hopper",
	"reviewer_email": "grace@fairview.example",
	"employee_id": "emp-1",
	"employee_name": "Ada Lovelace",
	"employee_email": "ada@fairview.example",
	"project_id": "prj-1",
	"project_name": "Atlas",
	"reviewer_project_role": "Staff",
	"due_date": "2024-07-22T00:00:00Z",
	"description": "Staff Review for Ada Lovelace on Atlas",
	"status": "incomplete",
	"cycle_start": "2024-07-01T00:00:00Z",
	"created_at": "2024-07-08T00:00:00Z"
}`

func TestServer_PostReviewSubmit(t *testing.T) {
	submitted := &domain.SubmittedReview{
		ID:                  "rev-1",
		NeededReviewID:      "nr-1",
		Kind:                domain.ReviewStaff,
		Form:                map[string]string{"Quality of work": "H"},
		ReviewerID:          "emp-2",
		ReviewerName:        "Grace Hopper",
		ReviewerEmail:       "grace@fairview.example",
		EmployeeID:          "emp-1",
		EmployeeName:        "Ada Lovelace",
		EmployeeEmail:       "ada@fairview.example",
		ProjectID:           "prj-1",
		ProjectName:         "Atlas",
		ReviewerProjectRole: domain.RoleStaff,
		SubmittedAt:         time.Date(2024, 7, 22, 10, 0, 0, 0, time.UTC),
	}

	testCases := []struct {
		name                 string
		requestBody          string
		setupMocks           func(*SubmissionServiceMock)
		expectedStatusCode   int
		expectedResponseBody string
	}{
		{
			name:        "Success",
			requestBody: `{"needed_review_id": "nr-1", "form": {"Quality of work": "H"}}`,
			setupMocks: func(ssm *SubmissionServiceMock) {
				ssm.On("Submit", mock.Anything, "nr-1", map[string]string{"Quality of work": "H"}).
					Return(submitted, nil).Once()
			},
			expectedStatusCode: http.StatusCreated,
			expectedResponseBody: `{"review":{
				"id": "rev-1",
				"needed_review_id": "nr-1",
				"kind": "staff",
				"form": {"Quality of work": "H"},
				"reviewer_id": "emp-2",
				"reviewer_name": "Grace Hopper",
				"reviewer_email": "grace@fairview.example",
				"employee_id": "emp-1",
				"employee_name": "Ada Lovelace",
				"employee_email": "ada@fairview.example",
				"project_id": "prj-1",
				"project_name": "Atlas",
				"reviewer_project_role": "Staff",
				"submitted_at": "2024-07-22T10:00:00Z"
			}}`,
		},
		{
			name:        "Declined - Already Submitted",
			requestBody: `{"needed_review_id": "nr-1", "form": {"Quality of work": "H"}}`,
			setupMocks: func(ssm *SubmissionServiceMock) {
				ssm.On("Submit", mock.Anything, "nr-1", mock.Anything).
					Return(nil, &apperrors.SubmissionExistsError{NeededReviewID: "nr-1"}).Once()
			},
			expectedStatusCode:   http.StatusConflict,
			expectedResponseBody: `{"success":"false","message":"this review has already been submitted"}`,
		},
		{
			name:        "Declined - Entry Resolved",
			requestBody: `{"needed_review_id": "nr-1", "form": {"Quality of work": "H"}}`,
			setupMocks: func(ssm *SubmissionServiceMock) {
				ssm.On("Submit", mock.Anything, "nr-1", mock.Anything).
					Return(nil, fmt.Errorf("wrapped: %w", apperrors.ErrReviewResolved)).Once()
			},
			expectedStatusCode:   http.StatusConflict,
			expectedResponseBody: `{"success":"false","message":"review already resolved"}`,
		},
		{
			name:        "Unknown Entry",
			requestBody: `{"needed_review_id": "nr-404", "form": {"Quality of work": "H"}}`,
			setupMocks: func(ssm *SubmissionServiceMock) {
				ssm.On("Submit", mock.Anything, "nr-404", mock.Anything).
					Return(nil, apperrors.ErrNotFound).Once()
			},
			expectedStatusCode:   http.StatusNotFound,
			expectedResponseBody: `{"error":"resource not found"}`,
		},
		{
			name:                 "Invalid JSON Body",
			requestBody:          `{invalid json}`,
			setupMocks:           func(ssm *SubmissionServiceMock) {},
			expectedStatusCode:   http.StatusBadRequest,
			expectedResponseBody: `{"error":"invalid request"}`,
		},
		{
			name:                 "Validation Error - Empty Form",
			requestBody:          `{"needed_review_id": "nr-1", "form": {}}`,
			setupMocks:           func(ssm *SubmissionServiceMock) {},
			expectedStatusCode:   http.StatusBadRequest,
			expectedResponseBody: `{"error":"field 'Form' failed on the 'min' tag"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			submissionsMock := new(SubmissionServiceMock)
			tc.setupMocks(submissionsMock)

			router := testRouter(submissionsMock, nil, nil)

			req := httptest.NewRequest(http.MethodPost, "/reviews/submit", strings.NewReader(tc.requestBody))
			req.Header.Set("Content-Type", "application/json")

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
			assert.JSONEq(t, tc.expectedResponseBody, rr.Body.String())
			submissionsMock.AssertExpectations(t)
		})
	}
}

func TestServer_GetOpenReviews(t *testing.T) {
	testCases := []struct {
		name                 string
		url                  string
		setupMocks           func(*QueryServiceMock)
		expectedStatusCode   int
		expectedResponseBody string
	}{
		{
			name: "Success",
			url:  "/reviews/open?reviewer_id=emp-2",
			setupMocks: func(qsm *QueryServiceMock) {
				qsm.On("OpenReviews", mock.Anything, "emp-2").
					Return([]domain.NeededReview{sampleNeededReview()}, nil).Once()
			},
			expectedStatusCode:   http.StatusOK,
			expectedResponseBody: `{"reviews":[` + sampleNeededReviewJSON + `]}`,
		},
		{
			name:                 "Missing Reviewer ID",
			url:                  "/reviews/open",
			setupMocks:           func(qsm *QueryServiceMock) {},
			expectedStatusCode:   http.StatusBadRequest,
			expectedResponseBody: `{"error":"invalid request"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			queriesMock := new(QueryServiceMock)
			tc.setupMocks(queriesMock)

			router := testRouter(nil, queriesMock, nil)

			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
			assert.JSONEq(t, tc.expectedResponseBody, rr.Body.String())
			queriesMock.AssertExpectations(t)
		})
	}
}

func TestServer_GetReview(t *testing.T) {
	entry := sampleNeededReview()

	testCases := []struct {
		name                 string
		url                  string
		setupMocks           func(*QueryServiceMock)
		expectedStatusCode   int
		expectedResponseBody string
	}{
		{
			name: "Success",
			url:  "/reviews/nr-1",
			setupMocks: func(qsm *QueryServiceMock) {
				qsm.On("ReviewByID", mock.Anything, "nr-1").Return(&entry, nil).Once()
			},
			expectedStatusCode:   http.StatusOK,
			expectedResponseBody: `{"review":` + sampleNeededReviewJSON + `}`,
		},
		{
			name: "Not Found",
			url:  "/reviews/nr-404",
			setupMocks: func(qsm *QueryServiceMock) {
				qsm.On("ReviewByID", mock.Anything, "nr-404").Return(nil, apperrors.ErrNotFound).Once()
			},
			expectedStatusCode:   http.StatusNotFound,
			expectedResponseBody: `{"error":"resource not found"}`,
		},
		{
			name: "Declined - Resolved",
			url:  "/reviews/nr-1",
			setupMocks: func(qsm *QueryServiceMock) {
				qsm.On("ReviewByID", mock.Anything, "nr-1").
					Return(nil, fmt.Errorf("wrapped: %w", apperrors.ErrReviewResolved)).Once()
			},
			expectedStatusCode:   http.StatusConflict,
			expectedResponseBody: `{"success":"false","message":"review already resolved"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			queriesMock := new(QueryServiceMock)
			tc.setupMocks(queriesMock)

			router := testRouter(nil, queriesMock, nil)

			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
			assert.JSONEq(t, tc.expectedResponseBody, rr.Body.String())
			queriesMock.AssertExpectations(t)
		})
	}
}

func TestServer_GetReviewSubmission(t *testing.T) {
	submitted := &domain.SubmittedReview{
		ID:             "rev-1",
		NeededReviewID: "nr-1",
		Kind:           domain.ReviewStaff,
		Form:           map[string]string{"Quality of work": "H"},
		ReviewerID:     "emp-2",
		ReviewerName:   "Grace Hopper",
		EmployeeID:     "emp-1",
		EmployeeName:   "Ada Lovelace",
		SubmittedAt:    time.Date(2024, 7, 22, 10, 0, 0, 0, time.UTC),
	}

	testCases := []struct {
		name                 string
		url                  string
		setupMocks           func(*QueryServiceMock)
		expectedStatusCode   int
		expectedResponseBody string
	}{
		{
			name: "Success",
			url:  "/reviews/nr-1/submission",
			setupMocks: func(qsm *QueryServiceMock) {
				qsm.On("Submission", mock.Anything, "nr-1").Return(submitted, nil).Once()
			},
			expectedStatusCode: http.StatusOK,
			expectedResponseBody: `{"submission":{
				"id": "rev-1",
				"needed_review_id": "nr-1",
				"kind": "staff",
				"form": {"Quality of work": "H"},
				"reviewer_id": "emp-2",
				"reviewer_name": "Grace Hopper",
				"reviewer_email": "",
				"employee_id": "emp-1",
				"employee_name": "Ada Lovelace",
				"employee_email": "",
				"project_id": "",
				"project_name": "",
				"reviewer_project_role": "",
				"submitted_at": "2024-07-22T10:00:00Z"
			}}`,
		},
		{
			name: "Not Submitted Yet",
			url:  "/reviews/nr-2/submission",
			setupMocks: func(qsm *QueryServiceMock) {
				qsm.On("Submission", mock.Anything, "nr-2").
					Return(nil, fmt.Errorf("wrapped: %w", apperrors.ErrNotFound)).Once()
			},
			expectedStatusCode:   http.StatusNotFound,
			expectedResponseBody: `{"error":"resource not found"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			queriesMock := new(QueryServiceMock)
			tc.setupMocks(queriesMock)

			router := testRouter(nil, queriesMock, nil)

			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
			assert.JSONEq(t, tc.expectedResponseBody, rr.Body.String())
			queriesMock.AssertExpectations(t)
		})
	}
}

func TestServer_GetCompletedReviews(t *testing.T) {
	from := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	queriesMock := new(QueryServiceMock)
	queriesMock.On("CompletedReviews", mock.Anything, "emp-2", &from, (*time.Time)(nil)).
		Return([]domain.NeededReview{}, nil).Once()

	router := testRouter(nil, queriesMock, nil)

	req := httptest.NewRequest(http.MethodGet, "/reviews/completed?reviewer_id=emp-2&from=2024-07-01", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"reviews":[]}`, rr.Body.String())
	queriesMock.AssertExpectations(t)

	t.Run("Malformed Date", func(t *testing.T) {
		router := testRouter(nil, new(QueryServiceMock), nil)

		req := httptest.NewRequest(http.MethodGet, "/reviews/completed?reviewer_id=emp-2&from=yesterday", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.JSONEq(t, `{"error":"invalid request"}`, rr.Body.String())
	})
}

func TestServer_GetFormFields(t *testing.T) {
	fields := []domain.FormField{
		{Kind: domain.ReviewStaff, Position: 1, Question: "Quality of work", FieldType: "select", Options: "H|M|L"},
	}

	testCases := []struct {
		name                 string
		url                  string
		setupMocks           func(*QueryServiceMock)
		expectedStatusCode   int
		expectedResponseBody string
	}{
		{
			name: "Success",
			url:  "/forms/staff",
			setupMocks: func(qsm *QueryServiceMock) {
				qsm.On("FormFields", mock.Anything, domain.ReviewStaff).Return(fields, nil).Once()
			},
			expectedStatusCode:   http.StatusOK,
			expectedResponseBody: `{"fields":[{"position":1,"question":"Quality of work","field_type":"select","options":"H|M|L"}]}`,
		},
		{
			name:                 "Unknown Kind",
			url:                  "/forms/quarterly",
			setupMocks:           func(qsm *QueryServiceMock) {},
			expectedStatusCode:   http.StatusBadRequest,
			expectedResponseBody: `{"error":"invalid request"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			queriesMock := new(QueryServiceMock)
			tc.setupMocks(queriesMock)

			router := testRouter(nil, queriesMock, nil)

			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
			assert.JSONEq(t, tc.expectedResponseBody, rr.Body.String())
			queriesMock.AssertExpectations(t)
		})
	}
}

func TestServer_GetStats(t *testing.T) {
	stats := &service.ProcessStats{
		ByKind: map[domain.ReviewKind]domain.ProcessStat{
			domain.ReviewStaff: {Incomplete: 2, Completed: 5},
		},
		TotalIncomplete: 2,
		TotalCompleted:  5,
	}

	queriesMock := new(QueryServiceMock)
	queriesMock.On("Stats", mock.Anything).Return(stats, nil).Once()

	router := testRouter(nil, queriesMock, nil)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t,
		`{"by_kind":{"staff":{"incomplete":2,"completed":5}},"total_incomplete":2,"total_completed":5}`,
		rr.Body.String())
	queriesMock.AssertExpectations(t)
}

func TestServer_GetEndDate(t *testing.T) {
	info := &service.EndDateInfo{
		EmployeeName: "Ada Lovelace",
		ProjectName:  "Atlas",
		EndDate:      time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC),
		Today:        time.Date(2024, 7, 22, 0, 0, 0, 0, time.UTC),
	}

	testCases := []struct {
		name                 string
		url                  string
		setupMocks           func(*EndDateServiceMock)
		expectedStatusCode   int
		expectedResponseBody string
	}{
		{
			name: "Success",
			url:  "/end-date?employee_id=emp-1&project_id=prj-1",
			setupMocks: func(edm *EndDateServiceMock) {
				edm.On("Get", mock.Anything, "emp-1", "prj-1").Return(info, nil).Once()
			},
			expectedStatusCode:   http.StatusOK,
			expectedResponseBody: `{"employee_name":"Ada Lovelace","project_name":"Atlas","end_date":"2024-09-30T00:00:00Z","today":"2024-07-22T00:00:00Z"}`,
		},
		{
			name:                 "Missing Parameters",
			url:                  "/end-date?employee_id=emp-1",
			setupMocks:           func(edm *EndDateServiceMock) {},
			expectedStatusCode:   http.StatusBadRequest,
			expectedResponseBody: `{"error":"invalid request"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			endDatesMock := new(EndDateServiceMock)
			tc.setupMocks(endDatesMock)

			router := testRouter(nil, nil, endDatesMock)

			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
			assert.JSONEq(t, tc.expectedResponseBody, rr.Body.String())
			endDatesMock.AssertExpectations(t)
		})
	}
}

func TestServer_PostEndDate(t *testing.T) {
	endDate := time.Date(2024, 10, 31, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name                 string
		requestBody          string
		setupMocks           func(*EndDateServiceMock)
		expectedStatusCode   int
		expectedResponseBody string
	}{
		{
			name:        "Success",
			requestBody: `{"employee_id": "emp-1", "project_id": "prj-1", "end_date": "2024-10-31"}`,
			setupMocks: func(edm *EndDateServiceMock) {
				edm.On("Post", mock.Anything, "emp-1", "prj-1", endDate).Return(nil).Once()
			},
			expectedStatusCode:   http.StatusOK,
			expectedResponseBody: `{"success":"true"}`,
		},
		{
			name:        "Declined - Date In Past",
			requestBody: `{"employee_id": "emp-1", "project_id": "prj-1", "end_date": "2024-10-31"}`,
			setupMocks: func(edm *EndDateServiceMock) {
				edm.On("Post", mock.Anything, "emp-1", "prj-1", endDate).
					Return(fmt.Errorf("wrapped: %w", apperrors.ErrEndDateInPast)).Once()
			},
			expectedStatusCode:   http.StatusConflict,
			expectedResponseBody: `{"success":"false","message":"end date must be in the future"}`,
		},
		{
			name:                 "Validation Error - Bad Date Layout",
			requestBody:          `{"employee_id": "emp-1", "project_id": "prj-1", "end_date": "31/10/2024"}`,
			setupMocks:           func(edm *EndDateServiceMock) {},
			expectedStatusCode:   http.StatusBadRequest,
			expectedResponseBody: `{"error":"field 'EndDate' failed on the 'datetime' tag"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			endDatesMock := new(EndDateServiceMock)
			tc.setupMocks(endDatesMock)

			router := testRouter(nil, nil, endDatesMock)

			req := httptest.NewRequest(http.MethodPost, "/end-date", strings.NewReader(tc.requestBody))
			req.Header.Set("Content-Type", "application/json")

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
			assert.JSONEq(t, tc.expectedResponseBody, rr.Body.String())
			endDatesMock.AssertExpectations(t)
		})
	}
}

func TestServer_PostConfirmEndDate(t *testing.T) {
	endDatesMock := new(EndDateServiceMock)
	endDatesMock.On("Confirm", mock.Anything, "emp-1", "prj-1").Return(nil).Once()

	router := testRouter(nil, nil, endDatesMock)

	req := httptest.NewRequest(http.MethodPost, "/end-date/confirm",
		strings.NewReader(`{"employee_id": "emp-1", "project_id": "prj-1"}`))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":"true"}`, rr.Body.String())
	endDatesMock.AssertExpectations(t)
}
