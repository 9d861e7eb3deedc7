// package http implements the HTTP transport layer for the service.
// It handles incoming requests, decodes them, calls the appropriate service methods,
// and encodes the responses.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/fairview/review-cycle-service/internal/apperrors"
	"github.com/fairview/review-cycle-service/internal/domain"
	"github.com/fairview/review-cycle-service/internal/service"
	"github.com/fairview/review-cycle-service/internal/validation"
	"github.com/fairview/review-cycle-service/pkg/logger/sl"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds the dependencies for the HTTP server, including the logger and service interfaces.
type Server struct {
	log         *slog.Logger
	submissions service.SubmissionService
	queries     service.QueryService
	endDates    service.EndDateService
}

// NewServer creates a new instance of the HTTP server.
func NewServer(
	log *slog.Logger,
	subs service.SubmissionService,
	qs service.QueryService,
	eds service.EndDateService,
) *Server {
	return &Server{
		log:         log,
		submissions: subs,
		queries:     qs,
		endDates:    eds,
	}
}

// Routes sets up the router with all middleware and API endpoints.
func (s *Server) Routes() http.Handler {
	mux := chi.NewRouter()

	mux.Use(s.requestID)
	mux.Use(s.logRequest)
	mux.Use(s.metricsMiddleware)

	mux.Handle("/metrics", promhttp.Handler())

	mux.Post("/reviews/submit", s.PostReviewSubmit)
	mux.Get("/reviews/open", s.GetOpenReviews)
	mux.Get("/reviews/completed", s.GetCompletedReviews)
	mux.Get("/reviews/{id}", s.GetReview)
	mux.Get("/reviews/{id}/submission", s.GetReviewSubmission)
	mux.Get("/forms/{kind}", s.GetFormFields)
	mux.Get("/stats", s.GetStats)
	mux.Get("/end-date", s.GetEndDate)
	mux.Post("/end-date", s.PostEndDate)
	mux.Post("/end-date/confirm", s.PostConfirmEndDate)

	return mux
}

func (s *Server) PostReviewSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.PostReviewSubmit"

	var req submitReviewRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	review, err := s.submissions.Submit(r.Context(), req.NeededReviewID, req.Form)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusCreated, map[string]*domain.SubmittedReview{"review": review})
}

func (s *Server) GetOpenReviews(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.GetOpenReviews"

	reviewerID := r.URL.Query().Get("reviewer_id")
	if reviewerID == "" {
		s.handleServiceError(w, r, op,
			fmt.Errorf("%w: missing 'reviewer_id' query parameter", apperrors.ErrInvalidRequest))
		return
	}

	reviews, err := s.queries.OpenReviews(r.Context(), reviewerID)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string][]domain.NeededReview{"reviews": reviews})
}

func (s *Server) GetCompletedReviews(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.GetCompletedReviews"

	reviewerID := r.URL.Query().Get("reviewer_id")
	if reviewerID == "" {
		s.handleServiceError(w, r, op,
			fmt.Errorf("%w: missing 'reviewer_id' query parameter", apperrors.ErrInvalidRequest))
		return
	}

	from, err := s.optionalDate(r, "from")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	to, err := s.optionalDate(r, "to")
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	reviews, err := s.queries.CompletedReviews(r.Context(), reviewerID, from, to)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string][]domain.NeededReview{"reviews": reviews})
}

func (s *Server) GetReview(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.GetReview"

	review, err := s.queries.ReviewByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]*domain.NeededReview{"review": review})
}

func (s *Server) GetReviewSubmission(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.GetReviewSubmission"

	submission, err := s.queries.Submission(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]*domain.SubmittedReview{"submission": submission})
}

func (s *Server) GetFormFields(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.GetFormFields"

	kind, err := parseReviewKind(chi.URLParam(r, "kind"))
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	fields, err := s.queries.FormFields(r.Context(), kind)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string][]domain.FormField{"fields": fields})
}

func (s *Server) GetStats(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.GetStats"

	stats, err := s.queries.Stats(r.Context())
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, stats)
}

func (s *Server) GetEndDate(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.GetEndDate"

	employeeID := r.URL.Query().Get("employee_id")
	projectID := r.URL.Query().Get("project_id")
	if employeeID == "" || projectID == "" {
		s.handleServiceError(w, r, op,
			fmt.Errorf("%w: 'employee_id' and 'project_id' query parameters are required",
				apperrors.ErrInvalidRequest))
		return
	}

	info, err := s.endDates.Get(r.Context(), employeeID, projectID)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, info)
}

func (s *Server) PostEndDate(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.PostEndDate"

	var req endDateRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	// The datetime validation tag guarantees the layout.
	endDate, _ := time.Parse("2006-01-02", req.EndDate)

	if err := s.endDates.Post(r.Context(), req.EmployeeID, req.ProjectID, endDate); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]string{"success": "true"})
}

func (s *Server) PostConfirmEndDate(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.PostConfirmEndDate"

	var req confirmEndDateRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	if err := s.endDates.Confirm(r.Context(), req.EmployeeID, req.ProjectID); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]string{"success": "true"})
}

// parseReviewKind maps a URL segment onto a known review kind.
func parseReviewKind(raw string) (domain.ReviewKind, error) {
	switch kind := domain.ReviewKind(raw); kind {
	case domain.ReviewSelf, domain.ReviewStaff, domain.ReviewManager,
		domain.ReviewPartner, domain.ReviewExternal:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: unknown review kind '%s'", apperrors.ErrInvalidRequest, raw)
	}
}

// optionalDate parses a yyyy-mm-dd query parameter when present.
func (s *Server) optionalDate(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}

	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("%w: query parameter '%s' must be yyyy-mm-dd", apperrors.ErrInvalidRequest, name)
	}

	return &d, nil
}

// respond is a helper function to encode data to JSON and write it to the response.
// It centralizes setting the Content-Type header and writing the status code.
func (s *Server) respond(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.log.Error("failed to encode response", sl.Err(err))
		}
	}
}

// respondError is a convenience wrapper around respond for sending simple error messages.
func (s *Server) respondError(w http.ResponseWriter, code int, message string) {
	s.respond(w, code, map[string]string{"error": message})
}

// respondDeclined reports a business outcome the caller asked for but the
// service refused, such as a double submit or a stale ledger entry.
func (s *Server) respondDeclined(w http.ResponseWriter, code int, message string) {
	s.respond(w, code, map[string]string{
		"success": "false",
		"message": message,
	})
}

// decodeAndValidate is a helper that deserializes a JSON request body into a struct
// and then runs validation checks on it.
func (s *Server) decodeAndValidate(r *http.Request, v interface{}) error {
	if err := s.decode(r.Body, v); err != nil {
		return err
	}

	if err := validation.ValidateStruct(v); err != nil {
		return err
	}

	return nil
}

// decode is a helper function to decode a JSON request body.
func (s *Server) decode(body io.ReadCloser, v interface{}) error {
	defer body.Close()

	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrInvalidRequest, err)
	}

	return nil
}

// handleServiceError provides centralized error handling for all HTTP handlers.
// It logs the internal error and maps it to a user-friendly HTTP response.
func (s *Server) handleServiceError(w http.ResponseWriter, _ *http.Request, op string, err error) {
	log := s.log.With(slog.String("op", op))
	log.Error("service error occurred", sl.Err(err))

	var (
		validationErr *validation.ValidationError
		submitErr     *apperrors.SubmissionExistsError
	)

	switch {
	case errors.As(err, &validationErr):
		s.respondError(w, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, apperrors.ErrInvalidRequest):
		s.respondError(w, http.StatusBadRequest, "invalid request")
	case errors.Is(err, apperrors.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "resource not found")
	case errors.As(err, &submitErr):
		s.respondDeclined(w, http.StatusConflict, "this review has already been submitted")
	case errors.Is(err, apperrors.ErrReviewResolved):
		s.respondDeclined(w, http.StatusConflict, apperrors.ErrReviewResolved.Error())
	case errors.Is(err, apperrors.ErrAlreadyExists):
		s.respondDeclined(w, http.StatusConflict, apperrors.ErrAlreadyExists.Error())
	case errors.Is(err, apperrors.ErrEndDateInPast):
		s.respondDeclined(w, http.StatusConflict, apperrors.ErrEndDateInPast.Error())
	default:
		s.respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
