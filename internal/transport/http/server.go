// package http implements the HTTP transport layer for the service.
// It handles incoming requests, decodes them, calls the appropriate service methods,
// and encodes the responses.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m-tereshkin/ticket-triage-service/internal/apperrors"
	"github.com/m-tereshkin/ticket-triage-service/internal/domain"
	"github.com/m-tereshkin/ticket-triage-service/internal/service"
	"github.com/m-tereshkin/ticket-triage-service/internal/validation"
	"github.com/m-tereshkin/ticket-triage-service/pkg/logger/sl"
)

// IssueReader is the read-only slice of the issue gateway exposed over
// HTTP for looking up tracking issues.
type IssueReader interface {
	GetIssue(ctx context.Context, owner, repo string, number int) (*domain.Issue, error)
	GetIssueByURL(ctx context.Context, issueURL string) (*domain.Issue, error)
}

// Server holds the dependencies for the HTTP server, including the logger and service interfaces.
type Server struct {
	log     *slog.Logger
	analyze service.AnalyzeService
	issues  IssueReader
}

// NewServer creates a new instance of the HTTP server.
func NewServer(log *slog.Logger, analyze service.AnalyzeService, issues IssueReader) *Server {
	return &Server{
		log:     log,
		analyze: analyze,
		issues:  issues,
	}
}

// Routes sets up the router with all middleware and API endpoints.
func (s *Server) Routes() http.Handler {
	mux := chi.NewRouter()

	mux.Use(s.requestID)
	mux.Use(s.logRequest)
	mux.Use(s.metricsMiddleware)

	mux.Handle("/metrics", promhttp.Handler())

	mux.Route("/analyze", func(r chi.Router) {
		r.Post("/repositories", s.postAnalyzeRepositories)
		r.Post("/ticket", s.postAnalyzeTicket)
		r.Post("/result", s.postAnalyzeResult)
		r.Get("/status/{requestID}", s.getAnalyzeStatus)
	})

	mux.Get("/github/repos/{owner}/{repo}/issues/{number}", s.getGitHubIssue)
	mux.Get("/github/issue", s.getGitHubIssueByURL)

	return mux
}

func (s *Server) postAnalyzeRepositories(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.postAnalyzeRepositories"

	var req analyzeRepositoriesRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	targets := make([]domain.RepoTarget, len(req.Repositories))
	for i, target := range req.Repositories {
		targets[i] = domain.RepoTarget{
			Owner:          target.Owner,
			Repo:           target.Repo,
			AnalysisPrompt: target.AnalysisPrompt,
		}
	}

	result, err := s.analyze.AnalyzeRepositories(r.Context(), req.Ticket.toDomain(), targets)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusCreated, result)
}

func (s *Server) postAnalyzeTicket(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.postAnalyzeTicket"

	var req analyzeTicketRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	result, err := s.analyze.HandleTicket(r.Context(), req.toDomain())
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusAccepted, result)
}

func (s *Server) postAnalyzeResult(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.postAnalyzeResult"

	var req analyzeResultRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	summary, err := s.analyze.SubmitResult(r.Context(), req.Repository, req.Report)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, summary)
}

func (s *Server) getAnalyzeStatus(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.getAnalyzeStatus"

	requestID := chi.URLParam(r, "requestID")

	record, err := s.analyze.GetStatus(r.Context(), requestID)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, toStatusResponse(record))
}

func (s *Server) getGitHubIssue(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.getGitHubIssue"

	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		s.handleServiceError(w, r, op, fmt.Errorf("%w: issue number must be an integer", apperrors.ErrInvalidRequest))
		return
	}

	issue, err := s.issues.GetIssue(r.Context(), chi.URLParam(r, "owner"), chi.URLParam(r, "repo"), number)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]*domain.Issue{"issue": issue})
}

func (s *Server) getGitHubIssueByURL(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.getGitHubIssueByURL"

	issueURL := r.URL.Query().Get("url")
	if issueURL == "" {
		s.handleServiceError(w, r, op, fmt.Errorf("%w: 'url' query parameter is required", apperrors.ErrInvalidRequest))
		return
	}

	issue, err := s.issues.GetIssueByURL(r.Context(), issueURL)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]*domain.Issue{"issue": issue})
}

// statusResponse is the JSON shape of a stored analysis request.
type statusResponse struct {
	RequestID   string                `json:"request_id"`
	TicketKey   string                `json:"ticket_key"`
	Ticket      domain.TicketSnapshot `json:"ticket"`
	RepoResults []domain.RepoResult   `json:"repository_results"`
	Status      domain.RequestStatus  `json:"status"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

func toStatusResponse(record *domain.AnalysisRequest) statusResponse {
	return statusResponse{
		RequestID:   record.RequestID,
		TicketKey:   record.TicketKey,
		Ticket:      record.TicketContext,
		RepoResults: record.RepoResults,
		Status:      record.Status,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
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
		gatewayErr    *apperrors.GatewayError
		existsErr     *apperrors.RequestAlreadyExistsError
	)

	switch {
	case errors.As(err, &validationErr):
		wrappedErr := fmt.Errorf("%w: %s", apperrors.ErrValidation, validationErr.Error())
		s.respondError(w, http.StatusBadRequest, wrappedErr.Error())
	case errors.Is(err, apperrors.ErrInvalidRequest):
		s.respondError(w, http.StatusBadRequest, "invalid request body")
	case errors.Is(err, apperrors.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "resource not found")
	case errors.As(err, &existsErr):
		s.respondError(w, http.StatusConflict, "analysis request with this id already exists")
	case errors.As(err, &gatewayErr):
		s.respondError(w, http.StatusBadGateway, gatewayErr.Message)
	default:
		s.respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
