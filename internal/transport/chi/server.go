package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/schooldex/internal/domain"
	"github.com/kailas-cloud/schooldex/internal/domain/search/request"
	logpkg "github.com/kailas-cloud/schooldex/internal/logger"
	"github.com/kailas-cloud/schooldex/internal/metrics"
	healthuc "github.com/kailas-cloud/schooldex/internal/usecase/health"
	queryuc "github.com/kailas-cloud/schooldex/internal/usecase/query"
	"github.com/kailas-cloud/schooldex/internal/version"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest       = "bad_request"
	CodeValidationFailed = "validation_failed"
	CodeUnauthorized     = "unauthorized"
	CodeNotFound         = "not_found"
	CodeInternalError    = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HealthResponse is the JSON body of GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Version string            `json:"version"`
	Commit  string            `json:"commit"`
}

// InvalidateRequest is the JSON body of POST /api/v1/cache/invalidate.
type InvalidateRequest struct {
	Tag string `json:"tag"`
}

// InvalidateResponse reports how many cache entries a tag invalidation removed.
type InvalidateResponse struct {
	Tag     string `json:"tag"`
	Removed int    `json:"removed"`
}

// QueryService is the façade contract consumed by the HTTP layer.
type QueryService interface {
	Handle(ctx context.Context, req request.Request) (queryuc.Response, error)
	Invalidate(ctx context.Context, tag string) (int, error)
	Flush(ctx context.Context) error
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server exposes the query façade over HTTP.
type Server struct {
	query         QueryService
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(query QueryService, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		query:  query,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
	}
	return s
}

// GetFilters handles GET /api/v1/search/filters.
func (s *Server) GetFilters(w http.ResponseWriter, r *http.Request) {
	req, err := facetsRequestFromQuery(r.URL.Query())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	s.serve(w, r, req)
}

// GetSuggestions handles GET /api/v1/search/suggestions.
func (s *Server) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	req, err := suggestRequestFromQuery(r.URL.Query())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	s.serve(w, r, req)
}

// ListSchools handles GET /api/v1/schools.
func (s *Server) ListSchools(w http.ResponseWriter, r *http.Request) {
	req, err := listRequestFromQuery(r.URL.Query())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	s.serve(w, r, req)
}

// Query handles POST /api/v1/query with a structured request body.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	var req request.Request
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	s.serve(w, r, req)
}

// InvalidateCache handles POST /api/v1/cache/invalidate.
func (s *Server) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	var body InvalidateRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	n, err := s.query.Invalidate(r.Context(), body.Tag)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, InvalidateResponse{Tag: body.Tag, Removed: n})
}

// FlushCache handles DELETE /api/v1/cache.
func (s *Server) FlushCache(w http.ResponseWriter, r *http.Request) {
	if err := s.query.Flush(r.Context()); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Checks:  checks,
		Version: version.Version,
		Commit:  version.Commit,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request, req request.Request) {
	resp, err := s.query.Handle(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	setCacheHeader(w, resp.Cached)
	writeJSON(w, http.StatusOK, resp)
}

func setCacheHeader(w http.ResponseWriter, cached bool) {
	v := "MISS"
	if cached {
		v = "HIT"
	}
	w.Header().Set(metrics.CacheHeader, v)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v) //nolint:wrapcheck // surfaced to the client as a bad request
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// validationHandler answers 400 with the validation detail. The detail is built
// from request fields only, so it is safe to return.
func validationHandler(w http.ResponseWriter, err error) bool {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, ve.Error())
		return true
	}
	if errors.Is(err, domain.ErrValidation) {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, domain.ErrValidation.Error())
		return true
	}
	return false
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

// handleDomainError maps err to a response. Unmatched errors, store failures
// included, become a generic 500 so no internal detail leaks.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContextOr(r.Context(), s.logger)
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Debug("request rejected", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
