// Package chi serves the search API over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/signalsearch/internal/logger"
	healthuc "github.com/kailas-cloud/signalsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/signalsearch/internal/usecase/search"
)

// WorkspaceHeader carries the tenant scope of every /search and /signals route.
const WorkspaceHeader = "X-Workspace-ID"

const maxBodyBytes = 1 << 20

// Server holds the HTTP handlers.
type Server struct {
	search        SearchService
	indexer       IndexService
	analytics     AnalyticsService
	health        HealthService
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search SearchService,
	indexer IndexService,
	analytics AnalyticsService,
	health HealthService,
	l *zap.Logger,
) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{
		search:        search,
		indexer:       indexer,
		analytics:     analytics,
		health:        health,
		logger:        l,
		errorHandlers: defaultErrorHandlers(),
	}
}

// Routes mounts every handler on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/ready", s.Readiness)
	r.Get("/metrics", s.Metrics)

	r.Group(func(r chi.Router) {
		r.Use(requireWorkspace)

		r.Post("/search", s.Search)
		r.Post("/search/trends", s.Trends)
		r.Post("/search/whitespace", s.Whitespace)
		r.Get("/search/suggestions", s.Suggestions)
		r.Get("/search/filters", s.Filters)
		r.Get("/search/analytics", s.Analytics)

		r.Post("/signals/{id}/index", s.IndexSignal)
		r.Delete("/signals/{id}/index", s.RemoveSignal)
	})
}

// Handler returns a router serving every route.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	s.Routes(r)
	return r
}

type workspaceKey struct{}

// requireWorkspace rejects requests without a valid workspace header and
// tags the request logger with the workspace.
func requireWorkspace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(WorkspaceHeader)
		if raw == "" {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, WorkspaceHeader+" header is required")
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil || id == uuid.Nil {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, WorkspaceHeader+" must be a UUID")
			return
		}
		ctx := context.WithValue(r.Context(), workspaceKey{}, id)
		ctx = logger.With(ctx, zap.String("workspace_id", id.String()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func workspaceFrom(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(workspaceKey{}).(uuid.UUID)
	return id
}

// decode reads a JSON body. It writes the error response and returns false on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// Search handles POST /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var body SearchRequest
	if !decode(w, r, &body) {
		return
	}

	req, err := searchRequestFromDTO(workspaceFrom(r.Context()), &body)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp, err := s.search.Search(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponseToDTO(resp))
}

// Trends handles POST /search/trends.
func (s *Server) Trends(w http.ResponseWriter, r *http.Request) {
	var body TrendRequest
	if !decode(w, r, &body) {
		return
	}

	req, err := trendRequestFromDTO(workspaceFrom(r.Context()), &body)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp, err := s.search.Trends(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponseToDTO(resp))
}

// Whitespace handles POST /search/whitespace.
func (s *Server) Whitespace(w http.ResponseWriter, r *http.Request) {
	var body WhitespaceRequest
	if !decode(w, r, &body) {
		return
	}

	req, err := whitespaceRequestFromDTO(workspaceFrom(r.Context()), &body)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp, err := s.search.Whitespace(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponseToDTO(resp))
}

// Suggestions handles GET /search/suggestions?q=.
func (s *Server) Suggestions(w http.ResponseWriter, r *http.Request) {
	var q string
	if err := runtime.BindQueryParameter("form", true, false, "q", r.URL.Query(), &q); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid format for parameter q: "+err.Error())
		return
	}
	suggestions, err := searchuc.Suggest(q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestionsToDTO(q, suggestions))
}

// Filters handles GET /search/filters.
func (s *Server) Filters(w http.ResponseWriter, r *http.Request) {
	facets, err := s.search.Filters(r.Context(), workspaceFrom(r.Context()))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, facetsToDTO(facets))
}

// Analytics handles GET /search/analytics.
func (s *Server) Analytics(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())
	summary, err := s.analytics.Summary(r.Context(), ws)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analyticsToDTO(ws, &summary))
}

// IndexSignal handles POST /signals/{id}/index.
func (s *Server) IndexSignal(w http.ResponseWriter, r *http.Request) {
	id, ok := signalIDParam(w, r)
	if !ok {
		return
	}
	if err := s.indexer.IndexByID(r.Context(), workspaceFrom(r.Context()), id); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// RemoveSignal handles DELETE /signals/{id}/index.
func (s *Server) RemoveSignal(w http.ResponseWriter, r *http.Request) {
	id, ok := signalIDParam(w, r)
	if !ok {
		return
	}
	if err := s.indexer.Remove(r.Context(), id); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func signalIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	var raw string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &raw,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath})
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid format for parameter id: "+err.Error())
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "signal id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Readiness handles GET /ready.
func (s *Server) Readiness(w http.ResponseWriter, r *http.Request) {
	rd := s.health.Ready(r.Context())
	status := http.StatusOK
	if !rd.Ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, ReadyResponse{Ready: rd.Ready, NotReady: rd.NotReady})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	l := logger.FromContextOr(r.Context(), s.logger)
	l.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	l.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
