// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	service "github.com/okian/pitchcast/internal/app"
	"github.com/okian/pitchcast/internal/adapters/cache"
	"github.com/okian/pitchcast/internal/adapters/http/swagger"
	"github.com/okian/pitchcast/internal/domain/access"
	"github.com/okian/pitchcast/internal/domain/apperr"
	"github.com/okian/pitchcast/internal/domain/features"
	"github.com/okian/pitchcast/internal/domain/injury"
	"github.com/okian/pitchcast/internal/domain/prediction"
	"github.com/okian/pitchcast/internal/domain/sport"
	"github.com/okian/pitchcast/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	Registry() *sport.Registry
	Gate() *access.Gate

	PredictMatch(ctx context.Context, m features.Match, opts service.PredictOptions) (service.Outcome[prediction.MatchResult], error)
	PredictPlayer(ctx context.Context, p features.Player, opts service.PredictOptions) (service.Outcome[prediction.PlayerResult], error)
	PredictTeam(ctx context.Context, t features.Team, opts service.PredictOptions) (service.Outcome[prediction.TeamResult], error)
	AssessInjury(ctx context.Context, w features.Workload, opts service.PredictOptions) (service.Outcome[injury.Assessment], error)
	SquadInjuryRisk(ctx context.Context, q service.Squad, opts service.PredictOptions) (service.Outcome[injury.SquadReport], error)

	Invalidate(ctx context.Context, entityID string, s sport.Sport, scope ...string) (int, error)
	CacheStats() []cache.Stats

	GetStats() map[string]interface{}
}

// Server wires HTTP routes for the prediction API.
type Server struct {
	deps    Dependencies
	name    string
	version string
	origins []string
	maxPage int
	logger  logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithVersion sets the build version reported by /healthz.
func WithVersion(v string) Option {
	return func(s *Server) {
		if v != "" {
			s.version = v
		}
	}
}

// WithCORSOrigins allows browser calls from origins.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithMaxPageSize caps the limit query parameter of list endpoints.
func WithMaxPageSize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxPage = n
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:    deps,
		name:    "pitchcast",
		version: "dev",
		maxPage: 100,
		logger:  logger.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes builds the router for every endpoint.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", headerUserID, headerRoles, headerTier, headerPermissions,
			headerOrgID, headerClubIDs, headerTeamIDs, headerPlayerID, headerLinkedPlayerIDs},
		MaxAge: 300,
	}))
	r.Use(MetricsMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", metricsHandler())
	r.Get("/stats", s.handleStats)
	swagger.Register(r)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/sports", s.handleListSports)
		r.Get("/sports/{sport}", s.handleGetSport)

		r.Route("/predictions", func(r chi.Router) {
			r.Post("/match", s.handlePredictMatch)
			r.Post("/player", s.handlePredictPlayer)
			r.Post("/team", s.handlePredictTeam)
			r.Post("/injury", s.handleAssessInjury)
			r.Delete("/{entityID}", s.handleInvalidate)
		})
		r.Post("/teams/{teamID}/injury-risk", s.handleSquadInjuryRisk)
		r.Get("/cache/stats", s.handleCacheStats)
	})
	return r
}

// Meta describes how a response was produced.
type Meta struct {
	GeneratedAt  time.Time `json:"generated_at"`
	ProcessingMS float64   `json:"processing_ms"`
	ModelVersion string    `json:"model_version,omitempty"`
	Cached       bool      `json:"cached"`
	Anonymized   bool      `json:"anonymized,omitempty"`
}

// Pagination describes a page of a list result.
type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// ErrorBody is the error part of the envelope.
type ErrorBody struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Field        string `json:"field,omitempty"`
	RequiredTier string `json:"required_tier,omitempty"`
}

// Envelope wraps every response body.
type Envelope struct {
	Success    bool        `json:"success"`
	Data       any         `json:"data,omitempty"`
	Error      *ErrorBody  `json:"error,omitempty"`
	Meta       *Meta       `json:"meta,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, data any, meta *Meta, page *Pagination) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: data, Meta: meta, Pagination: page})
}

// writeError maps domain errors onto status codes:
// validation 400, not found 404, denied 403, anything else 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := http.StatusInternalServerError, ErrorBody{Code: "internal_error", Message: "internal error"}

	var (
		ve *apperr.ValidationError
		ne *apperr.NotFoundError
		de *apperr.AccessDeniedError
	)
	switch {
	case errors.As(err, &ve):
		status, body = http.StatusBadRequest, ErrorBody{Code: "validation_error", Message: ve.Error(), Field: ve.Field}
	case errors.As(err, &ne):
		status, body = http.StatusNotFound, ErrorBody{Code: "not_found", Message: ne.Error()}
	case errors.As(err, &de):
		status, body = http.StatusForbidden, ErrorBody{Code: "access_denied", Message: de.Reason, RequiredTier: de.RequiredTier}
	case errors.Is(err, ErrUnauthenticated):
		status, body = http.StatusUnauthorized, ErrorBody{Code: "unauthenticated", Message: err.Error()}
	case errors.Is(err, ErrBadRequest):
		status, body = http.StatusBadRequest, ErrorBody{Code: "bad_request", Message: err.Error()}
	default:
		s.logger.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.String("requestID", middleware.GetReqID(r.Context())),
			logger.Error(err),
		)
	}
	writeJSON(w, status, Envelope{Success: false, Error: &body})
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}
