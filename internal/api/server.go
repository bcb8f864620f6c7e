// Package api serves the engine over HTTP and pushes its events over a
// websocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bhaeesma-sketch/Bhaeesgame/internal/casino"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/metrics"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/scripting"
)

const (
	maxBodyBytes   = 128 << 10
	requestTimeout = 30 * time.Second
)

// AutoplayRunner drives strategy scripts.
type AutoplayRunner interface {
	Start(ctx context.Context, script string, startBalance float64) error
	Stop() error
	GetState() scripting.EngineSnapshot
	GetLogs() []scripting.LogEntry
}

// Server handles HTTP requests
type Server struct {
	engine   *casino.Engine
	autoplay AutoplayRunner
	hub      *Hub
	history  Pinger

	errors         *ErrorHandler
	validate       *validator.Validate
	allowedOrigins []string
	startTime      time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithAutoplay enables the /autoplay routes.
func WithAutoplay(a AutoplayRunner) Option {
	return func(s *Server) { s.autoplay = a }
}

// WithHub enables /ws.
func WithHub(h *Hub) Option {
	return func(s *Server) { s.hub = h }
}

// WithHistoryPinger adds the history store to health checks.
func WithHistoryPinger(p Pinger) Option {
	return func(s *Server) { s.history = p }
}

// WithAllowedOrigins sets the CORS origins.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) { s.allowedOrigins = origins }
}

// NewServer creates a new API server
func NewServer(e *casino.Engine, opts ...Option) *Server {
	s := &Server{
		engine:    e,
		errors:    NewErrorHandler(),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes sets up the HTTP routes
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(metrics.Middleware)
	r.Use(s.errors.RecoveryHandler)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Engine-Version", "X-Error-Type", "X-Error-Category"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/health/live", s.handleLiveness)
	r.Get("/health/ready", s.handleReadiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if s.hub != nil {
			r.Get("/ws", s.handleWebsocket)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))

			r.Get("/games", s.handleListGames)
			r.Get("/ledger", s.handleLedger)
			r.Get("/profile", s.handleProfile)
			r.Post("/ledger/deposit", s.handleDeposit)
			r.Get("/ledger/packages", s.handleListPackages)
			r.Post("/ledger/packages/{id}", s.handleBuyPackage)
			r.Post("/ledger/signup-claim", s.handleSignupClaim)

			r.Post("/games/plinko/drop", s.handleDrop)
			r.Get("/games/plinko/balls", s.handleBalls)
			r.Post("/games/plinko/advance", s.handleAdvance)

			r.Post("/games/{game}/bet", s.handleBet)
			r.Post("/games/{game}/session", s.handleStartSession)
			r.Get("/games/{game}/session", s.handleSessionState)
			r.Post("/games/{game}/reveal", s.handleReveal)
			r.Post("/games/{game}/cashout", s.handleCashOut)
			r.Post("/games/{game}/exit", s.handleExit)

			r.Get("/outcomes/{id}", s.handleOutcome)
			r.Get("/history", s.handleHistory)
			r.Get("/history/summary", s.handleHistorySummary)

			if s.autoplay != nil {
				r.Get("/autoplay", s.handleAutoplayState)
				r.Post("/autoplay/start", s.handleAutoplayStart)
				r.Post("/autoplay/stop", s.handleAutoplayStop)
			}
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.errors.HandleError(w, r, NewError(ErrTypeNotFound, "route not found").
			WithRequestID(middleware.GetReqID(r.Context())).
			WithContext("path", r.URL.Path).
			Build())
	})

	return r
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// decodeJSON reads a size-limited body into dst and validates it. An
// empty body leaves dst at its zero value.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return s.validate.Struct(dst)
}
