// Package http exposes the ledger, goals, dashboard and rate board as a
// JSON API routed with chi.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/rates"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// Deps are the collaborators the handlers call into.
type Deps struct {
	Store        *storage.Accessor
	Transactions *services.TransactionService
	Goals        *services.GoalService
	Dashboard    *services.DashboardService
	Rates        *rates.Board
	Logger       *applog.Logger

	RateLimitPerMinute int
	MetricsEnabled     bool
}

// Server wraps http.Server with the API routes and the goroutines the
// middleware starts.
type Server struct {
	http.Server

	deps    Deps
	limiter *ratelimit.Limiter
	logger  *applog.Logger
	today   func() core.Date

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		deps:    deps,
		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute}),
		logger:  logger,
		today:   core.Today,
	}
	s.Handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(trace.EnsureRequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(applog.Middleware(s.logger, trace.RequestID))
	r.Use(trace.Middleware(clientIP))
	r.Use(security.Headers(security.DefaultHeadersConfig()))

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	if s.deps.MetricsEnabled {
		r.Handle("/metrics", metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Middleware(clientIP, handleRateLimited, http.MethodPost, http.MethodPut, http.MethodDelete))

		r.Get("/summary", s.handleSummary)
		r.Get("/analytics", s.handleAnalytics)
		r.Get("/activity", s.handleActivity)

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.handleListTransactions)
			r.Post("/", s.handleCreateTransaction)
			r.Put("/{id}", s.handleUpdateTransaction)
			r.Delete("/{id}", s.handleDeleteTransaction)
		})

		r.Route("/goals", func(r chi.Router) {
			r.Get("/", s.handleListGoals)
			r.Post("/", s.handleCreateGoal)
			r.Get("/{id}", s.handleGetGoal)
			r.Put("/{id}", s.handleUpdateGoal)
			r.Delete("/{id}", s.handleDeleteGoal)
			r.Post("/{id}/pin", s.handlePinGoal)
			r.Post("/{id}/achieve", s.handleAchieveGoal)
			r.Post("/{id}/spending", s.handleGoalSpending)
		})

		r.Get("/rates", s.handleRates)
		r.Get("/convert", s.handleConvert)
	})

	return r
}

// Shutdown stops the limiter cleanup and drains the HTTP server. Safe to
// call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	NewResponse().JSON(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Store.Ready(r.Context()); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
		NewResponse().
			Status(http.StatusServiceUnavailable).
			JSON(map[string]string{"status": "unavailable"}).
			Write(w)
		return
	}
	NewResponse().JSON(map[string]string{"status": "ready"}).Write(w)
}

func handleRateLimited(w http.ResponseWriter, _ *http.Request) {
	NewResponse().
		Status(http.StatusTooManyRequests).
		JSON(errorBody{Error: "rate limit exceeded, try again later"}).
		Write(w)
}
