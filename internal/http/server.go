package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"mibolsillo/internal/analytics"
	applog "mibolsillo/internal/log"
	"mibolsillo/internal/middleware/ratelimit"
	"mibolsillo/internal/middleware/security"
	"mibolsillo/internal/middleware/trace"
	"mibolsillo/internal/session"
)

// Options configures NewServer. Zero values get defaults.
type Options struct {
	RateLimitPerMinute int
	Logger             *applog.Logger
	// Backend names the table source for the readiness report.
	Backend string
}

type Server struct {
	http.Server
	engine   *analytics.Engine
	sessions *session.Store
	logger   *applog.Logger
	backend  string
	started  time.Time

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	tracer           *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer wires the routes and middleware, returning a ready-to-run server.
func NewServer(addr string, engine *analytics.Engine, sessions *session.Store, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	detector := security.NewDetector()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		engine:           engine,
		sessions:         sessions,
		logger:           opts.Logger.WithComponent(applog.ComponentHTTP),
		backend:          opts.Backend,
		started:          time.Now(),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		securityDetector: detector,
		tracer:           trace.NewMiddleware(detector.ClientIP),
	}
	s.Handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(
		applog.Middleware(s.logger),
		s.tracer.Middleware,
		security.Headers(security.DefaultHeadersConfig()),
		s.securityDetector.Middleware,
	)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(s.rateLimiter.Middleware(s.securityDetector.ClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded, please try again later").Write(w)
	}))

	api.HandleFunc("/users", s.handleUsers).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/timeseries", s.handleUserTimeSeries).Methods(http.MethodGet)
	api.HandleFunc("/segments", s.handleSegments).Methods(http.MethodGet)
	api.HandleFunc("/segments/overview", s.handleSegmentOverview).Methods(http.MethodGet)
	api.HandleFunc("/date-bounds", s.handleDateBounds).Methods(http.MethodGet)
	api.HandleFunc("/cohort-series", s.handleCohortSeries).Methods(http.MethodGet)
	api.HandleFunc("/category-breakdown", s.handleCategoryBreakdown).Methods(http.MethodGet)
	api.HandleFunc("/health-options", s.handleHealthOptions).Methods(http.MethodGet)
	api.HandleFunc("/population", s.handlePopulation).Methods(http.MethodGet)

	api.HandleFunc("/sessions", s.handleCreateSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", s.handleUpdateSession).Methods(http.MethodPatch)
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/reset-dates", s.handleResetDates).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/dashboard", s.handleDashboard).Methods(http.MethodGet)

	// Subrouters resolve their own misses; mux does not fall back to the parent.
	for _, router := range []*mux.Router{r, api} {
		router.NotFoundHandler = http.HandlerFunc(handleNoRoute)
		router.MethodNotAllowedHandler = http.HandlerFunc(handleMethodNotAllowed)
	}
	return r
}

func handleNoRoute(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(http.StatusNotFound, CodeNotFound, "no such route").Write(w)
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed").Write(w)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
