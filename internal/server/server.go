// Package server builds the HTTP server: the chi router with the shared
// middleware stack, health and metrics endpoints, static assets and
// graceful shutdown. Feature packages mount their routes on Router().
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ziadkadry99/smart-summarizer/internal/db"
	"github.com/ziadkadry99/smart-summarizer/internal/logging"
	"github.com/ziadkadry99/smart-summarizer/internal/metrics"
	"github.com/ziadkadry99/smart-summarizer/internal/web"
)

// Config holds server configuration.
type Config struct {
	Port int
	// RequestTimeout bounds each request. Zero means 60 seconds.
	RequestTimeout time.Duration
}

// Server is the smartsum web server.
type Server struct {
	cfg        Config
	db         *db.DB
	logger     *zap.Logger
	metrics    *metrics.Metrics
	router     chi.Router
	httpServer *http.Server

	mu         sync.Mutex
	onShutdown []func()
}

// New creates a server. m may be nil to disable /metrics.
func New(cfg Config, database *db.DB, logger *zap.Logger, m *metrics.Metrics) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	s := &Server{
		cfg:     cfg,
		db:      database,
		logger:  logger,
		metrics: m,
	}

	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with the shared routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}

	// Health check
	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	r.Handle("/static/*", http.StripPrefix("/static/", web.Static()))

	// Pages live behind the login screen; unknown paths go there too.
	toLogin := func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusFound)
	}
	r.Get("/", toLogin)
	r.NotFound(toLogin)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.db != nil {
		if err := s.db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, `{"status":"unavailable"}`)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Database returns the database connection.
func (s *Server) Database() *db.DB { return s.db }

// ServerConfig returns the server configuration.
func (s *Server) ServerConfig() Config { return s.cfg }

// OnShutdown registers fn to run after the listener has stopped.
func (s *Server) OnShutdown(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onShutdown = append(s.onShutdown, fn)
}

// Start begins listening on the configured port. It returns
// http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.mu.Lock()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("smartsum server listening", zap.String("addr", addr))
	return srv.ListenAndServe()
}

// Shutdown gracefully stops the listener, then runs the OnShutdown hooks
// in reverse registration order.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	hooks := s.onShutdown
	s.onShutdown = nil
	s.mu.Unlock()

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}
	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i]()
	}
	return err
}
