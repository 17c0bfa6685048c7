// Package api provides the HTTP API server for shardlens. It is a
// programmatic surface over one analysis session: filter state is
// adjusted freely and execution happens only on an explicit refresh.
package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/shardlens/shardlens/internal/config"
	"github.com/shardlens/shardlens/internal/preset"
	"github.com/shardlens/shardlens/internal/session"
	"github.com/shardlens/shardlens/internal/source"
)

// Server represents the HTTP API server.
type Server struct {
	cfg     *config.Config
	session *session.Session
	schema  *source.Schema
	presets *preset.Store
	logger  *slog.Logger
	router  chi.Router
	server  *http.Server
}

// NewServer creates a new API server over an already-discovered session.
func NewServer(cfg *config.Config, sess *session.Session, schema *source.Schema, presets *preset.Store, logger *slog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		session: sess,
		schema:  schema,
		presets: presets,
		logger:  logger,
	}
	s.router = s.setupRouter()
	return s
}

// setupRouter configures the chi router with all routes and middleware.
func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(s.loggerMiddleware)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(5 * time.Minute))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/schema", s.handleSchema)

		r.Get("/state", s.handleGetState)
		r.Put("/state", s.handlePutState)

		r.Post("/refresh", s.handleRefresh)
		r.Get("/result", s.handleResult)
		r.Delete("/result", s.handleClear)

		r.Get("/count", s.handleCount)
		r.Get("/distinct/{column}", s.handleDistinct)

		r.Get("/presets", s.handleListPresets)
		r.Put("/presets/{name}", s.handleSavePreset)
		r.Delete("/presets/{name}", s.handleDeletePreset)
		r.Post("/presets/{name}/apply", s.handleApplyPreset)

		r.Get("/export", s.handleExport)
	})

	return r
}

// loggerMiddleware logs each request with method, path, status and timing.
func (s *Server) loggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"elapsed", time.Since(start))
	})
}

// Start begins listening on the configured port. Blocks until the server
// stops or the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(s.cfg.Server.APIPort))
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server listening", "addr", addr)
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
