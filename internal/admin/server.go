// Package admin serves the read-only admin API of a running pipeline.
package admin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tkingovr/filtertools/internal/audit"
	"github.com/tkingovr/filtertools/internal/config"
	"github.com/tkingovr/filtertools/internal/pipeline"
)

// Server is the admin HTTP server.
type Server struct {
	mux        *http.ServeMux
	logger     *slog.Logger
	auditStore audit.Store
	pipeline   *pipeline.Pipeline
	config     *config.Config
	gatherer   prometheus.Gatherer
	addr       string
}

// NewServer creates a new admin server.
func NewServer(addr string, store audit.Store, p *pipeline.Pipeline, cfg *config.Config, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	s := &Server{
		mux:        http.NewServeMux(),
		logger:     logger,
		auditStore: store,
		pipeline:   p,
		config:     cfg,
		gatherer:   gatherer,
		addr:       addr,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	s.mux.HandleFunc("GET /api/v1/stats", s.handleStats)
	s.mux.HandleFunc("GET /api/v1/audit", s.handleAudit)
	s.mux.HandleFunc("GET /api/v1/pipeline", s.handlePipeline)
	s.mux.HandleFunc("POST /api/v1/check", s.handleCheck)
}

// ListenAndServe starts the admin HTTP server and stops it when ctx is
// done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.mux,
	}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	s.logger.Info("starting admin server", "addr", s.addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Handler returns the HTTP handler for embedding in other servers.
func (s *Server) Handler() http.Handler {
	return s.mux
}
