// Package api serves the asset-graph engine over HTTP for a local
// frontend. The surface is the presentation layer only: level listings,
// scan summaries and flattened graphs, shrink plans, copy execution, and
// run reports. Nothing in the engine assumes this server is running.
//
// All responses are JSON. Errors carry the engine's error code next to a
// user-facing message:
//
//	{"error": "level \"ghost\" not found", "code": "LEVEL_NOT_FOUND"}
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/levelforge/pkg/config"
	"github.com/matzehuels/levelforge/pkg/pipeline"
	"github.com/matzehuels/levelforge/pkg/report"
)

// shutdownTimeout bounds the drain of in-flight requests on shutdown.
// Scans of large levels can outlive it; they are abandoned, not rolled
// back, which is safe because scans never write.
const shutdownTimeout = 5 * time.Second

// Server hosts the HTTP API. Construct it with New and mount Router on
// an http.Server, or use ListenAndServe for the managed lifecycle.
type Server struct {
	runner  *pipeline.Runner
	reports report.Store
	cfg     config.Config
	logger  *log.Logger
}

// New creates a Server.
// If reports is nil, the report endpoints serve empty results.
// If logger is nil, the default logger is used.
func New(runner *pipeline.Runner, reports report.Store, cfg config.Config, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		runner:  runner,
		reports: reports,
		cfg:     cfg,
		logger:  logger,
	}
}

// Router returns the API route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(allowCORS)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/levels", s.handleLevels)
		r.Route("/levels/{level}", func(r chi.Router) {
			r.Get("/summary", s.handleSummary)
			r.Get("/scan", s.handleScan)
			r.Post("/shrink", s.handleShrink)
		})
		r.Post("/copy", s.handleCopy)
		r.Get("/reports", s.handleListReports)
		r.Get("/reports/{id}", s.handleGetReport)
	})

	return r
}

// ListenAndServe runs the server on addr until ctx is canceled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	s.logger.Info("api listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		return err
	}
}
