// Package webserver exposes the analysis results and admin controls over
// HTTP.
package webserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/anatolykoptev/go_jobmarket/internal/store"
)

// Roadmapper generates a markdown learning roadmap for a role.
type Roadmapper interface {
	Roadmap(ctx context.Context, role string) (string, error)
}

// Storage is the read surface the handlers need.
type Storage interface {
	ListCachedRoles(ctx context.Context) ([]string, error)
	GetCached(ctx context.Context, role string) (*store.CachedAnalysis, error)
}

// Refresher triggers and reports on pipeline runs.
type Refresher interface {
	Running() bool
	RefreshAll(ctx context.Context, roles []string) error
}

// Server wires the HTTP handlers to storage and the pipeline.
type Server struct {
	db         Storage
	pipeline   Refresher
	roadmapper Roadmapper
	roles      []string
	adminToken string
}

func New(db Storage, p Refresher, rm Roadmapper, roles []string, adminToken string) *Server {
	return &Server{db: db, pipeline: p, roadmapper: rm, roles: roles, adminToken: adminToken}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("GET /api/roles", s.handleRoles)
	mux.HandleFunc("GET /api/analysis", s.handleAnalysis)
	mux.HandleFunc("POST /api/roadmap", s.handleRoadmap)
	mux.HandleFunc("GET /api/runs", s.handleRuns)
	mux.HandleFunc("POST /admin/refresh", s.handleRefresh)
	return logRequests(mux)
}

// ListenAndServe runs the HTTP server until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// statusRecorder captures the response status for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("elapsed", time.Since(start)))
	})
}
