package webserver

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_jobmarket/internal/engine"
	"github.com/anatolykoptev/go_jobmarket/internal/pipeline"
	"github.com/anatolykoptev/go_jobmarket/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response encode failed", slog.Any("error", err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"refreshing": s.pipeline.Running(),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(engine.FormatMetrics()))
}

// handleRoles lists roles with a stored analysis. Falls back to the
// configured keyword list when nothing is cached yet.
func (s *Server) handleRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := s.db.ListCachedRoles(r.Context())
	if err != nil {
		slog.Error("list roles failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "storage unavailable")
		return
	}
	if len(roles) == 0 {
		roles = s.roles
	}
	writeJSON(w, http.StatusOK, map[string][]string{"roles": roles})
}

// handleAnalysis serves the cached analysis for one role, in-memory and
// Redis tiers first, Postgres as the source of truth.
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	role := strings.TrimSpace(r.URL.Query().Get("role"))
	if role == "" {
		writeError(w, http.StatusBadRequest, "role query parameter is required")
		return
	}

	key := engine.CacheKey("analysis", role)
	if payload, ok := engine.CacheGet(r.Context(), key); ok {
		writeJSON(w, http.StatusOK, payload)
		return
	}

	cached, err := s.db.GetCached(r.Context(), role)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no analysis for role "+strconv.Quote(role))
		return
	}
	if err != nil {
		slog.Error("get analysis failed", slog.String("role", role), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "storage unavailable")
		return
	}

	engine.CacheSet(r.Context(), key, cached.Payload)
	writeJSON(w, http.StatusOK, cached.Payload)
}

type roadmapRequest struct {
	Role string `json:"role"`
}

func (s *Server) handleRoadmap(w http.ResponseWriter, r *http.Request) {
	var req roadmapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Role = strings.TrimSpace(req.Role)
	if req.Role == "" {
		writeError(w, http.StatusBadRequest, "role is required")
		return
	}
	if s.roadmapper == nil {
		writeError(w, http.StatusServiceUnavailable, "roadmap generation is not configured")
		return
	}

	md, err := s.roadmapper.Roadmap(r.Context(), req.Role)
	if err != nil {
		slog.Error("roadmap failed", slog.String("role", req.Role), slog.Any("error", err))
		writeError(w, http.StatusBadGateway, "roadmap generation failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"role": req.Role, "roadmap": md})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := store.RecentRuns(r.Context(), limit)
	if err != nil {
		slog.Error("list runs failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "run history unavailable")
		return
	}
	if runs == nil {
		runs = []store.PipelineRun{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// handleRefresh starts a background refresh of all roles. Requires the admin
// token; answers 202 when started, 409 when one is already running.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.adminToken == "" {
		writeError(w, http.StatusServiceUnavailable, "admin endpoint is not configured")
		return
	}
	token := r.URL.Query().Get("token")
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.adminToken)) != 1 {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	if s.pipeline.Running() {
		writeError(w, http.StatusConflict, "refresh already running")
		return
	}

	go func() {
		ctx := context.Background()
		if err := s.pipeline.RefreshAll(ctx, s.roles); err != nil && !errors.Is(err, pipeline.ErrBusy) {
			slog.Error("manual refresh failed", slog.Any("error", err))
		}
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refresh started"})
}
