// Package api provides the HTTP API for observing and driving the planet.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/mini-planet/internal/climate"
	"github.com/talgya/mini-planet/internal/engine"
	"github.com/talgya/mini-planet/internal/persistence"
	"github.com/talgya/mini-planet/internal/world"
)

// Server serves the planet over HTTP.
type Server struct {
	Planet   *engine.Planet
	Eng      *engine.Engine  // Optional turn loop
	DB       *persistence.DB // Optional run history
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	// RunLimit caps POST /api/v1/run per client per hour. Zero means 30.
	RunLimit int
}

// Handler builds the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	limit := s.RunLimit
	if limit <= 0 {
		limit = 30
	}
	runLimiter := NewRateLimiter(limit, time.Hour)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/grid", s.handleGrid)
	mux.HandleFunc("/api/v1/stats", s.handleStats)
	mux.HandleFunc("/api/v1/centers", s.handleCenters)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/runs", s.handleRuns)
	mux.HandleFunc("/api/v1/runs/", s.handleRunDetail)
	mux.HandleFunc("/api/v1/config/keys", s.handleConfigKeys)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/run", s.adminOnly(RateLimitMiddleware(runLimiter, s.handleRun)))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	handler := s.Handler()
	go func() {
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of extra allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && token == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no PLANETGEN_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

// current returns the last result, answering 503 when there is none yet.
func (s *Server) current(w http.ResponseWriter) (*world.Result, world.GenConfig, bool) {
	res, cfg := s.Planet.Current()
	if res == nil {
		http.Error(w, "planet not generated yet", http.StatusServiceUnavailable)
		return nil, cfg, false
	}
	return res, cfg, true
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	res, cfg := s.Planet.Current()
	status := map[string]any{
		"name":        "mini-planet",
		"seed":        cfg.Seed,
		"era":         cfg.Era,
		"width":       cfg.Width,
		"height":      cfg.Height,
		"temperature": cfg.AverageTemperature,
		"green_index": cfg.GreenIndex,
		"drift_epoch": s.Planet.Gen.Epoch(),
		"generated":   res != nil,
	}
	if s.Eng != nil {
		status["turn"] = s.Eng.Turn()
		status["running"] = s.Eng.Running()
	}
	if res != nil {
		status["last_run"] = map[string]any{
			"id":           res.Run.ID,
			"mode":         res.Run.Mode,
			"executed":     res.Executed,
			"fingerprint":  res.Fingerprint,
			"cache_hit":    res.CacheHit,
			"reproducible": res.Reproducible,
			"elapsed_ms":   res.Elapsed.Milliseconds(),
		}
	}
	writeJSON(w, status)
}

// handleGrid returns the grid row-major. ?view=colors returns only the
// color of each cell for lightweight renderers.
func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	res, _, ok := s.current(w)
	if !ok {
		return
	}
	if r.URL.Query().Get("view") == "colors" {
		colors := make([]string, len(res.Cells))
		for i, c := range res.Cells {
			colors[i] = c.ColorHex
		}
		writeJSON(w, map[string]any{"width": res.Width, "height": res.Height, "colors": colors})
		return
	}

	type cellEntry struct {
		Type     string      `json:"type"`
		Subtype  string      `json:"subtype"`
		Category string      `json:"category"`
		Flags    world.Flags `json:"flags"`
		Color    string      `json:"color"`
	}
	cells := make([]cellEntry, len(res.Cells))
	for i, c := range res.Cells {
		cells[i] = cellEntry{
			Type:     c.Terrain.Type.String(),
			Subtype:  c.Terrain.Subtype.String(),
			Category: world.CategoryOf(c).String(),
			Flags:    c.Flags,
			Color:    c.ColorHex,
		}
	}
	writeJSON(w, map[string]any{
		"width":   res.Width,
		"height":  res.Height,
		"palette": res.Palette,
		"cells":   cells,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	res, _, ok := s.current(w)
	if !ok {
		return
	}
	counts := res.Counts()
	writeJSON(w, map[string]any{
		"counts":           counts,
		"fractions":        climate.Fractions(counts),
		"pre_glacier":      res.PreGlacier,
		"top_glacier_rows": res.TopGlacierRows,
		"refine":           res.Refine,
		"drift":            res.Drift,
		"clusters":         len(res.Clusters),
	})
}

func (s *Server) handleCenters(w http.ResponseWriter, r *http.Request) {
	res, _, ok := s.current(w)
	if !ok {
		return
	}
	writeJSON(w, res.Centers)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Planet.Events())
}

func (s *Server) handleConfigKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, world.OverrideKeys())
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, 100)
	}
	runs, err := s.DB.RecentRuns(limit)
	if err != nil {
		slog.Error("list runs failed", "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []persistence.RunRecord{}
	}
	writeJSON(w, runs)
}

// handleRunDetail returns a stored run's record, config and category counts.
func (s *Server) handleRunDetail(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/runs/")
	if id == "" {
		s.handleRuns(w, r)
		return
	}
	run, err := s.DB.LoadRun(id)
	if errors.Is(err, persistence.ErrNotFound) {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("load run failed", "run", id, "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"record":  run.Record,
		"config":  run.Config,
		"centers": run.Centers,
		"counts":  world.CountTypes(run.Cells),
	})
}

// runRequest is the body of POST /api/v1/run.
type runRequest struct {
	Mode      string            `json:"mode"`
	Overrides map[string]string `json:"overrides"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req runRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Mode == "" {
		req.Mode = string(world.ModeGenerate)
	}
	mode, err := world.ParseRunMode(req.Mode)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := s.Planet.Run(mode, req.Overrides)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	slog.Info("run requested via API", "run", res.Run.ID, "mode", mode, "executed", res.Executed)

	writeJSON(w, map[string]any{
		"id":               res.Run.ID,
		"mode":             res.Run.Mode,
		"executed":         res.Executed,
		"cache_hit":        res.CacheHit,
		"reproducible":     res.Reproducible,
		"fingerprint":      res.Fingerprint,
		"pre_glacier":      res.PreGlacier,
		"top_glacier_rows": res.TopGlacierRows,
		"drift":            res.Drift,
	})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
