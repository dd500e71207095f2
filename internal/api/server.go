// Package api provides the HTTP API for observing a running simulation.
// All endpoints are read-only.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/talgya/ugworld/internal/engine"
	"github.com/talgya/ugworld/internal/experiment"
	"github.com/talgya/ugworld/internal/persistence"
)

// maxRecords bounds the in-memory record history.
const maxRecords = 1000

// RunStore is the subset of the database the API reads.
type RunStore interface {
	ListRuns() ([]persistence.Run, error)
	LoadRecords(runID string) ([]experiment.Record, error)
}

// State is a snapshot of the simulation published from its goroutine.
type State struct {
	RunID      string                `json:"run_id"`
	Seed       int64                 `json:"seed"`
	Tick       uint64                `json:"tick"`
	Population int                   `json:"population"`
	Groups     []engine.GroupSummary `json:"-"`
	GroupCount int                   `json:"groups"`
	Extinct    bool                  `json:"extinct"`
}

// Server serves simulation state over HTTP.
type Server struct {
	Port int
	Runs RunStore // optional; nil disables /api/v1/runs

	gatherer prometheus.Gatherer
	upgrader websocket.Upgrader
	hub      *hub
	limiter  *RateLimiter
	started  time.Time

	mu      sync.RWMutex
	state   State
	records []experiment.Record
}

// NewServer creates a server exposing metrics from gatherer.
func NewServer(port int, runs RunStore, gatherer prometheus.Gatherer) *Server {
	return &Server{
		Port:     port,
		Runs:     runs,
		gatherer: gatherer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		hub:     newHub(),
		limiter: NewRateLimiter(60, time.Minute),
		started: time.Now(),
	}
}

// Handler builds the request router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/records", s.handleRecords)
	mux.HandleFunc("GET /api/v1/groups", s.handleGroups)
	mux.HandleFunc("GET /api/v1/stream", s.handleStream)

	// Database-backed endpoints are rate limited.
	mux.HandleFunc("GET /api/v1/runs", RateLimitMiddleware(s.limiter, s.handleRuns))
	mux.HandleFunc("GET /api/v1/runs/{id}/records", RateLimitMiddleware(s.limiter, s.handleRunRecords))

	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "runs", s.Runs != nil, "metrics", s.gatherer != nil)

	go func() {
		if err := http.ListenAndServe(addr, s.Handler()); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// PublishState replaces the current snapshot.
func (s *Server) PublishState(st State) {
	st.GroupCount = len(st.Groups)
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// WriteRecord keeps rec in the recent history and streams it to subscribers.
func (s *Server) WriteRecord(rec experiment.Record) error {
	msg, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.records = append(s.records, rec)
	if len(s.records) > maxRecords {
		s.records = append(s.records[:0], s.records[len(s.records)-maxRecords:]...)
	}
	s.mu.Unlock()

	s.hub.broadcast(msg)
	return nil
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS env var to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	st := s.state
	n := len(s.records)
	s.mu.RUnlock()

	writeJSON(w, map[string]any{
		"name":        "ugworld",
		"run_id":      st.RunID,
		"seed":        st.Seed,
		"tick":        st.Tick,
		"population":  st.Population,
		"groups":      st.GroupCount,
		"extinct":     st.Extinct,
		"records":     n,
		"subscribers": s.hub.len(),
		"uptime_s":    int(time.Since(s.started).Seconds()),
	})
}

// handleRecords returns the most recent records, oldest first.
// ?limit=N caps the count (default 100).
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r, 100)
	if !ok {
		return
	}

	s.mu.RLock()
	start := len(s.records) - limit
	if start < 0 {
		start = 0
	}
	out := append([]experiment.Record(nil), s.records[start:]...)
	s.mu.RUnlock()

	writeJSON(w, out)
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	groups := s.state.Groups
	s.mu.RUnlock()

	if groups == nil {
		groups = []engine.GroupSummary{}
	}
	writeJSON(w, groups)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.Runs == nil {
		http.Error(w, "no database configured", http.StatusNotFound)
		return
	}
	runs, err := s.Runs.ListRuns()
	if err != nil {
		slog.Error("list runs", "error", err)
		http.Error(w, "database error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, runs)
}

func (s *Server) handleRunRecords(w http.ResponseWriter, r *http.Request) {
	if s.Runs == nil {
		http.Error(w, "no database configured", http.StatusNotFound)
		return
	}
	recs, err := s.Runs.LoadRecords(r.PathValue("id"))
	if err != nil {
		slog.Error("load records", "run", r.PathValue("id"), "error", err)
		http.Error(w, "database error", http.StatusInternalServerError)
		return
	}
	if len(recs) == 0 {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	writeJSON(w, recs)
}

func parseLimit(w http.ResponseWriter, r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxRecords {
		http.Error(w, fmt.Sprintf("limit must be 1-%d", maxRecords), http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
