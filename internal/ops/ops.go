// Package ops exposes a small operational HTTP surface next to the bot:
// a liveness endpoint and a counters snapshot for dashboards.
package ops

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/brewbeat/baristabot/internal/store"
	"github.com/brewbeat/baristabot/internal/undo"
)

// Opts holds configuration options for the ops server.
type Opts struct {
	Addr    string
	Version string
}

// Option defines a configuration option for the ops server.
type Option func(*Opts)

// WithAddr sets the listen address, e.g. ":8090".
func WithAddr(addr string) Option {
	return func(o *Opts) {
		o.Addr = addr
	}
}

// WithVersion sets the version string reported by /health.
func WithVersion(v string) Option {
	return func(o *Opts) {
		o.Version = v
	}
}

// Server serves the ops endpoints over plain net/http.
type Server struct {
	st        store.Store
	undo      *undo.Coordinator
	version   string
	startedAt time.Time
	httpSrv   *http.Server
}

// NewServer creates an ops server over the given store and undo
// coordinator.
func NewServer(st store.Store, u *undo.Coordinator, opts ...Option) *Server {
	cfg := Opts{Addr: ":8090", Version: "dev"}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Server{
		st:        st,
		undo:      u,
		version:   cfg.Version,
		startedAt: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/stats", s.statsHandler)
	s.httpSrv = &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Start runs the listener in a background goroutine.
func (s *Server) Start() {
	go func() {
		slog.Info("Ops server listening", "addr", s.httpSrv.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Ops server failed", "error", err)
		}
	}()
}

// Stop shuts the listener down, honoring the context deadline.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	status := http.StatusOK
	dbStatus := "ok"
	if err := s.st.Ping(r.Context()); err != nil {
		slog.Error("Ops healthHandler ping failed", "error", err)
		status = http.StatusServiceUnavailable
		dbStatus = "fail"
	}

	writeJSONResponse(w, status, healthResponse{
		Status:        statusWord(status),
		Version:       s.version,
		Database:      dbStatus,
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
	})
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	total, err := s.st.CountAllOrders(r.Context())
	if err != nil {
		slog.Error("Ops statsHandler count failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, errorResponse{Error: "failed to count orders"})
		return
	}

	writeJSONResponse(w, http.StatusOK, statsResponse{
		OrdersTotal:  total,
		PendingUndos: s.undo.PendingCount(),
	})
}

func statusWord(code int) string {
	if code == http.StatusOK {
		return "ok"
	}
	return "degraded"
}
