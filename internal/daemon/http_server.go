package daemon

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/menusync/internal/foundation/errors"
	"git.home.luguber.info/inful/menusync/internal/logfields"
	"git.home.luguber.info/inful/menusync/internal/metrics"
)

// httpServer serves the daemon's monitoring endpoints.
type httpServer struct {
	addr    string
	handler http.Handler

	mu      sync.Mutex
	srv     *http.Server
	ln      net.Listener
	running atomic.Bool
	done    chan struct{}
}

func newHTTPServer(addr string, handler http.Handler) *httpServer {
	return &httpServer{addr: addr, handler: handler}
}

// Start binds the address before returning so port conflicts fail fast.
func (s *httpServer) Start(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.DaemonError("failed to bind metrics address").
			WithCause(err).
			WithContext("addr", s.addr).
			Build()
	}
	s.ln = ln
	s.srv = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.done = make(chan struct{})
	s.running.Store(true)

	go func(srv *http.Server, done chan struct{}) {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped", logfields.Error(err))
		}
		s.running.Store(false)
	}(s.srv, s.done)

	slog.Info("HTTP server listening", slog.String("addr", ln.Addr().String()))
	return nil
}

// Stop shuts the server down gracefully.
func (s *httpServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv == nil {
		return nil
	}
	err := s.srv.Shutdown(ctx)
	<-s.done
	s.srv = nil
	return err
}

func (s *httpServer) IsRunning() bool { return s.running.Load() }

// Addr returns the bound address, useful with ":0".
func (s *httpServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

func (d *Daemon) routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics.HTTPHandler(d.registry))
	mux.HandleFunc("GET /healthz", d.handleHealth)
	mux.HandleFunc("GET /status", d.handleStatus)
	return mux
}

func (d *Daemon) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := d.PerformHealthChecks()
	code := http.StatusOK
	if resp.Status == HealthStatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

func (d *Daemon) handleStatus(w http.ResponseWriter, _ *http.Request) {
	round, ok := d.LastRound()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"rounds": 0})
		return
	}
	writeJSON(w, http.StatusOK, round)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("Failed to write response", logfields.Error(err))
	}
}
