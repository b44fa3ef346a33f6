// Package health exposes liveness and readiness endpoints over HTTP.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"
)

const checkTimeout = 5 * time.Second

// CheckFunc probes one dependency. It returns whether the dependency is
// usable and an optional human-readable detail.
type CheckFunc func(ctx context.Context) (bool, string)

// Check is the reported outcome of a single probe.
type Check struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// Report is the JSON body served on /health.
type Report struct {
	Status    string           `json:"status"`
	Checks    map[string]Check `json:"checks"`
	Version   string           `json:"version,omitempty"`
	Timestamp string           `json:"timestamp"`
}

// Server serves /health, /ready and /live on its own port.
type Server struct {
	port    int
	version string

	mu     sync.RWMutex
	checks map[string]CheckFunc

	server *http.Server
}

func NewServer(port int, version string) *Server {
	return &Server{
		port:    port,
		version: version,
		checks:  make(map[string]CheckFunc),
	}
}

// RegisterCheck adds a named probe. Re-registering a name replaces it.
func (s *Server) RegisterCheck(name string, check CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = check
}

// Start binds the listener and begins serving in the background.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/live", s.handleLive)

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("health: listen on port %d: %w", s.port, err)
	}

	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: checkTimeout,
	}
	go s.server.Serve(ln)
	return nil
}

// Stop shuts the server down, waiting for in-flight probes.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// runChecks executes every registered probe under a shared timeout.
func (s *Server) runChecks(ctx context.Context) (map[string]Check, bool) {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	s.mu.RLock()
	checks := make(map[string]CheckFunc, len(s.checks))
	for name, fn := range s.checks {
		checks[name] = fn
	}
	s.mu.RUnlock()

	results := make(map[string]Check, len(checks))
	healthy := true
	for name, fn := range checks {
		ok, msg := fn(ctx)
		results[name] = Check{Healthy: ok, Message: msg}
		if !ok {
			healthy = false
		}
	}
	return results, healthy
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	results, healthy := s.runChecks(r.Context())

	report := Report{
		Status:    "ok",
		Checks:    results,
		Version:   s.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if !healthy {
		report.Status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(report)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, healthy := s.runChecks(r.Context()); !healthy {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.Write([]byte("ready"))
}

func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	w.Write([]byte("alive"))
}
