// Package health serves the transmitter's HTTP health endpoint.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/dyluth/loratx/internal/bridge"
	"github.com/gorilla/mux"
)

// Pinger checks queue store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Reporter exposes the engine state.
type Reporter interface {
	Snapshot(ctx context.Context) (bridge.Snapshot, error)
}

// Server provides the /healthz endpoint.
type Server struct {
	store    Pinger
	reporter Reporter
	addr     string
	server   *http.Server
}

// NewServer creates a health server listening on addr once started.
func NewServer(store Pinger, reporter Reporter, addr string) *Server {
	return &Server{
		store:    store,
		reporter: reporter,
		addr:     addr,
	}
}

// Router returns the HTTP routes of the server.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.healthCheckHandler).Methods(http.MethodGet)
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})
	return r
}

// Start starts the HTTP server in the background.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[ERROR] Health server error: %v", err)
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Response is the JSON body of /healthz.
type Response struct {
	Status       string `json:"status"`
	Redis        string `json:"redis,omitempty"`
	Link         string `json:"link,omitempty"`
	GateBusy     bool   `json:"gate_busy"`
	JoinAttempts int    `json:"join_attempts"`
	Sent         uint64 `json:"sent"`
	Heartbeats   uint64 `json:"heartbeats"`
	Dropped      uint64 `json:"dropped"`
	Error        string `json:"error,omitempty"`
}

// healthCheckHandler returns 200 if Redis is reachable, 503 otherwise.
// The link state is informational and never makes the check fail.
func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	response := Response{Status: "healthy"}

	if snap, err := s.reporter.Snapshot(ctx); err == nil {
		response.Link = snap.Health.String()
		response.GateBusy = snap.GateBusy
		response.JoinAttempts = snap.JoinAttempts
		response.Sent = snap.Sent
		response.Heartbeats = snap.Heartbeats
		response.Dropped = snap.Dropped
	}

	code := http.StatusOK
	if err := s.store.Ping(ctx); err != nil {
		response.Status = "unhealthy"
		response.Redis = "disconnected"
		response.Error = err.Error()
		code = http.StatusServiceUnavailable
	} else {
		response.Redis = "connected"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(response)
}
