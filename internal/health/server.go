// Package health serves the liveness, readiness and metrics endpoints of
// the cqlboot binary.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/arloliu/cqlboot/types"
)

// ShutdownTimeout bounds the graceful stop of the listener.
const ShutdownTimeout = 5 * time.Second

// StatusSource reports the connection state. *cqlboot.Manager implements it.
type StatusSource interface {
	State() types.ConnectionState
	Ready() bool
	SessionID() string
	Target() types.Target
}

// Status is the body of /readyz.
type Status struct {
	State     string `json:"state"`
	Ready     bool   `json:"ready"`
	SessionID string `json:"session_id,omitempty"`
	Endpoint  string `json:"endpoint"`
	Keyspace  string `json:"keyspace"`
}

// Server exposes a StatusSource over HTTP.
type Server struct {
	addr    string
	source  StatusSource
	metrics http.HandlerFunc
	logger  types.Logger
	server  *http.Server
}

// New creates a server listening on addr. metrics may be nil.
func New(addr string, source StatusSource, metrics http.HandlerFunc, logger types.Logger) *Server {
	return &Server{
		addr:    addr,
		source:  source,
		metrics: metrics,
		logger:  logger,
	}
}

// Router returns the routes of the server.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	if s.metrics != nil {
		router.HandleFunc("/metrics", s.metrics).Methods(http.MethodGet)
	}

	return router
}

// Run serves until ctx is done, then shuts the listener down.
func (s *Server) Run(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("health server shutdown failed", "error", err)
		}
	}()

	s.logger.Info("health server listening", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// handleHealth reports that the process is alive, whatever the cluster does.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	target := s.source.Target()
	status := Status{
		State:     s.source.State().String(),
		Ready:     s.source.Ready(),
		SessionID: s.source.SessionID(),
		Endpoint:  target.Endpoint.String(),
		Keyspace:  target.Keyspace.Name,
	}

	code := http.StatusOK
	if !status.Ready {
		code = http.StatusServiceUnavailable
	}

	s.writeJSON(w, code, status)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("encode response failed", "error", err)
	}
}
