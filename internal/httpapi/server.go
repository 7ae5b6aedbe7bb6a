package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	natsbus "github.com/spiritengine/skein/internal/nats"
	"github.com/spiritengine/skein/internal/registry"
)

// Server is SKEIN's HTTP entrypoint, grounded on teacher
// internal/server/server.go's Server: an http.Server plus a gorilla/mux
// router, generalized to route every request through a per-project
// service bundle instead of one process-wide dashboard state.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	hub        *hub
	projects   *projects
	limiters   *rateLimiters
	shutdownCh chan struct{}
	nats       *natsbus.Client
}

// SetNATSClient attaches a connected NATS client whose subjects the hub
// publishes to alongside every local websocket broadcast, so a
// second SKEIN process sharing the same embedded bus observes this
// process's artifact-graph changes too. A nil client (the default)
// makes broadcasts websocket-only.
func (s *Server) SetNATSClient(c *natsbus.Client) {
	s.nats = c
}

// ShutdownRequested returns the channel handleShutdown signals when a
// caller has asked this instance to stop, for main's signal-handling
// select alongside SIGINT/SIGTERM.
func (s *Server) ShutdownRequested() <-chan struct{} {
	return s.shutdownCh
}

// Config carries Server's construction parameters.
type Config struct {
	Registry          *registry.Registry
	BaseDir           string
	RequestsPerSecond float64
	Burst             int
}

// NewServer returns a Server wired against cfg, matching teacher
// internal/server/server.go's NewServer constructor shape.
func NewServer(cfg Config) *Server {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 50
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 100
	}

	s := &Server{
		hub:        newHub(),
		projects:   newProjects(cfg.Registry, cfg.BaseDir),
		limiters:   newRateLimiters(rps, burst),
		shutdownCh: make(chan struct{}, 1),
	}
	s.router = mux.NewRouter()
	s.setupRoutes()
	return s
}

// Start begins serving addr, matching teacher
// internal/server/server.go's Start.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	fmt.Printf("SKEIN HTTP surface ready at http://localhost%s\n", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests, matching teacher
// internal/server/server.go's Shutdown.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
