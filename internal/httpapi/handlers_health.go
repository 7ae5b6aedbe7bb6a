package httpapi

import (
	"net/http"
	"time"
)

// handleHealth answers the instance manager's liveness probe (see
// internal/instance's HealthCheck), outside the projectHeaderMiddleware
// subrouter since it carries no project context.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

// handleShutdown answers a graceful-shutdown request (see
// internal/instance's SendShutdownRequest) by signaling s.shutdownCh and
// responding before the process actually begins draining, so the caller
// sees the 200 rather than a severed connection.
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "shutting_down"})

	select {
	case s.shutdownCh <- struct{}{}:
	default:
	}
}
