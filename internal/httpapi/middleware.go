package httpapi

import (
	"context"
	"log"
	"net/http"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/spiritengine/skein/internal/artifacts"
)

type ctxKey int

const (
	ctxRequestID ctxKey = iota
	ctxProjectID
	ctxAgentID
)

// RequestID returns the request identifier bound to r's context by
// RequestIDMiddleware, or "" if the middleware never ran.
func RequestID(r *http.Request) string {
	id, _ := r.Context().Value(ctxRequestID).(string)
	return id
}

// ProjectID returns the project identifier bound by projectHeaderMiddleware.
func ProjectID(r *http.Request) string {
	id, _ := r.Context().Value(ctxProjectID).(string)
	return id
}

// AgentID returns the optional agent identifier bound by
// projectHeaderMiddleware, used as the default weaver/creator (§4.9).
func AgentID(r *http.Request) string {
	id, _ := r.Context().Value(ctxAgentID).(string)
	return id
}

// RequestIDMiddleware assigns every request a unique identifier,
// accepting one supplied by the client via X-Request-Id, binds it to
// the request context, and echoes it on the response (§4.9).
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), ctxRequestID, id)
		log.Printf("[HTTP] request_id=%s %s %s", id, r.Method, r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RecoveryMiddleware catches a handler panic, logs it with its stack
// trace and request identifier, and returns a structured 500 body
// rather than an abrupt connection close (§4.9).
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("[HTTP_PANIC] request_id=%s: %v\n%s", RequestID(r), rec, debug.Stack())
				writeError(w, r, &internalPanic{cause: rec})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type internalPanic struct{ cause interface{} }

func (e *internalPanic) Error() string { return "internal server error" }

// CORSMiddleware accepts cross-origin calls from any origin for
// development and exposes the request-id header to clients (§4.9).
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Skein-Project, X-Skein-Agent, X-Request-Id")
		w.Header().Set("Access-Control-Expose-Headers", "X-Request-Id")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// projectHeaderMiddleware resolves the mandatory project identifier
// (and optional agent identifier) from request headers (§4.9). A
// missing project identifier is a 400, never a silently-assumed
// default (§5's project-header-is-mandatory invariant).
func projectHeaderMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		projectID := r.Header.Get("X-Skein-Project")
		if projectID == "" {
			writeError(w, r, &artifacts.ValidationError{Reason: "X-Skein-Project header is required"})
			return
		}
		ctx := context.WithValue(r.Context(), ctxProjectID, projectID)
		if agentID := r.Header.Get("X-Skein-Agent"); agentID != "" {
			ctx = context.WithValue(ctx, ctxAgentID, agentID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// rateLimiters hands out one token-bucket limiter per project, so a
// noisy project cannot starve another's share of the "tens of
// concurrent requests" ceiling (§5). Grounded on SPEC_FULL.md's
// DOMAIN STACK entry for golang.org/x/time: a per-project limiter
// rather than a single global one, matching the per-project isolation
// the rest of the HTTP surface already assumes.
type rateLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func newRateLimiters(rps float64, burst int) *rateLimiters {
	return &rateLimiters{limiters: make(map[string]*rate.Limiter), rps: rate.Limit(rps), burst: burst}
}

func (rl *rateLimiters) forProject(projectID string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	lim, ok := rl.limiters[projectID]
	if !ok {
		lim = rate.NewLimiter(rl.rps, rl.burst)
		rl.limiters[projectID] = lim
	}
	return lim
}

// RateLimitMiddleware rejects a request with 429 once its project's
// token bucket is empty, must run after projectHeaderMiddleware.
func (rl *rateLimiters) RateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		projectID := ProjectID(r)
		if projectID != "" && !rl.forProject(projectID).Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, r, &rateLimitedError{})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type rateLimitedError struct{}

func (e *rateLimitedError) Error() string { return "rate limit exceeded, slow down" }
