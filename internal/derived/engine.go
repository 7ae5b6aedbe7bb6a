// Package derived computes a folio's current status and assignment
// from its thread history and memoizes the result per process (§4.3).
// Status and assignment are never stored on the folio record itself;
// this engine is the only source of truth for both.
package derived

import (
	"sync"

	"github.com/spiritengine/skein/internal/objectstore"
	"github.com/spiritengine/skein/internal/types"
)

// ThreadSource supplies the thread history the engine scans. Satisfied
// by *objectstore.Store.
type ThreadSource interface {
	GetThreads(filter objectstore.ThreadFilter) ([]types.Thread, error)
}

// Engine memoizes current_status/current_assignment lookups per folio
// id. Grounded on internal/tasks/queue.go's sync.RWMutex + map[string]*T
// in-memory index idiom, repurposed from a task priority queue into a
// folio-keyed derived-value memo with synchronous invalidation instead
// of insertion-order resorting.
type Engine struct {
	store ThreadSource

	mu              sync.RWMutex
	statusCache     map[string]string
	assignmentCache map[string]string
}

// New returns an Engine reading thread history from store.
func New(store ThreadSource) *Engine {
	return &Engine{
		store:           store,
		statusCache:     make(map[string]string),
		assignmentCache: make(map[string]string),
	}
}

// CurrentStatus returns the content of the most recently created
// status thread whose to_id is folioID. ok is false when no such
// thread exists.
func (e *Engine) CurrentStatus(folioID string) (status string, ok bool, err error) {
	e.mu.RLock()
	if cached, hit := e.statusCache[folioID]; hit {
		e.mu.RUnlock()
		return cached, true, nil
	}
	e.mu.RUnlock()

	threads, err := e.store.GetThreads(objectstore.ThreadFilter{ToID: folioID, Type: types.ThreadStatus})
	if err != nil {
		return "", false, err
	}

	latest, found := latestThread(threads)
	if !found {
		return "", false, nil
	}

	e.mu.Lock()
	e.statusCache[folioID] = latest.Content
	e.mu.Unlock()

	return latest.Content, true, nil
}

// CurrentAssignment returns the to_id of the most recently created
// assignment thread whose from_id is folioID. ok is false when no such
// thread exists.
func (e *Engine) CurrentAssignment(folioID string) (agentID string, ok bool, err error) {
	e.mu.RLock()
	if cached, hit := e.assignmentCache[folioID]; hit {
		e.mu.RUnlock()
		return cached, true, nil
	}
	e.mu.RUnlock()

	threads, err := e.store.GetThreads(objectstore.ThreadFilter{FromID: folioID, Type: types.ThreadAssignment})
	if err != nil {
		return "", false, err
	}

	latest, found := latestThread(threads)
	if !found {
		return "", false, nil
	}

	e.mu.Lock()
	e.assignmentCache[folioID] = latest.ToID
	e.mu.Unlock()

	return latest.ToID, true, nil
}

func latestThread(threads []types.Thread) (types.Thread, bool) {
	var latest types.Thread
	found := false
	for _, t := range threads {
		if !found || t.CreatedAt.After(latest.CreatedAt) {
			latest = t
			found = true
		}
	}
	return latest, found
}

// InvalidateStatus drops the cached status for folioID.
func (e *Engine) InvalidateStatus(folioID string) {
	e.mu.Lock()
	delete(e.statusCache, folioID)
	e.mu.Unlock()
}

// InvalidateAssignment drops the cached assignment for folioID.
func (e *Engine) InvalidateAssignment(folioID string) {
	e.mu.Lock()
	delete(e.assignmentCache, folioID)
	e.mu.Unlock()
}

// AutoInvalidate invalidates the cache entry implied by appending
// thread t, mirroring skein/utils.py's auto_invalidate_cache: a status
// thread invalidates its to_id (the folio being described); an
// assignment thread invalidates its from_id (the folio being
// assigned). Every append path in internal/artifacts must call this
// before reporting success (§4.3 invariant).
func (e *Engine) AutoInvalidate(t types.Thread) {
	switch t.Type {
	case types.ThreadStatus:
		e.InvalidateStatus(t.ToID)
	case types.ThreadAssignment:
		e.InvalidateAssignment(t.FromID)
	}
}
