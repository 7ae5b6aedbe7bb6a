package artifacts

import (
	"time"

	"github.com/spiritengine/skein/internal/idutil"
	"github.com/spiritengine/skein/internal/objectstore"
	"github.com/spiritengine/skein/internal/types"
)

// CreateThreadRequest is the input to CreateThread, the general-purpose
// edge-creation operation behind `POST /threads` (§3.1, §6.1) — as
// opposed to the sugar threads CreateFolio/UpdateFolio append on the
// caller's behalf.
type CreateThreadRequest struct {
	FromID  string
	ToID    string
	Type    types.ThreadType
	Content string
	Weaver  string
}

var validThreadTypes = map[types.ThreadType]bool{
	types.ThreadMessage: true, types.ThreadMention: true, types.ThreadReference: true,
	types.ThreadAssignment: true, types.ThreadSuccession: true, types.ThreadReply: true,
	types.ThreadTag: true, types.ThreadStatus: true,
}

// CreateThread persists an arbitrary directed edge between two
// resource identifiers and invalidates any derived-state cache entry
// it affects (§4.3's append-then-invalidate invariant).
func (s *Service) CreateThread(req CreateThreadRequest, now time.Time) (types.Thread, error) {
	if req.FromID == "" || req.ToID == "" {
		return types.Thread{}, &ValidationError{Reason: "from_id and to_id are both required"}
	}
	if !validThreadTypes[req.Type] {
		return types.Thread{}, &ValidationError{Reason: "unknown thread type " + string(req.Type)}
	}

	thread := types.Thread{
		ID: idutil.NewThreadID(now), FromID: req.FromID, ToID: req.ToID,
		Type: req.Type, Content: req.Content, Weaver: req.Weaver, CreatedAt: now.UTC(),
	}
	if err := s.appendThread(thread); err != nil {
		return types.Thread{}, err
	}
	return thread, nil
}

// GetThread returns a single thread by id, 404-ing via ThreadNotFound
// when it does not exist.
func (s *Service) GetThread(threadID string) (types.Thread, error) {
	threads, err := s.store.GetThreads(objectstore.ThreadFilter{})
	if err != nil {
		return types.Thread{}, &Internal{Cause: err}
	}
	for _, t := range threads {
		if t.ID == threadID {
			return t, nil
		}
	}
	return types.Thread{}, &ThreadNotFound{ThreadID: threadID}
}

// MarkThreadRead sets threadID's read timestamp, 404-ing via
// ThreadNotFound when it does not exist.
func (s *Service) MarkThreadRead(threadID string, now time.Time) (types.Thread, error) {
	thread, err := s.GetThread(threadID)
	if err != nil {
		return types.Thread{}, err
	}
	ok, err := s.store.MarkThreadRead(threadID, now)
	if err != nil {
		return types.Thread{}, &Internal{Cause: err}
	}
	if !ok {
		return types.Thread{}, &ThreadNotFound{ThreadID: threadID}
	}
	readAt := now.UTC()
	thread.ReadAt = &readAt
	return thread, nil
}
