package artifacts

import (
	"testing"
	"time"

	"github.com/spiritengine/skein/internal/types"
)

func TestCreateThreadAndMarkRead(t *testing.T) {
	s := newTestService(t)
	now := time.Now().UTC()

	thread, err := s.CreateThread(CreateThreadRequest{
		FromID: "agent-alice", ToID: "agent-bob", Type: types.ThreadMessage, Content: "hello", Weaver: "agent-alice",
	}, now)
	if err != nil {
		t.Fatalf("CreateThread: %v", err)
	}
	if thread.ReadAt != nil {
		t.Error("expected a freshly created thread to be unread")
	}

	updated, err := s.MarkThreadRead(thread.ID, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("MarkThreadRead: %v", err)
	}
	if updated.ReadAt == nil {
		t.Error("expected ReadAt to be set")
	}
}

func TestCreateThreadRejectsMissingEndpoints(t *testing.T) {
	s := newTestService(t)
	_, err := s.CreateThread(CreateThreadRequest{ToID: "agent-bob", Type: types.ThreadMessage}, time.Now())
	if _, ok := err.(*ValidationError); !ok {
		t.Errorf("expected *ValidationError, got %T", err)
	}
}

func TestMarkThreadReadUnknownID(t *testing.T) {
	s := newTestService(t)
	_, err := s.MarkThreadRead("thread-ghost", time.Now())
	if _, ok := err.(*ThreadNotFound); !ok {
		t.Errorf("expected *ThreadNotFound, got %T", err)
	}
}
