package artifacts

import (
	"testing"
	"time"

	"github.com/spiritengine/skein/internal/types"
)

func TestGetInboxIncludesDirectAndWovenThreads(t *testing.T) {
	s := newTestService(t)
	now := time.Now().UTC()

	direct := types.Thread{ID: "thread-1", FromID: "brief-1", ToID: "agent-bob", Type: types.ThreadMessage, CreatedAt: now}
	woven := types.Thread{ID: "thread-2", FromID: "agent-bob", ToID: "brief-2", Type: types.ThreadMessage, Weaver: "agent-bob", CreatedAt: now.Add(time.Minute)}
	unrelated := types.Thread{ID: "thread-3", FromID: "brief-3", ToID: "agent-carol", Type: types.ThreadMessage, CreatedAt: now}

	for _, th := range []types.Thread{direct, woven, unrelated} {
		if err := s.store.SaveThread(th); err != nil {
			t.Fatalf("SaveThread: %v", err)
		}
	}

	inbox, err := s.GetInbox("agent-bob", false)
	if err != nil {
		t.Fatalf("GetInbox: %v", err)
	}
	if len(inbox) != 2 {
		t.Fatalf("expected 2 threads, got %d", len(inbox))
	}
	if inbox[0].ID != "thread-2" {
		t.Errorf("expected most-recent-first ordering, got %q first", inbox[0].ID)
	}
}

func TestGetInboxExpandsReplyChain(t *testing.T) {
	s := newTestService(t)
	now := time.Now().UTC()

	seed := types.Thread{ID: "thread-root", FromID: "brief-1", ToID: "agent-bob", Type: types.ThreadMessage, CreatedAt: now}
	reply := types.Thread{ID: "thread-reply", FromID: "thread-root", ToID: "agent-dave", Type: types.ThreadReply, CreatedAt: now.Add(time.Minute)}

	for _, th := range []types.Thread{seed, reply} {
		if err := s.store.SaveThread(th); err != nil {
			t.Fatalf("SaveThread: %v", err)
		}
	}

	inbox, err := s.GetInbox("agent-bob", false)
	if err != nil {
		t.Fatalf("GetInbox: %v", err)
	}
	found := false
	for _, th := range inbox {
		if th.ID == "thread-reply" {
			found = true
		}
	}
	if !found {
		t.Error("expected reply-chain expansion to surface thread-reply")
	}
}

func TestGetInboxUnreadOnlyFilter(t *testing.T) {
	s := newTestService(t)
	now := time.Now().UTC()
	readAt := now

	unread := types.Thread{ID: "thread-unread", FromID: "brief-1", ToID: "agent-bob", Type: types.ThreadMessage, CreatedAt: now}
	read := types.Thread{ID: "thread-read", FromID: "brief-2", ToID: "agent-bob", Type: types.ThreadMessage, CreatedAt: now, ReadAt: &readAt}

	for _, th := range []types.Thread{unread, read} {
		if err := s.store.SaveThread(th); err != nil {
			t.Fatalf("SaveThread: %v", err)
		}
	}

	inbox, err := s.GetInbox("agent-bob", true)
	if err != nil {
		t.Fatalf("GetInbox: %v", err)
	}
	if len(inbox) != 1 || inbox[0].ID != "thread-unread" {
		t.Errorf("expected only thread-unread, got %+v", inbox)
	}
}
