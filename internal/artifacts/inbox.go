package artifacts

import (
	"sort"

	"github.com/spiritengine/skein/internal/objectstore"
	"github.com/spiritengine/skein/internal/types"
)

const maxInboxPasses = 5

// GetInbox computes the set of threads agentID should see (§4.4.4):
// threads directly to or woven by the agent, plus up to five rounds
// of reply-chain expansion (any thread whose from_id or to_id names a
// thread already in the set), then optionally filtered to unread and
// sorted most-recent-first. Grounded on
// original_source/skein/storage.py's get_inbox.
func (s *Service) GetInbox(agentID string, unreadOnly bool) ([]types.Thread, error) {
	direct, err := s.store.GetThreads(objectstore.ThreadFilter{ToID: agentID})
	if err != nil {
		return nil, &Internal{Cause: err}
	}
	woven, err := s.store.GetThreads(objectstore.ThreadFilter{Weaver: agentID})
	if err != nil {
		return nil, &Internal{Cause: err}
	}

	byID := make(map[string]types.Thread)
	for _, t := range append(direct, woven...) {
		byID[t.ID] = t
	}

	all, err := s.store.GetThreads(objectstore.ThreadFilter{})
	if err != nil {
		return nil, &Internal{Cause: err}
	}

	involved := make(map[string]bool, len(byID))
	for id := range byID {
		involved[id] = true
	}

	for pass := 0; pass < maxInboxPasses; pass++ {
		foundNew := false
		for _, t := range all {
			if _, already := byID[t.ID]; already {
				continue
			}
			if involved[t.FromID] || involved[t.ToID] {
				byID[t.ID] = t
				involved[t.ID] = true
				foundNew = true
			}
		}
		if !foundNew {
			break
		}
	}

	threads := make([]types.Thread, 0, len(byID))
	for _, t := range byID {
		if unreadOnly && t.ReadAt != nil {
			continue
		}
		threads = append(threads, t)
	}

	sort.Slice(threads, func(i, j int) bool {
		return threads[i].CreatedAt.After(threads[j].CreatedAt)
	})

	return threads, nil
}
