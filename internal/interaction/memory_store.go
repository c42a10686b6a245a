package interaction

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is the in-process Store used by tests and single-node
// deployments without Redis.
type MemoryStore struct {
	mu     sync.RWMutex
	byUser map[string][]UserInteraction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byUser: make(map[string][]UserInteraction)}
}

func (s *MemoryStore) Append(_ context.Context, in UserInteraction) error {
	if in.UserID == "" {
		return &ValidationError{Field: "user_id", Reason: "required"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	records := append(s.byUser[in.UserID], in)
	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
	s.byUser[in.UserID] = records
	return nil
}

func (s *MemoryStore) ListRange(_ context.Context, userID string, r TimeRange) ([]UserInteraction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []UserInteraction{}
	for _, in := range s.byUser[userID] {
		if !r.Start.IsZero() && in.Timestamp.Before(r.Start) {
			continue
		}
		if !r.End.IsZero() && in.Timestamp.After(r.End) {
			continue
		}
		out = append(out, in)
	}
	return out, nil
}

func (s *MemoryStore) PurgeBefore(_ context.Context, userID string, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.byUser[userID][:0]
	removed := 0
	for _, in := range s.byUser[userID] {
		if in.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, in)
	}
	if len(kept) == 0 {
		delete(s.byUser, userID)
	} else {
		s.byUser[userID] = kept
	}
	return removed, nil
}

func (s *MemoryStore) PurgeUser(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := len(s.byUser[userID])
	delete(s.byUser, userID)
	return removed, nil
}

func (s *MemoryStore) Users(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]string, 0, len(s.byUser))
	for id := range s.byUser {
		users = append(users, id)
	}
	sort.Strings(users)
	return users, nil
}
