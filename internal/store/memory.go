package store

import (
	"context"
	"sort"
	"sync"

	"github.com/onnwee/airtime/internal/history"
)

// MemoryStore is an in-memory implementation of Store for tests and local
// development. Thread-safe via RWMutex; histories are cloned on the way in
// and out so callers never share state with the store.
type MemoryStore struct {
	mu        sync.RWMutex
	histories map[string]history.History
}

// NewMemoryStore creates a new in-memory history store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		histories: make(map[string]history.History),
	}
}

// Load returns a copy of the channel's history, or an empty history for an
// unknown channel.
func (s *MemoryStore) Load(_ context.Context, channelID string) (history.History, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.histories[channelID].Clone(), nil
}

// Save stores a copy of the channel's history.
func (s *MemoryStore) Save(_ context.Context, channelID string, h history.History) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.histories[channelID] = h.Clone()
	return nil
}

// Update applies fn to the channel's history under the store lock.
func (s *MemoryStore) Update(_ context.Context, channelID string, fn func(history.History) (history.History, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(s.histories[channelID].Clone())
	if err != nil {
		return err
	}
	s.histories[channelID] = next.Clone()
	return nil
}

// Channels lists every stored channel, sorted.
func (s *MemoryStore) Channels(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.histories))
	for id := range s.histories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
