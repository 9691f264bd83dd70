package audit

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// InMemoryStore keeps the ledger in process memory; used by tests and local
// development.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[uuid.UUID][]Entry

	// FailAppend, when non-nil, is returned by Append so tests can verify
	// that a ledger failure fails the triggering operation.
	FailAppend error
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[uuid.UUID][]Entry)}
}

func (s *InMemoryStore) Append(_ context.Context, entry Entry) error {
	if s.FailAppend != nil {
		return s.FailAppend
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.DocumentID] = append(s.entries[entry.DocumentID], entry)
	return nil
}

func (s *InMemoryStore) ListByDocument(_ context.Context, documentID uuid.UUID) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.entries[documentID]
	// Newest first; insertion order breaks timestamp ties.
	out := make([]Entry, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		out = append(out, stored[i])
	}
	return out, nil
}
