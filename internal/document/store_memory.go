package document

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	dErrors "signet/pkg/domain-errors"
)

// MemoryStore is the in-memory Store used by tests and local development.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[uuid.UUID]*Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[uuid.UUID]*Document)}
}

func (s *MemoryStore) Create(_ context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *doc
	s.docs[doc.ID] = &copied
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	copied := *doc
	return &copied, nil
}

func (s *MemoryStore) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Document
	for _, doc := range s.docs {
		if doc.OwnerID == ownerID {
			copied := *doc
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) MarkPending(_ context.Context, id uuid.UUID, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	if doc.Status != StatusDraft {
		return nil
	}
	doc.Status = StatusPending
	doc.UpdatedAt = updatedAt
	return nil
}

func (s *MemoryStore) ApplySeal(_ context.Context, id uuid.UUID, sealedKey, contentHash string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	doc.SealedStorageKey = sealedKey
	doc.ContentHash = contentHash
	doc.Status = StatusCompleted
	doc.UpdatedAt = updatedAt
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	delete(s.docs, id)
	return nil
}
