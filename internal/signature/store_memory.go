package signature

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	dErrors "signet/pkg/domain-errors"
)

// MemoryStore is the in-memory Store used by tests and local development.
// A single mutex serializes the conditional transitions, mirroring what the
// conditional UPDATE does in postgres.
type MemoryStore struct {
	mu         sync.RWMutex
	requests   map[uuid.UUID]*Request
	signatures map[uuid.UUID]*Signature // keyed by request id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		requests:   make(map[uuid.UUID]*Request),
		signatures: make(map[uuid.UUID]*Signature),
	}
}

func (s *MemoryStore) Create(_ context.Context, req *Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *req
	s.requests[req.ID] = &copied
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (*Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "signature request not found")
	}
	copied := *req
	return &copied, nil
}

func (s *MemoryStore) ListByRequester(_ context.Context, requesterID uuid.UUID) ([]*Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Request
	for _, req := range s.requests {
		if req.RequesterID == requesterID {
			copied := *req
			out = append(out, &copied)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) ListBySignerEmail(_ context.Context, email string) ([]*Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Request
	for _, req := range s.requests {
		if req.SignerEmail == email {
			copied := *req
			out = append(out, &copied)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) CompleteIfPending(_ context.Context, id uuid.UUID, signedAt time.Time) (bool, error) {
	return s.transition(id, func(req *Request) {
		req.Status = StatusCompleted
		req.SignedAt = &signedAt
		req.UpdatedAt = signedAt
	})
}

func (s *MemoryStore) DeclineIfPending(_ context.Context, id uuid.UUID, updatedAt time.Time) (bool, error) {
	return s.transition(id, func(req *Request) {
		req.Status = StatusDeclined
		req.UpdatedAt = updatedAt
	})
}

func (s *MemoryStore) ExpireIfPending(_ context.Context, id uuid.UUID, updatedAt time.Time) (bool, error) {
	return s.transition(id, func(req *Request) {
		req.Status = StatusExpired
		req.UpdatedAt = updatedAt
	})
}

func (s *MemoryStore) transition(id uuid.UUID, apply func(*Request)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return false, dErrors.New(dErrors.CodeNotFound, "signature request not found")
	}
	if req.Status != StatusPending {
		return false, nil
	}
	apply(req)
	return true, nil
}

func (s *MemoryStore) InsertSignature(_ context.Context, sig *Signature) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.signatures[sig.RequestID]; exists {
		return dErrors.New(dErrors.CodeConflict, "request already has a signature")
	}
	copied := *sig
	s.signatures[sig.RequestID] = &copied
	return nil
}

func (s *MemoryStore) GetSignatureByRequest(_ context.Context, requestID uuid.UUID) (*Signature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sig, ok := s.signatures[requestID]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "signature not found")
	}
	copied := *sig
	return &copied, nil
}

func sortNewestFirst(reqs []*Request) {
	sort.Slice(reqs, func(i, j int) bool {
		return reqs[i].CreatedAt.After(reqs[j].CreatedAt)
	})
}
