package signature

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists requests and signatures. The *IfPending methods are the
// state machine's serialization point: each is a single conditional update
// that succeeds for exactly one caller. A false return means the request was
// no longer pending; callers re-read to learn the terminal status.
type Store interface {
	Create(ctx context.Context, req *Request) error
	GetByID(ctx context.Context, id uuid.UUID) (*Request, error)
	ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]*Request, error)
	ListBySignerEmail(ctx context.Context, email string) ([]*Request, error)

	CompleteIfPending(ctx context.Context, id uuid.UUID, signedAt time.Time) (bool, error)
	DeclineIfPending(ctx context.Context, id uuid.UUID, updatedAt time.Time) (bool, error)
	ExpireIfPending(ctx context.Context, id uuid.UUID, updatedAt time.Time) (bool, error)

	// InsertSignature stores the signer's mark. Returns a conflict error if a
	// signature already exists for the request.
	InsertSignature(ctx context.Context, sig *Signature) error
	GetSignatureByRequest(ctx context.Context, requestID uuid.UUID) (*Signature, error)
}
