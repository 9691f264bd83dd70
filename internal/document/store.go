package document

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists document records. Implementations return coded domain
// errors (not found) so services and handlers never inspect driver errors.
type Store interface {
	Create(ctx context.Context, doc *Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*Document, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Document, error)
	// MarkPending moves a draft document to pending when its first signature
	// request is created. A no-op for documents already past draft.
	MarkPending(ctx context.Context, id uuid.UUID, updatedAt time.Time) error
	// ApplySeal records the sealed rendition: sealed storage key, content
	// hash, and status completed. The original storage key is untouched.
	ApplySeal(ctx context.Context, id uuid.UUID, sealedKey, contentHash string, updatedAt time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}
