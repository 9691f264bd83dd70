package audit

import (
	"context"

	"github.com/google/uuid"
)

// Store persists ledger entries. Implementations expose no update or delete.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	// ListByDocument returns entries for a document, newest first. Entries
	// sharing a timestamp keep their insertion order (later insert first).
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]Entry, error)
}
