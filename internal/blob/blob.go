// Package blob abstracts the content-addressable store that holds original
// and sealed document bytes. The service only ever sees opaque keys.
package blob

import (
	"context"
	"time"

	dErrors "signet/pkg/domain-errors"
)

// ErrNotFound keeps blob-level 404s consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "blob not found")

// Store is the storage collaborator contract. Implementations must be safe
// for concurrent use.
type Store interface {
	// Put writes data under key, overwriting any previous content.
	Put(ctx context.Context, key string, data []byte) error
	// Get returns the content stored under key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete removes the content under key. Deleting a missing key is a no-op.
	Delete(ctx context.Context, key string) error
	// Presign returns a URL granting time-boxed read access to key without
	// further authentication.
	Presign(ctx context.Context, key string, ttl time.Duration) (string, error)
}
