package blob

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	keyEntropyMu sync.Mutex
	keyEntropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

// NewKey returns a fresh storage key under the given prefix, e.g.
// "documents/01J....". Keys sort by creation time within a prefix.
func NewKey(prefix string, t time.Time) string {
	keyEntropyMu.Lock()
	defer keyEntropyMu.Unlock()
	return prefix + "/" + ulid.MustNew(ulid.Timestamp(t), keyEntropy).String()
}
