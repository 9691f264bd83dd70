package seal

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signet/internal/blob"
	"signet/internal/platform/logger"
	"signet/internal/platform/metrics"
	dErrors "signet/pkg/domain-errors"
)

func newTestPipeline(blobs blob.Store) *Pipeline {
	return NewPipeline(blobs, NewTextStamper(), logger.NewNop(), metrics.NewForTest())
}

func stampInfo() StampInfo {
	return StampInfo{
		SignerEmail: "alice@example.com",
		SignedAt:    time.Date(2026, 5, 2, 14, 0, 0, 0, time.UTC),
	}
}

func TestPipeline_Seal(t *testing.T) {
	t.Run("stores stamped copy under a new key", func(t *testing.T) {
		blobs := blob.NewMemoryStore()
		ctx := context.Background()
		require.NoError(t, blobs.Put(ctx, "documents/orig", []byte("contract body")))

		result, err := newTestPipeline(blobs).Seal(ctx, "documents/orig", stampInfo())
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(result.SealedKey, "sealed/"))
		assert.NotEqual(t, "documents/orig", result.SealedKey)
		assert.Len(t, result.ContentHash, 64)

		original, err := blobs.Get(ctx, "documents/orig")
		require.NoError(t, err)
		assert.Equal(t, []byte("contract body"), original, "original blob untouched")

		sealed, err := blobs.Get(ctx, result.SealedKey)
		require.NoError(t, err)
		assert.Contains(t, string(sealed), "contract body")
		assert.Contains(t, string(sealed), "Digitally Signed by alice@example.com")
	})

	t.Run("hash is deterministic for identical input", func(t *testing.T) {
		ctx := context.Background()
		var hashes []string
		for range 2 {
			blobs := blob.NewMemoryStore()
			require.NoError(t, blobs.Put(ctx, "documents/orig", []byte("contract body")))
			result, err := newTestPipeline(blobs).Seal(ctx, "documents/orig", stampInfo())
			require.NoError(t, err)
			hashes = append(hashes, result.ContentHash)
		}
		assert.Equal(t, hashes[0], hashes[1])
	})

	t.Run("hash differs from the original's hash", func(t *testing.T) {
		blobs := blob.NewMemoryStore()
		ctx := context.Background()
		require.NoError(t, blobs.Put(ctx, "documents/orig", []byte("contract body")))

		result, err := newTestPipeline(blobs).Seal(ctx, "documents/orig", stampInfo())
		require.NoError(t, err)

		sealed, err := blobs.Get(ctx, result.SealedKey)
		require.NoError(t, err)
		assert.NotEqual(t, []byte("contract body"), sealed)
	})

	t.Run("missing original fails without retries", func(t *testing.T) {
		blobs := blob.NewMemoryStore()
		start := time.Now()
		_, err := newTestPipeline(blobs).Seal(context.Background(), "documents/gone", stampInfo())
		require.Error(t, err)
		assert.Equal(t, dErrors.CodeSealingFailed, dErrors.CodeOf(err))
		assert.Less(t, time.Since(start), retryBackoffBase, "content failures are not retried")
	})

	t.Run("store failure surfaces as sealing_failed", func(t *testing.T) {
		blobs := blob.NewMemoryStore()
		ctx := context.Background()
		require.NoError(t, blobs.Put(ctx, "documents/orig", []byte("contract body")))
		blobs.FailPut = dErrors.New(dErrors.CodeInternal, "disk full")

		_, err := newTestPipeline(blobs).Seal(ctx, "documents/orig", stampInfo())
		require.Error(t, err)
		assert.Equal(t, dErrors.CodeSealingFailed, dErrors.CodeOf(err))
	})

	t.Run("timeouts are retried", func(t *testing.T) {
		blobs := &flakyStore{MemoryStore: blob.NewMemoryStore(), failures: 2}
		ctx := context.Background()
		require.NoError(t, blobs.MemoryStore.Put(ctx, "documents/orig", []byte("contract body")))

		result, err := newTestPipeline(blobs).Seal(ctx, "documents/orig", stampInfo())
		require.NoError(t, err)
		assert.NotEmpty(t, result.ContentHash)
		assert.Equal(t, 2, blobs.timeouts, "both transient failures were retried")
	})
}

func TestPipeline_Discard(t *testing.T) {
	blobs := blob.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, blobs.Put(ctx, "sealed/orphan", []byte("x")))

	newTestPipeline(blobs).Discard(ctx, "sealed/orphan")

	_, err := blobs.Get(ctx, "sealed/orphan")
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
}

func TestTextStamper_Deterministic(t *testing.T) {
	stamper := NewTextStamper()
	a, err := stamper.Stamp([]byte("body"), stampInfo())
	require.NoError(t, err)
	b, err := stamper.Stamp([]byte("body"), stampInfo())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

// flakyStore times out on the first N Get calls.
type flakyStore struct {
	*blob.MemoryStore
	failures int
	timeouts int
}

func (s *flakyStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.timeouts < s.failures {
		s.timeouts++
		return nil, dErrors.New(dErrors.CodeTimeout, "blob read timed out")
	}
	return s.MemoryStore.Get(ctx, key)
}
