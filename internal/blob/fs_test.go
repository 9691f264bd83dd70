package blob

import (
	"context"
	"fmt"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signet/internal/platform/logger"
)

func newFSStore(t *testing.T) *FSStore {
	t.Helper()
	store, err := NewFSStore(t.TempDir(), "http://localhost:8080", []byte("test-secret"))
	require.NoError(t, err)
	return store
}

func TestFSStoreRoundTrip(t *testing.T) {
	store := newFSStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "documents/abc123", []byte("pdf bytes")))

	data, err := store.Get(ctx, "documents/abc123")
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf bytes"), data)

	require.NoError(t, store.Delete(ctx, "documents/abc123"))
	_, err = store.Get(ctx, "documents/abc123")
	assert.ErrorIs(t, err, ErrNotFound)

	// Double delete is a no-op.
	require.NoError(t, store.Delete(ctx, "documents/abc123"))
}

func TestFSStoreRejectsTraversal(t *testing.T) {
	store := newFSStore(t)
	ctx := context.Background()

	for _, key := range []string{"", "../outside", "a/../../b", "/absolute"} {
		assert.Error(t, store.Put(ctx, key, []byte("x")), "key %q", key)
	}
}

func TestPresignVerify(t *testing.T) {
	store := newFSStore(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "documents/k1", []byte("content")))

	signed, err := store.Presign(ctx, "documents/k1", time.Hour)
	require.NoError(t, err)

	u, err := url.Parse(signed)
	require.NoError(t, err)
	exp, err := strconv.ParseInt(u.Query().Get("exp"), 10, 64)
	require.NoError(t, err)
	sig := u.Query().Get("sig")

	assert.True(t, store.Verify("documents/k1", exp, sig))

	t.Run("signature does not transfer to another key", func(t *testing.T) {
		assert.False(t, store.Verify("documents/k2", exp, sig))
	})

	t.Run("expiry cannot be extended", func(t *testing.T) {
		assert.False(t, store.Verify("documents/k1", exp+3600, sig))
	})

	t.Run("expired url is rejected", func(t *testing.T) {
		pastExp := time.Now().Add(-time.Minute).Unix()
		pastSig := store.sign("documents/k1", pastExp)
		assert.False(t, store.Verify("documents/k1", pastExp, pastSig))
	})
}

func TestHandlerServesPresignedBlob(t *testing.T) {
	store := newFSStore(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "documents/k1", []byte("hello world")))

	router := chi.NewRouter()
	NewHandler(store, logger.NewNop()).Register(router)

	signed, err := store.Presign(ctx, "documents/k1", time.Hour)
	require.NoError(t, err)
	path := strings.TrimPrefix(signed, "http://localhost:8080")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", path, nil))
	require.Equal(t, 200, rr.Code)
	assert.Equal(t, "hello world", rr.Body.String())

	t.Run("tampered signature is forbidden", func(t *testing.T) {
		tampered := fmt.Sprintf("/blobs/documents/k1?exp=%d&sig=deadbeef", time.Now().Add(time.Hour).Unix())
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest("GET", tampered, nil))
		assert.Equal(t, 403, rr.Code)
	})
}
