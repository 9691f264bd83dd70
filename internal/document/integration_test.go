//go:build integration

package document_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signet/internal/document"
	"signet/internal/platform/postgres"
	dErrors "signet/pkg/domain-errors"
	"signet/pkg/testutil/containers"
)

func TestPostgresStore_Lifecycle(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	require.NoError(t, postgres.Migrate(context.Background(), pg.DB))

	store := document.NewPostgresStore(pg.DB)
	ctx := context.Background()

	ownerID := uuid.New()
	now := time.Now().UTC().Truncate(time.Microsecond)
	doc := &document.Document{
		ID:         uuid.New(),
		Title:      "Lease Agreement",
		StorageKey: "documents/01ARZ3NDEKTSV4RRFFQ69G5FAV",
		Status:     document.StatusDraft,
		OwnerID:    ownerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, store.Create(ctx, doc))

	got, err := store.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, document.StatusDraft, got.Status)
	assert.Empty(t, got.SealedStorageKey)

	require.NoError(t, store.MarkPending(ctx, doc.ID, now.Add(time.Minute)))
	got, err = store.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, document.StatusPending, got.Status)

	// MarkPending only moves drafts; a second call changes nothing.
	require.NoError(t, store.MarkPending(ctx, doc.ID, now.Add(2*time.Minute)))
	again, err := store.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, got.UpdatedAt, again.UpdatedAt)

	require.NoError(t, store.ApplySeal(ctx, doc.ID, "sealed/01ARZ3NDEKTSV4RRFFQ69G5FB0", "deadbeef", now.Add(3*time.Minute)))
	got, err = store.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, document.StatusCompleted, got.Status)
	assert.Equal(t, "sealed/01ARZ3NDEKTSV4RRFFQ69G5FB0", got.SealedStorageKey)
	assert.Equal(t, "deadbeef", got.ContentHash)
	assert.Equal(t, doc.StorageKey, got.StorageKey, "sealing never touches the original key")

	docs, err := store.ListByOwner(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	require.NoError(t, store.Delete(ctx, doc.ID))
	_, err = store.GetByID(ctx, doc.ID)
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
}
