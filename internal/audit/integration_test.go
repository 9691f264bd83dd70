//go:build integration

package audit_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"signet/internal/audit"
	"signet/internal/platform/logger"
	"signet/internal/platform/postgres"
	"signet/pkg/testutil/containers"
)

func TestPostgresStore_AppendAndList(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	require.NoError(t, postgres.Migrate(context.Background(), pg.DB))

	store := audit.NewPostgresStore(pg.DB)
	ctx := context.Background()

	documentID := uuid.New()
	userID := uuid.New()
	base := time.Now().UTC().Truncate(time.Microsecond)

	first := audit.Entry{
		ID:         audit.NewEntryID(base),
		DocumentID: documentID,
		UserID:     &userID,
		Action:     audit.ActionCreated,
		Details:    map[string]any{"filename": "contract.pdf"},
		IP:         "203.0.113.7",
		UserAgent:  "integration-test",
		CreatedAt:  base,
	}
	second := audit.Entry{
		ID:         audit.NewEntryID(base),
		DocumentID: documentID,
		Action:     audit.ActionViewed,
		CreatedAt:  base, // same timestamp, insertion order must break the tie
	}
	require.NoError(t, store.Append(ctx, first))
	require.NoError(t, store.Append(ctx, second))

	entries, err := store.ListByDocument(ctx, documentID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, second.ID, entries[0].ID)
	assert.Equal(t, first.ID, entries[1].ID)
	assert.Equal(t, audit.ActionCreated, entries[1].Action)
	require.NotNil(t, entries[1].UserID)
	assert.Equal(t, userID, *entries[1].UserID)
	assert.Equal(t, "contract.pdf", entries[1].Details["filename"])
	assert.Equal(t, "203.0.113.7", entries[1].IP)
}

func TestPostgresStore_ListOtherDocumentEmpty(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	require.NoError(t, postgres.Migrate(context.Background(), pg.DB))

	store := audit.NewPostgresStore(pg.DB)
	entries, err := store.ListByDocument(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStreamPublisher_PublishesToKafka(t *testing.T) {
	rp := containers.NewRedpandaContainer(t)

	const topic = "signet.audit.test"

	adminClient, err := kgo.NewClient(kgo.SeedBrokers(rp.Broker))
	require.NoError(t, err)
	defer adminClient.Close()

	admin := kadm.NewClient(adminClient)
	_, err = admin.CreateTopic(context.Background(), 1, 1, nil, topic)
	require.NoError(t, err)

	inbox := make(chan audit.Entry, 8)
	publisher, err := audit.NewStreamPublisher([]string{rp.Broker}, topic, inbox, logger.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = publisher.Run(ctx) }()

	documentID := uuid.New()
	entry := audit.Entry{
		ID:         audit.NewEntryID(time.Now()),
		DocumentID: documentID,
		Action:     audit.ActionSigned,
		Details:    map[string]any{"signer_email": "alice@example.com"},
		CreatedAt:  time.Now().UTC(),
	}
	inbox <- entry

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	deadline, cancelPoll := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelPoll()

	fetches := consumer.PollFetches(deadline)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.NotEmpty(t, records)

	record := records[0]
	assert.Equal(t, documentID.String(), string(record.Key))

	var published audit.Entry
	require.NoError(t, json.Unmarshal(record.Value, &published))
	assert.Equal(t, entry.ID, published.ID)
	assert.Equal(t, audit.ActionSigned, published.Action)
	assert.Equal(t, "alice@example.com", published.Details["signer_email"])
}
