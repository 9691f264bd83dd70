package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// StreamPublisher drains ledger entries from a channel and produces them to a
// Kafka topic, keyed by document id so all entries for a document land on one
// partition in order. Publishing is best effort relative to the ledger: the
// database append has already committed by the time an entry reaches the
// stream.
type StreamPublisher struct {
	client *kgo.Client
	topic  string
	inbox  <-chan Entry
	logger *slog.Logger
}

func NewStreamPublisher(brokers []string, topic string, inbox <-chan Entry, logger *slog.Logger) (*StreamPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerLinger(0),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &StreamPublisher{
		client: client,
		topic:  topic,
		inbox:  inbox,
		logger: logger,
	}, nil
}

func (p *StreamPublisher) Run(ctx context.Context) error {
	defer p.client.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entry := <-p.inbox:
			p.publish(ctx, entry)
		}
	}
}

func (p *StreamPublisher) publish(ctx context.Context, entry Entry) {
	payload, err := json.Marshal(entry)
	if err != nil {
		p.logger.Error("marshal audit entry for stream", "entry_id", entry.ID, "error", err)
		return
	}
	record := &kgo.Record{
		Key:   []byte(entry.DocumentID.String()),
		Value: payload,
	}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			p.logger.Error("publish audit entry",
				"entry_id", entry.ID,
				"topic", p.topic,
				"error", err,
			)
		}
	})
}
