// Package eventbus publishes commit-fanout notifications to Kafka so
// downstream consumers can react to newly indexed ranges without polling
// the database. It is a producer only; nothing in this module consumes
// these events.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const defaultTopic = "evm-indexer.chunk-committed"

// ChunkCommitted is published after the sync engine's chunk write order
// (contracts -> transactions -> receipts -> logs -> blocks -> indexed_set)
// has fully committed.
type ChunkCommitted struct {
	CorrelationID string `json:"correlation_id"`
	Chain         string `json:"chain"`
	FromHeight    int64  `json:"from_height"`
	ToHeight      int64  `json:"to_height"`
	Blocks        int    `json:"blocks"`
	Transactions  int    `json:"transactions"`
	Logs          int    `json:"logs"`
	PublishedAt   string `json:"published_at"`
}

// Publisher wraps a single-topic Kafka writer.
type Publisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// New builds a Publisher writing to the commit-fanout topic on brokers.
func New(brokers []string, logger *zap.Logger) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        defaultTopic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
		logger: logger,
	}
}

// PublishChunkCommitted emits one event for a committed chunk. Publish
// failures are logged and swallowed — the commit itself already succeeded,
// and this notification is a supplement, not a correctness requirement.
func (p *Publisher) PublishChunkCommitted(ctx context.Context, evt ChunkCommitted) {
	evt.CorrelationID = uuid.NewString()
	evt.PublishedAt = time.Now().UTC().Format(time.RFC3339)

	data, err := json.Marshal(evt)
	if err != nil {
		p.logger.Warn("eventbus: marshal chunk-committed event failed", zap.Error(err))
		return
	}

	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("%s-%d", evt.Chain, evt.ToHeight)),
		Value: data,
		Time:  time.Now().UTC(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Warn("eventbus: publish chunk-committed event failed", zap.Error(err))
	}
}

// Close releases the underlying Kafka writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
