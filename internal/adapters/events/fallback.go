package events

import (
	"context"
	"log/slog"
)

// NoopConsumer stands in for Kafka when no brokers are configured; the worker
// then only relays the outbox.
type NoopConsumer struct{}

func NewNoopConsumer() *NoopConsumer {
	return &NoopConsumer{}
}

func (NoopConsumer) Poll(_ context.Context, _ int) ([]Message, error) {
	return nil, nil
}

// LoggingPublisher drains the outbox into the structured log.
type LoggingPublisher struct {
	logger *slog.Logger
	topics TopicMap
}

func NewLoggingPublisher(logger *slog.Logger, topics TopicMap) *LoggingPublisher {
	return &LoggingPublisher{logger: logger, topics: topics}
}

func (p *LoggingPublisher) Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error {
	p.logger.InfoContext(ctx, "campaign event published",
		"module", "events.publisher",
		"layer", "adapter",
		"operation", "publish",
		"outcome", "success",
		"event_type", eventType,
		"topic", p.topics.Resolve(eventType),
		"partition_key", partitionKey,
		"payload_bytes", len(payload),
	)
	return nil
}
