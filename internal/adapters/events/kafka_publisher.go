package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// TopicMap routes lifecycle event types to Kafka topics. Unmapped event types
// go to Default, or to a topic named after the event type when Default is
// empty.
type TopicMap struct {
	Default string
	ByEvent map[string]string
}

func (m TopicMap) Resolve(eventType string) string {
	if mapped := strings.TrimSpace(m.ByEvent[eventType]); mapped != "" {
		return mapped
	}
	if m.Default != "" {
		return m.Default
	}
	return eventType
}

type KafkaPublisher struct {
	writer *kafka.Writer
	topics TopicMap
}

func NewKafkaPublisher(brokers []string, topics TopicMap) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			RequiredAcks:           kafka.RequireAll,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
			BatchTimeout:           50 * time.Millisecond,
		},
		topics: topics,
	}, nil
}

// Publish keys messages by campaign id so that one campaign's lifecycle stays
// ordered within a partition.
func (p *KafkaPublisher) Publish(ctx context.Context, eventType string, payload []byte, partitionKey string) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: p.topics.Resolve(eventType),
		Key:   []byte(partitionKey),
		Value: payload,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
