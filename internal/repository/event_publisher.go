package repository

import (
	"context"

	"GanttGen/internal/domain/models"
	pkgkafka "GanttGen/pkg/kafka"
)

// KafkaPublisher ships generation events and aggregated logs to Kafka.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

// PublishEvent keys events by session so one session's events stay ordered.
func (p *KafkaPublisher) PublishEvent(ctx context.Context, e *models.GenerationEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(e.SessionID), e)
}

// PublishMessage implements logger.Publisher for the log collector.
func (p *KafkaPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	if topic == "" {
		topic = p.topic
	}
	return p.producer.Publish(ctx, topic, nil, payload)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NoopPublisher drops everything. Used when events are disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishEvent(context.Context, *models.GenerationEvent) error { return nil }

func (NoopPublisher) PublishMessage(context.Context, string, interface{}) error { return nil }

func (NoopPublisher) Close() error { return nil }
