package repository

import (
	"context"

	"Coinverge/internal/domain/models"
	"Coinverge/internal/domain/repository"
	pkgkafka "Coinverge/pkg/kafka"
)

// KafkaEventPublisher publishes watchlist events keyed by owner, so one owner's
// events stay ordered within a partition.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) repository.EventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) PublishWatchlistEvent(ctx context.Context, ev models.WatchlistEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.Owner), ev)
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NoopEventPublisher is used when Kafka is disabled.
type NoopEventPublisher struct{}

func NewNoopEventPublisher() repository.EventPublisher { return NoopEventPublisher{} }

func (NoopEventPublisher) PublishWatchlistEvent(context.Context, models.WatchlistEvent) error {
	return nil
}

func (NoopEventPublisher) Close() error { return nil }
