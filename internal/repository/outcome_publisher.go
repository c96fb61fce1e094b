package repository

import (
	"context"

	"StockSignal/internal/domain/models"
	domrepo "StockSignal/internal/domain/repository"
)

// EventProducer is satisfied by *kafka.Producer.
type EventProducer interface {
	Publish(ctx context.Context, key []byte, value interface{}) error
	Close() error
}

// KafkaOutcomePublisher writes one OutcomeEvent per invocation, keyed by kind
// so events of a kind stay ordered within a partition.
type KafkaOutcomePublisher struct {
	producer EventProducer
}

func NewKafkaOutcomePublisher(p EventProducer) *KafkaOutcomePublisher {
	return &KafkaOutcomePublisher{producer: p}
}

func (k *KafkaOutcomePublisher) Publish(ctx context.Context, ev models.OutcomeEvent) error {
	return k.producer.Publish(ctx, []byte(ev.Kind), ev)
}

func (k *KafkaOutcomePublisher) Close() error {
	return k.producer.Close()
}

var _ domrepo.OutcomePublisher = (*KafkaOutcomePublisher)(nil)
