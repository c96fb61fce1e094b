package repository

import (
	"context"
	"time"

	"StockSignal/internal/domain/models"
)

// OutcomeCache stores successful outcomes keyed by invocation identity.
type OutcomeCache interface {
	Get(ctx context.Context, spec models.InvocationSpec) (models.InvocationOutcome, bool, error)
	Set(ctx context.Context, spec models.InvocationSpec, outcome models.InvocationOutcome, ttl time.Duration) error
}

// OutcomePublisher emits one event per finished invocation.
type OutcomePublisher interface {
	Publish(ctx context.Context, ev models.OutcomeEvent) error
	Close() error
}

type Metrics interface {
	RecordInvocation(kind, outcome string, seconds float64)
	WorkerStarted(kind string)
	WorkerFinished(kind string)
	RecordCacheLookup(kind string, hit bool)
}
