package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"StockSignal/internal/domain/models"
	domrepo "StockSignal/internal/domain/repository"
	"StockSignal/pkg/cache"
)

// CachedOutcomes keeps successful worker payloads in a cache.Service.
// Only the payload bytes are stored; a hit is reported as a zero-duration success.
type CachedOutcomes struct {
	store cache.Service
}

func NewCachedOutcomes(store cache.Service) *CachedOutcomes {
	return &CachedOutcomes{store: store}
}

func (c *CachedOutcomes) Get(ctx context.Context, spec models.InvocationSpec) (models.InvocationOutcome, bool, error) {
	b, err := c.store.Get(ctx, outcomeKey(spec))
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return models.InvocationOutcome{}, false, nil
		}
		return models.InvocationOutcome{}, false, fmt.Errorf("outcome cache get: %w", err)
	}
	return models.Succeeded(b, 0), true, nil
}

// Set ignores failed outcomes.
func (c *CachedOutcomes) Set(ctx context.Context, spec models.InvocationSpec, outcome models.InvocationOutcome, ttl time.Duration) error {
	if !outcome.OK() || ttl <= 0 {
		return nil
	}
	if err := c.store.Set(ctx, outcomeKey(spec), outcome.Payload, ttl); err != nil {
		return fmt.Errorf("outcome cache set: %w", err)
	}
	return nil
}

func outcomeKey(spec models.InvocationSpec) string {
	return cache.GenerateKey("outcome", spec.Key())
}

var _ domrepo.OutcomeCache = (*CachedOutcomes)(nil)
