package usecase

import (
	"context"
	"time"

	"StockSignal/internal/domain/models"
	domrepo "StockSignal/internal/domain/repository"
	domsvc "StockSignal/internal/domain/service"
	"StockSignal/internal/service/worker"
	applogger "StockSignal/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

const publishTimeout = 2 * time.Second

// Options tunes the layer above the gateway.
type Options struct {
	// MaxConcurrent bounds simultaneously running workers; 0 is unbounded.
	MaxConcurrent int64
	// TTL is the cache lifetime per kind; kinds without a positive TTL are not cached.
	TTL map[models.Kind]time.Duration
}

// Computations runs worker invocations with an optional cache, a concurrency
// bound, metrics and outcome events around the gateway.
type Computations struct {
	invoker domsvc.Invoker
	cache   domrepo.OutcomeCache
	events  domrepo.OutcomePublisher
	metrics domrepo.Metrics
	sem     *semaphore.Weighted
	ttl     map[models.Kind]time.Duration
	logger  *applogger.Logger
}

// NewComputations wires the usecase. cache, events and metrics may be nil.
func NewComputations(inv domsvc.Invoker, cache domrepo.OutcomeCache, events domrepo.OutcomePublisher, metrics domrepo.Metrics, opts Options, l *applogger.Logger) *Computations {
	if l == nil {
		l = applogger.Nop()
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	c := &Computations{
		invoker: inv,
		cache:   cache,
		events:  events,
		metrics: metrics,
		ttl:     opts.TTL,
		logger:  l,
	}
	if opts.MaxConcurrent > 0 {
		c.sem = semaphore.NewWeighted(opts.MaxConcurrent)
	}
	return c
}

func (c *Computations) Signal(ctx context.Context, symbol string) models.InvocationOutcome {
	return c.Invoke(ctx, worker.SignalSpec(symbol))
}

func (c *Computations) OHLC(ctx context.Context, symbol, period, interval string) models.InvocationOutcome {
	return c.Invoke(ctx, worker.OHLCSpec(symbol, period, interval))
}

func (c *Computations) Backtest(ctx context.Context, p worker.BacktestParams) models.InvocationOutcome {
	return c.Invoke(ctx, worker.BacktestSpec(p))
}

// Invoke serves spec from the cache when possible, otherwise runs exactly one
// worker once a slot is free.
func (c *Computations) Invoke(ctx context.Context, spec models.InvocationSpec) models.InvocationOutcome {
	kind := string(spec.Kind)
	id := uuid.NewString()

	if out, ok := c.lookup(ctx, spec); ok {
		c.publish(ctx, id, spec, out, true)
		return out
	}

	if c.sem != nil {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			out := models.Failed(models.Failure{Kind: models.FailureCanceled, Detail: err.Error()}, 0)
			c.metrics.RecordInvocation(kind, out.Label(), 0)
			return out
		}
		defer c.sem.Release(1)
	}

	c.metrics.WorkerStarted(kind)
	out := c.invoker.Invoke(ctx, spec)
	c.metrics.WorkerFinished(kind)
	c.metrics.RecordInvocation(kind, out.Label(), out.Duration.Seconds())

	if out.OK() && c.cache != nil {
		if ttl := c.ttl[spec.Kind]; ttl > 0 {
			if err := c.cache.Set(ctx, spec, out, ttl); err != nil {
				c.logger.Warn("cache store failed", applogger.String("kind", kind), applogger.Error(err))
			}
		}
	}

	c.publish(ctx, id, spec, out, false)
	return out
}

func (c *Computations) lookup(ctx context.Context, spec models.InvocationSpec) (models.InvocationOutcome, bool) {
	if c.cache == nil || c.ttl[spec.Kind] <= 0 {
		return models.InvocationOutcome{}, false
	}
	out, hit, err := c.cache.Get(ctx, spec)
	if err != nil {
		c.logger.Warn("cache lookup failed", applogger.String("kind", string(spec.Kind)), applogger.Error(err))
		return models.InvocationOutcome{}, false
	}
	c.metrics.RecordCacheLookup(string(spec.Kind), hit)
	return out, hit
}

// publish never affects the outcome; failures are only logged.
func (c *Computations) publish(ctx context.Context, id string, spec models.InvocationSpec, out models.InvocationOutcome, cached bool) {
	if c.events == nil {
		return
	}
	ev := models.OutcomeEvent{
		ID:         id,
		Kind:       spec.Kind,
		Params:     spec.Params,
		Outcome:    out.Label(),
		Cached:     cached,
		DurationMs: out.Duration.Milliseconds(),
		At:         time.Now().UTC(),
	}
	if out.Failure != nil {
		ev.FailureKind = out.Failure.Kind
		ev.Detail = out.Failure.Detail
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := c.events.Publish(pubCtx, ev); err != nil {
		c.logger.Warn("outcome event publish failed",
			applogger.String("invocation_id", id),
			applogger.String("kind", string(spec.Kind)),
			applogger.Error(err),
		)
	}
}

type nopMetrics struct{}

func (nopMetrics) RecordInvocation(string, string, float64) {}
func (nopMetrics) WorkerStarted(string)                     {}
func (nopMetrics) WorkerFinished(string)                    {}
func (nopMetrics) RecordCacheLookup(string, bool)           {}
