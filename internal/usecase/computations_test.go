package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"StockSignal/internal/domain/models"
	"StockSignal/internal/repository"
	"StockSignal/pkg/cache"
)

type fakeInvoker struct {
	calls   atomic.Int32
	outcome models.InvocationOutcome
	block   chan struct{}
	started chan struct{}
}

func (f *fakeInvoker) Invoke(ctx context.Context, spec models.InvocationSpec) models.InvocationOutcome {
	f.calls.Add(1)
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	return f.outcome
}

type recordingEvents struct {
	mu     sync.Mutex
	events []models.OutcomeEvent
	err    error
}

func (r *recordingEvents) Publish(_ context.Context, ev models.OutcomeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recordingEvents) Close() error { return nil }

type countingMetrics struct {
	mu       sync.Mutex
	outcomes map[string]int
	hits     int
	misses   int
	inFlight int
}

func (m *countingMetrics) RecordInvocation(kind, outcome string, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outcomes == nil {
		m.outcomes = map[string]int{}
	}
	m.outcomes[kind+"/"+outcome]++
}
func (m *countingMetrics) WorkerStarted(string)  { m.mu.Lock(); m.inFlight++; m.mu.Unlock() }
func (m *countingMetrics) WorkerFinished(string) { m.mu.Lock(); m.inFlight--; m.mu.Unlock() }
func (m *countingMetrics) RecordCacheLookup(_ string, hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.hits++
	} else {
		m.misses++
	}
}

func memoryOutcomes(t *testing.T) *repository.CachedOutcomes {
	t.Helper()
	mem := cache.NewMemoryCache(cache.WithMemoryCleanup(0))
	t.Cleanup(func() { _ = mem.Close() })
	return repository.NewCachedOutcomes(mem)
}

var signalTTL = Options{TTL: map[models.Kind]time.Duration{models.KindSignal: time.Minute}}

func TestInvokeCachesSuccesses(t *testing.T) {
	inv := &fakeInvoker{outcome: models.Succeeded(json.RawMessage(`{"signal":"BUY"}`), 10*time.Millisecond)}
	events := &recordingEvents{}
	metrics := &countingMetrics{}
	c := NewComputations(inv, memoryOutcomes(t), events, metrics, signalTTL, nil)

	first := c.Signal(context.Background(), "8058.T")
	second := c.Signal(context.Background(), "8058.T")

	if inv.calls.Load() != 1 {
		t.Fatalf("expected one worker run, got %d", inv.calls.Load())
	}
	if string(first.Payload) != string(second.Payload) {
		t.Fatalf("cached payload differs: %s vs %s", first.Payload, second.Payload)
	}
	if metrics.hits != 1 || metrics.misses != 1 {
		t.Fatalf("unexpected cache lookups hits=%d misses=%d", metrics.hits, metrics.misses)
	}
	if len(events.events) != 2 || events.events[0].Cached || !events.events[1].Cached {
		t.Fatalf("unexpected events %+v", events.events)
	}
	if metrics.outcomes["signal/success"] != 1 {
		t.Fatalf("unexpected outcome counts %v", metrics.outcomes)
	}
}

func TestInvokeNeverCachesFailures(t *testing.T) {
	inv := &fakeInvoker{outcome: models.Failed(models.Failure{Kind: models.FailureWorker, Detail: "boom"}, 0)}
	c := NewComputations(inv, memoryOutcomes(t), nil, nil, signalTTL, nil)

	c.Signal(context.Background(), "8058.T")
	out := c.Signal(context.Background(), "8058.T")

	if inv.calls.Load() != 2 {
		t.Fatalf("failures must be retried by the next request, calls=%d", inv.calls.Load())
	}
	if out.OK() || out.Failure.Kind != models.FailureWorker {
		t.Fatalf("unexpected outcome %+v", out)
	}
}

func TestInvokeSkipsCacheForKindsWithoutTTL(t *testing.T) {
	inv := &fakeInvoker{outcome: models.Succeeded(json.RawMessage(`[]`), 0)}
	c := NewComputations(inv, memoryOutcomes(t), nil, nil, signalTTL, nil)

	c.OHLC(context.Background(), "8058.T", "2y", "1d")
	c.OHLC(context.Background(), "8058.T", "2y", "1d")

	if inv.calls.Load() != 2 {
		t.Fatalf("ohlc has no ttl and must not be cached, calls=%d", inv.calls.Load())
	}
}

func TestPublishErrorDoesNotFailRequest(t *testing.T) {
	inv := &fakeInvoker{outcome: models.Succeeded(json.RawMessage(`{}`), 0)}
	events := &recordingEvents{err: errors.New("broker down")}
	c := NewComputations(inv, nil, events, nil, Options{}, nil)

	out := c.Signal(context.Background(), "8058.T")

	if !out.OK() {
		t.Fatalf("publish error leaked into outcome: %+v", out.Failure)
	}
	if len(events.events) != 1 || events.events[0].Outcome != "success" {
		t.Fatalf("unexpected events %+v", events.events)
	}
}

func TestFailureDetailsAreInEvent(t *testing.T) {
	inv := &fakeInvoker{outcome: models.Failed(models.Failure{Kind: models.FailureTimeout, Detail: "slow"}, 25*time.Second)}
	events := &recordingEvents{}
	c := NewComputations(inv, nil, events, nil, Options{}, nil)

	c.Invoke(context.Background(), models.InvocationSpec{Kind: models.KindBacktest})

	ev := events.events[0]
	if ev.Outcome != "timeout" || ev.FailureKind != models.FailureTimeout || ev.Detail != "slow" || ev.DurationMs != 25000 {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestConcurrencyBound(t *testing.T) {
	inv := &fakeInvoker{
		outcome: models.Succeeded(json.RawMessage(`{}`), 0),
		block:   make(chan struct{}),
		started: make(chan struct{}, 4),
	}
	metrics := &countingMetrics{}
	c := NewComputations(inv, nil, nil, metrics, Options{MaxConcurrent: 1}, nil)

	done := make(chan models.InvocationOutcome, 1)
	go func() { done <- c.Signal(context.Background(), "8058.T") }()
	<-inv.started

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	out := c.Signal(ctx, "7203.T")

	if out.OK() || out.Failure.Kind != models.FailureCanceled {
		t.Fatalf("expected canceled while waiting for a slot, got %+v", out)
	}
	if inv.calls.Load() != 1 {
		t.Fatalf("second worker must not start, calls=%d", inv.calls.Load())
	}

	close(inv.block)
	if first := <-done; !first.OK() {
		t.Fatalf("first invocation failed: %+v", first.Failure)
	}

	// The slot is free again.
	if out := c.Signal(context.Background(), "7203.T"); !out.OK() {
		t.Fatalf("expected success after release, got %+v", out.Failure)
	}
	if metrics.outcomes["signal/canceled"] != 1 || metrics.inFlight != 0 {
		t.Fatalf("unexpected metrics %+v", metrics)
	}
}
