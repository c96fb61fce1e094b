package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"StockSignal/internal/domain/models"
	"StockSignal/pkg/cache"
)

type failingStore struct{ cache.Service }

func (failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection reset")
}

func TestCachedOutcomesStoresSuccessOnly(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemoryCache(cache.WithMemoryCleanup(0))
	defer mem.Close()
	c := NewCachedOutcomes(mem)
	spec := models.InvocationSpec{Kind: models.KindSignal, Params: []models.Param{{Name: "symbol", Value: "8058.T"}}}

	failed := models.Failed(models.Failure{Kind: models.FailureTimeout, Detail: "slow"}, time.Second)
	if err := c.Set(ctx, spec, failed, time.Minute); err != nil {
		t.Fatalf("set failure: %v", err)
	}
	if _, hit, _ := c.Get(ctx, spec); hit {
		t.Fatalf("failures must not be cached")
	}

	ok := models.Succeeded(json.RawMessage(`{"signal":"BUY"}`), time.Second)
	if err := c.Set(ctx, spec, ok, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, hit, err := c.Get(ctx, spec)
	if err != nil || !hit {
		t.Fatalf("expected hit, got hit=%v err=%v", hit, err)
	}
	if string(got.Payload) != `{"signal":"BUY"}` || !got.OK() {
		t.Fatalf("unexpected cached outcome %+v", got)
	}

	other := spec
	other.Params = []models.Param{{Name: "symbol", Value: "7203.T"}}
	if _, hit, _ := c.Get(ctx, other); hit {
		t.Fatalf("different params must not share an entry")
	}
}

func TestCachedOutcomesSurfacesStoreErrors(t *testing.T) {
	c := NewCachedOutcomes(failingStore{})

	_, hit, err := c.Get(context.Background(), models.InvocationSpec{Kind: models.KindOHLC})
	if hit || err == nil {
		t.Fatalf("expected store error, got hit=%v err=%v", hit, err)
	}
}

type capturingProducer struct {
	key   []byte
	value interface{}
}

func (p *capturingProducer) Publish(_ context.Context, key []byte, value interface{}) error {
	p.key, p.value = key, value
	return nil
}

func (p *capturingProducer) Close() error { return nil }

func TestKafkaOutcomePublisherKeysByKind(t *testing.T) {
	p := &capturingProducer{}
	pub := NewKafkaOutcomePublisher(p)

	ev := models.OutcomeEvent{ID: "1", Kind: models.KindBacktest, Outcome: "success"}
	if err := pub.Publish(context.Background(), ev); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if string(p.key) != "backtest" {
		t.Fatalf("unexpected key %q", p.key)
	}
	if got, ok := p.value.(models.OutcomeEvent); !ok || got.ID != "1" {
		t.Fatalf("unexpected value %#v", p.value)
	}
}
