package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishEncodesJSON(t *testing.T) {
	w := &recordingWriter{}
	p := NewProducerWithWriter(w, "events", "snappy")

	if err := p.Publish(context.Background(), []byte("k"), map[string]int{"a": 1}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := p.Publish(context.Background(), nil, []byte(`{"raw":true}`)); err != nil {
		t.Fatalf("publish raw: %v", err)
	}

	if len(w.msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(w.msgs))
	}
	if string(w.msgs[0].Key) != "k" || string(w.msgs[0].Value) != `{"a":1}` {
		t.Fatalf("unexpected first message %+v", w.msgs[0])
	}
	if string(w.msgs[1].Value) != `{"raw":true}` {
		t.Fatalf("raw bytes should pass through, got %s", w.msgs[1].Value)
	}

	_ = p.Close()
	if !w.closed {
		t.Fatalf("close not propagated")
	}
}

func TestPublishWrapsWriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := NewProducerWithWriter(&recordingWriter{err: boom}, "events", "snappy")

	err := p.Publish(context.Background(), nil, "x")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped writer error, got %v", err)
	}
}

func TestNewProducerRequiresBrokersAndTopic(t *testing.T) {
	if _, err := NewProducer(WithTopic("t")); err == nil {
		t.Fatalf("expected brokers error")
	}
	if _, err := NewProducer(WithBrokers([]string{"localhost:9092"})); err == nil {
		t.Fatalf("expected topic error")
	}
	p, err := NewProducer(WithBrokers([]string{"localhost:9092"}), WithTopic("t"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Topic() != "t" {
		t.Fatalf("unexpected topic %s", p.Topic())
	}
	_ = p.Close()
}
