package ratelimit

import (
	"testing"
	"time"
)

func fixedClock(l *Limiter) *time.Time {
	t := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return t }
	return &t
}

func TestAllowDrainsAndRefills(t *testing.T) {
	l := New(2, 1)
	now := fixedClock(l)

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatalf("expected the first two requests to pass")
	}
	if l.Allow("a") {
		t.Fatalf("expected the bucket to be empty")
	}
	if !l.Allow("b") {
		t.Fatalf("keys must not share a bucket")
	}

	*now = now.Add(1500 * time.Millisecond)
	if !l.Allow("a") {
		t.Fatalf("expected a refilled token")
	}
	if l.Allow("a") {
		t.Fatalf("only one token should have been refilled")
	}
}

func TestPruneRemovesFullBuckets(t *testing.T) {
	l := New(3, 1)
	now := fixedClock(l)

	l.Allow("idle")
	l.Allow("busy")
	l.Allow("busy")
	l.Allow("busy")

	*now = now.Add(time.Second)
	if removed := l.Prune(); removed != 1 {
		t.Fatalf("expected one pruned bucket, got %d", removed)
	}
	if _, ok := l.m["busy"]; !ok {
		t.Fatalf("busy bucket should be kept")
	}
}

func TestJanitorPrunesUntilClosed(t *testing.T) {
	l := New(1, 1000)
	l.Allow("a")

	j := l.StartJanitor(5 * time.Millisecond)
	deadline := time.Now().Add(2 * time.Second)
	for {
		l.mu.Lock()
		n := len(l.m)
		l.mu.Unlock()
		if n == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("janitor never pruned")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	_ = j.Close()
}
