package server

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"StockSignal/pkg/config"
	xhttp "StockSignal/pkg/http"
)

type closeRecorder struct {
	name  string
	order *[]string
	err   error
}

func (c *closeRecorder) Close() error {
	*c.order = append(*c.order, c.name)
	return c.err
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()
	return port
}

func TestRunContextClosesResourcesInReverse(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Port = freePort(t)
	srv := xhttp.NewServer(nil, xhttp.WithHost("127.0.0.1"), xhttp.WithPort(cfg.Server.Port))

	var order []string
	app := New(cfg, nil, srv,
		Resource{Name: "cache", Closer: &closeRecorder{name: "cache", order: &order}},
		Resource{Name: "events", Closer: &closeRecorder{name: "events", order: &order, err: errors.New("broker gone")}},
		Resource{Name: "disabled"},
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.RunContext(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("app did not stop")
	}
	if strings.Join(order, ",") != "events,cache" {
		t.Fatalf("unexpected close order %v", order)
	}
}

func TestRunContextReportsListenFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	cfg := config.Default()
	cfg.Server.Port = port
	srv := xhttp.NewServer(nil, xhttp.WithHost("127.0.0.1"), xhttp.WithPort(port))

	var order []string
	app := New(cfg, nil, srv, Resource{Name: "cache", Closer: &closeRecorder{name: "cache", order: &order}})

	done := make(chan error, 1)
	go func() { done <- app.RunContext(context.Background()) }()

	select {
	case err := <-done:
		if err == nil || !strings.Contains(err.Error(), "http server") {
			t.Fatalf("expected listen error, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("listen failure not reported")
	}
	if len(order) != 1 {
		t.Fatalf("resources not closed after failure: %v", order)
	}
}
