//go:build unix

package worker

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"StockSignal/internal/domain/models"
)

// shellGateway runs programs with /bin/sh; with `sh -c prog a b`, $0 is the
// first parameter.
func shellGateway(t *testing.T, programs map[models.Kind]string) *Gateway {
	t.Helper()
	return NewGateway(Config{
		Executable: "/bin/sh",
		Dir:        t.TempDir(),
		Deadlines: map[models.Kind]time.Duration{
			models.KindSignal:   5 * time.Second,
			models.KindOHLC:     5 * time.Second,
			models.KindBacktest: 300 * time.Millisecond,
		},
		Programs: programs,
	}, NewRunner(nil), nil)
}

func TestGatewaySignalPassesSymbolAsArgument(t *testing.T) {
	g := shellGateway(t, map[models.Kind]string{
		models.KindSignal: `printf '{"symbol":"%s","signal":"HOLD"}' "$0"`,
	})

	for _, sym := range []string{"8058.T", "^N225", "USDJPY=X", "BTC-USD"} {
		out := g.Signal(context.Background(), sym)
		if !out.OK() {
			t.Fatalf("%s: unexpected failure %+v", sym, out.Failure)
		}
		if want := `{"symbol":"` + sym + `","signal":"HOLD"}`; string(out.Payload) != want {
			t.Fatalf("%s: got %s want %s", sym, out.Payload, want)
		}
	}
}

func TestGatewayOHLCParamOrder(t *testing.T) {
	g := shellGateway(t, map[models.Kind]string{
		models.KindOHLC: `printf '["%s","%s","%s"]' "$0" "$1" "$2"`,
	})

	out := g.OHLC(context.Background(), "7203.T", "6mo", "1d")

	if !out.OK() {
		t.Fatalf("unexpected failure %+v", out.Failure)
	}
	if string(out.Payload) != `["7203.T","6mo","1d"]` {
		t.Fatalf("unexpected payload %s", out.Payload)
	}
}

func TestGatewayBacktestFormatsNumbers(t *testing.T) {
	g := shellGateway(t, map[models.Kind]string{
		models.KindBacktest: `printf '[%s,%s,%s]' "$3" "$4" "$5"`,
	})

	out := g.Backtest(context.Background(), BacktestParams{
		Symbol: "8058.T", Period: "2y", Interval: "1d", Fast: 5, Slow: 20, FeeBps: 2.5,
	})

	if !out.OK() {
		t.Fatalf("unexpected failure %+v", out.Failure)
	}
	if string(out.Payload) != `[5,20,2.5]` {
		t.Fatalf("unexpected payload %s", out.Payload)
	}
}

func TestGatewayRejectsBeforeSpawn(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "spawned")
	touch := "touch " + marker + "; echo '{}'"
	g := shellGateway(t, map[models.Kind]string{
		models.KindSignal:   touch,
		models.KindOHLC:     touch,
		models.KindBacktest: touch,
	})

	bad := []models.InvocationSpec{
		SignalSpec(""),
		SignalSpec(`8058.T"); import os; os.system("id`),
		SignalSpec("8058.T; rm -rf /"),
		OHLCSpec("8058.T", "2y; ls", "1d"),
		OHLCSpec("8058.T", "2y", ""),
		{
			Kind: models.KindBacktest,
			Params: []models.Param{
				{Name: "symbol", Value: "8058.T"},
				{Name: "period", Value: "2y"},
				{Name: "interval", Value: "1d"},
				{Name: "fast", Value: "five"},
				{Name: "slow", Value: "20"},
				{Name: "fee_bps", Value: "5"},
			},
		},
		{
			Kind: models.KindBacktest,
			Params: []models.Param{
				{Name: "symbol", Value: "8058.T"},
				{Name: "period", Value: "2y"},
				{Name: "interval", Value: "1d"},
				{Name: "fast", Value: "5"},
				{Name: "slow", Value: "20"},
				{Name: "fee_bps", Value: "NaN"},
			},
		},
		{Kind: models.KindSignal},
		{Kind: "unknown", Params: []models.Param{{Name: "symbol", Value: "8058.T"}}},
	}

	for i, spec := range bad {
		out := g.Invoke(context.Background(), spec)
		if out.OK() || out.Failure.Kind != models.FailureValidation {
			t.Fatalf("case %d: expected validation_error, got %+v", i, out)
		}
	}
	if _, err := os.Stat(marker); !os.IsNotExist(err) {
		t.Fatalf("a worker was spawned for an invalid spec")
	}
}

func TestGatewayAppliesKindDeadline(t *testing.T) {
	g := shellGateway(t, map[models.Kind]string{
		models.KindBacktest: "exec sleep 10",
	})

	start := time.Now()
	out := g.Backtest(context.Background(), BacktestParams{
		Symbol: "8058.T", Period: "2y", Interval: "1d", Fast: 5, Slow: 20, FeeBps: 5,
	})

	if out.OK() || out.Failure.Kind != models.FailureTimeout {
		t.Fatalf("expected timeout, got %+v", out)
	}
	if time.Since(start) > 3*time.Second {
		t.Fatalf("kind deadline not applied")
	}
}

func TestGatewayRunsInConfiguredDir(t *testing.T) {
	g := shellGateway(t, map[models.Kind]string{
		models.KindSignal: `test -f model/predict.py && echo '{"ok":true}'`,
	})
	if err := os.MkdirAll(filepath.Join(g.Config().Dir, "model"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(g.Config().Dir, "model", "predict.py"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	out := g.Signal(context.Background(), "8058.T")

	if !out.OK() {
		t.Fatalf("worker did not run in the project root: %+v", out.Failure)
	}
}
