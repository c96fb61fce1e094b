package worker

import (
	"context"
	"path/filepath"
	"strconv"
	"time"

	"StockSignal/internal/domain/models"
	domsvc "StockSignal/internal/domain/service"
	"StockSignal/pkg/config"
	applogger "StockSignal/pkg/logger"
)

// Config is the immutable launch configuration shared by every invocation.
type Config struct {
	Executable string
	Dir        string
	Deadlines  map[models.Kind]time.Duration
	Programs   map[models.Kind]string
}

// ConfigFrom resolves the worker executable and fills per-kind settings.
func ConfigFrom(wc config.WorkerConfig) Config {
	dir := wc.RootDir
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	programs := DefaultPrograms()
	for kind, text := range wc.Programs {
		programs[models.Kind(kind)] = text
	}
	return Config{
		Executable: ResolveExecutable(wc.Python, dir),
		Dir:        dir,
		Deadlines: map[models.Kind]time.Duration{
			models.KindSignal:   wc.Deadlines.Signal,
			models.KindOHLC:     wc.Deadlines.OHLC,
			models.KindBacktest: wc.Deadlines.Backtest,
		},
		Programs: programs,
	}
}

// BacktestParams are the simulation inputs. Fast < Slow is expected but not enforced.
type BacktestParams struct {
	Symbol   string
	Period   string
	Interval string
	Fast     int
	Slow     int
	FeeBps   float64
}

// SignalSpec builds a signal invocation. A zero deadline means the kind's default.
func SignalSpec(symbol string) models.InvocationSpec {
	return models.InvocationSpec{
		Kind:   models.KindSignal,
		Params: []models.Param{{Name: "symbol", Value: symbol}},
	}
}

// OHLCSpec builds a series-fetch invocation.
func OHLCSpec(symbol, period, interval string) models.InvocationSpec {
	return models.InvocationSpec{
		Kind: models.KindOHLC,
		Params: []models.Param{
			{Name: "symbol", Value: symbol},
			{Name: "period", Value: period},
			{Name: "interval", Value: interval},
		},
	}
}

// BacktestSpec builds a simulation invocation.
func BacktestSpec(p BacktestParams) models.InvocationSpec {
	return models.InvocationSpec{
		Kind: models.KindBacktest,
		Params: []models.Param{
			{Name: "symbol", Value: p.Symbol},
			{Name: "period", Value: p.Period},
			{Name: "interval", Value: p.Interval},
			{Name: "fast", Value: strconv.Itoa(p.Fast)},
			{Name: "slow", Value: strconv.Itoa(p.Slow)},
			{Name: "fee_bps", Value: strconv.FormatFloat(p.FeeBps, 'f', -1, 64)},
		},
	}
}

// Gateway maps validated invocation specs onto worker processes.
type Gateway struct {
	cfg    Config
	runner *Runner
	logger *applogger.Logger
}

// NewGateway creates a Gateway.
func NewGateway(cfg Config, runner *Runner, l *applogger.Logger) *Gateway {
	if l == nil {
		l = applogger.Nop()
	}
	return &Gateway{cfg: cfg, runner: runner, logger: l}
}

// Config returns the launch configuration.
func (g *Gateway) Config() Config { return g.cfg }

// Invoke validates spec, spawns exactly one worker and reports its outcome.
// It never retries.
func (g *Gateway) Invoke(ctx context.Context, spec models.InvocationSpec) models.InvocationOutcome {
	if spec.Deadline == 0 {
		spec.Deadline = g.cfg.Deadlines[spec.Kind]
	}
	if err := Validate(spec); err != nil {
		g.logger.Debug("invocation rejected",
			applogger.String("kind", string(spec.Kind)),
			applogger.Error(err),
		)
		return models.Failed(models.Failure{Kind: models.FailureValidation, Detail: err.Error()}, 0)
	}

	args := make([]string, 0, len(spec.Params)+2)
	args = append(args, "-c", g.cfg.Programs[spec.Kind])
	args = append(args, spec.Values()...)

	return g.runner.Run(ctx, Invocation{
		Kind:     spec.Kind,
		Path:     g.cfg.Executable,
		Args:     args,
		Dir:      g.cfg.Dir,
		Deadline: spec.Deadline,
	})
}

func (g *Gateway) Signal(ctx context.Context, symbol string) models.InvocationOutcome {
	return g.Invoke(ctx, SignalSpec(symbol))
}

func (g *Gateway) OHLC(ctx context.Context, symbol, period, interval string) models.InvocationOutcome {
	return g.Invoke(ctx, OHLCSpec(symbol, period, interval))
}

func (g *Gateway) Backtest(ctx context.Context, p BacktestParams) models.InvocationOutcome {
	return g.Invoke(ctx, BacktestSpec(p))
}

var _ domsvc.Invoker = (*Gateway)(nil)
