package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"StockSignal/internal/client"
	"StockSignal/internal/domain/models"
	"StockSignal/internal/services/features"
	applogger "StockSignal/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// API is the remote surface a session fans out to. *client.Client implements it.
type API interface {
	Signal(ctx context.Context, symbol string) (models.SignalResult, error)
	OHLC(ctx context.Context, symbol, period, interval string) ([]models.TimeSeriesPoint, error)
	Backtest(ctx context.Context, symbol string, p client.BacktestQuery) (models.BacktestResult, error)
}

// State of a session.
type State int32

const (
	Idle State = iota
	Debouncing
	Fetching
	Settled
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Debouncing:
		return "debouncing"
	case Fetching:
		return "fetching"
	case Settled:
		return "settled"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Params are the inputs a cycle depends on besides the symbol.
type Params struct {
	Period     string
	Interval   string
	Fast       int
	Slow       int
	FeeBps     float64
	Simulation bool
}

// ResultBundle is everything one cycle produced. On failure only Err and the
// identifying fields are set.
type ResultBundle struct {
	Generation uint64
	Symbol     string
	Params     Params
	Signal     *models.SignalResult
	Series     []models.TimeSeriesPoint
	Averages   map[int][]models.DerivedPoint
	Backtest   *models.BacktestResult
	Err        string
}

// Config for a session. Zero fields take the defaults in DefaultConfig.
type Config struct {
	Debounce      time.Duration
	Windows       []int
	Params        Params
	UpdatesBuffer int
}

func DefaultConfig() Config {
	return Config{
		Debounce: 500 * time.Millisecond,
		Windows:  []int{5, 20},
		Params: Params{
			Period:   "2y",
			Interval: "1d",
			Fast:     5,
			Slow:     20,
			FeeBps:   5,
		},
		UpdatesBuffer: 8,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Debounce <= 0 {
		c.Debounce = d.Debounce
	}
	if len(c.Windows) == 0 {
		c.Windows = d.Windows
	}
	if c.Params.Period == "" {
		c.Params.Period = d.Params.Period
	}
	if c.Params.Interval == "" {
		c.Params.Interval = d.Params.Interval
	}
	if c.Params.Fast == 0 {
		c.Params.Fast = d.Params.Fast
	}
	if c.Params.Slow == 0 {
		c.Params.Slow = d.Params.Slow
	}
	if c.UpdatesBuffer <= 0 {
		c.UpdatesBuffer = d.UpdatesBuffer
	}
	return c
}

// Inbox messages. Only the actor goroutine reads or writes session state.
type (
	symbolInput struct{ text string }
	timerFired  struct{ token uint64 }
	paramsInput struct{ apply func(*Params) }
	refreshMsg  struct{}
	cycleDone   struct {
		generation uint64
		bundle     ResultBundle
		err        error
	}
)

// Session drives one view: it debounces symbol input, runs one fan-out cycle
// at a time and commits only results of the current generation.
type Session struct {
	api    API
	cfg    Config
	logger *applogger.Logger

	inbox     chan interface{}
	updates   chan ResultBundle
	done      chan struct{}
	exited    chan struct{}
	closeOnce sync.Once

	// Snapshots for readers outside the actor.
	state  atomic.Int32
	bundle atomic.Pointer[ResultBundle]

	// Actor-owned.
	raw         string
	symbol      string
	params      Params
	generation  uint64
	token       uint64
	timer       *time.Timer
	cancel      context.CancelFunc
	inFlight    bool
	lastOutcome State
}

// NewSession starts the session actor. Close releases it.
func NewSession(api API, cfg Config, l *applogger.Logger) *Session {
	if l == nil {
		l = applogger.Nop()
	}
	cfg = cfg.withDefaults()
	s := &Session{
		api:         api,
		cfg:         cfg,
		logger:      l,
		inbox:       make(chan interface{}, 16),
		updates:     make(chan ResultBundle, cfg.UpdatesBuffer),
		done:        make(chan struct{}),
		exited:      make(chan struct{}),
		params:      cfg.Params,
		lastOutcome: Idle,
	}
	s.bundle.Store(&ResultBundle{})
	go s.run()
	return s
}

// SetSymbol records raw symbol text and restarts the quiet period.
func (s *Session) SetSymbol(text string) { s.send(symbolInput{text: text}) }

func (s *Session) SetPeriod(period string) {
	s.send(paramsInput{apply: func(p *Params) { p.Period = period }})
}

func (s *Session) SetInterval(interval string) {
	s.send(paramsInput{apply: func(p *Params) { p.Interval = interval }})
}

// SetWindows sets the simulation's fast and slow moving-average lengths.
func (s *Session) SetWindows(fast, slow int) {
	s.send(paramsInput{apply: func(p *Params) { p.Fast, p.Slow = fast, slow }})
}

func (s *Session) SetFee(bps float64) {
	s.send(paramsInput{apply: func(p *Params) { p.FeeBps = bps }})
}

func (s *Session) EnableSimulation(on bool) {
	s.send(paramsInput{apply: func(p *Params) { p.Simulation = on }})
}

// Refresh re-runs the cycle for the resolved symbol.
func (s *Session) Refresh() { s.send(refreshMsg{}) }

func (s *Session) State() State { return State(s.state.Load()) }

// Bundle returns the last committed bundle.
func (s *Session) Bundle() ResultBundle { return *s.bundle.Load() }

// Updates delivers committed bundles. When the reader falls behind the oldest
// pending bundle is dropped. The channel is closed by Close.
func (s *Session) Updates() <-chan ResultBundle { return s.updates }

// Close stops the actor and cancels any in-flight cycle.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.done) })
	<-s.exited
}

func (s *Session) send(m interface{}) {
	select {
	case s.inbox <- m:
	case <-s.done:
	}
}

func (s *Session) run() {
	defer close(s.exited)
	defer close(s.updates)
	for {
		select {
		case <-s.done:
			if s.timer != nil {
				s.timer.Stop()
			}
			if s.cancel != nil {
				s.cancel()
			}
			return
		case m := <-s.inbox:
			s.handle(m)
		}
	}
}

func (s *Session) handle(m interface{}) {
	switch m := m.(type) {
	case symbolInput:
		s.raw = m.text
		s.token++
		token := s.token
		if s.timer != nil {
			s.timer.Stop()
		}
		s.timer = time.AfterFunc(s.cfg.Debounce, func() { s.send(timerFired{token: token}) })
		s.setState(Debouncing)

	case timerFired:
		if m.token != s.token {
			return
		}
		s.resolve(strings.TrimSpace(s.raw))

	case paramsInput:
		m.apply(&s.params)
		if s.symbol != "" {
			s.startCycle()
		}

	case refreshMsg:
		if s.symbol != "" {
			s.startCycle()
		}

	case cycleDone:
		s.commit(m)
	}
}

func (s *Session) resolve(symbol string) {
	switch {
	case symbol == "":
		// Nothing to show; results still in flight for the old symbol are dropped.
		s.symbol = ""
		s.supersede()
		s.lastOutcome = Idle
		s.setState(Idle)
	case symbol == s.symbol:
		if s.inFlight {
			s.setState(Fetching)
		} else {
			s.setState(s.lastOutcome)
		}
	default:
		s.symbol = symbol
		s.startCycle()
	}
}

// supersede invalidates the current cycle.
func (s *Session) supersede() {
	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.inFlight = false
}

func (s *Session) startCycle() {
	s.supersede()
	gen := s.generation
	symbol, params := s.symbol, s.params

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.inFlight = true
	s.setState(Fetching)

	s.logger.Debug("cycle start",
		applogger.Uint64("generation", gen),
		applogger.String("symbol", symbol),
	)
	go func() {
		b, err := s.fetch(ctx, symbol, params)
		b.Generation = gen
		s.send(cycleDone{generation: gen, bundle: b, err: err})
	}()
}

// fetch runs every sub-call of a cycle in parallel. The first failure cancels
// the rest and fails the whole cycle.
func (s *Session) fetch(ctx context.Context, symbol string, p Params) (ResultBundle, error) {
	var (
		sig    models.SignalResult
		series []models.TimeSeriesPoint
		bt     models.BacktestResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sig, err = s.api.Signal(gctx, symbol)
		return err
	})
	g.Go(func() error {
		var err error
		series, err = s.api.OHLC(gctx, symbol, p.Period, p.Interval)
		return err
	})
	if p.Simulation {
		g.Go(func() error {
			var err error
			bt, err = s.api.Backtest(gctx, symbol, client.BacktestQuery{
				Period:   p.Period,
				Interval: p.Interval,
				Fast:     p.Fast,
				Slow:     p.Slow,
				FeeBps:   p.FeeBps,
			})
			return err
		})
	}

	b := ResultBundle{Symbol: symbol, Params: p}
	if err := g.Wait(); err != nil {
		return b, err
	}
	b.Signal = &sig
	b.Series = series
	b.Averages = features.SMAMany(series, s.cfg.Windows...)
	if p.Simulation {
		b.Backtest = &bt
	}
	return b, nil
}

func (s *Session) commit(m cycleDone) {
	if m.generation != s.generation {
		s.logger.Debug("stale cycle discarded",
			applogger.Uint64("generation", m.generation),
			applogger.Uint64("current", s.generation),
		)
		return
	}
	s.inFlight = false
	s.cancel = nil

	if m.err != nil {
		if errors.Is(m.err, context.Canceled) {
			// An aborted transfer is never shown to the user.
			if s.State() != Debouncing {
				s.setState(s.lastOutcome)
			}
			return
		}
		s.lastOutcome = Failed
		s.publish(ResultBundle{
			Generation: m.generation,
			Symbol:     m.bundle.Symbol,
			Params:     m.bundle.Params,
			Err:        m.err.Error(),
		}, Failed)
		return
	}
	s.lastOutcome = Settled
	s.publish(m.bundle, Settled)
}

func (s *Session) publish(b ResultBundle, st State) {
	s.bundle.Store(&b)
	// Symbol input may have arrived since the cycle began; keep showing it.
	if s.State() != Debouncing {
		s.setState(st)
	}
	for {
		select {
		case s.updates <- b:
			return
		default:
		}
		select {
		case <-s.updates:
		default:
		}
	}
}

func (s *Session) setState(st State) { s.state.Store(int32(st)) }
