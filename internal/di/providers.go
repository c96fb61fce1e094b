package di

import (
	"context"
	"fmt"
	"time"

	"StockSignal/internal/domain/models"
	domrepo "StockSignal/internal/domain/repository"
	domsvc "StockSignal/internal/domain/service"
	"StockSignal/internal/handler/api"
	internalrepo "StockSignal/internal/repository"
	"StockSignal/internal/service/ratelimit"
	"StockSignal/internal/service/worker"
	"StockSignal/internal/usecase"
	"StockSignal/pkg/cache"
	"StockSignal/pkg/config"
	xhttp "StockSignal/pkg/http"
	"StockSignal/pkg/http/middleware"
	pkgkafka "StockSignal/pkg/kafka"
	applogger "StockSignal/pkg/logger"
	"StockSignal/pkg/metrics"
	"StockSignal/pkg/server"
)

const limiterPruneInterval = time.Minute

// ProvideLogger creates the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideWorkerConfig resolves the interpreter and per-kind settings once.
func ProvideWorkerConfig(cfg *config.Config) worker.Config {
	return worker.ConfigFrom(cfg.Worker)
}

// ProvideRunner creates the process runner.
func ProvideRunner(l *applogger.Logger) *worker.Runner {
	return worker.NewRunner(l)
}

// ProvideGateway creates the worker gateway.
func ProvideGateway(wc worker.Config, runner *worker.Runner, l *applogger.Logger) *worker.Gateway {
	l.Info("worker gateway ready",
		applogger.String("executable", wc.Executable),
		applogger.String("dir", wc.Dir),
	)
	return worker.NewGateway(wc, runner, l)
}

// ProvideInvoker exposes the gateway as the invoker the usecase depends on.
func ProvideInvoker(g *worker.Gateway) domsvc.Invoker {
	return g
}

// ProvideMetrics creates a Prometheus metrics recorder on the default registry.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New(nil)
}

// ProvideCacheStore builds the byte store selected by cache.type. It returns a
// nil Service when caching is off.
func ProvideCacheStore(cfg *config.Config, l *applogger.Logger) (cache.Service, error) {
	memory := func() *cache.MemoryCache {
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize))
	}
	redis := func() (*cache.RedisCache, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		rc, err := cache.NewRedisCache(ctx,
			cache.WithRedisHost(cfg.Cache.Redis.Host),
			cache.WithRedisPort(cfg.Cache.Redis.Port),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return rc, nil
	}

	switch cfg.Cache.Type {
	case "memory":
		l.Info("cache: memory", applogger.Int("max_size", cfg.Cache.MemoryMaxSize))
		return memory(), nil
	case "redis":
		rc, err := redis()
		if err != nil {
			return nil, err
		}
		l.Info("cache: redis", applogger.String("host", cfg.Cache.Redis.Host))
		return rc, nil
	case "layered":
		rc, err := redis()
		if err != nil {
			return nil, err
		}
		l.Info("cache: layered", applogger.String("host", cfg.Cache.Redis.Host))
		return cache.NewLayeredCache(rc, cache.WithLayeredMemorySize(cfg.Cache.MemoryMaxSize)), nil
	default:
		return nil, nil
	}
}

// ProvideOutcomeCache adapts the byte store to invocation outcomes.
func ProvideOutcomeCache(store cache.Service) domrepo.OutcomeCache {
	if store == nil {
		return nil
	}
	return internalrepo.NewCachedOutcomes(store)
}

// ProvideOutcomePublisher creates the Kafka event publisher when events are
// enabled and returns nil otherwise.
func ProvideOutcomePublisher(cfg *config.Config, l *applogger.Logger) (domrepo.OutcomePublisher, error) {
	if !cfg.Events.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Events.Brokers),
		pkgkafka.WithTopic(cfg.Events.Topic),
		pkgkafka.WithCompression(cfg.Events.Compression),
		pkgkafka.WithRequiredAcks(cfg.Events.RequiredAcks),
		pkgkafka.WithWriteTimeout(cfg.Events.WriteTimeout),
		pkgkafka.WithAsync(cfg.Events.Async),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	l.Info("events: kafka",
		applogger.Strings("brokers", cfg.Events.Brokers),
		applogger.String("topic", cfg.Events.Topic),
	)
	return internalrepo.NewKafkaOutcomePublisher(producer), nil
}

// ProvideUsecaseOptions maps config onto the usecase tuning knobs.
func ProvideUsecaseOptions(cfg *config.Config) usecase.Options {
	return usecase.Options{
		MaxConcurrent: cfg.Worker.MaxConcurrent,
		TTL: map[models.Kind]time.Duration{
			models.KindSignal:   cfg.Cache.TTL.Signal,
			models.KindOHLC:     cfg.Cache.TTL.OHLC,
			models.KindBacktest: cfg.Cache.TTL.Backtest,
		},
	}
}

// ProvideComputations creates the computations usecase.
func ProvideComputations(
	inv domsvc.Invoker,
	oc domrepo.OutcomeCache,
	events domrepo.OutcomePublisher,
	m domrepo.Metrics,
	opts usecase.Options,
	l *applogger.Logger,
) *usecase.Computations {
	return usecase.NewComputations(inv, oc, events, m, opts, l)
}

// ProvideHandler creates the HTTP facade.
func ProvideHandler(l *applogger.Logger, comp *usecase.Computations) xhttp.Handler {
	return api.NewComputationsEchoHandler(l, comp)
}

// ProvideRateLimiter returns nil when rate limiting is disabled.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec)
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(cfg *config.Config, h xhttp.Handler, limiter *ratelimit.Limiter, l *applogger.Logger) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(cfg.Server.SlowRequestThreshold),
		xhttp.WithLogger(l),
	}
	// A nil *Limiter must not reach the middleware as a non-nil Allower.
	if limiter != nil {
		var a middleware.Allower = limiter
		opts = append(opts, xhttp.WithRateLimit(a))
	}
	return xhttp.NewServer(h, opts...)
}

// ProvideApp creates the application server and hands it everything that
// must be released on shutdown.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	store cache.Service,
	events domrepo.OutcomePublisher,
	limiter *ratelimit.Limiter,
) *server.App {
	resources := []server.Resource{
		{Name: "cache", Closer: store},
		{Name: "events", Closer: events},
	}
	if limiter != nil {
		resources = append(resources, server.Resource{Name: "rate_limit", Closer: limiter.StartJanitor(limiterPruneInterval)})
	}
	return server.New(cfg, l, srv, resources...)
}
