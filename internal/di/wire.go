//go:build wireinject
// +build wireinject

package di

import (
	"StockSignal/pkg/config"
	"StockSignal/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Workers
		ProvideWorkerConfig,
		ProvideRunner,
		ProvideGateway,
		ProvideInvoker,

		// Infrastructure clients
		ProvideCacheStore,
		ProvideOutcomeCache,
		ProvideOutcomePublisher,

		// Use cases
		ProvideUsecaseOptions,
		ProvideComputations,

		// HTTP
		ProvideHandler,
		ProvideRateLimiter,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
