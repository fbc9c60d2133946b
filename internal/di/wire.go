//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"Coinverge/pkg/config"
	"Coinverge/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Metrics
		ProvideRegistry,
		ProvideRegisterer,
		ProvideGatherer,
		ProvideMetrics,

		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideCache,
		ProvideFetcher,
		ProvideCoinGeckoClient,
		ProvideCoinSource,
		ProvideHealthChecker,

		// Repositories
		ProvideWatchlistStore,
		ProvideEventPublisher,

		// Use cases
		ProvideHealthMonitor,
		ProvideHealthProbe,
		ProvideReconciler,
		ProvideWatchlistService,
		ProvideSearchSessions,

		// HTTP
		ProvideHandlers,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
