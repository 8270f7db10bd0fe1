//go:build wireinject
// +build wireinject

package di

import (
	"MarketPulse/pkg/config"
	"MarketPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Metrics
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories (with business logic)
		ProvideReadingStorage,
		ProvideReadingPublisher,
		ProvideSignalPublisher,
		ProvideHistoryStore,
		ProvideHistoryCache,
		ProvideCachedHistory,
		ProvideFeedStream,

		// Scoring core
		ProvideScoringEngine,
		ProvideCompositeConfig,

		// Use cases
		ProvideReadingProcessor,
		ProvideReadingCollector,
		ProvideKafkaReadingsHandler,
		ProvideAlertQueue,
		ProvideEvaluator,
		ProvideHistoryUseCase,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
