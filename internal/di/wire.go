//go:build wireinject
// +build wireinject

package di

import (
	"MarketDash/pkg/config"
	"MarketDash/pkg/server"

	"github.com/google/wire"
)

var infraSet = wire.NewSet(
	ProvideMetrics,
	ProvideKafkaProducer,
	ProvideLogger,
	ProvideRedisClient,
	ProvideCache,
	ProvideClickHouseClient,
	ProvideMarketBackend,
)

var archiveSet = wire.NewSet(
	ProvideDecisionArchive,
	ProvideDecisionPublisher,
	ProvideDecisionRecorder,
	ProvideEventPipeline,
	ProvideKafkaConsumer,
	ProvideArchiveHandler,
)

var dashboardSet = wire.NewSet(
	ProvideSessionStore,
	ProvideDashboardUseCase,
	ProvideAnalysisUseCase,
	ProvideHub,
	ProvideRefresher,
	ProvideRedisQueue,
	ProvidePrewarmJob,
	ProvidePrewarmer,
	ProvideLimiter,
	ProvideHandlers,
	ProvideHTTPServer,
)

// InitializeApp wires up all dependencies and returns the application.
// The cleanup closes infrastructure clients in reverse order.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		infraSet,
		archiveSet,
		dashboardSet,
		wire.Struct(new(server.Components), "*"),
		server.New,
	)
	return nil, nil, nil
}
