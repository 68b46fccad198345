//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"TrendPredictor/internal/usecase"
	"TrendPredictor/pkg/config"
	"TrendPredictor/pkg/server"
)

// commonSet builds the data path shared by the server and the trainer.
var commonSet = wire.NewSet(
	ProvideLogger,
	ProvideRegistry,
	ProvideMetrics,
	ProvideClickHouseClient,
	ProvideKafkaProducer,
	ProvideSeriesSource,
	ProvideTrendSource,
	ProvideSeriesLoader,
	ProvideEventPublisher,
	ProvideRunStore,
	ProvideTrainingService,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		commonSet,

		// Serving
		ProvideModelHolder,
		ProvideResponseCache,
		ProvidePredictionSink,
		ProvidePredictionService,
		ProvideRateLimiter,
		ProvidePredictHandler,
		ProvideHTTPServer,

		// Hot reload
		ProvideKafkaConsumer,
		ProvideModelEventsHandler,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeTrainer wires the offline training pipeline.
func InitializeTrainer(cfg *config.Config) (*usecase.TrainingService, func(), error) {
	wire.Build(commonSet)
	return nil, nil, nil
}
