package di

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"TrendPredictor/internal/domain/repository"
	"TrendPredictor/internal/handler/api"
	internalrepo "TrendPredictor/internal/repository"
	"TrendPredictor/internal/service/cache"
	svcmetrics "TrendPredictor/internal/service/metrics"
	"TrendPredictor/internal/service/ratelimit"
	"TrendPredictor/internal/service/trends"
	"TrendPredictor/internal/service/yahoo"
	"TrendPredictor/internal/services/inference"
	"TrendPredictor/internal/usecase"
	pkgch "TrendPredictor/pkg/clickhouse"
	"TrendPredictor/pkg/config"
	xhttp "TrendPredictor/pkg/http"
	pkgkafka "TrendPredictor/pkg/kafka"
	"TrendPredictor/pkg/logger"
	"TrendPredictor/pkg/metrics"
	"TrendPredictor/pkg/server"
)

// ProvideLogger builds the process logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(logger.String("env", cfg.Environment)), nil
}

// ProvideRegistry returns a private registry with runtime collectors.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	svcmetrics.Register(reg)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.New(reg)
}

// ProvideClickHouseClient connects and creates the tables when ClickHouse is
// enabled; otherwise it returns nil.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return nil, func() {}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	if err := client.InitSchema(ctx, []string{
		internalrepo.DailyCandlesSchema(cfg.ClickHouse.SeriesTable),
		internalrepo.PredictionsSchema(cfg.ClickHouse.PredictionsTable),
	}); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideKafkaProducer creates a Kafka producer when Kafka is enabled. The
// producer also ships warn/error digests when a logs topic is configured.
func ProvideKafkaProducer(cfg *config.Config, l *logger.Logger, reg *prometheus.Registry) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.BatchTimeout),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithProducerRegisterer(reg),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	if cfg.Kafka.LogsTopic != "" {
		l.AddCollector(&logger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogsTopic,
			Source:         "trend-predictor",
			Publisher:      producer,
		})
	}
	cleanup := func() {
		l.RemoveCollector()
		_ = producer.Close()
	}
	return producer, cleanup, nil
}

// ProvideSeriesSource selects the real series source from config; nil means
// every request uses synthetic data.
func ProvideSeriesSource(cfg *config.Config, l *logger.Logger, ch *pkgch.Client) (repository.SeriesSource, error) {
	switch cfg.Data.Source {
	case "yahoo":
		hc := xhttp.NewClient(xhttp.WithTimeout(cfg.Data.Timeout), xhttp.WithUserAgent("trend-predictor/1.0"))
		return yahoo.NewClient(l, yahoo.WithBaseURL(cfg.Data.YahooBaseURL), yahoo.WithHTTPClient(hc)), nil
	case "clickhouse":
		if ch == nil {
			return nil, fmt.Errorf("data source clickhouse requires clickhouse.enabled")
		}
		src := internalrepo.NewCHSeriesSource(ch.DB(), cfg.ClickHouse.SeriesTable)
		src.SetLogger(l.Component("clickhouse"))
		return src, nil
	default:
		return nil, nil
	}
}

// ProvideTrendSource returns the keyword interest source.
func ProvideTrendSource(cfg *config.Config) repository.TrendSource {
	return trends.NewSyntheticSource(cfg.Data.Seed)
}

func ProvideSeriesLoader(l *logger.Logger, src repository.SeriesSource, ts repository.TrendSource, cfg *config.Config, m repository.Metrics) *usecase.SeriesLoader {
	return usecase.NewSeriesLoader(l, src, ts, cfg.Data.Seed, m)
}

// ProvideModelHolder loads the configured artifact. A missing or corrupt
// artifact is not fatal: the service starts without a model.
func ProvideModelHolder(cfg *config.Config, l *logger.Logger, m repository.Metrics) *inference.Holder {
	sc, err := inference.LoadContext(cfg.Model.Path)
	if err != nil {
		l.Warn("starting without model", logger.String("path", cfg.Model.Path), logger.Error(err))
	} else {
		l.Info("model loaded", logger.String("path", sc.Path()), logger.String("version", sc.Version()))
	}
	m.RecordModelLoaded(sc.Ready())
	return inference.NewHolder(sc)
}

// ProvideResponseCache returns nil when caching is disabled.
func ProvideResponseCache(cfg *config.Config) (cache.BytesCache, func(), error) {
	if !cfg.Cache.Enabled {
		return nil, func() {}, nil
	}
	var c cache.BytesCache
	switch cfg.Cache.Backend {
	case "redis":
		rc := cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			Prefix:   cfg.Cache.Redis.Prefix,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rc.Ping(ctx); err != nil {
			_ = rc.Close()
			return nil, nil, fmt.Errorf("redis cache: %w", err)
		}
		c = rc
	default:
		c = cache.NewTTLCache(cfg.Cache.MaxSize)
	}
	return c, func() { _ = c.Close() }, nil
}

func ProvidePredictionSink(cfg *config.Config, ch *pkgch.Client) repository.PredictionSink {
	if ch == nil {
		return internalrepo.NopPredictionSink{}
	}
	return internalrepo.NewCHPredictionLog(ch.DB(), cfg.ClickHouse.PredictionsTable)
}

func ProvideEventPublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.EventPublisher {
	if producer == nil {
		return internalrepo.NopEventPublisher{}
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic, cfg.Kafka.PredictionsTopic)
}

// ProvideRunStore opens the sqlite registry when enabled.
func ProvideRunStore(cfg *config.Config) (repository.RunStore, func(), error) {
	if !cfg.Registry.Enabled {
		return internalrepo.NopRunStore{}, func() {}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store, err := internalrepo.NewSQLiteRunStore(ctx, cfg.Registry.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("run store: %w", err)
	}
	return store, func() { _ = store.Close() }, nil
}

func ProvidePredictionService(
	cfg *config.Config,
	l *logger.Logger,
	loader *usecase.SeriesLoader,
	holder *inference.Holder,
	m repository.Metrics,
	c cache.BytesCache,
	sink repository.PredictionSink,
	events repository.EventPublisher,
) *usecase.PredictionService {
	opts := []usecase.PredictionOption{
		usecase.WithPredictionSink(sink),
		usecase.WithEventPublisher(events),
	}
	if c != nil {
		opts = append(opts, usecase.WithCache(c, cfg.Cache.TTL))
	}
	return usecase.NewPredictionService(l, loader, holder, m, opts...)
}

func ProvideTrainingService(
	l *logger.Logger,
	loader *usecase.SeriesLoader,
	runs repository.RunStore,
	events repository.EventPublisher,
	m repository.Metrics,
) *usecase.TrainingService {
	return usecase.NewTrainingService(l, loader, runs, events, m)
}

// ProvideRateLimiter returns nil when rate limiting is disabled.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.Server.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst)
}

func ProvidePredictHandler(cfg *config.Config, l *logger.Logger, svc *usecase.PredictionService, runs *usecase.TrainingService, limiter *ratelimit.Limiter) *api.PredictEchoHandler {
	var mw []echo.MiddlewareFunc
	if limiter != nil {
		mw = append(mw, ratelimit.Middleware(limiter))
	}
	var lister api.RunLister
	if cfg.Registry.Enabled {
		lister = runs
	}
	return api.NewPredictEchoHandler(l, svc, lister, cfg.Server.StaticDir, mw...)
}

func ProvideHTTPServer(cfg *config.Config, l *logger.Logger, reg *prometheus.Registry, h *api.PredictEchoHandler) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORSOrigins(cfg.Server.CORSOrigins, api.HeaderDataSource, api.HeaderDataFallback, api.HeaderCache),
	}
	path := ""
	if cfg.Metrics.Enabled {
		path = cfg.Metrics.Path
	}
	opts = append(opts, xhttp.WithMetrics(path, reg, reg))
	return xhttp.NewServer(l, []xhttp.Handler{h}, opts...)
}

// ProvideKafkaConsumer creates the model events consumer when Kafka is enabled.
func ProvideKafkaConsumer(cfg *config.Config, l *logger.Logger, reg *prometheus.Registry) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		// Every replica reloads on model.trained, so each gets its own group.
		pkgkafka.WithConsumerGroupID(pkgkafka.InstanceGroupID(cfg.Kafka.Consumer.GroupID)),
		pkgkafka.WithConsumerFromLatest(),
		pkgkafka.WithConsumerWorkers(1),
		pkgkafka.WithConsumerRetry(3, 200*time.Millisecond, 5*time.Second),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerRegisterer(reg),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

func ProvideModelEventsHandler(cfg *config.Config, l *logger.Logger, holder *inference.Holder, m repository.Metrics) *usecase.ModelEventsHandler {
	return usecase.NewModelEventsHandler(l, cfg.Kafka.Topic, cfg.Model.Path, holder, m)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	srv *xhttp.Server,
	consumer *pkgkafka.Consumer,
	kh *usecase.ModelEventsHandler,
	limiter *ratelimit.Limiter,
) *server.App {
	return server.New(l, srv, consumer, kh, limiter, cfg.Server.ShutdownTimeout)
}
