package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"MarketPulse/internal/domain/models"
	"MarketPulse/internal/domain/repository"
	mid "MarketPulse/internal/middleware"
	internalrepo "MarketPulse/internal/repository"
	"MarketPulse/internal/service/alert"
	"MarketPulse/internal/service/feed"
	"MarketPulse/internal/services/history"
	"MarketPulse/internal/services/quality"
	"MarketPulse/internal/services/scoring"
	"MarketPulse/internal/usecase"
	pkgcache "MarketPulse/pkg/cache"
	pkgch "MarketPulse/pkg/clickhouse"
	"MarketPulse/pkg/config"
	pkgkafka "MarketPulse/pkg/kafka"
	applogger "MarketPulse/pkg/logger"
	"MarketPulse/pkg/metrics"
	"MarketPulse/pkg/queue"
	"MarketPulse/pkg/server"
)

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, internalrepo.SchemaStatements()); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideReadingStorage creates ClickHouse storage for raw readings.
func ProvideReadingStorage(chClient *pkgch.Client, cfg *config.Config) repository.ReadingWriter {
	return internalrepo.NewClickHouseReadingStore(chClient.DB(), cfg.ClickHouse.Database+".indicator_readings")
}

// ProvideReadingPublisher creates the Kafka publisher for raw readings.
func ProvideReadingPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.ReadingPublisher {
	return internalrepo.NewKafkaReadingPublisher(producer, cfg.Kafka.Topic)
}

// ProvideSignalPublisher creates the Kafka publisher for evaluated signals.
func ProvideSignalPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	topic := cfg.Kafka.SignalsTopic
	if topic == "" {
		topic = "marketpulse.signals"
	}
	return internalrepo.NewKafkaPublisher(producer, topic)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaReadingsHandler registers handler for the readings topic.
func ProvideKafkaReadingsHandler(store repository.ReadingWriter, metrics repository.Metrics, cfg *config.Config) *usecase.KafkaReadingsHandler {
	return usecase.NewKafkaReadingsHandler(cfg.Kafka.Topic, store, metrics)
}

// ProvideFeedStream creates the upstream WebSocket reading stream.
func ProvideFeedStream(cfg *config.Config) repository.ReadingStream {
	return feed.New(
		cfg.Feed.APIKey,
		cfg.Feed.WebSocketURL,
		cfg.Feed.Symbols,
		cfg.Feed.ReconnectDelay,
		cfg.Feed.PingInterval,
	)
}

// ProvideReadingProcessor creates the reading processor use case.
func ProvideReadingProcessor(
	pub repository.ReadingPublisher,
	store repository.ReadingWriter,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.ReadingProcessor {
	return usecase.NewReadingProcessor(
		pub,
		store,
		metrics,
		cfg.Backend.Type,
		cfg.Backend.BatchSize,
		cfg.Backend.BatchTimeout,
	)
}

// ProvideReadingCollector creates the reading collector use case.
func ProvideReadingCollector(
	stream repository.ReadingStream,
	processor *usecase.ReadingProcessor,
	metrics repository.Metrics,
) *usecase.ReadingCollector {
	// Build middleware pipeline between WebSocket and the ingest backend
	pipe := mid.NewRealtimePipeline(processor, metrics,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewReadingCollector(stream, processor, metrics, pipe)
}

// ProvideHistoryStore creates the ClickHouse read-side store.
func ProvideHistoryStore(chClient *pkgch.Client) *internalrepo.CHHistoryStore {
	return internalrepo.NewCHHistoryStore(chClient)
}

// ProvideHistoryCache builds the cache fronting the ClickHouse read path.
// Layered memory+Redis when Redis is enabled, in-process memory otherwise.
func ProvideHistoryCache(cfg *config.Config) pkgcache.Service {
	r := cfg.Scoring.Redis
	if r.Enabled {
		host, port := splitHostPort(r.Addr, 6379)
		rc, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisHost(host),
			pkgcache.WithRedisPort(port),
			pkgcache.WithRedisPassword(r.Password),
			pkgcache.WithRedisDB(r.DB),
			pkgcache.WithRedisPool(10, 2, 4*time.Second),
			pkgcache.WithRedisDialTimeout(3*time.Second),
			pkgcache.WithRedisPrefix("marketpulse"),
		)
		if err == nil {
			return pkgcache.NewLayeredCache(rc, pkgcache.WithLayeredMemorySize(512))
		}
	}
	return pkgcache.NewMemoryCache(
		pkgcache.WithMemoryMaxSize(512),
		pkgcache.WithMemoryCleanup(time.Minute),
	)
}

// ProvideCachedHistory wraps the ClickHouse read-side store with caching.
func ProvideCachedHistory(store *internalrepo.CHHistoryStore, c pkgcache.Service) *internalrepo.CachedHistoryStore {
	return internalrepo.NewCachedHistoryStore(store, c)
}

func splitHostPort(addr string, defaultPort int) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, defaultPort
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, defaultPort
	}
	return host, port
}

// ProvideScoringEngine builds the z-score engine from configuration.
func ProvideScoringEngine(store *internalrepo.CachedHistoryStore, metrics repository.Metrics, cfg *config.Config) *scoring.Engine {
	engineCfg := scoring.DefaultConfig()
	if cfg.Scoring.MinDataPoints > 0 {
		engineCfg.MinDataPoints = cfg.Scoring.MinDataPoints
	}
	if cfg.Scoring.ZClamp > 0 {
		engineCfg.ZClamp = cfg.Scoring.ZClamp
	}
	if cfg.Scoring.LookbackDays > 0 {
		engineCfg.LookbackDays = cfg.Scoring.LookbackDays
	}
	tiers := cfg.Scoring.Confidence
	if tiers.HighMinPoints > 0 {
		engineCfg.HighMinPoints = tiers.HighMinPoints
	}
	if tiers.HighMaxAbsZ > 0 {
		engineCfg.HighMaxAbsZ = tiers.HighMaxAbsZ
	}
	if tiers.MediumMinPoints > 0 {
		engineCfg.MediumMinPoints = tiers.MediumMinPoints
	}
	if tiers.MediumMaxAbsZ > 0 {
		engineCfg.MediumMaxAbsZ = tiers.MediumMaxAbsZ
	}
	if len(cfg.Scoring.Quality) > 0 {
		engineCfg.Thresholds = make(map[models.IndicatorKind]quality.Thresholds, len(cfg.Scoring.Quality))
		for kind, th := range cfg.Scoring.Quality {
			engineCfg.Thresholds[models.IndicatorKind(kind)] = quality.Thresholds{
				MinStdDev:   th.MinStdDev,
				MinRange:    th.MinRange,
				MaxDupRatio: th.MaxDupRatio,
				DupMinCount: th.DupMinCount,
			}
		}
	}

	table := scoring.NewFallbackTable()
	for kind, st := range cfg.Scoring.Fallback.Defaults {
		table.WithDefault(models.IndicatorKind(kind), scoring.FallbackParameters{Mean: st.Mean, StdDev: st.StdDev})
	}
	for symbol, kinds := range cfg.Scoring.Fallback.Overrides {
		for kind, st := range kinds {
			table.WithOverride(symbol, models.IndicatorKind(kind), scoring.FallbackParameters{Mean: st.Mean, StdDev: st.StdDev})
		}
	}

	engine := scoring.NewEngine(history.NewAccessor(store), table, engineCfg)
	engine.SetMetrics(metrics)
	return engine
}

// ProvideCompositeConfig builds the synthesizer calibration from configuration.
func ProvideCompositeConfig(cfg *config.Config) scoring.CompositeConfig {
	cc := scoring.DefaultCompositeConfig()
	w := cfg.Scoring.Weights
	if w.RSI+w.MACD+w.BollingerPctB+w.MATrend > 0 {
		cc.Weights = scoring.Weights{
			RSI:           w.RSI,
			MACD:          w.MACD,
			BollingerPctB: w.BollingerPctB,
			MATrend:       w.MATrend,
		}
	}
	if cfg.Scoring.BuyThreshold > 0 {
		cc.BuyThreshold = cfg.Scoring.BuyThreshold
	}
	if cfg.Scoring.SellThreshold < 0 {
		cc.SellThreshold = cfg.Scoring.SellThreshold
	}
	if cfg.Scoring.ScaleDivisor > 0 {
		cc.ScaleDivisor = cfg.Scoring.ScaleDivisor
	}
	if cfg.Scoring.ATRFactor > 0 {
		cc.ATRFactor = cfg.Scoring.ATRFactor
	}
	return cc
}

// ProvideAlertQueue creates the Redis-backed alert delivery queue. Nil when
// alerting or Redis is disabled; delivery then happens inline.
func ProvideAlertQueue(cfg *config.Config) *queue.RedisQueue {
	if !cfg.Alert.Enabled || !cfg.Scoring.Redis.Enabled {
		return nil
	}

	l, err := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	if err != nil {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Scoring.Redis.Addr,
		Password: cfg.Scoring.Redis.Password,
		DB:       cfg.Scoring.Redis.DB,
	})

	q := queue.NewRedisQueue(l,
		&queue.QueueConfig{Workers: 1, RetryLimit: 3, RetryDelay: 30 * time.Second},
		client, queue.ModeProducerConsumer,
		queue.WithKeyPrefix("marketpulse:alerts"),
	)

	wn := alert.NewWebhookNotifier(cfg.Alert.WebhookURL, cfg.Alert.MinAbsScore, cfg.Alert.Timeout)
	wn.SetLogger(l)
	q.RegisterJob(alert.NewWebhookJob(wn))

	if err := q.Start(); err != nil {
		l.Error("alert queue start failed", applogger.Error(err))
		return nil
	}
	return q
}

// ProvideEvaluator creates the symbol evaluator with its signal sinks.
func ProvideEvaluator(
	store *internalrepo.CHHistoryStore,
	cached *internalrepo.CachedHistoryStore,
	engine *scoring.Engine,
	compositeCfg scoring.CompositeConfig,
	metrics repository.Metrics,
	pub repository.Publisher,
	alertQueue *queue.RedisQueue,
	cfg *config.Config,
) *usecase.SymbolEvaluator {
	opts := []usecase.EvaluatorOption{
		usecase.WithSignalStore(store),
		usecase.WithPublisher(pub),
	}
	if cfg.Scoring.EvalWorkers > 0 {
		opts = append(opts, usecase.WithWorkers(cfg.Scoring.EvalWorkers))
	}
	if alertQueue != nil {
		opts = append(opts, usecase.WithNotifier(alert.NewQueuedNotifier(alertQueue)))
	} else if cfg.Alert.Enabled {
		opts = append(opts, usecase.WithNotifier(
			alert.NewWebhookNotifier(cfg.Alert.WebhookURL, cfg.Alert.MinAbsScore, cfg.Alert.Timeout),
		))
	}
	return usecase.NewSymbolEvaluator(cached, engine, compositeCfg, metrics, opts...)
}

// ProvideHistoryUseCase creates the history retrieval use case.
func ProvideHistoryUseCase(store *internalrepo.CachedHistoryStore) *usecase.HistoryUseCase {
	return usecase.NewHistoryUseCase(history.NewAccessor(store))
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	collector *usecase.ReadingCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaReadingsHandler,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
	histStore *internalrepo.CHHistoryStore,
	engine *scoring.Engine,
	eval *usecase.SymbolEvaluator,
	hist *usecase.HistoryUseCase,
	alertQueue *queue.RedisQueue,
	metrics repository.Metrics,
) *server.App {
	// Consumer hook chain: thread trace ids through and time every handled
	// message into the shared recorder
	if consumer != nil {
		tracing := pkgkafka.HookFuncs{
			Before: func(ctx context.Context, topic string, km kafkago.Message, data []byte) (context.Context, kafkago.Message, []byte, error) {
				return pkgkafka.WithTraceID(ctx, pkgkafka.ExtractTraceID(km)), km, data, nil
			},
		}
		timing := pkgkafka.HookFuncs{
			Before: func(ctx context.Context, topic string, km kafkago.Message, data []byte) (context.Context, kafkago.Message, []byte, error) {
				return pkgkafka.WithStartTime(ctx, time.Now()), km, data, nil
			},
			After: func(ctx context.Context, topic string, km kafkago.Message, data []byte, err error) {
				if start, ok := ctx.Value(pkgkafka.CtxStartTime).(time.Time); ok {
					metrics.RecordLatency("kafka_handle", time.Since(start).Seconds())
				}
				if err != nil {
					metrics.RecordError("kafka_handle")
				}
			},
		}
		consumer.WithConsumerHook(pkgkafka.NewHookChain(tracing, timing))
	}
	app := server.New(cfg, collector, consumer, kh, chClient)
	app.SetScoring(histStore, engine, eval, hist)
	app.SetLogProducer(producer)
	app.SetAlertQueue(alertQueue)
	// attach reading processor to app for closing resources via collector
	if collector != nil {
		app.ReadingProc = collector.Processor()
	}
	return app
}
