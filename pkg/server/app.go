package server

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"MarketPulse/internal/handler/api"
	internalrepo "MarketPulse/internal/repository"
	icache "MarketPulse/internal/service/cache"
	"MarketPulse/internal/services/scoring"
	"MarketPulse/internal/usecase"
	pkgch "MarketPulse/pkg/clickhouse"
	"MarketPulse/pkg/config"
	xhttp "MarketPulse/pkg/http"
	pkgkafka "MarketPulse/pkg/kafka"
	applogger "MarketPulse/pkg/logger"
	"MarketPulse/pkg/queue"
)

var errFeedDisconnected = errors.New("feed stream disconnected")

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	collector   *usecase.ReadingCollector
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	ReadingProc *usecase.ReadingProcessor
	logProducer *pkgkafka.Producer
	alertQueue  *queue.RedisQueue

	histStore *internalrepo.CHHistoryStore
	engine    *scoring.Engine
	eval      *usecase.SymbolEvaluator
	hist      *usecase.HistoryUseCase
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	collector *usecase.ReadingCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:       cfg,
		collector: collector,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
	}
}

// SetScoring injects the scoring components the HTTP layer exposes.
func (a *App) SetScoring(histStore *internalrepo.CHHistoryStore, engine *scoring.Engine, eval *usecase.SymbolEvaluator, hist *usecase.HistoryUseCase) {
	a.histStore = histStore
	a.engine = engine
	a.eval = eval
	a.hist = hist
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// SetLogProducer enables shipping aggregated error logs to Kafka.
func (a *App) SetLogProducer(p *pkgkafka.Producer) { a.logProducer = p }

// SetAlertQueue hands the Redis alert queue to the app for shutdown.
func (a *App) SetAlertQueue(q *queue.RedisQueue) { a.alertQueue = q }

// kafkaLogPublisher adapts the Kafka producer to the log collector.
type kafkaLogPublisher struct {
	p *pkgkafka.Producer
}

func (k kafkaLogPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return k.p.Publish(ctx, topic, nil, payload)
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// init app logger (console info by default)
	l, _ := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})

	// Aggregate repeated error logs and ship them to Kafka
	if a.logProducer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          "marketpulse.logs",
			Publisher:      kafkaLogPublisher{p: a.logProducer},
		})
	}

	// Setup Echo HTTP server using pkg/http and register routes via handler
	var httpHandler xhttp.Handler
	if a.httpHandler != nil {
		httpHandler = a.httpHandler
	} else if a.engine != nil && a.eval != nil && a.hist != nil {
		if a.histStore != nil {
			a.histStore.SetLogger(l)
		}
		a.engine.SetLogger(l)
		a.eval.SetLogger(l)

		se := api.NewScoresEchoHandler(l, a.engine, a.eval, a.hist)
		se.SetCache(a.buildCache(), a.cfg.Scoring.CacheTTL.Score, a.cfg.Scoring.CacheTTL.Signal)
		if a.chClient != nil {
			se.AddHealthCheck("clickhouse", a.chClient.Health)
		}
		if a.collector != nil {
			se.AddHealthCheck("feed", func(context.Context) error {
				if !a.collector.IsConnected() {
					return errFeedDisconnected
				}
				return nil
			})
		}
		httpHandler = se
	}

	a.httpServer = xhttp.NewServer(httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Start collector
	go func() {
		if err := a.collector.Start(ctx); err != nil {
			l.Error("collector error", applogger.Error(err))
		}
	}()
	l.Info("collector started", applogger.Strings("symbols", a.cfg.Feed.Symbols))

	// Start consumer if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// buildCache picks Redis when configured, in-process TTL cache otherwise.
func (a *App) buildCache() icache.BytesCache {
	r := a.cfg.Scoring.Redis
	if r.Enabled {
		return icache.NewRedisCache(icache.RedisConfig{
			Addr:     r.Addr,
			Password: r.Password,
			DB:       r.DB,
			Prefix:   "api",
		})
	}
	return icache.NewTTLCache()
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	// best-effort logging via stdout
	l, err := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	if err != nil {
		log.Printf("failed to create logger: %v", err)
		return err
	}
	l.Info("shutting down...")

	// Stop collector (pipeline + stream)
	if err := a.collector.Shutdown(ctx); err != nil {
		l.Warn("collector stop error", applogger.Error(err))
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Drain the alert delivery queue
	if a.alertQueue != nil {
		if err := a.alertQueue.Stop(shutdownCtx); err != nil {
			l.Warn("alert queue stop error", applogger.Error(err))
		}
	}

	// Close reading processor resources (publisher/storage)
	if a.ReadingProc != nil {
		a.ReadingProc.Close()
	}

	l.Info("shutdown complete")
	return nil
}
