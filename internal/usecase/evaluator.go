package usecase

import (
	"context"
	"sync"
	"time"

	"MarketPulse/internal/domain/models"
	domrepo "MarketPulse/internal/domain/repository"
	"MarketPulse/internal/services/indicators"
	"MarketPulse/internal/services/scoring"
	xhttp "MarketPulse/pkg/http"
	applogger "MarketPulse/pkg/logger"
)

// barsNeeded covers the longest indicator warm-up (MACD needs 2x its slow
// period) with headroom for non-trading days.
const barsNeeded = 120

// SymbolEvaluator computes current indicator values from daily bars, scores
// each against the symbol's history, and synthesizes the composite signal.
type SymbolEvaluator struct {
	bars    domrepo.BarSource
	engine  *scoring.Engine
	cfg     scoring.CompositeConfig
	metrics domrepo.Metrics
	l       *applogger.Logger

	timeout time.Duration
	workers int

	// optional sinks for evaluated signals
	store domrepo.SignalStore
	pub   domrepo.Publisher
	alert Notifier
}

// Notifier is the outbound alert hook for actionable signals.
type Notifier interface {
	Notify(ctx context.Context, ev *models.SymbolEvaluation) error
}

type EvaluatorOption func(*SymbolEvaluator)

// WithWorkers bounds the batch evaluation pool.
func WithWorkers(n int) EvaluatorOption {
	return func(e *SymbolEvaluator) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithTimeout bounds one symbol's evaluation.
func WithTimeout(d time.Duration) EvaluatorOption {
	return func(e *SymbolEvaluator) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithSignalStore persists every evaluated signal.
func WithSignalStore(s domrepo.SignalStore) EvaluatorOption {
	return func(e *SymbolEvaluator) { e.store = s }
}

// WithPublisher publishes every evaluated signal.
func WithPublisher(p domrepo.Publisher) EvaluatorOption {
	return func(e *SymbolEvaluator) { e.pub = p }
}

// WithNotifier sends alerts for actionable signals.
func WithNotifier(n Notifier) EvaluatorOption {
	return func(e *SymbolEvaluator) { e.alert = n }
}

func NewSymbolEvaluator(bars domrepo.BarSource, engine *scoring.Engine, cfg scoring.CompositeConfig, metrics domrepo.Metrics, opts ...EvaluatorOption) *SymbolEvaluator {
	e := &SymbolEvaluator{
		bars:    bars,
		engine:  engine,
		cfg:     cfg,
		metrics: metrics,
		timeout: 10 * time.Second,
		workers: 4,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetLogger injects a structured logger.
func (e *SymbolEvaluator) SetLogger(l *applogger.Logger) { e.l = l }

// Evaluate produces the full per-symbol result. Indicator computation
// failures are isolated into the Errors map; the composite is synthesized
// from whatever scores remain.
func (e *SymbolEvaluator) Evaluate(ctx context.Context, symbol string) (*models.SymbolEvaluation, error) {
	if symbol == "" {
		return nil, xhttp.BadRequestError("symbol required")
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	asOf := time.Now().UTC()
	ev := &models.SymbolEvaluation{
		Symbol: symbol,
		AsOf:   asOf,
		Scores: make(map[models.IndicatorKind]models.ZScoreResult),
		Errors: map[string]string{},
	}

	values := e.currentValues(ctx, symbol, ev.Errors)

	// score each computed indicator concurrently
	type item struct {
		kind models.IndicatorKind
		res  models.ZScoreResult
	}
	ch := make(chan item, len(values))
	var wg sync.WaitGroup
	for kind, v := range values {
		wg.Add(1)
		go func(kind models.IndicatorKind, v float64) {
			defer wg.Done()
			ch <- item{kind, e.engine.Score(ctx, symbol, kind, v)}
		}(kind, v)
	}
	go func() { wg.Wait(); close(ch) }()

	results := make(map[models.IndicatorKind]*models.ZScoreResult, len(values))
	for it := range ch {
		res := it.res
		ev.Scores[it.kind] = res
		results[it.kind] = &res
	}

	composite := scoring.Synthesize(symbol, asOf, results, e.cfg)
	ev.Composite = &composite

	if len(ev.Errors) == 0 {
		ev.Errors = nil
	}
	if e.metrics != nil {
		e.metrics.RecordEvaluation(symbol, string(composite.Signal))
		e.metrics.RecordLatency("evaluate", time.Since(start).Seconds())
	}
	return ev, nil
}

// EvaluateBatch evaluates symbols on a bounded worker pool, preserving input
// order. One symbol's failure never aborts the others.
func (e *SymbolEvaluator) EvaluateBatch(ctx context.Context, symbols []string) []*models.SymbolEvaluation {
	out := make([]*models.SymbolEvaluation, len(symbols))
	sem := make(chan struct{}, e.workers)
	var wg sync.WaitGroup
	for i, sym := range symbols {
		wg.Add(1)
		go func(i int, sym string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			ev, err := e.Evaluate(ctx, sym)
			if err != nil {
				ev = &models.SymbolEvaluation{
					Symbol: sym,
					AsOf:   time.Now().UTC(),
					Errors: map[string]string{"evaluate": err.Error()},
				}
			}
			out[i] = ev
		}(i, sym)
	}
	wg.Wait()
	return out
}

// Record pushes an evaluated signal to the configured sinks. Sink failures
// are logged and counted, never propagated: the evaluation already happened.
func (e *SymbolEvaluator) Record(ctx context.Context, ev *models.SymbolEvaluation) {
	if ev == nil || ev.Composite == nil {
		return
	}
	if e.store != nil {
		if err := e.store.StoreEvaluation(ctx, ev); err != nil {
			e.sinkError("signal_store", ev.Symbol, err)
		}
	}
	if e.pub != nil {
		if err := e.pub.Publish(ctx, ev); err != nil {
			e.sinkError("signal_publish", ev.Symbol, err)
		}
	}
	if e.alert != nil {
		if err := e.alert.Notify(ctx, ev); err != nil {
			e.sinkError("signal_alert", ev.Symbol, err)
		}
	}
}

func (e *SymbolEvaluator) sinkError(sink, symbol string, err error) {
	if e.metrics != nil {
		e.metrics.RecordError(sink)
	}
	if e.l != nil {
		e.l.Error("signal sink failed",
			applogger.String("sink", sink),
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
	}
}

// currentValues derives today's indicator values from the latest daily bars.
// Each indicator that cannot be computed records its reason in errs.
func (e *SymbolEvaluator) currentValues(ctx context.Context, symbol string, errs map[string]string) map[models.IndicatorKind]float64 {
	bars, err := e.bars.GetLatestNBars(ctx, symbol, barsNeeded)
	if err != nil {
		for _, kind := range models.Kinds() {
			errs[string(kind)] = "price history unavailable"
		}
		if e.l != nil {
			e.l.Warn("bar fetch failed",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
		if e.metrics != nil {
			e.metrics.RecordError("bars_fetch")
		}
		return nil
	}

	closes := make([]float64, len(bars))
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
	}

	values := make(map[models.IndicatorKind]float64, len(models.Kinds()))
	put := func(kind models.IndicatorKind, v float64, err error) {
		if err != nil {
			errs[string(kind)] = err.Error()
			return
		}
		values[kind] = v
	}

	v, err := indicators.RSI(closes, indicators.DefaultRSIPeriod)
	put(models.KindRSI, v, err)
	v, err = indicators.MACD(closes, indicators.DefaultMACDFastPeriod, indicators.DefaultMACDSlowPeriod)
	put(models.KindMACD, v, err)
	v, err = indicators.BollingerPercentB(closes, indicators.DefaultBollingerPeriod, indicators.DefaultBollingerK)
	put(models.KindBollingerPctB, v, err)
	v, err = indicators.ATR(highs, lows, closes, indicators.DefaultATRPeriod)
	put(models.KindATR, v, err)
	v, err = indicators.MATrend(closes, indicators.DefaultMATrendPeriod)
	put(models.KindMATrend, v, err)

	return values
}
