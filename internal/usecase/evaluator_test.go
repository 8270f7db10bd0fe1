package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"MarketPulse/internal/domain/models"
	"MarketPulse/internal/services/history"
	"MarketPulse/internal/services/scoring"
)

type fakeBars struct {
	bars map[string][]models.DailyBar
	err  error
}

func (f *fakeBars) GetLatestNBars(_ context.Context, symbol string, n int) ([]models.DailyBar, error) {
	if f.err != nil {
		return nil, f.err
	}
	bars := f.bars[symbol]
	if len(bars) > n {
		bars = bars[len(bars)-n:]
	}
	return bars, nil
}

type fakeReadings struct{}

func (fakeReadings) GetReadings(context.Context, string, models.IndicatorKind, time.Time, time.Time) ([]models.IndicatorReading, error) {
	return nil, nil
}

type captureSink struct {
	mu     sync.Mutex
	stored []*models.SymbolEvaluation
	err    error
}

func (s *captureSink) StoreEvaluation(_ context.Context, ev *models.SymbolEvaluation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stored = append(s.stored, ev)
	return s.err
}

func trendingBars(symbol string, n int) []models.DailyBar {
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.DailyBar, n)
	price := 100.0
	for i := range bars {
		// gentle uptrend with a small oscillation keeps every calculator fed
		price += 0.3 + 0.5*math.Sin(float64(i)*0.7)
		bars[i] = models.DailyBar{
			Day:    day.AddDate(0, 0, i),
			Symbol: symbol,
			Open:   price - 0.2,
			High:   price + 1.0,
			Low:    price - 1.0,
			Close:  price,
			Volume: 1e6,
		}
	}
	return bars
}

func newTestEvaluator(bars *fakeBars, opts ...EvaluatorOption) *SymbolEvaluator {
	acc := history.NewAccessor(fakeReadings{})
	engine := scoring.NewEngine(acc, scoring.NewFallbackTable(), scoring.DefaultConfig())
	return NewSymbolEvaluator(bars, engine, scoring.DefaultCompositeConfig(), nil, opts...)
}

func TestEvaluateComputesAllIndicators(t *testing.T) {
	e := newTestEvaluator(&fakeBars{bars: map[string][]models.DailyBar{
		"SPY": trendingBars("SPY", 120),
	}})

	ev, err := e.Evaluate(context.Background(), "SPY")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if ev.Composite == nil {
		t.Fatal("composite missing")
	}
	if len(ev.Scores) != 5 {
		t.Fatalf("scores: got %d kinds, want 5 (%+v)", len(ev.Scores), ev.Errors)
	}
	if ev.Errors != nil {
		t.Fatalf("unexpected errors: %+v", ev.Errors)
	}
	for _, kind := range models.Kinds() {
		if _, ok := ev.Composite.PerIndicatorZ[kind]; !ok {
			t.Errorf("per-indicator z missing entry for %s", kind)
		}
	}
}

func TestEvaluateEmptySymbol(t *testing.T) {
	e := newTestEvaluator(&fakeBars{})
	if _, err := e.Evaluate(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty symbol")
	}
}

func TestEvaluateShortBarHistory(t *testing.T) {
	// 10 bars feed none of the calculators; every kind reports its reason and
	// the composite degrades to a neutral HOLD.
	e := newTestEvaluator(&fakeBars{bars: map[string][]models.DailyBar{
		"NEW": trendingBars("NEW", 10),
	}})

	ev, err := e.Evaluate(context.Background(), "NEW")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(ev.Errors) != 5 {
		t.Fatalf("errors: got %d, want 5 (%+v)", len(ev.Errors), ev.Errors)
	}
	if ev.Composite == nil || ev.Composite.Signal != models.SignalHold {
		t.Fatalf("expected neutral HOLD composite, got %+v", ev.Composite)
	}
	if ev.Composite.CompositeScore != 0 {
		t.Errorf("score: got %.4f, want 0", ev.Composite.CompositeScore)
	}
}

func TestEvaluateBarFetchFailureIsolated(t *testing.T) {
	e := newTestEvaluator(&fakeBars{err: errors.New("clickhouse down")})

	ev, err := e.Evaluate(context.Background(), "SPY")
	if err != nil {
		t.Fatalf("evaluate must not propagate bar errors, got %v", err)
	}
	for _, kind := range models.Kinds() {
		if ev.Errors[string(kind)] == "" {
			t.Errorf("missing error for %s", kind)
		}
	}
}

func TestEvaluateBatchPreservesOrderAndIsolatesFailures(t *testing.T) {
	e := newTestEvaluator(&fakeBars{bars: map[string][]models.DailyBar{
		"SPY": trendingBars("SPY", 120),
		"XLE": trendingBars("XLE", 120),
	}}, WithWorkers(2))

	out := e.EvaluateBatch(context.Background(), []string{"SPY", "GHOST", "XLE"})
	if len(out) != 3 {
		t.Fatalf("batch size: got %d, want 3", len(out))
	}
	if out[0].Symbol != "SPY" || out[1].Symbol != "GHOST" || out[2].Symbol != "XLE" {
		t.Fatalf("order not preserved: %s %s %s", out[0].Symbol, out[1].Symbol, out[2].Symbol)
	}
	// GHOST has no bars at all; its evaluation still exists
	if out[1].Composite == nil {
		t.Error("failed symbol must still produce an evaluation")
	}
	if len(out[0].Scores) != 5 || len(out[2].Scores) != 5 {
		t.Error("healthy symbols must be fully scored")
	}
}

func TestRecordStoresEvaluation(t *testing.T) {
	sink := &captureSink{}
	e := newTestEvaluator(&fakeBars{bars: map[string][]models.DailyBar{
		"SPY": trendingBars("SPY", 120),
	}}, WithSignalStore(sink))

	ev, err := e.Evaluate(context.Background(), "SPY")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	e.Record(context.Background(), ev)
	if len(sink.stored) != 1 || sink.stored[0].Symbol != "SPY" {
		t.Fatalf("expected one stored evaluation, got %d", len(sink.stored))
	}

	// sink failures are swallowed
	sink.err = errors.New("kafka down")
	e.Record(context.Background(), ev)
	if len(sink.stored) != 2 {
		t.Fatal("failing sink must still be attempted")
	}
}
