package scoring

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"MarketPulse/internal/domain/models"
	"MarketPulse/internal/services/history"
	"MarketPulse/internal/services/quality"
)

type fakeSource struct {
	readings []models.IndicatorReading
	err      error
}

func (f *fakeSource) GetReadings(context.Context, string, models.IndicatorKind, time.Time, time.Time) ([]models.IndicatorReading, error) {
	return f.readings, f.err
}

var testBase = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

// dailyReadings spreads values over consecutive days ending just before now.
func dailyReadings(kind models.IndicatorKind, values []float64) ([]models.IndicatorReading, time.Time) {
	out := make([]models.IndicatorReading, len(values))
	for i, v := range values {
		out[i] = models.IndicatorReading{Symbol: "TEST", Kind: kind, At: testBase.AddDate(0, 0, i), Value: v}
	}
	now := testBase.AddDate(0, 0, len(values))
	return out, now
}

func newTestEngine(src *fakeSource, now time.Time, cfg Config) *Engine {
	acc := history.NewAccessor(src, history.WithNow(func() time.Time { return now }))
	return NewEngine(acc, NewFallbackTable(), cfg)
}

func TestScoreCorruptedPctBUsesFallback(t *testing.T) {
	values := []float64{0.9, 0.91, 0.9, 0.92, 0.91, 0.9, 0.91, 0.92, 0.9, 0.91}
	readings, now := dailyReadings(models.KindBollingerPctB, values)
	e := newTestEngine(&fakeSource{readings: readings}, now, DefaultConfig())

	res := e.Score(context.Background(), "XLE", models.KindBollingerPctB, 0.95)
	if !res.CorruptionDetected {
		t.Fatal("expected corruption to be detected")
	}
	if !res.FallbackUsed || res.FallbackReason != models.ReasonCorruptionDetected {
		t.Fatalf("expected corruption fallback, got %+v", res)
	}
	if res.DataPoints != 10 {
		t.Errorf("dataPoints: got %d, want 10", res.DataPoints)
	}
	// (0.95 - 0.5) / 0.25 with the market-wide %B fallback parameters
	if math.Abs(res.ZScore-1.8) > 1e-9 {
		t.Errorf("zScore: got %.6f, want 1.8", res.ZScore)
	}
	if res.Confidence != models.ConfidenceLow {
		t.Errorf("confidence: got %s, want low", res.Confidence)
	}
}

func TestScoreComputedStatsHealthySeries(t *testing.T) {
	// 90 distinct MACD readings centered near 0 with stddev close to 1.03.
	wave := []float64{0, 0.7, 1.4, 0.7, 0, -0.7, -1.4, -0.7}
	values := make([]float64, 90)
	for i := range values {
		values[i] = 1.2017*wave[i%8] + 0.0005*(float64(i)-44.5)
	}
	readings, now := dailyReadings(models.KindMACD, values)
	e := newTestEngine(&fakeSource{readings: readings}, now, DefaultConfig())

	res := e.Score(context.Background(), "SPY", models.KindMACD, 2.5)
	if res.FallbackUsed || res.CorruptionDetected {
		t.Fatalf("expected direct stats, got %+v", res)
	}
	if res.DataPoints != 90 {
		t.Errorf("dataPoints: got %d, want 90", res.DataPoints)
	}

	// Independent computation of the expected standardization.
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var ss float64
	for _, v := range values {
		ss += (v - mean) * (v - mean)
	}
	stddev := math.Sqrt(ss / float64(len(values)-1))
	want := (2.5 - mean) / stddev

	if math.Abs(res.ZScore-want) > 1e-9 {
		t.Errorf("zScore: got %.6f, want %.6f", res.ZScore, want)
	}
	if res.ZScore < 2.3 || res.ZScore > 2.6 {
		t.Errorf("zScore %.4f outside the expected ~2.43 region", res.ZScore)
	}
	if res.Confidence != models.ConfidenceHigh {
		t.Errorf("confidence: got %s, want high", res.Confidence)
	}
}

func TestScoreInsufficientDataUsesFallback(t *testing.T) {
	readings, now := dailyReadings(models.KindRSI, []float64{40, 55, 62, 48, 51})
	e := newTestEngine(&fakeSource{readings: readings}, now, DefaultConfig())

	res := e.Score(context.Background(), "SPY", models.KindRSI, 80)
	if !res.FallbackUsed || res.FallbackReason != models.ReasonInsufficientData {
		t.Fatalf("expected insufficient_data fallback, got %+v", res)
	}
	if res.CorruptionDetected {
		t.Error("short series is not corruption")
	}
	if math.Abs(res.ZScore-(80-50)/15.0) > 1e-9 {
		t.Errorf("zScore: got %.6f, want %.6f", res.ZScore, (80-50)/15.0)
	}
}

func TestScoreEmptySeries(t *testing.T) {
	e := newTestEngine(&fakeSource{}, testBase, DefaultConfig())

	res := e.Score(context.Background(), "SPY", models.KindRSI, 50)
	if res.DataPoints != 0 || !res.FallbackUsed {
		t.Fatalf("expected immediate fallback with 0 points, got %+v", res)
	}
}

func TestScoreFetchFailureFallsBack(t *testing.T) {
	e := newTestEngine(&fakeSource{err: errors.New("timeout")}, testBase, DefaultConfig())

	res := e.Score(context.Background(), "SPY", models.KindMACD, 1.0)
	if !res.FallbackUsed || res.FallbackReason != models.ReasonInsufficientData {
		t.Fatalf("fetch failure must take the fallback path, got %+v", res)
	}
	if res.DataPoints != 0 {
		t.Errorf("dataPoints: got %d, want 0", res.DataPoints)
	}
}

func TestScoreClampedToDesignCeiling(t *testing.T) {
	e := newTestEngine(&fakeSource{}, testBase, DefaultConfig())

	res := e.Score(context.Background(), "SPY", models.KindRSI, 100000)
	if res.ZScore != 5 {
		t.Errorf("positive outlier: got %.2f, want clamp at 5", res.ZScore)
	}
	res = e.Score(context.Background(), "SPY", models.KindRSI, -100000)
	if res.ZScore != -5 {
		t.Errorf("negative outlier: got %.2f, want clamp at -5", res.ZScore)
	}
}

func TestScoreZeroStdDevIsZeroNotError(t *testing.T) {
	values := make([]float64, 12)
	for i := range values {
		values[i] = 55
	}
	readings, now := dailyReadings(models.KindRSI, values)

	// Disable the corruption checks so the identical series reaches the
	// direct-statistics path.
	cfg := DefaultConfig()
	cfg.Thresholds = map[models.IndicatorKind]quality.Thresholds{
		models.KindRSI: {MinStdDev: 0, MinRange: 0, MaxDupRatio: 1.0, DupMinCount: 5},
	}
	e := newTestEngine(&fakeSource{readings: readings}, now, cfg)

	res := e.Score(context.Background(), "SPY", models.KindRSI, 70)
	if res.FallbackUsed {
		t.Fatalf("expected direct path, got %+v", res)
	}
	if res.ZScore != 0 {
		t.Errorf("degenerate stddev must yield z=0, got %.4f", res.ZScore)
	}
}

func TestScoreMediumConfidenceTier(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		values[i] = 50 + 10*math.Sin(float64(i)*1.3)
	}
	readings, now := dailyReadings(models.KindRSI, values)
	e := newTestEngine(&fakeSource{readings: readings}, now, DefaultConfig())

	res := e.Score(context.Background(), "SPY", models.KindRSI, 52)
	if res.FallbackUsed {
		t.Fatalf("expected direct path, got %+v", res)
	}
	if res.Confidence != models.ConfidenceMedium {
		t.Errorf("20 points with small z: got %s, want medium", res.Confidence)
	}
}

func TestScoreIdempotent(t *testing.T) {
	readings, now := dailyReadings(models.KindRSI, []float64{40, 55, 62, 48, 51})
	e := newTestEngine(&fakeSource{readings: readings}, now, DefaultConfig())

	a := e.Score(context.Background(), "SPY", models.KindRSI, 64)
	b := e.Score(context.Background(), "SPY", models.KindRSI, 64)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("identical inputs must yield identical results:\n%+v\n%+v", a, b)
	}
}

func TestScorePerSymbolFallbackOverride(t *testing.T) {
	acc := history.NewAccessor(&fakeSource{}, history.WithNow(func() time.Time { return testBase }))
	table := NewFallbackTable().WithOverride("XLE", models.KindRSI, FallbackParameters{Mean: 60, StdDev: 20})
	e := NewEngine(acc, table, DefaultConfig())

	res := e.Score(context.Background(), "XLE", models.KindRSI, 80)
	if math.Abs(res.ZScore-1.0) > 1e-9 {
		t.Errorf("override zScore: got %.4f, want 1.0", res.ZScore)
	}

	// other symbols still use the market-wide default
	res = e.Score(context.Background(), "SPY", models.KindRSI, 80)
	if math.Abs(res.ZScore-2.0) > 1e-9 {
		t.Errorf("default zScore: got %.4f, want 2.0", res.ZScore)
	}
}
