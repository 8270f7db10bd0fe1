package scoring

import (
	"math"
	"testing"
	"time"

	"MarketPulse/internal/domain/models"
)

var asOf = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

func zr(kind models.IndicatorKind, z float64) *models.ZScoreResult {
	return &models.ZScoreResult{Symbol: "TEST", Kind: kind, ZScore: z}
}

func TestDirectionalWeightsSumToOne(t *testing.T) {
	if math.Abs(DefaultWeights().Sum()-1.0) > 1e-9 {
		t.Fatalf("weights sum to %.6f, want 1.0", DefaultWeights().Sum())
	}
}

func TestSynthesizeAllBullish(t *testing.T) {
	results := map[models.IndicatorKind]*models.ZScoreResult{
		models.KindRSI:           zr(models.KindRSI, 2),
		models.KindMACD:          zr(models.KindMACD, 2),
		models.KindBollingerPctB: zr(models.KindBollingerPctB, -2), // low %B = oversold = bullish
		models.KindMATrend:       zr(models.KindMATrend, 2),
	}
	got := Synthesize("SPY", asOf, results, DefaultCompositeConfig())
	if math.Abs(got.CompositeScore-1.0) > 1e-9 {
		t.Errorf("score: got %.4f, want 1.0", got.CompositeScore)
	}
	if got.Signal != models.SignalBuy {
		t.Errorf("signal: got %s, want BUY", got.Signal)
	}
}

func TestSynthesizeAllBearish(t *testing.T) {
	results := map[models.IndicatorKind]*models.ZScoreResult{
		models.KindRSI:           zr(models.KindRSI, -2),
		models.KindMACD:          zr(models.KindMACD, -2),
		models.KindBollingerPctB: zr(models.KindBollingerPctB, 2),
		models.KindMATrend:       zr(models.KindMATrend, -2),
	}
	got := Synthesize("SPY", asOf, results, DefaultCompositeConfig())
	if math.Abs(got.CompositeScore+1.0) > 1e-9 {
		t.Errorf("score: got %.4f, want -1.0", got.CompositeScore)
	}
	if got.Signal != models.SignalSell {
		t.Errorf("signal: got %s, want SELL", got.Signal)
	}
}

func TestSynthesizeNeutralHolds(t *testing.T) {
	results := map[models.IndicatorKind]*models.ZScoreResult{
		models.KindRSI:  zr(models.KindRSI, 0.1),
		models.KindMACD: zr(models.KindMACD, -0.1),
	}
	got := Synthesize("SPY", asOf, results, DefaultCompositeConfig())
	if got.Signal != models.SignalHold {
		t.Errorf("signal: got %s, want HOLD", got.Signal)
	}
}

func TestSynthesizeOverboughtPctBContributesNegative(t *testing.T) {
	// +2 %B z-score means price pinned to the upper band: overbought. After
	// the directional correction its term must push the composite down.
	results := map[models.IndicatorKind]*models.ZScoreResult{
		models.KindBollingerPctB: zr(models.KindBollingerPctB, 2),
	}
	got := Synthesize("SPY", asOf, results, DefaultCompositeConfig())
	want := 0.20 * -1.0 // weight * negated saturated scale
	if math.Abs(got.CompositeScore-want) > 1e-9 {
		t.Errorf("score: got %.4f, want %.4f", got.CompositeScore, want)
	}
}

func TestSynthesizeScaleSaturates(t *testing.T) {
	// z=10 and z=2 both saturate the bounded transform at 1.
	a := Synthesize("SPY", asOf, map[models.IndicatorKind]*models.ZScoreResult{
		models.KindRSI: zr(models.KindRSI, 10),
	}, DefaultCompositeConfig())
	b := Synthesize("SPY", asOf, map[models.IndicatorKind]*models.ZScoreResult{
		models.KindRSI: zr(models.KindRSI, 2),
	}, DefaultCompositeConfig())
	if math.Abs(a.CompositeScore-b.CompositeScore) > 1e-9 {
		t.Errorf("saturated scores differ: %.4f vs %.4f", a.CompositeScore, b.CompositeScore)
	}
}

func TestSynthesizeATRAmplifiesWithoutFlippingSign(t *testing.T) {
	base := map[models.IndicatorKind]*models.ZScoreResult{
		models.KindRSI:  zr(models.KindRSI, 2),
		models.KindMACD: zr(models.KindMACD, 2),
	}
	calm := Synthesize("SPY", asOf, base, DefaultCompositeConfig())

	base[models.KindATR] = zr(models.KindATR, 3)
	volatile := Synthesize("SPY", asOf, base, DefaultCompositeConfig())

	if math.Abs(volatile.CompositeScore-calm.CompositeScore*1.3) > 1e-9 {
		t.Errorf("ATR modifier: got %.4f, want %.4f", volatile.CompositeScore, calm.CompositeScore*1.3)
	}

	// negative directional score stays negative under high volatility
	bearish := map[models.IndicatorKind]*models.ZScoreResult{
		models.KindRSI: zr(models.KindRSI, -2),
		models.KindATR: zr(models.KindATR, -4),
	}
	got := Synthesize("SPY", asOf, bearish, DefaultCompositeConfig())
	if got.CompositeScore >= 0 {
		t.Errorf("ATR must never flip sign, got %.4f", got.CompositeScore)
	}
}

func TestSynthesizeMissingTermContributesZero(t *testing.T) {
	with := Synthesize("SPY", asOf, map[models.IndicatorKind]*models.ZScoreResult{
		models.KindRSI:     zr(models.KindRSI, 2),
		models.KindMATrend: zr(models.KindMATrend, 0),
	}, DefaultCompositeConfig())
	without := Synthesize("SPY", asOf, map[models.IndicatorKind]*models.ZScoreResult{
		models.KindRSI: zr(models.KindRSI, 2),
	}, DefaultCompositeConfig())

	// No renormalization: a missing indicator is a zero term, identical to a
	// present indicator with z=0.
	if math.Abs(with.CompositeScore-without.CompositeScore) > 1e-9 {
		t.Errorf("missing term handling: %.4f vs %.4f", with.CompositeScore, without.CompositeScore)
	}
	if without.PerIndicatorZ[models.KindMATrend] != nil {
		t.Error("missing indicator must be nil in PerIndicatorZ")
	}
	if z := without.PerIndicatorZ[models.KindRSI]; z == nil || *z != 2 {
		t.Error("present indicator must carry its z-score")
	}
}
