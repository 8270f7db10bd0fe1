package scoring

import (
	"time"

	"MarketPulse/internal/domain/models"
)

// Weights are the fixed directional weights of the composite sum. They are
// expected to sum to 1.0 across the four directional indicators; ATR is
// never weighted because it is a conviction modifier, not a direction.
type Weights struct {
	RSI           float64 `yaml:"rsi"`
	MACD          float64 `yaml:"macd"`
	BollingerPctB float64 `yaml:"bollinger_pct_b"`
	MATrend       float64 `yaml:"ma_trend"`
}

// DefaultWeights returns the calibrated directional weights.
func DefaultWeights() Weights {
	return Weights{RSI: 0.35, MACD: 0.30, BollingerPctB: 0.20, MATrend: 0.15}
}

// Sum returns the total directional weight.
func (w Weights) Sum() float64 {
	return w.RSI + w.MACD + w.BollingerPctB + w.MATrend
}

// CompositeConfig carries the synthesizer's calibration constants.
type CompositeConfig struct {
	Weights       Weights
	ScaleDivisor  float64 // z is scaled via clamp(z/ScaleDivisor, -1, 1)
	ATRFactor     float64 // score *= 1 + |atrZ| * ATRFactor
	BuyThreshold  float64
	SellThreshold float64
}

// DefaultCompositeConfig returns the documented calibration. The divisor
// and thresholds are empirical constants, treated as calibration parameters
// rather than invariants.
func DefaultCompositeConfig() CompositeConfig {
	return CompositeConfig{
		Weights:       DefaultWeights(),
		ScaleDivisor:  2,
		ATRFactor:     0.1,
		BuyThreshold:  0.6,
		SellThreshold: -0.6,
	}
}

// Synthesize combines per-indicator z-scores into one composite score and a
// discrete signal. Missing indicators contribute zero to the weighted sum;
// the remaining weights are deliberately NOT renormalized, which shrinks
// the composite's effective scale when a term is absent.
//
// Bollinger %B is negated before weighting: a high %B means price is near
// or above the upper band — overbought, bearish — while its raw z-score is
// positive. Every other indicator's positive z is already bullish-aligned.
func Synthesize(symbol string, asOf time.Time, results map[models.IndicatorKind]*models.ZScoreResult, cfg CompositeConfig) models.CompositeSignal {
	if cfg.ScaleDivisor <= 0 {
		cfg.ScaleDivisor = 2
	}

	perZ := make(map[models.IndicatorKind]*float64, len(models.Kinds()))
	for _, kind := range models.Kinds() {
		if r, ok := results[kind]; ok && r != nil {
			z := r.ZScore
			perZ[kind] = &z
		} else {
			perZ[kind] = nil
		}
	}

	scaled := func(kind models.IndicatorKind) float64 {
		z := perZ[kind]
		if z == nil {
			return 0
		}
		return clamp(*z/cfg.ScaleDivisor, -1, 1)
	}

	score := cfg.Weights.RSI*scaled(models.KindRSI) +
		cfg.Weights.MACD*scaled(models.KindMACD) +
		cfg.Weights.BollingerPctB*-scaled(models.KindBollingerPctB) +
		cfg.Weights.MATrend*scaled(models.KindMATrend)

	// ATR amplifies conviction during volatile regimes; it never flips sign.
	if atrZ := perZ[models.KindATR]; atrZ != nil {
		abs := *atrZ
		if abs < 0 {
			abs = -abs
		}
		score *= 1 + abs*cfg.ATRFactor
	}

	sig := models.SignalHold
	switch {
	case score >= cfg.BuyThreshold:
		sig = models.SignalBuy
	case score <= cfg.SellThreshold:
		sig = models.SignalSell
	}

	return models.CompositeSignal{
		Symbol:         symbol,
		Timestamp:      asOf,
		CompositeScore: score,
		Signal:         sig,
		PerIndicatorZ:  perZ,
	}
}
