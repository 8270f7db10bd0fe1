package quality

import (
	"math"

	"MarketPulse/internal/domain/models"
)

// Corruption reasons surfaced to the scoring engine.
const (
	ReasonDegenerateVariance = "degenerate_variance"
	ReasonRangeCollapse      = "range_collapse"
	ReasonDuplicateDominance = "duplicate_dominance"
)

// Thresholds tune the corruption checks per indicator domain. Wide-domain
// indicators (RSI, MACD, ATR) use absolute variance and range thresholds;
// bounded-domain indicators (%B, MA-trend) scale the variance floor to their
// own range and skip the range-collapse check.
type Thresholds struct {
	MinStdDev   float64 // series sample stddev below this is degenerate
	MinRange    float64 // max-min below this is a collapse; 0 disables
	MaxDupRatio float64 // 1 - distinct/total above this is dominance
	DupMinCount int     // dominance only checked above this series length
}

// DefaultThresholds returns the calibrated per-kind defaults.
func DefaultThresholds(kind models.IndicatorKind) Thresholds {
	th := Thresholds{MinStdDev: 0.1, MinRange: 1, MaxDupRatio: 0.8, DupMinCount: 5}
	switch kind {
	case models.KindBollingerPctB:
		th.MinStdDev = 0.025 // a tenth of the %B fallback stddev
		th.MinRange = 0
	case models.KindMATrend:
		th.MinStdDev = 0.002
		th.MinRange = 0
	}
	return th
}

// Report is the validator verdict. Reason is empty when not corrupted.
type Report struct {
	Corrupted bool   `json:"corrupted"`
	Reason    string `json:"reason,omitempty"`
}

// Validate inspects a historical series for corruption signatures. It never
// mutates or discards data; acting on the verdict is the scoring engine's
// responsibility.
func Validate(points []models.HistoricalPoint, th Thresholds) Report {
	n := len(points)
	if n == 0 {
		return Report{}
	}

	min, max := points[0].Value, points[0].Value
	var sum float64
	distinct := make(map[float64]struct{}, n)
	for _, p := range points {
		v := p.Value
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		distinct[v] = struct{}{}
	}

	if n >= 2 {
		mean := sum / float64(n)
		var ss float64
		for _, p := range points {
			d := p.Value - mean
			ss += d * d
		}
		if math.Sqrt(ss/float64(n-1)) < th.MinStdDev {
			return Report{Corrupted: true, Reason: ReasonDegenerateVariance}
		}
	}

	if th.MinRange > 0 && max-min < th.MinRange {
		return Report{Corrupted: true, Reason: ReasonRangeCollapse}
	}

	if n > th.DupMinCount {
		ratio := 1 - float64(len(distinct))/float64(n)
		if ratio > th.MaxDupRatio {
			return Report{Corrupted: true, Reason: ReasonDuplicateDominance}
		}
	}

	return Report{}
}
