package quality

import (
	"testing"
	"time"

	"MarketPulse/internal/domain/models"
)

func series(values ...float64) []models.HistoricalPoint {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.HistoricalPoint, len(values))
	for i, v := range values {
		out[i] = models.HistoricalPoint{Date: base.AddDate(0, 0, i), Value: v}
	}
	return out
}

func TestValidateHealthySeries(t *testing.T) {
	rep := Validate(series(30, 45, 60, 52, 38, 71, 44, 55, 62, 48), DefaultThresholds(models.KindRSI))
	if rep.Corrupted {
		t.Fatalf("healthy series flagged: %s", rep.Reason)
	}
}

func TestValidateDegenerateVariance(t *testing.T) {
	rep := Validate(series(50.01, 50.02, 50.01, 50.03, 50.02, 50.01, 50.02), DefaultThresholds(models.KindRSI))
	if !rep.Corrupted || rep.Reason != ReasonDegenerateVariance {
		t.Fatalf("expected degenerate_variance, got %+v", rep)
	}
}

func TestValidateRangeCollapse(t *testing.T) {
	// stddev above the floor but total spread under one unit
	rep := Validate(series(50.0, 50.9, 50.0, 50.9, 50.0, 50.9), DefaultThresholds(models.KindMACD))
	if !rep.Corrupted || rep.Reason != ReasonRangeCollapse {
		t.Fatalf("expected range_collapse, got %+v", rep)
	}
}

func TestValidateDuplicateDominance(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		values[i] = 50
	}
	values[19] = 80 // variance and range pass, distinct ratio does not
	rep := Validate(series(values...), DefaultThresholds(models.KindRSI))
	if !rep.Corrupted || rep.Reason != ReasonDuplicateDominance {
		t.Fatalf("expected duplicate_dominance, got %+v", rep)
	}
}

func TestValidateDuplicatesBelowMinCountPass(t *testing.T) {
	rep := Validate(series(1, 1, 1, 2, 2), DefaultThresholds(models.KindRSI))
	if rep.Corrupted {
		t.Fatalf("short series should skip dominance check: %+v", rep)
	}
}

func TestValidatePctBUsesRelativeVarianceFloor(t *testing.T) {
	// Near-identical %B readings: absolute spread is tiny relative to the
	// [0,1] domain and must be flagged even though 0.008 < the wide-domain
	// 0.1 floor would also catch it.
	rep := Validate(series(0.9, 0.91, 0.9, 0.92, 0.91, 0.9, 0.91, 0.92, 0.9, 0.91), DefaultThresholds(models.KindBollingerPctB))
	if !rep.Corrupted || rep.Reason != ReasonDegenerateVariance {
		t.Fatalf("expected degenerate_variance, got %+v", rep)
	}
}

func TestValidatePctBNoRangeCheck(t *testing.T) {
	// Healthy %B never spans a full unit; the wide-domain range-collapse
	// rule must not apply.
	rep := Validate(series(0.1, 0.5, 0.9, 0.3, 0.7, 0.2, 0.8, 0.4, 0.6, 0.55), DefaultThresholds(models.KindBollingerPctB))
	if rep.Corrupted {
		t.Fatalf("healthy %%B series flagged: %+v", rep)
	}
}

func TestValidateEmptySeries(t *testing.T) {
	if rep := Validate(nil, DefaultThresholds(models.KindRSI)); rep.Corrupted {
		t.Fatalf("empty series must not be corrupted: %+v", rep)
	}
}
