package config

import (
	"os"
	"path/filepath"
	"testing"
)

const calibrationYAML = `
environment: test
backend:
  type: kafka
feed:
  symbols: [SPY]
scoring:
  buy_threshold: 0.6
  sell_threshold: -0.6
  scale_divisor: 3.0
  atr_factor: 0.2
  confidence:
    high_min_points: 40
    high_max_abs_z: 2.5
    medium_min_points: 20
    medium_max_abs_z: 3.5
  quality:
    rsi: { min_stddev: 0.2, min_range: 2.0, max_dup_ratio: 0.7, dup_min_count: 6 }
    ma_trend: { min_stddev: 0.004, min_range: 0, max_dup_ratio: 0.8, dup_min_count: 5 }
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadScoringCalibration(t *testing.T) {
	c, err := Load(writeConfig(t, calibrationYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	s := c.Scoring
	if s.ScaleDivisor != 3.0 {
		t.Errorf("scale_divisor = %v, want 3.0", s.ScaleDivisor)
	}
	if s.ATRFactor != 0.2 {
		t.Errorf("atr_factor = %v, want 0.2", s.ATRFactor)
	}
	if s.Confidence.HighMinPoints != 40 || s.Confidence.HighMaxAbsZ != 2.5 {
		t.Errorf("high tier = (%d, %v), want (40, 2.5)", s.Confidence.HighMinPoints, s.Confidence.HighMaxAbsZ)
	}
	if s.Confidence.MediumMinPoints != 20 || s.Confidence.MediumMaxAbsZ != 3.5 {
		t.Errorf("medium tier = (%d, %v), want (20, 3.5)", s.Confidence.MediumMinPoints, s.Confidence.MediumMaxAbsZ)
	}

	rsi, ok := s.Quality["rsi"]
	if !ok {
		t.Fatal("quality thresholds for rsi not parsed")
	}
	if rsi.MinStdDev != 0.2 || rsi.MinRange != 2.0 || rsi.MaxDupRatio != 0.7 || rsi.DupMinCount != 6 {
		t.Errorf("rsi thresholds = %+v", rsi)
	}
	if mt, ok := s.Quality["ma_trend"]; !ok || mt.MinStdDev != 0.004 {
		t.Errorf("ma_trend thresholds = %+v, ok = %v", mt, ok)
	}
}

func TestLoadRejectsBadWeights(t *testing.T) {
	body := calibrationYAML + `
  weights:
    rsi: 0.9
    macd: 0.9
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatal("expected error for weights not summing to 1.0")
	}
}
