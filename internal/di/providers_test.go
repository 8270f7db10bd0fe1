package di

import (
	"testing"

	"MarketPulse/pkg/config"
)

func TestProvideCompositeConfigFromYAML(t *testing.T) {
	cfg := &config.Config{}
	cfg.Scoring.BuyThreshold = 0.7
	cfg.Scoring.SellThreshold = -0.7
	cfg.Scoring.ScaleDivisor = 4
	cfg.Scoring.ATRFactor = 0.25

	cc := ProvideCompositeConfig(cfg)

	if cc.BuyThreshold != 0.7 || cc.SellThreshold != -0.7 {
		t.Errorf("thresholds = (%v, %v), want (0.7, -0.7)", cc.BuyThreshold, cc.SellThreshold)
	}
	if cc.ScaleDivisor != 4 {
		t.Errorf("scale divisor = %v, want 4", cc.ScaleDivisor)
	}
	if cc.ATRFactor != 0.25 {
		t.Errorf("atr factor = %v, want 0.25", cc.ATRFactor)
	}
}

func TestProvideCompositeConfigDefaults(t *testing.T) {
	cc := ProvideCompositeConfig(&config.Config{})

	if cc.ScaleDivisor != 2 {
		t.Errorf("scale divisor = %v, want calibrated default 2", cc.ScaleDivisor)
	}
	if cc.ATRFactor != 0.1 {
		t.Errorf("atr factor = %v, want calibrated default 0.1", cc.ATRFactor)
	}
	if cc.BuyThreshold != 0.6 || cc.SellThreshold != -0.6 {
		t.Errorf("thresholds = (%v, %v), want (0.6, -0.6)", cc.BuyThreshold, cc.SellThreshold)
	}
}
