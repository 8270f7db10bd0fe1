package scoring

import "MarketPulse/internal/domain/models"

// FallbackParameters are pre-calibrated statistics substituted when a
// symbol's own history is too short or corrupted. They are configuration
// constants, never recomputed at runtime.
type FallbackParameters struct {
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"stddev" yaml:"stddev"`
}

// FallbackTable holds the market-wide defaults per indicator kind plus
// optional per-symbol overrides (volatility-class adjustments, e.g. energy
// vs. utilities ETFs). Read-only after construction, so concurrent reads
// need no locking.
type FallbackTable struct {
	defaults  map[models.IndicatorKind]FallbackParameters
	overrides map[string]map[models.IndicatorKind]FallbackParameters
}

// NewFallbackTable builds a table seeded with the documented market-wide
// defaults.
func NewFallbackTable() *FallbackTable {
	return &FallbackTable{
		defaults: map[models.IndicatorKind]FallbackParameters{
			models.KindRSI:           {Mean: 50, StdDev: 15},
			models.KindMACD:          {Mean: 0, StdDev: 1.03},
			models.KindBollingerPctB: {Mean: 0.5, StdDev: 0.25},
			models.KindATR:           {Mean: 1.0, StdDev: 0.5},
			models.KindMATrend:       {Mean: 0, StdDev: 0.02},
		},
		overrides: make(map[string]map[models.IndicatorKind]FallbackParameters),
	}
}

// WithDefault replaces the market-wide parameters for a kind. Intended for
// configuration loading, before the table is shared.
func (t *FallbackTable) WithDefault(kind models.IndicatorKind, p FallbackParameters) *FallbackTable {
	t.defaults[kind] = p
	return t
}

// WithOverride sets symbol-specific parameters for a kind.
func (t *FallbackTable) WithOverride(symbol string, kind models.IndicatorKind, p FallbackParameters) *FallbackTable {
	m, ok := t.overrides[symbol]
	if !ok {
		m = make(map[models.IndicatorKind]FallbackParameters)
		t.overrides[symbol] = m
	}
	m[kind] = p
	return t
}

// For resolves the parameters for (symbol, kind): symbol override first,
// then the kind's market-wide default.
func (t *FallbackTable) For(symbol string, kind models.IndicatorKind) FallbackParameters {
	if m, ok := t.overrides[symbol]; ok {
		if p, ok := m[kind]; ok {
			return p
		}
	}
	return t.defaults[kind]
}
