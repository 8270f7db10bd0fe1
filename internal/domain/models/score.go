package models

import "time"

// Confidence grades how much history backed a z-score.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Signal is the discrete market-state classification.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// Fallback reasons surfaced in ZScoreResult for observability.
const (
	ReasonInsufficientData   = "insufficient_data"
	ReasonCorruptionDetected = "corruption_detected"
)

// ZScoreResult is the outcome of standardizing one indicator value against
// its own history. Created once per (symbol, kind, asOf) evaluation and
// never mutated afterwards.
type ZScoreResult struct {
	Symbol             string        `json:"symbol"`
	Kind               IndicatorKind `json:"kind"`
	CurrentValue       float64       `json:"current_value"`
	ZScore             float64       `json:"z_score"`
	FallbackUsed       bool          `json:"fallback_used"`
	FallbackReason     string        `json:"fallback_reason,omitempty"`
	CorruptionDetected bool          `json:"corruption_detected"`
	DataPoints         int           `json:"data_points"`
	Confidence         Confidence    `json:"confidence"`
}

// CompositeSignal combines per-indicator z-scores into one weighted score
// and a discrete signal. Derived entirely from the ZScoreResults of a
// single evaluation; it has no independent lifecycle.
type CompositeSignal struct {
	Symbol         string                     `json:"symbol"`
	Timestamp      time.Time                  `json:"timestamp"`
	CompositeScore float64                    `json:"composite_score"`
	Signal         Signal                     `json:"signal"`
	PerIndicatorZ  map[IndicatorKind]*float64 `json:"per_indicator_z"`
}

// SymbolEvaluation is the full per-symbol result returned to API callers:
// the composite signal plus the individual scoring results it was built
// from. Errors maps an indicator kind to the reason its current value could
// not be computed from the price series.
type SymbolEvaluation struct {
	Symbol    string                         `json:"symbol"`
	AsOf      time.Time                      `json:"as_of"`
	Composite *CompositeSignal               `json:"composite,omitempty"`
	Scores    map[IndicatorKind]ZScoreResult `json:"scores"`
	Errors    map[string]string              `json:"errors,omitempty"`
}
