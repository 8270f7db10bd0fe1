package models

import "time"

// IndicatorKind is the closed set of indicators the scoring engine knows.
type IndicatorKind string

const (
	KindRSI           IndicatorKind = "rsi"
	KindMACD          IndicatorKind = "macd"
	KindBollingerPctB IndicatorKind = "bollinger_pct_b"
	KindATR           IndicatorKind = "atr"
	KindMATrend       IndicatorKind = "ma_trend"
)

// Kinds lists every supported indicator kind.
func Kinds() []IndicatorKind {
	return []IndicatorKind{KindRSI, KindMACD, KindBollingerPctB, KindATR, KindMATrend}
}

// IsValidKind reports whether k is a supported indicator kind.
func IsValidKind(k IndicatorKind) bool {
	switch k {
	case KindRSI, KindMACD, KindBollingerPctB, KindATR, KindMATrend:
		return true
	default:
		return false
	}
}

// IndicatorReading is a raw stored reading as the persistence layer returns
// it: possibly duplicated within a day, possibly out of domain. The history
// accessor is responsible for turning readings into HistoricalPoints.
type IndicatorReading struct {
	Symbol string
	Kind   IndicatorKind
	At     time.Time
	Value  float64
}

// HistoricalPoint is one deduplicated indicator value per calendar day.
type HistoricalPoint struct {
	Date  time.Time
	Value float64
}

// DailyBar represents one trading day of OHLCV data for a symbol.
type DailyBar struct {
	Day    time.Time
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}
