package models

// Requests for scoring HTTP endpoints. Defined in domain for consistency and reuse.

type ScoreRequest struct {
	Symbol    string `query:"symbol" json:"symbol" validate:"required"`
	Indicator string `query:"indicator" json:"indicator" validate:"required,oneof=rsi macd bollinger_pct_b atr ma_trend"`
	// No required tag: zero is a legitimate current value for oscillators
	// that cross their centerline (MACD, MA-trend).
	Value float64 `query:"value" json:"value"`
}

type SignalRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
}

type BatchSignalRequest struct {
	Symbols string `query:"symbols" json:"symbols" validate:"required"`
}

type HistoryRequest struct {
	Symbol    string `query:"symbol" json:"symbol" validate:"required"`
	Indicator string `query:"indicator" json:"indicator" validate:"required,oneof=rsi macd bollinger_pct_b atr ma_trend"`
	Days      int    `query:"days" json:"days" default:"90" validate:"gte=1,lte=3650"`
}
