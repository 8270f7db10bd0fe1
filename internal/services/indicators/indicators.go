package indicators

import "errors"

// ErrInsufficientData is returned when a calculator does not have enough
// prices to seed itself. Callers treat the indicator as unavailable; it is
// never a fatal condition.
var ErrInsufficientData = errors.New("insufficient data")

// Default periods, matching the usual daily-chart conventions.
const (
	DefaultRSIPeriod       = 14
	DefaultMACDFastPeriod  = 12
	DefaultMACDSlowPeriod  = 26
	DefaultMACDSignalSpan  = 9
	DefaultBollingerPeriod = 20
	DefaultBollingerK      = 2.0
	DefaultATRPeriod       = 14
	DefaultMATrendPeriod   = 50
)

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
