package indicators

import "math"

// ATR computes the Average True Range with Wilder smoothing. True range of
// day i is max(high-low, |high-prevClose|, |low-prevClose|). The seed is the
// simple mean of the first `period` true ranges. Requires period+1 days.
func ATR(highs, lows, closes []float64, period int) (float64, error) {
	if period <= 0 {
		period = DefaultATRPeriod
	}
	n := len(closes)
	if len(highs) != n || len(lows) != n {
		return 0, ErrInsufficientData
	}
	if n < period+1 {
		return 0, ErrInsufficientData
	}

	tr := func(i int) float64 {
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		return math.Max(hl, math.Max(hc, lc))
	}

	var atr float64
	for i := 1; i <= period; i++ {
		atr += tr(i)
	}
	p := float64(period)
	atr /= p

	for i := period + 1; i < n; i++ {
		atr = (atr*(p-1) + tr(i)) / p
	}
	return atr, nil
}
