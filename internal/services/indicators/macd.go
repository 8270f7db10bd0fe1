package indicators

// MACD computes the Moving Average Convergence Divergence line,
// EMA(fast) - EMA(slow), over a chronological close series. To guard
// against an unseeded slow EMA it requires at least 2*slow closes.
func MACD(closes []float64, fast, slow int) (float64, error) {
	if fast <= 0 {
		fast = DefaultMACDFastPeriod
	}
	if slow <= 0 {
		slow = DefaultMACDSlowPeriod
	}
	series, err := macdSeries(closes, fast, slow)
	if err != nil {
		return 0, err
	}
	return series[len(series)-1], nil
}

// MACDWithSignal returns the MACD line and, when enough MACD history exists
// to seed it, the 9-period signal line. signalOK is false when the signal
// line cannot be computed; it is reported unavailable rather than fabricated.
func MACDWithSignal(closes []float64, fast, slow, span int) (macd, signal float64, signalOK bool, err error) {
	if fast <= 0 {
		fast = DefaultMACDFastPeriod
	}
	if slow <= 0 {
		slow = DefaultMACDSlowPeriod
	}
	if span <= 0 {
		span = DefaultMACDSignalSpan
	}
	series, err := macdSeries(closes, fast, slow)
	if err != nil {
		return 0, 0, false, err
	}
	macd = series[len(series)-1]
	if sig, serr := EMA(series, span); serr == nil {
		return macd, sig, true, nil
	}
	return macd, 0, false, nil
}

// macdSeries is the MACD value at every index where both EMAs are seeded.
func macdSeries(closes []float64, fast, slow int) ([]float64, error) {
	if len(closes) < 2*slow {
		return nil, ErrInsufficientData
	}
	fastSeries, err := emaSeries(closes, fast)
	if err != nil {
		return nil, err
	}
	slowSeries, err := emaSeries(closes, slow)
	if err != nil {
		return nil, err
	}
	// fastSeries starts earlier; align both to the slow seed index.
	offset := len(fastSeries) - len(slowSeries)
	out := make([]float64, len(slowSeries))
	for i := range slowSeries {
		out[i] = fastSeries[i+offset] - slowSeries[i]
	}
	return out, nil
}
