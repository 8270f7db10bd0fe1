package indicators

// MATrend measures how far the latest close sits from its simple moving
// average, as a fraction of the average: (close - sma) / sma. Positive means
// price above trend. Requires at least `period` closes and a positive SMA.
func MATrend(closes []float64, period int) (float64, error) {
	if period <= 0 {
		period = DefaultMATrendPeriod
	}
	if len(closes) < period {
		return 0, ErrInsufficientData
	}

	var sum float64
	for _, v := range closes[len(closes)-period:] {
		sum += v
	}
	sma := sum / float64(period)
	if sma <= 0 {
		return 0, ErrInsufficientData
	}
	return (closes[len(closes)-1] - sma) / sma, nil
}
