package indicators

import "math"

// BollingerPercentB computes %B for the last close against bands built over
// the trailing `period` closes: bands = mean ± k * sample stddev (N-1).
// %B = (price - lower) / (upper - lower), clamped to [0,1] for reporting.
// When the band width collapses to zero the price sits on the band itself
// and 0.5 is returned.
func BollingerPercentB(closes []float64, period int, k float64) (float64, error) {
	if period <= 0 {
		period = DefaultBollingerPeriod
	}
	if k <= 0 {
		k = DefaultBollingerK
	}
	if len(closes) < period {
		return 0, ErrInsufficientData
	}

	window := closes[len(closes)-period:]
	var sum float64
	for _, v := range window {
		sum += v
	}
	mean := sum / float64(period)

	var ss float64
	for _, v := range window {
		d := v - mean
		ss += d * d
	}
	stddev := math.Sqrt(ss / float64(period-1))

	upper := mean + k*stddev
	lower := mean - k*stddev
	width := upper - lower
	if width == 0 {
		return 0.5, nil
	}

	price := closes[len(closes)-1]
	return clamp((price-lower)/width, 0, 1), nil
}
