package history

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"MarketPulse/internal/domain/models"
	domrepo "MarketPulse/internal/domain/repository"
	xutil "MarketPulse/pkg/util"
)

// DefaultLookbackDays is the default history window for scoring.
const DefaultLookbackDays = 90

// Bollinger %B readings outside this range are storage artifacts and are
// excluded from the series rather than clamped.
const (
	pctBMin = 0.0001
	pctBMax = 1.5
)

// Accessor turns raw stored readings into a clean historical series: one
// point per UTC calendar day (the most recent eligible reading of the day
// wins), domain-filtered, in chronological order.
type Accessor struct {
	src domrepo.ReadingSource
	now func() time.Time
}

type Option func(*Accessor)

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(a *Accessor) { a.now = now }
}

func NewAccessor(src domrepo.ReadingSource, opts ...Option) *Accessor {
	a := &Accessor{src: src, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Series returns the deduplicated, filtered series for (symbol, kind) over
// the trailing lookbackDays, oldest first. A failed fetch is returned as an
// error; the scoring engine maps it to the empty-series fallback path.
func (a *Accessor) Series(ctx context.Context, symbol string, kind models.IndicatorKind, lookbackDays int) ([]models.HistoricalPoint, error) {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	from, to := xutil.LookbackWindow(a.now(), lookbackDays)

	readings, err := a.src.GetReadings(ctx, symbol, kind, from, to)
	if err != nil {
		return nil, fmt.Errorf("get readings %s/%s: %w", symbol, kind, err)
	}

	// Latest eligible reading per calendar day wins.
	byDay := make(map[time.Time]models.IndicatorReading, len(readings))
	for _, r := range readings {
		if !eligible(kind, r.Value) {
			continue
		}
		day := xutil.DayStart(r.At)
		if prev, ok := byDay[day]; !ok || r.At.After(prev.At) {
			byDay[day] = r
		}
	}

	out := make([]models.HistoricalPoint, 0, len(byDay))
	for day, r := range byDay {
		out = append(out, models.HistoricalPoint{Date: day, Value: r.Value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// Descending returns a reversed copy, newest first, for API consumption.
func Descending(points []models.HistoricalPoint) []models.HistoricalPoint {
	out := make([]models.HistoricalPoint, len(points))
	for i, p := range points {
		out[len(points)-1-i] = p
	}
	return out
}

// Values extracts the value column, preserving order.
func Values(points []models.HistoricalPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}

func eligible(kind models.IndicatorKind, v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	switch kind {
	case models.KindRSI:
		return v >= 0 && v <= 100
	case models.KindBollingerPctB:
		return v > pctBMin && v <= pctBMax
	default:
		return true
	}
}
