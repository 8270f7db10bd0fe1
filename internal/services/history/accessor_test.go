package history

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"MarketPulse/internal/domain/models"
)

type fakeSource struct {
	readings []models.IndicatorReading
	err      error
	from, to time.Time
}

func (f *fakeSource) GetReadings(_ context.Context, _ string, _ models.IndicatorKind, from, to time.Time) ([]models.IndicatorReading, error) {
	f.from, f.to = from, to
	return f.readings, f.err
}

func day(d int, hour int) time.Time {
	return time.Date(2026, 8, d, hour, 0, 0, 0, time.UTC)
}

func TestSeriesDeduplicatesPerDayLatestWins(t *testing.T) {
	src := &fakeSource{readings: []models.IndicatorReading{
		{Symbol: "XLE", Kind: models.KindRSI, At: day(10, 9), Value: 40},
		{Symbol: "XLE", Kind: models.KindRSI, At: day(10, 16), Value: 45}, // same day, later
		{Symbol: "XLE", Kind: models.KindRSI, At: day(11, 9), Value: 50},
		{Symbol: "XLE", Kind: models.KindRSI, At: day(9, 9), Value: 35},
	}}
	a := NewAccessor(src, WithNow(func() time.Time { return day(12, 0) }))

	got, err := a.Series(context.Background(), "XLE", models.KindRSI, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 points, got %d", len(got))
	}
	want := []float64{35, 45, 50} // chronological, latest-of-day wins
	for i, p := range got {
		if p.Value != want[i] {
			t.Errorf("point %d: got %.1f, want %.1f", i, p.Value, want[i])
		}
	}
	if !got[0].Date.Before(got[1].Date) || !got[1].Date.Before(got[2].Date) {
		t.Error("series must be chronological")
	}
}

func TestSeriesFiltersOutOfDomain(t *testing.T) {
	src := &fakeSource{readings: []models.IndicatorReading{
		{Kind: models.KindBollingerPctB, At: day(1, 12), Value: 0.8},
		{Kind: models.KindBollingerPctB, At: day(2, 12), Value: 0.00005}, // below floor
		{Kind: models.KindBollingerPctB, At: day(3, 12), Value: 1.6},     // above ceiling
		{Kind: models.KindBollingerPctB, At: day(4, 12), Value: 1.5},     // boundary kept
		{Kind: models.KindBollingerPctB, At: day(5, 12), Value: math.NaN()},
	}}
	a := NewAccessor(src, WithNow(func() time.Time { return day(6, 0) }))

	got, err := a.Series(context.Background(), "SPY", models.KindBollingerPctB, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 points after filtering, got %d", len(got))
	}
	if got[0].Value != 0.8 || got[1].Value != 1.5 {
		t.Errorf("unexpected values: %v", got)
	}
}

func TestSeriesRSIDomain(t *testing.T) {
	src := &fakeSource{readings: []models.IndicatorReading{
		{Kind: models.KindRSI, At: day(1, 12), Value: -5},
		{Kind: models.KindRSI, At: day(2, 12), Value: 101},
		{Kind: models.KindRSI, At: day(3, 12), Value: 70},
	}}
	a := NewAccessor(src, WithNow(func() time.Time { return day(4, 0) }))

	got, err := a.Series(context.Background(), "SPY", models.KindRSI, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Value != 70 {
		t.Fatalf("expected only the in-domain point, got %v", got)
	}
}

func TestSeriesLookbackWindow(t *testing.T) {
	src := &fakeSource{}
	now := day(20, 0)
	a := NewAccessor(src, WithNow(func() time.Time { return now }))

	if _, err := a.Series(context.Background(), "SPY", models.KindMACD, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := int(src.to.Sub(src.from).Hours() / 24); got != DefaultLookbackDays {
		t.Errorf("default lookback: got %d days, want %d", got, DefaultLookbackDays)
	}
}

func TestSeriesPropagatesFetchError(t *testing.T) {
	src := &fakeSource{err: errors.New("connection refused")}
	a := NewAccessor(src)

	if _, err := a.Series(context.Background(), "SPY", models.KindMACD, 90); err == nil {
		t.Fatal("expected error")
	}
}

func TestDescending(t *testing.T) {
	pts := []models.HistoricalPoint{
		{Date: day(1, 0), Value: 1},
		{Date: day(2, 0), Value: 2},
		{Date: day(3, 0), Value: 3},
	}
	got := Descending(pts)
	if got[0].Value != 3 || got[2].Value != 1 {
		t.Errorf("unexpected order: %v", got)
	}
	if pts[0].Value != 1 {
		t.Error("input must not be mutated")
	}
}
