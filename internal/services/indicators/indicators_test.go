package indicators

import (
	"errors"
	"math"
	"testing"
)

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f)", label, got, want, tol)
	}
}

// Wilder's original 14-period worked example. The first RSI value for this
// series is the canonical 70.53.
var wilderCloses = []float64{
	44.3389, 44.0902, 44.1497, 43.6124, 44.3278, 44.8264, 45.0955, 45.4245,
	45.8433, 46.0826, 45.8931, 46.0328, 45.6140, 46.2820, 46.2820,
}

func TestRSIWilderExample(t *testing.T) {
	got, err := RSI(wilderCloses, 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertClose(t, "RSI(14)", got, 70.53, 0.05)
}

func TestRSIInsufficientData(t *testing.T) {
	_, err := RSI(wilderCloses[:14], 14)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestRSIAllGainsIs100(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	got, err := RSI(closes, 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 100 {
		t.Errorf("monotonic gains: got %.4f, want 100", got)
	}
}

func TestRSIStaysInBounds(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 50 + 10*math.Sin(float64(i)*0.7)
	}
	got, err := RSI(closes, 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got < 0 || got > 100 {
		t.Errorf("RSI out of [0,100]: %.4f", got)
	}
}

func TestEMASeedAndSmoothing(t *testing.T) {
	// Seed over {1,2,3} is 2; k=0.5 for period 3, so 4 -> 3, then 5 -> 4.
	got, err := EMA([]float64{1, 2, 3, 4, 5}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertClose(t, "EMA(3)", got, 4.0, 1e-9)
}

func TestEMAInsufficientData(t *testing.T) {
	if _, err := EMA([]float64{1, 2}, 3); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestMACDInsufficientData(t *testing.T) {
	closes := make([]float64, 51) // one short of 2*26
	for i := range closes {
		closes[i] = 100
	}
	if _, err := MACD(closes, 0, 0); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestMACDConstantSeriesIsZero(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 250
	}
	macd, signal, ok, err := MACDWithSignal(closes, 0, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("signal line should be available for 60 closes")
	}
	assertClose(t, "MACD", macd, 0, 1e-9)
	assertClose(t, "signal", signal, 0, 1e-9)
}

func TestMACDSignalUnavailableNotFabricated(t *testing.T) {
	closes := make([]float64, 52)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.2
	}
	// span longer than the MACD history that 52 closes can produce
	_, signal, ok, err := MACDWithSignal(closes, 12, 26, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("signal line should be unavailable")
	}
	if signal != 0 {
		t.Errorf("unavailable signal must be zero-valued, got %.4f", signal)
	}
}

func TestBollingerPercentBHandComputed(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = float64(i + 1)
	}
	// window 1..20: mean 10.5, sample stddev sqrt(35); price 20 -> 0.90145
	got, err := BollingerPercentB(closes, 20, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertClose(t, "%B", got, 0.90145, 1e-4)
}

func TestBollingerPercentBCollapsedBand(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 42
	}
	got, err := BollingerPercentB(closes, 20, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertClose(t, "%B flat", got, 0.5, 1e-9)
}

func TestBollingerPercentBClamped(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100
	}
	closes[19] = 500 // blowout above the band
	got, err := BollingerPercentB(closes, 20, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got < 0 || got > 1 {
		t.Errorf("%%B out of [0,1]: %.4f", got)
	}
}

func TestATRConstantRange(t *testing.T) {
	n := 20
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		closes[i] = 100
		highs[i] = 101
		lows[i] = 99
	}
	got, err := ATR(highs, lows, closes, 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertClose(t, "ATR", got, 2.0, 1e-9)
}

func TestATRInsufficientData(t *testing.T) {
	xs := []float64{1, 2, 3}
	if _, err := ATR(xs, xs, xs, 14); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestMATrend(t *testing.T) {
	got, err := MATrend([]float64{10, 10, 10, 12}, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertClose(t, "MATrend", got, 1.5/10.5, 1e-9)
}
