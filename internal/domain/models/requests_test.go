package models

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestScoreRequestValidation(t *testing.T) {
	v := validator.New()

	tests := []struct {
		name    string
		req     ScoreRequest
		wantErr bool
	}{
		{
			name: "valid request",
			req:  ScoreRequest{Symbol: "SPY", Indicator: "rsi", Value: 42.5},
		},
		{
			name: "zero value is valid",
			req:  ScoreRequest{Symbol: "SPY", Indicator: "macd", Value: 0},
		},
		{
			name: "negative value is valid",
			req:  ScoreRequest{Symbol: "SPY", Indicator: "ma_trend", Value: -0.03},
		},
		{
			name:    "missing symbol",
			req:     ScoreRequest{Indicator: "rsi", Value: 50},
			wantErr: true,
		},
		{
			name:    "unknown indicator",
			req:     ScoreRequest{Symbol: "SPY", Indicator: "vwap", Value: 50},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(&tt.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("validate err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
