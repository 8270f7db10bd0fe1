package usecase

import (
	"context"

	"MarketPulse/internal/domain/models"
	"MarketPulse/internal/services/history"
	xhttp "MarketPulse/pkg/http"
)

// HistoryUseCase provides business logic for retrieving deduplicated
// indicator history.
type HistoryUseCase struct {
	acc *history.Accessor
}

func NewHistoryUseCase(acc *history.Accessor) *HistoryUseCase {
	return &HistoryUseCase{acc: acc}
}

type GetHistoryParams struct {
	Symbol string
	Kind   models.IndicatorKind
	Days   int
}

type GetHistoryResult struct {
	Symbol string                   `json:"symbol"`
	Kind   models.IndicatorKind     `json:"kind"`
	Days   int                      `json:"days"`
	Count  int                      `json:"count"`
	Points []models.HistoricalPoint `json:"points"`
}

func (uc *HistoryUseCase) GetHistory(ctx context.Context, p GetHistoryParams) (*GetHistoryResult, error) {
	if p.Symbol == "" {
		return nil, xhttp.BadRequestError("symbol required")
	}
	if !models.IsValidKind(p.Kind) {
		return nil, xhttp.BadRequestErrorf("unknown indicator kind %q", p.Kind).WithParam("kind", p.Kind)
	}
	if p.Days <= 0 {
		p.Days = history.DefaultLookbackDays
	}
	if p.Days > 3650 {
		p.Days = 3650
	}

	points, err := uc.acc.Series(ctx, p.Symbol, p.Kind, p.Days)
	if err != nil {
		return nil, xhttp.InternalError("get history").WithError(err)
	}

	return &GetHistoryResult{
		Symbol: p.Symbol,
		Kind:   p.Kind,
		Days:   p.Days,
		Count:  len(points),
		Points: points,
	}, nil
}
