package scoring

import (
	"context"

	"MarketPulse/internal/domain/models"
	domrepo "MarketPulse/internal/domain/repository"
	"MarketPulse/internal/services/history"
	"MarketPulse/internal/services/quality"
	applogger "MarketPulse/pkg/logger"
)

// Config carries every tunable of the z-score engine so thresholds can be
// recalibrated from configuration without code changes.
type Config struct {
	MinDataPoints   int     // below this the fallback path is taken
	ZClamp          float64 // final z-score is clamped to [-ZClamp, +ZClamp]
	LookbackDays    int
	HighMinPoints   int
	HighMaxAbsZ     float64
	MediumMinPoints int
	MediumMaxAbsZ   float64

	// Per-kind validator thresholds; kinds not present use the calibrated
	// defaults from the quality package.
	Thresholds map[models.IndicatorKind]quality.Thresholds
}

// DefaultConfig returns the documented calibration.
func DefaultConfig() Config {
	return Config{
		MinDataPoints:   10,
		ZClamp:          5,
		LookbackDays:    history.DefaultLookbackDays,
		HighMinPoints:   30,
		HighMaxAbsZ:     3,
		MediumMinPoints: 15,
		MediumMaxAbsZ:   4,
	}
}

// Engine standardizes a current indicator value against the symbol's own
// history, substituting fallback statistics when the history cannot be
// trusted. Score never fails: data-quality problems degrade the result,
// they do not abort the caller's request.
type Engine struct {
	hist     *history.Accessor
	fallback *FallbackTable
	cfg      Config
	l        *applogger.Logger
	metrics  domrepo.Metrics
}

func NewEngine(hist *history.Accessor, fallback *FallbackTable, cfg Config) *Engine {
	if cfg.MinDataPoints <= 0 {
		cfg.MinDataPoints = 10
	}
	if cfg.ZClamp <= 0 {
		cfg.ZClamp = 5
	}
	return &Engine{hist: hist, fallback: fallback, cfg: cfg}
}

// SetLogger injects a structured logger.
func (e *Engine) SetLogger(l *applogger.Logger) { e.l = l }

// SetMetrics injects an operational metrics recorder.
func (e *Engine) SetMetrics(m domrepo.Metrics) { e.metrics = m }

// Score evaluates one (symbol, kind, currentValue) triple. A failed or
// empty history fetch is treated as an empty series and routed through the
// fallback path; the underlying error never reaches the caller.
func (e *Engine) Score(ctx context.Context, symbol string, kind models.IndicatorKind, currentValue float64) models.ZScoreResult {
	points, err := e.hist.Series(ctx, symbol, kind, e.cfg.LookbackDays)
	if err != nil {
		if e.l != nil {
			e.l.Warn("history fetch failed, falling back",
				applogger.String("symbol", symbol),
				applogger.String("kind", string(kind)),
				applogger.Error(err),
			)
		}
		if e.metrics != nil {
			e.metrics.RecordError("history_fetch")
		}
		points = nil
	}

	report := quality.Validate(points, e.thresholds(kind))
	res := models.ZScoreResult{
		Symbol:             symbol,
		Kind:               kind,
		CurrentValue:       currentValue,
		DataPoints:         len(points),
		CorruptionDetected: report.Corrupted,
	}
	if report.Corrupted && e.metrics != nil {
		e.metrics.RecordCorruption(string(kind))
	}

	if report.Corrupted || len(points) < e.cfg.MinDataPoints {
		params := e.fallback.For(symbol, kind)
		res.FallbackUsed = true
		if report.Corrupted {
			res.FallbackReason = models.ReasonCorruptionDetected
		} else {
			res.FallbackReason = models.ReasonInsufficientData
		}
		if params.StdDev > 0 {
			res.ZScore = (currentValue - params.Mean) / params.StdDev
		}
		if e.metrics != nil {
			e.metrics.RecordFallback(string(kind), res.FallbackReason)
		}
	} else {
		mean, stddev := SampleMeanStdDev(history.Values(points))
		if stddev > 0 {
			res.ZScore = (currentValue - mean) / stddev
		}
		// stddev == 0 leaves z at 0: degenerate but not an error
	}

	res.ZScore = clamp(res.ZScore, -e.cfg.ZClamp, e.cfg.ZClamp)
	res.Confidence = e.confidence(res.DataPoints, res.ZScore)
	return res
}

func (e *Engine) thresholds(kind models.IndicatorKind) quality.Thresholds {
	if th, ok := e.cfg.Thresholds[kind]; ok {
		return th
	}
	return quality.DefaultThresholds(kind)
}

func (e *Engine) confidence(points int, z float64) models.Confidence {
	abs := z
	if abs < 0 {
		abs = -abs
	}
	switch {
	case points >= e.cfg.HighMinPoints && abs <= e.cfg.HighMaxAbsZ:
		return models.ConfidenceHigh
	case points >= e.cfg.MediumMinPoints && abs <= e.cfg.MediumMaxAbsZ:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}
