package repository

import (
	"context"
	"time"

	"MarketPulse/internal/domain/models"
)

// ReadingSource is the read side of the indicator history collaborator. The
// scoring core never talks to storage directly; it consumes this contract.
// Implementations return raw readings, possibly several per calendar day —
// deduplication and domain filtering are the history accessor's job.
type ReadingSource interface {
	GetReadings(ctx context.Context, symbol string, kind models.IndicatorKind, from, to time.Time) ([]models.IndicatorReading, error)
}

// BarSource provides daily OHLCV bars for computing current indicator values.
type BarSource interface {
	GetLatestNBars(ctx context.Context, symbol string, n int) ([]models.DailyBar, error)
}

// ReadingWriter is the ingest side: batch-persist raw indicator readings.
type ReadingWriter interface {
	Init(ctx context.Context) error
	Store(ctx context.Context, r *models.IndicatorReading) error
	StoreBatch(ctx context.Context, readings []*models.IndicatorReading) error
	Health(ctx context.Context) error
	Close() error
}

// SignalStore persists evaluated composite signals.
type SignalStore interface {
	StoreEvaluation(ctx context.Context, ev *models.SymbolEvaluation) error
}

// ReadingPublisher emits raw readings to the message backend for the
// consumer-side writer to persist.
type ReadingPublisher interface {
	PublishReading(ctx context.Context, r *models.IndicatorReading) error
	PublishReadingBatch(ctx context.Context, readings []*models.IndicatorReading) error
	Close() error
}

// Publisher emits evaluated composite signals to a message backend.
type Publisher interface {
	Publish(ctx context.Context, ev *models.SymbolEvaluation) error
	Close() error
}

// ReadingStream is an upstream feed of raw indicator readings.
type ReadingStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.IndicatorReading, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Metrics abstracts operational counters so use cases stay testable.
type Metrics interface {
	RecordEvaluation(symbol string, signal string)
	RecordFallback(kind, reason string)
	RecordCorruption(kind string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
