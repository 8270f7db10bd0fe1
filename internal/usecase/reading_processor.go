package usecase

import (
	"context"
	"fmt"
	"time"

	"MarketPulse/internal/domain/models"
	drepo "MarketPulse/internal/domain/repository"
)

// ReadingProcessor processes indicator readings and routes them to the
// configured backend.
type ReadingProcessor struct {
	pub     drepo.ReadingPublisher
	store   drepo.ReadingWriter
	metrics drepo.Metrics
	backend string
	batchSz int
	batchTO time.Duration
}

// NewReadingProcessor creates a new ReadingProcessor instance.
func NewReadingProcessor(
	pub drepo.ReadingPublisher,
	store drepo.ReadingWriter,
	metrics drepo.Metrics,
	backend string,
	batchSz int,
	batchTO time.Duration,
) *ReadingProcessor {
	return &ReadingProcessor{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
		batchSz: batchSz,
		batchTO: batchTO,
	}
}

// Process routes a single reading to the configured backend.
func (p *ReadingProcessor) Process(ctx context.Context, r *models.IndicatorReading) error {
	if r == nil {
		return fmt.Errorf("reading is nil")
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.PublishReading(ctx, r)
	case "clickhouse":
		err = p.store.Store(ctx, r)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process reading: %w", err)
	}

	p.metrics.RecordLatency("process", time.Since(start).Seconds())
	return nil
}

// ProcessBatch routes multiple readings in a batch.
func (p *ReadingProcessor) ProcessBatch(ctx context.Context, readings []*models.IndicatorReading) error {
	if len(readings) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.PublishReadingBatch(ctx, readings)
	case "clickhouse":
		err = p.store.StoreBatch(ctx, readings)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}

	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())
	return nil
}

// Close closes underlying resources if available.
func (p *ReadingProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
