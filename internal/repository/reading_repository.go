package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"MarketPulse/internal/domain/models"
	"MarketPulse/internal/domain/repository"
	pkgkafka "MarketPulse/pkg/kafka"
)

// ClickHouseReadingStore implements ReadingWriter for ClickHouse.
type ClickHouseReadingStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseReadingStore creates ClickHouse storage for raw indicator readings.
func NewClickHouseReadingStore(db *sql.DB, table string) repository.ReadingWriter {
	return &ClickHouseReadingStore{db: db, table: table}
}

func (s *ClickHouseReadingStore) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func (s *ClickHouseReadingStore) Store(ctx context.Context, r *models.IndicatorReading) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, symbol, kind, value, source, event_id) VALUES (?, ?, ?, ?, ?, ?)", s.table)
	// Idempotency key derived from symbol+kind+timestamp
	eventID := fmt.Sprintf("%s-%s-%d", r.Symbol, r.Kind, r.At.UnixNano())
	_, err := s.db.ExecContext(ctx, q,
		r.At,
		r.Symbol,
		string(r.Kind),
		r.Value,
		"feed",
		eventID,
	)
	return err
}

func (s *ClickHouseReadingStore) StoreBatch(ctx context.Context, readings []*models.IndicatorReading) error {
	if len(readings) == 0 {
		return nil
	}
	// Batch insert using VALUES multi-row to reduce round-trips.
	// Chunk size tuned to 2000 rows per batch.
	const chunkSize = 2000
	for start := 0; start < len(readings); start += chunkSize {
		end := start + chunkSize
		if end > len(readings) {
			end = len(readings)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*6)
		for _, r := range readings[start:end] {
			if r == nil || r.Symbol == "" || r.At.IsZero() || !models.IsValidKind(r.Kind) {
				continue
			}
			eventID := fmt.Sprintf("%s-%s-%d", r.Symbol, r.Kind, r.At.UnixNano())
			values = append(values, "(?, ?, ?, ?, ?, ?)")
			args = append(args,
				r.At,
				r.Symbol,
				string(r.Kind),
				r.Value,
				"feed",
				eventID,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (ts, symbol, kind, value, source, event_id) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseReadingStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseReadingStore) Close() error {
	return nil // Managed by pkg
}

// KafkaReadingPublisher implements ReadingPublisher for Kafka.
type KafkaReadingPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaReadingPublisher creates a Kafka publisher for raw readings.
func NewKafkaReadingPublisher(producer *pkgkafka.Producer, topic string) repository.ReadingPublisher {
	return &KafkaReadingPublisher{producer: producer, topic: topic}
}

func (p *KafkaReadingPublisher) PublishReading(ctx context.Context, r *models.IndicatorReading) error {
	return p.producer.Publish(ctx, p.topic, []byte(r.Symbol), readingPayload(r))
}

func (p *KafkaReadingPublisher) PublishReadingBatch(ctx context.Context, readings []*models.IndicatorReading) error {
	if len(readings) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(readings))
	for i, r := range readings {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(r.Symbol),
			Value: readingPayload(r),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaReadingPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func readingPayload(r *models.IndicatorReading) map[string]interface{} {
	return map[string]interface{}{
		"symbol": r.Symbol,
		"kind":   string(r.Kind),
		"t":      r.At.UnixMilli(),
		"v":      r.Value,
	}
}

// KafkaPublisher implements Publisher for Kafka.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher for evaluated signals.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev *models.SymbolEvaluation) error {
	payload, err := evaluationPayload(ev)
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, p.topic, []byte(ev.Symbol), payload)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func evaluationPayload(ev *models.SymbolEvaluation) (map[string]interface{}, error) {
	if ev == nil || ev.Composite == nil {
		return nil, fmt.Errorf("evaluation has no composite signal")
	}
	scores, err := json.Marshal(ev.Scores)
	if err != nil {
		return nil, fmt.Errorf("marshal scores: %w", err)
	}
	return map[string]interface{}{
		"symbol": ev.Symbol,
		"t":      ev.AsOf.Format(time.RFC3339),
		"score":  ev.Composite.CompositeScore,
		"signal": string(ev.Composite.Signal),
		"scores": json.RawMessage(scores),
	}, nil
}
