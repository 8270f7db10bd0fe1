package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"MarketPulse/internal/domain/models"
	domrepo "MarketPulse/internal/domain/repository"
	pkgkafka "MarketPulse/pkg/kafka"
)

// KafkaReadingsHandler consumes Kafka reading messages and writes to storage.
type KafkaReadingsHandler struct {
	topic   string
	storage domrepo.ReadingWriter
	metrics domrepo.Metrics
}

func NewKafkaReadingsHandler(topic string, storage domrepo.ReadingWriter, metrics domrepo.Metrics) *KafkaReadingsHandler {
	return &KafkaReadingsHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaReadingsHandler) Topic() string { return h.topic }

// incoming message schema: {symbol, kind, t, v}
func (h *KafkaReadingsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol string  `json:"symbol"`
		Kind   string  `json:"kind"`
		T      int64   `json:"t"`
		V      float64 `json:"v"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	kind := models.IndicatorKind(m.Kind)
	if !models.IsValidKind(kind) {
		h.metrics.RecordError("consumer_kind")
		return fmt.Errorf("unknown indicator kind %q", m.Kind)
	}
	at := time.UnixMilli(m.T).UTC()
	if m.T < 1e11 { // seconds, not ms
		at = time.Unix(m.T, 0).UTC()
	}
	// E2E latency from event time to now (approx)
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(at).Seconds())

	start := time.Now()
	err := h.storage.Store(ctx, &models.IndicatorReading{
		Symbol: m.Symbol,
		Kind:   kind,
		At:     at,
		Value:  m.V,
	})
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaReadingsHandler)(nil)
