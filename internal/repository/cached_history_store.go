package repository

import (
	"context"
	"encoding/json"
	"time"

	"MarketPulse/internal/domain/models"
	pkgcache "MarketPulse/pkg/cache"
)

const (
	barsCacheTTL     = 30 * time.Second
	readingsCacheTTL = 60 * time.Second
)

// CachedHistoryStore fronts the ClickHouse read path with a cache layer.
// Reading-series keys are day granular, so repeated scoring calls within
// a TTL window reuse the same entry even though callers pass fresh
// time ranges. Values are stored as JSON strings because both cache
// backends pass string payloads through unchanged.
type CachedHistoryStore struct {
	next  *CHHistoryStore
	cache pkgcache.Service
}

// NewCachedHistoryStore wraps a ClickHouse store with the given cache.
func NewCachedHistoryStore(next *CHHistoryStore, c pkgcache.Service) *CachedHistoryStore {
	return &CachedHistoryStore{next: next, cache: c}
}

func (s *CachedHistoryStore) GetReadings(ctx context.Context, symbol string, kind models.IndicatorKind, from, to time.Time) ([]models.IndicatorReading, error) {
	key := pkgcache.GenerateKeyWithParams("readings",
		symbol, string(kind), from.Format("2006-01-02"), to.Format("2006-01-02"))

	var raw string
	if err := s.cache.Get(ctx, key, &raw); err == nil {
		var out []models.IndicatorReading
		if json.Unmarshal([]byte(raw), &out) == nil {
			return out, nil
		}
	}

	out, err := s.next.GetReadings(ctx, symbol, kind, from, to)
	if err != nil {
		return nil, err
	}
	if len(out) > 0 {
		if b, err := json.Marshal(out); err == nil {
			_ = s.cache.Set(ctx, key, string(b), readingsCacheTTL)
		}
	}
	return out, nil
}

func (s *CachedHistoryStore) GetLatestNBars(ctx context.Context, symbol string, n int) ([]models.DailyBar, error) {
	key := pkgcache.GenerateKeyWithParams("bars", symbol, n)

	var raw string
	if err := s.cache.Get(ctx, key, &raw); err == nil {
		var out []models.DailyBar
		if json.Unmarshal([]byte(raw), &out) == nil {
			return out, nil
		}
	}

	out, err := s.next.GetLatestNBars(ctx, symbol, n)
	if err != nil {
		return nil, err
	}
	if len(out) > 0 {
		if b, err := json.Marshal(out); err == nil {
			_ = s.cache.Set(ctx, key, string(b), barsCacheTTL)
		}
	}
	return out, nil
}
