package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"MarketPulse/internal/domain/models"
	pkgch "MarketPulse/pkg/clickhouse"
	applogger "MarketPulse/pkg/logger"
)

const (
	readingsTable = "marketpulse.indicator_readings"
	barsTable     = "marketpulse.daily_bars"
	signalsTable  = "marketpulse.composite_signals"
)

// CHHistoryStore is the read side of the ClickHouse persistence: historical
// indicator readings and daily bars for the scoring core, plus the sink for
// evaluated composite signals.
type CHHistoryStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHHistoryStore(ch *pkgch.Client) *CHHistoryStore {
	return &CHHistoryStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHHistoryStore) SetLogger(l *applogger.Logger) { s.l = l }

// GetReadings returns raw readings for one (symbol, kind) in [from, to],
// oldest first. Several readings per day are possible; deduplication belongs
// to the history accessor.
func (s *CHHistoryStore) GetReadings(ctx context.Context, symbol string, kind models.IndicatorKind, from, to time.Time) ([]models.IndicatorReading, error) {
	start := time.Now()
	const q = `
        SELECT ts, symbol, kind, value
        FROM ` + readingsTable + `
        WHERE symbol = ? AND kind = ? AND ts >= ? AND ts <= ?
        ORDER BY ts ASC
    `
	rows, err := s.db.QueryContext(ctx, q, symbol, string(kind), from, to)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_readings query error",
				applogger.String("symbol", symbol),
				applogger.String("kind", string(kind)),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get readings: %w", err)
	}
	defer rows.Close()

	out := make([]models.IndicatorReading, 0, 128)
	for rows.Next() {
		var r models.IndicatorReading
		var k string
		if err := rows.Scan(&r.At, &r.Symbol, &k, &r.Value); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse get_readings scan error",
					applogger.String("symbol", symbol),
					applogger.String("kind", string(kind)),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		r.Kind = models.IndicatorKind(k)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_readings rows error",
				applogger.String("symbol", symbol),
				applogger.String("kind", string(kind)),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse get_readings ok",
			applogger.String("symbol", symbol),
			applogger.String("kind", string(kind)),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

// GetLatestNBars returns the most recent n daily bars, oldest first.
func (s *CHHistoryStore) GetLatestNBars(ctx context.Context, symbol string, n int) ([]models.DailyBar, error) {
	start := time.Now()
	const q = `
        SELECT day, symbol, open, high, low, close, volume
        FROM ` + barsTable + `
        WHERE symbol = ?
        ORDER BY day DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, symbol, n)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse latest_bars query error",
				applogger.String("symbol", symbol),
				applogger.Int("limit", n),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get latest bars: %w", err)
	}
	defer rows.Close()

	tmp := make([]models.DailyBar, 0, n)
	for rows.Next() {
		var b models.DailyBar
		if err := rows.Scan(&b.Day, &b.Symbol, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse latest_bars scan error",
					applogger.String("symbol", symbol),
					applogger.Int("limit", n),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		tmp = append(tmp, b)
	}
	if err := rows.Err(); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse latest_bars rows error",
				applogger.String("symbol", symbol),
				applogger.Int("limit", n),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("rows: %w", err)
	}
	// reverse to ASC
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}
	if s.l != nil {
		s.l.Info("clickhouse latest_bars ok",
			applogger.String("symbol", symbol),
			applogger.Int("limit", n),
			applogger.Int("rows", len(tmp)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return tmp, nil
}

// StoreEvaluation persists one finished composite evaluation.
func (s *CHHistoryStore) StoreEvaluation(ctx context.Context, ev *models.SymbolEvaluation) error {
	if ev == nil || ev.Composite == nil {
		return fmt.Errorf("evaluation has no composite signal")
	}
	scores, err := json.Marshal(ev.Scores)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}
	const q = `
        INSERT INTO ` + signalsTable + ` (ts, symbol, score, signal, scores)
        VALUES (?, ?, ?, ?, ?)
    `
	if _, err := s.db.ExecContext(ctx, q,
		ev.AsOf,
		ev.Symbol,
		ev.Composite.CompositeScore,
		string(ev.Composite.Signal),
		string(scores),
	); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse store_evaluation error",
				applogger.String("symbol", ev.Symbol),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("store evaluation: %w", err)
	}
	return nil
}
