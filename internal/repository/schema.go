package repository

// SchemaStatements returns idempotent DDL for every table the service touches.
// Executed at startup through the clickhouse client's InitSchema.
func SchemaStatements() []string {
	return []string{
		`CREATE DATABASE IF NOT EXISTS marketpulse`,
		`CREATE TABLE IF NOT EXISTS ` + readingsTable + ` (
            ts       DateTime64(3, 'UTC'),
            symbol   LowCardinality(String),
            kind     LowCardinality(String),
            value    Float64,
            source   LowCardinality(String),
            event_id String
        ) ENGINE = ReplacingMergeTree
        PARTITION BY toYYYYMM(ts)
        ORDER BY (symbol, kind, ts, event_id)`,
		`CREATE TABLE IF NOT EXISTS ` + barsTable + ` (
            day    Date,
            symbol LowCardinality(String),
            open   Float64,
            high   Float64,
            low    Float64,
            close  Float64,
            volume Float64
        ) ENGINE = ReplacingMergeTree
        PARTITION BY toYYYYMM(day)
        ORDER BY (symbol, day)`,
		`CREATE TABLE IF NOT EXISTS ` + signalsTable + ` (
            ts     DateTime64(3, 'UTC'),
            symbol LowCardinality(String),
            score  Float64,
            signal LowCardinality(String),
            scores String
        ) ENGINE = MergeTree
        PARTITION BY toYYYYMM(ts)
        ORDER BY (symbol, ts)`,
	}
}
