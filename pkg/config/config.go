package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type FallbackStats struct {
	Mean   float64 `yaml:"mean"`
	StdDev float64 `yaml:"stddev"`
}

// QualityThresholds recalibrates the per-indicator corruption checks.
type QualityThresholds struct {
	MinStdDev   float64 `yaml:"min_stddev"`
	MinRange    float64 `yaml:"min_range"`
	MaxDupRatio float64 `yaml:"max_dup_ratio"`
	DupMinCount int     `yaml:"dup_min_count"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Backend struct {
		Type         string        `yaml:"type"`
		BatchSize    int           `yaml:"batch_size"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
	} `yaml:"backend"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		SignalsTopic string   `yaml:"signals_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Feed struct {
		APIKey         string        `yaml:"api_key"`
		WebSocketURL   string        `yaml:"websocket_url"`
		Symbols        []string      `yaml:"symbols"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"feed"`
	Scoring struct {
		LookbackDays  int           `yaml:"lookback_days"`
		MinDataPoints int           `yaml:"min_data_points"`
		ZClamp        float64       `yaml:"z_clamp"`
		EvalWorkers   int           `yaml:"eval_workers"`
		Weights       struct {
			RSI           float64 `yaml:"rsi"`
			MACD          float64 `yaml:"macd"`
			BollingerPctB float64 `yaml:"bollinger_pct_b"`
			MATrend       float64 `yaml:"ma_trend"`
		} `yaml:"weights"`
		BuyThreshold  float64 `yaml:"buy_threshold"`
		SellThreshold float64 `yaml:"sell_threshold"`
		ScaleDivisor  float64 `yaml:"scale_divisor"`
		ATRFactor     float64 `yaml:"atr_factor"`
		Confidence    struct {
			HighMinPoints   int     `yaml:"high_min_points"`
			HighMaxAbsZ     float64 `yaml:"high_max_abs_z"`
			MediumMinPoints int     `yaml:"medium_min_points"`
			MediumMaxAbsZ   float64 `yaml:"medium_max_abs_z"`
		} `yaml:"confidence"`
		Quality  map[string]QualityThresholds `yaml:"quality"`
		Fallback struct {
			Defaults  map[string]FallbackStats            `yaml:"defaults"`
			Overrides map[string]map[string]FallbackStats `yaml:"overrides"`
		} `yaml:"fallback"`
		CacheTTL struct {
			Score  time.Duration `yaml:"score"`
			Signal time.Duration `yaml:"signal"`
		} `yaml:"cache_ttl"`
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"scoring"`
	Alert struct {
		Enabled     bool          `yaml:"enabled"`
		WebhookURL  string        `yaml:"webhook_url"`
		MinAbsScore float64       `yaml:"min_abs_score"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"alert"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables
	if v := os.Getenv("FEED_API_KEY"); v != "" {
		c.Feed.APIKey = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Feed.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("ALERT_WEBHOOK_URL"); v != "" {
		c.Alert.WebhookURL = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Backend.Type == "" {
		return fmt.Errorf("backend.type is required")
	}
	if c.Backend.Type != "kafka" && c.Backend.Type != "clickhouse" {
		return fmt.Errorf("backend.type must be 'kafka' or 'clickhouse', got '%s'", c.Backend.Type)
	}
	if len(c.Feed.Symbols) == 0 {
		return fmt.Errorf("feed.symbols cannot be empty")
	}
	if c.Scoring.LookbackDays < 0 {
		return fmt.Errorf("scoring.lookback_days cannot be negative")
	}
	w := c.Scoring.Weights
	if sum := w.RSI + w.MACD + w.BollingerPctB + w.MATrend; sum != 0 {
		if sum < 0.99 || sum > 1.01 {
			return fmt.Errorf("scoring.weights must sum to 1.0, got %.4f", sum)
		}
	}
	if c.Alert.Enabled && c.Alert.WebhookURL == "" {
		return fmt.Errorf("alert.webhook_url is required when alerts are enabled")
	}
	return nil
}
