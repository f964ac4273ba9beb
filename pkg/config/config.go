package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"MarketDash/pkg/util"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Host            string        `yaml:"host"`
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		SlowThreshold   time.Duration `yaml:"slow_threshold"`
		PingInterval    time.Duration `yaml:"ping_interval"`
		CORS            bool          `yaml:"cors"`
		AllowOrigins    []string      `yaml:"allow_origins"`
	} `yaml:"server"`
	Log struct {
		Level   string `yaml:"level"`
		Format  string `yaml:"format"`
		Output  string `yaml:"output"`
		Collect struct {
			Enabled   bool          `yaml:"enabled"`
			Topic     string        `yaml:"topic"`
			Interval  time.Duration `yaml:"interval"`
			Threshold int           `yaml:"threshold"`
		} `yaml:"collect"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Upstream struct {
		BaseURL         string        `yaml:"base_url"`
		Timeout         time.Duration `yaml:"timeout"`
		DecisionTimeout time.Duration `yaml:"decision_timeout"`
		Watchlist       []string      `yaml:"watchlist"`
		RefreshInterval time.Duration `yaml:"refresh_interval"`
		HistoryPeriod   string        `yaml:"history_period"`
	} `yaml:"upstream"`
	Cache struct {
		Backend         string        `yaml:"backend"`
		MaxEntries      int           `yaml:"max_entries"`
		DecisionTTL     time.Duration `yaml:"decision_ttl"`
		SnapshotTTL     time.Duration `yaml:"snapshot_ttl"`
		SessionTTL      time.Duration `yaml:"session_ttl"`
		CleanupInterval time.Duration `yaml:"cleanup_interval"`
	} `yaml:"cache"`
	Redis struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Archive struct {
		Backend      string        `yaml:"backend"`
		BatchSize    int           `yaml:"batch_size"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
	} `yaml:"archive"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
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
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Prewarm struct {
		Enabled    bool          `yaml:"enabled"`
		Schedule   string        `yaml:"schedule"`
		TopN       int           `yaml:"top_n"`
		Workers    int           `yaml:"workers"`
		RetryLimit int           `yaml:"retry_limit"`
		RetryDelay time.Duration `yaml:"retry_delay"`
		DedupeTTL  time.Duration `yaml:"dedupe_ttl"`
	} `yaml:"prewarm"`
	RateLimit struct {
		AnalyseRPS   float64       `yaml:"analyse_rps"`
		AnalyseBurst int           `yaml:"analyse_burst"`
		IdleTTL      time.Duration `yaml:"idle_ttl"`
	} `yaml:"ratelimit"`
}

const (
	CacheMemory  = "memory"
	CacheRedis   = "redis"
	CacheLayered = "layered"

	ArchiveNone       = "none"
	ArchiveKafka      = "kafka"
	ArchiveClickHouse = "clickhouse"

	defaultUpstream = "http://127.0.0.1:8000"
)

// Load reads and parses a YAML configuration file, fills defaults and
// validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c, err := Parse(b)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Parse decodes YAML and applies defaults without validating.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()
	return &c, nil
}

// LoadWithEnv loads .env files if present, reads YAML, then lets the
// environment override it.
func LoadWithEnv(path string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := Parse(b)
	if err != nil {
		return nil, err
	}
	c.ApplyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides fields from getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("VITE_API_BASE"); v != "" {
		c.Upstream.BaseURL = v
	}
	if v := getenv("MARKETDASH_UPSTREAM_URL"); v != "" {
		c.Upstream.BaseURL = v
	}
	if v := getenv("MARKETDASH_ENV"); v != "" {
		c.Environment = v
	}
	c.Server.Port = util.ParseIntDefault(getenv("PORT"), c.Server.Port)
	if v := getenv("CORS_ORIGINS"); v != "" {
		c.Server.AllowOrigins = util.SplitCSV(v)
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("WATCHLIST"); v != "" {
		c.Upstream.Watchlist = util.SplitCSV(v)
	}
	if v := getenv("CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := getenv("ARCHIVE_BACKEND"); v != "" {
		c.Archive.Backend = v
	}
	if v := getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = util.SplitCSV(v)
	}
	if v := getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.PingInterval == 0 {
		c.Server.PingInterval = 30 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
	if c.Log.Collect.Topic == "" {
		c.Log.Collect.Topic = "marketdash.logs"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Upstream.BaseURL == "" {
		c.Upstream.BaseURL = defaultUpstream
	}
	if c.Upstream.Timeout == 0 {
		c.Upstream.Timeout = 15 * time.Second
	}
	if c.Upstream.DecisionTimeout == 0 {
		c.Upstream.DecisionTimeout = 3 * time.Minute
	}
	if c.Upstream.RefreshInterval == 0 {
		c.Upstream.RefreshInterval = 60 * time.Second
	}
	if c.Upstream.HistoryPeriod == "" {
		c.Upstream.HistoryPeriod = "1y"
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheMemory
	}
	if c.Cache.CleanupInterval == 0 {
		c.Cache.CleanupInterval = time.Minute
	}
	if c.Cache.DecisionTTL == 0 {
		c.Cache.DecisionTTL = 10 * time.Minute
	}
	if c.Cache.SnapshotTTL == 0 {
		c.Cache.SnapshotTTL = 2 * time.Minute
	}
	if c.Cache.SessionTTL == 0 {
		c.Cache.SessionTTL = 30 * time.Minute
	}
	if c.Archive.Backend == "" {
		c.Archive.Backend = ArchiveNone
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "marketdash.decisions"
	}
	if c.Prewarm.TopN == 0 {
		c.Prewarm.TopN = 5
	}
	if c.Prewarm.Schedule == "" {
		c.Prewarm.Schedule = "@every 15m"
	}
	if c.Prewarm.DedupeTTL == 0 {
		c.Prewarm.DedupeTTL = 10 * time.Minute
	}
	if c.RateLimit.AnalyseRPS == 0 {
		c.RateLimit.AnalyseRPS = 0.5
	}
	if c.RateLimit.AnalyseBurst == 0 {
		c.RateLimit.AnalyseBurst = 3
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("upstream.base_url must be an absolute URL, got %q", c.Upstream.BaseURL)
	}
	if c.Upstream.RefreshInterval < time.Second {
		return fmt.Errorf("upstream.refresh_interval must be at least 1s")
	}
	switch c.Upstream.HistoryPeriod {
	case "1mo", "3mo", "6mo", "1y", "2y", "5y":
	default:
		return fmt.Errorf("upstream.history_period %q is not a supported period", c.Upstream.HistoryPeriod)
	}

	switch c.Cache.Backend {
	case CacheMemory:
	case CacheRedis, CacheLayered:
		if c.Redis.Host == "" {
			return fmt.Errorf("redis.host is required for cache.backend=%s", c.Cache.Backend)
		}
	default:
		return fmt.Errorf("cache.backend must be memory, redis or layered, got '%s'", c.Cache.Backend)
	}

	switch c.Archive.Backend {
	case ArchiveNone:
	case ArchiveKafka:
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers cannot be empty for archive.backend=kafka")
		}
		if c.ClickHouse.Host == "" {
			return fmt.Errorf("clickhouse.host is required for archive.backend=kafka")
		}
	case ArchiveClickHouse:
		if c.ClickHouse.Host == "" {
			return fmt.Errorf("clickhouse.host is required for archive.backend=clickhouse")
		}
	default:
		return fmt.Errorf("archive.backend must be 'none', 'kafka' or 'clickhouse', got '%s'", c.Archive.Backend)
	}

	if c.Prewarm.Enabled && c.Redis.Host == "" {
		return fmt.Errorf("redis.host is required when prewarm is enabled")
	}
	if c.Log.Collect.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when log.collect is enabled")
	}
	return nil
}

// NeedsRedis reports whether any enabled component uses Redis.
func (c *Config) NeedsRedis() bool {
	return c.Cache.Backend != CacheMemory || c.Prewarm.Enabled
}

// NeedsKafka reports whether any enabled component uses Kafka.
func (c *Config) NeedsKafka() bool {
	return c.Archive.Backend == ArchiveKafka || c.Log.Collect.Enabled
}

// NeedsClickHouse reports whether the signal archive is on.
func (c *Config) NeedsClickHouse() bool {
	return c.Archive.Backend != ArchiveNone
}
