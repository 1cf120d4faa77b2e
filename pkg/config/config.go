package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/tair/checkin-ledger/pkg/auth"
	"github.com/tair/checkin-ledger/pkg/database"
	"github.com/tair/checkin-ledger/pkg/tracing"
)

// Notifier backends
const (
	NotifierMemory   = "memory"
	NotifierRedis    = "redis"
	NotifierPostgres = "postgres"
)

// Config is the full service configuration
type Config struct {
	Service   ServiceConfig   `koanf:"service"`
	HTTP      HTTPConfig      `koanf:"http"`
	Database  database.Config `koanf:"database"`
	Ledger    LedgerConfig    `koanf:"ledger"`
	Notifier  NotifierConfig  `koanf:"notifier"`
	Redis     RedisConfig     `koanf:"redis"`
	Kafka     KafkaConfig     `koanf:"kafka"`
	Auth      auth.Config     `koanf:"auth"`
	Tracing   tracing.Config  `koanf:"tracing"`
	Analytics AnalyticsConfig `koanf:"analytics"`
}

// ServiceConfig identifies the process
type ServiceConfig struct {
	Name        string `koanf:"name"`
	Environment string `koanf:"environment"`
	LogLevel    string `koanf:"log_level"`
}

// IsDevelopment reports whether pretty console logging should be used
func (s ServiceConfig) IsDevelopment() bool {
	return s.Environment == "development"
}

// HTTPConfig configures the API server
type HTTPConfig struct {
	Port           string          `koanf:"port"`
	RequestTimeout time.Duration   `koanf:"request_timeout"`
	ReadTimeout    time.Duration   `koanf:"read_timeout"`
	WriteTimeout   time.Duration   `koanf:"write_timeout"`
	AllowedOrigins []string        `koanf:"allowed_origins"`
	EnableSwagger  bool            `koanf:"enable_swagger"`
	RateLimit      RateLimitConfig `koanf:"rate_limit"`
}

// RateLimitConfig caps API requests per actor. It needs Redis.
type RateLimitConfig struct {
	Enabled     bool          `koanf:"enabled"`
	MaxRequests int           `koanf:"max_requests"`
	Window      time.Duration `koanf:"window"`
}

// LedgerConfig tunes transaction retries
type LedgerConfig struct {
	MaxRetries  int           `koanf:"max_retries"`
	BaseBackoff time.Duration `koanf:"base_backoff"`
}

// NotifierConfig selects the change notifier backend
type NotifierConfig struct {
	Backend    string `koanf:"backend"`
	BufferSize int    `koanf:"buffer_size"`
}

// RedisConfig holds the Redis connection used by the notifier and cache
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// KafkaConfig holds broker and topic settings
type KafkaConfig struct {
	Enabled        bool     `koanf:"enabled"`
	Brokers        []string `koanf:"brokers"`
	GroupID        string   `koanf:"group_id"`
	RequestedTopic string   `koanf:"requested_topic"`
	ActivityTopic  string   `koanf:"activity_topic"`
}

// AnalyticsConfig controls the snapshot cache
type AnalyticsConfig struct {
	CacheEnabled bool          `koanf:"cache_enabled"`
	CacheTTL     time.Duration `koanf:"cache_ttl"`
}

// NeedsRedis reports whether any enabled feature uses the Redis client
func (c *Config) NeedsRedis() bool {
	return c.Notifier.Backend == NotifierRedis || c.Analytics.CacheEnabled || c.HTTP.RateLimit.Enabled
}

// Validate rejects configurations the service cannot start with
func (c *Config) Validate() error {
	var errs []error

	if c.Service.Name == "" {
		errs = append(errs, errors.New("service.name is required"))
	}
	if c.HTTP.Port == "" {
		errs = append(errs, errors.New("http.port is required"))
	}
	if c.HTTP.RequestTimeout <= 0 {
		errs = append(errs, errors.New("http.request_timeout must be positive"))
	}

	switch c.Database.Driver {
	case database.DriverPostgres, database.DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not supported", c.Database.Driver))
	}

	if c.Ledger.MaxRetries < 0 {
		errs = append(errs, errors.New("ledger.max_retries must not be negative"))
	}

	switch c.Notifier.Backend {
	case NotifierMemory, NotifierRedis:
	case NotifierPostgres:
		if c.Database.Driver != database.DriverPostgres {
			errs = append(errs, errors.New("notifier.backend postgres requires database.driver postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("notifier.backend %q is not supported", c.Notifier.Backend))
	}
	if c.Notifier.BufferSize <= 0 {
		errs = append(errs, errors.New("notifier.buffer_size must be positive"))
	}

	if c.NeedsRedis() && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required by the redis notifier, analytics cache and rate limiter"))
	}
	if c.HTTP.RateLimit.Enabled && (c.HTTP.RateLimit.MaxRequests <= 0 || c.HTTP.RateLimit.Window <= 0) {
		errs = append(errs, errors.New("http.rate_limit needs positive max_requests and window"))
	}
	if c.Analytics.CacheEnabled && c.Analytics.CacheTTL <= 0 {
		errs = append(errs, errors.New("analytics.cache_ttl must be positive"))
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("kafka.brokers is required when kafka is enabled"))
		}
		if c.Kafka.GroupID == "" {
			errs = append(errs, errors.New("kafka.group_id is required when kafka is enabled"))
		}
	}

	if !c.Auth.Disabled && c.Auth.Secret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required unless auth is disabled"))
	}

	return errors.Join(errs...)
}
