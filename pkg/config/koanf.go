package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tair/checkin-ledger/pkg/auth"
	"github.com/tair/checkin-ledger/pkg/database"
	"github.com/tair/checkin-ledger/pkg/tracing"
)

// ConfigPathEnvVar points at an optional YAML file
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched when CONFIG_PATH is unset
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/checkin-ledger/config.yaml",
}

// envMappings maps environment variable names to koanf paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	"service_name":    "service.name",
	"environment":     "service.environment",
	"log_level":       "service.log_level",
	"port":            "http.port",
	"request_timeout": "http.request_timeout",
	"read_timeout":    "http.read_timeout",
	"write_timeout":   "http.write_timeout",
	"allowed_origins": "http.allowed_origins",
	"enable_swagger":  "http.enable_swagger",

	"rate_limit_enabled":      "http.rate_limit.enabled",
	"rate_limit_max_requests": "http.rate_limit.max_requests",
	"rate_limit_window":       "http.rate_limit.window",

	"db_driver":            "database.driver",
	"db_host":              "database.host",
	"db_port":              "database.port",
	"db_user":              "database.user",
	"db_password":          "database.password",
	"db_name":              "database.name",
	"db_sslmode":           "database.sslmode",
	"db_path":              "database.path",
	"db_max_open_conns":    "database.max_open_conns",
	"db_max_idle_conns":    "database.max_idle_conns",
	"db_conn_max_lifetime": "database.conn_max_lifetime",
	"db_slow_threshold":    "database.slow_threshold",

	"ledger_max_retries":  "ledger.max_retries",
	"ledger_base_backoff": "ledger.base_backoff",

	"notifier_backend":     "notifier.backend",
	"notifier_buffer_size": "notifier.buffer_size",

	"redis_addr":     "redis.addr",
	"redis_password": "redis.password",
	"redis_db":       "redis.db",

	"kafka_enabled":         "kafka.enabled",
	"kafka_brokers":         "kafka.brokers",
	"kafka_group_id":        "kafka.group_id",
	"kafka_requested_topic": "kafka.requested_topic",
	"kafka_activity_topic":  "kafka.activity_topic",

	"jwt_secret":    "auth.jwt_secret",
	"jwt_issuer":    "auth.issuer",
	"jwt_token_ttl": "auth.token_ttl",
	"auth_disabled": "auth.disabled",

	"tracing_enabled":      "tracing.enabled",
	"jaeger_endpoint":      "tracing.jaeger_endpoint",
	"tracing_sample_ratio": "tracing.sample_ratio",
	"service_version":      "tracing.service_version",

	"analytics_cache_enabled": "analytics.cache_enabled",
	"analytics_cache_ttl":     "analytics.cache_ttl",
}

// sliceFields are comma separated when they come from the environment
var sliceFields = []string{"http.allowed_origins", "kafka.brokers"}

func defaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:        "checkin-service",
			Environment: "development",
			LogLevel:    "info",
		},
		HTTP: HTTPConfig{
			Port:           "8080",
			RequestTimeout: 30 * time.Second,
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   30 * time.Second,
			AllowedOrigins: []string{"*"},
			EnableSwagger:  true,
			RateLimit: RateLimitConfig{
				MaxRequests: 120,
				Window:      time.Minute,
			},
		},
		Database: database.Config{
			Driver:          database.DriverPostgres,
			Host:            "localhost",
			Port:            "5432",
			User:            "postgres",
			Password:        "postgres",
			DBName:          "checkin_db",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			SlowThreshold:   200 * time.Millisecond,
		},
		Ledger: LedgerConfig{
			MaxRetries:  3,
			BaseBackoff: 10 * time.Millisecond,
		},
		Notifier: NotifierConfig{
			Backend:    NotifierMemory,
			BufferSize: 16,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Kafka: KafkaConfig{
			Enabled:        false,
			Brokers:        []string{"localhost:9092"},
			GroupID:        "checkin-service",
			RequestedTopic: "checkin-requested",
			ActivityTopic:  "checkin-activity",
		},
		Auth: auth.Config{
			Issuer:   "checkin-ledger",
			TokenTTL: 12 * time.Hour,
		},
		Tracing: tracing.Config{
			Enabled:        true,
			JaegerEndpoint: "http://localhost:14268/api/traces",
			SampleRatio:    1,
			ServiceVersion: "1.0.0",
		},
		Analytics: AnalyticsConfig{
			CacheEnabled: false,
			CacheTTL:     10 * time.Second,
		},
	}
}

// Load layers struct defaults, an optional YAML file and environment variables
func Load() (*Config, error) {
	return load(findConfigFile())
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// DB_HOST -> database.host, LEDGER_MAX_RETRIES -> ledger.max_retries
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := splitSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}

func splitSliceFields(k *koanf.Koanf) error {
	for _, field := range sliceFields {
		raw, ok := k.Get(field).(string)
		if !ok {
			continue
		}
		parts := strings.Split(raw, ",")
		values := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				values = append(values, p)
			}
		}
		if err := k.Set(field, values); err != nil {
			return err
		}
	}
	return nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
