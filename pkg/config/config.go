// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Keywords, Documents, Postgres, Kafka, Redis, Storage, etc.).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lou463/Underscore-Resume-BETA01/internal/matcher/tokenizer"
	apperrors "github.com/lou463/Underscore-Resume-BETA01/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Keywords  tokenizer.Config `yaml:"keywords"`
	Documents DocumentsConfig  `yaml:"documents"`
	ATS       ATSConfig        `yaml:"ats"`
	Postgres  PostgresConfig   `yaml:"postgres"`
	Kafka     KafkaConfig      `yaml:"kafka"`
	Redis     RedisConfig      `yaml:"redis"`
	Storage   StorageConfig    `yaml:"storage"`
	RateLimit RateLimitConfig  `yaml:"rateLimit"`
	CORS      CORSConfig       `yaml:"cors"`
	Analytics AnalyticsConfig  `yaml:"analytics"`
	Logging   LoggingConfig    `yaml:"logging"`
	Metrics   MetricsConfig    `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	MaxBodyBytes    int64         `yaml:"maxBodyBytes"`
}

// DocumentsConfig limits document size and text extraction time.
type DocumentsConfig struct {
	MaxBytes       int64         `yaml:"maxBytes"`
	ExtractTimeout time.Duration `yaml:"extractTimeout"`
}

// ATSConfig holds the comparison chart's reference line and the placeholder
// values used for axes the caller does not supply.
type ATSConfig struct {
	IndustryAverage float64                       `yaml:"industryAverage"`
	Placeholders    map[string]map[string]float64 `yaml:"placeholders"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Enabled       bool        `yaml:"enabled"`
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	ScoreEvents string `yaml:"scoreEvents"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// StorageConfig points at the S3-compatible bucket holding uploaded resumes.
type StorageConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"accessKeyId"`
	SecretAccessKey string `yaml:"secretAccessKey"`
}

// RateLimitConfig controls the per-client token bucket on the API.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
}

// CORSConfig lists origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowOrigins []string `yaml:"allowOrigins"`
}

// AnalyticsConfig controls event buffering and snapshot persistence.
type AnalyticsConfig struct {
	BufferSize       int           `yaml:"bufferSize"`
	SnapshotInterval time.Duration `yaml:"snapshotInterval"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided), applies environment-variable
// overrides and validates the result. Missing values keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that would otherwise fail late or be
// silently misread.
func (c *Config) Validate() error {
	if err := c.Keywords.Validate(); err != nil {
		return fmt.Errorf("keywords: %w", err)
	}
	if c.Documents.MaxBytes <= 0 {
		return fmt.Errorf("%w: documents.maxBytes must be positive", apperrors.ErrInvalidConfiguration)
	}
	if c.ATS.IndustryAverage < 0 || c.ATS.IndustryAverage > 100 {
		return fmt.Errorf("%w: ats.industryAverage must be within [0, 100], got %v",
			apperrors.ErrInvalidConfiguration, c.ATS.IndustryAverage)
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute < 1 {
		return fmt.Errorf("%w: rateLimit.requestsPerMinute must be at least 1", apperrors.ErrInvalidConfiguration)
	}
	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return fmt.Errorf("%w: storage.bucket is required when storage is enabled", apperrors.ErrInvalidConfiguration)
	}
	return nil
}

// Default returns a Config with defaults suitable for local development.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			MaxBodyBytes:    12 << 20,
		},
		Keywords: tokenizer.DefaultConfig(),
		Documents: DocumentsConfig{
			MaxBytes:       10 << 20,
			ExtractTimeout: 10 * time.Second,
		},
		ATS: ATSConfig{
			IndustryAverage: 70,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "resumefit",
			User:            "resumefit",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "resumefit-group",
			Topics: KafkaTopics{
				ScoreEvents: "score-events",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 10 * time.Minute,
		},
		Storage: StorageConfig{
			Region: "auto",
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"*"},
		},
		Analytics: AnalyticsConfig{
			BufferSize:       10000,
			SnapshotInterval: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads RF_* environment variables and overrides the
// corresponding config fields. A value that does not parse is an error.
func applyEnvOverrides(cfg *Config) error {
	var errs []error
	errs = append(errs, envInt("RF_SERVER_PORT", &cfg.Server.Port))
	errs = append(errs, envInt("RF_KEYWORDS_MIN_LENGTH", &cfg.Keywords.MinLength))
	if v := os.Getenv("RF_KEYWORDS_LANGUAGE"); v != "" {
		cfg.Keywords.Language = v
	}
	errs = append(errs, envBool("RF_KEYWORDS_STEMMING", &cfg.Keywords.Stemming))
	errs = append(errs, envBool("RF_POSTGRES_ENABLED", &cfg.Postgres.Enabled))
	if v := os.Getenv("RF_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	errs = append(errs, envInt("RF_POSTGRES_PORT", &cfg.Postgres.Port))
	if v := os.Getenv("RF_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("RF_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("RF_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("RF_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	errs = append(errs, envBool("RF_KAFKA_ENABLED", &cfg.Kafka.Enabled))
	if v := os.Getenv("RF_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	errs = append(errs, envBool("RF_REDIS_ENABLED", &cfg.Redis.Enabled))
	if v := os.Getenv("RF_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("RF_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("RF_STORAGE_BUCKET"); v != "" {
		cfg.Storage.Enabled = true
		cfg.Storage.Bucket = v
	}
	if v := os.Getenv("RF_STORAGE_ENDPOINT"); v != "" {
		cfg.Storage.Endpoint = v
	}
	if v := os.Getenv("RF_STORAGE_ACCESS_KEY_ID"); v != "" {
		cfg.Storage.AccessKeyID = v
	}
	if v := os.Getenv("RF_STORAGE_SECRET_ACCESS_KEY"); v != "" {
		cfg.Storage.SecretAccessKey = v
	}
	if v := os.Getenv("RF_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RF_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	return errors.Join(errs...)
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%w: %s must be an integer, got %q", apperrors.ErrInvalidConfiguration, key, v)
	}
	*dst = n
	return nil
}

func envBool(key string, dst *bool) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%w: %s must be a boolean, got %q", apperrors.ErrInvalidConfiguration, key, v)
	}
	*dst = b
	return nil
}
