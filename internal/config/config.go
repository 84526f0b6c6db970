package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/apm/pkg/db"
	"github.com/dmitrymomot/apm/pkg/logger"
	"github.com/dmitrymomot/apm/pkg/redis"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "APM_"

// Catalog backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Cache backends. CacheNone serves every List from the backend.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

var (
	ErrReadFile      = errors.New("config: failed to read file")
	ErrParseFile     = errors.New("config: failed to parse file")
	ErrParseEnv      = errors.New("config: failed to parse environment")
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// Config is the apm server configuration.
type Config struct {
	Addr            string        `env:"ADDR" yaml:"addr"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" yaml:"shutdown_timeout"`

	// CORSOrigins lists the browser origins allowed to call the API. "*" allows any.
	CORSOrigins []string `env:"CORS_ORIGINS" yaml:"cors_origins"`

	Log      Log                 `envPrefix:"LOG_" yaml:"log"`
	Sentry   logger.SentryConfig `yaml:"sentry"`
	Catalog  Catalog             `envPrefix:"CATALOG_" yaml:"catalog"`
	Database db.Config           `envPrefix:"DB_" yaml:"database"`
	Redis    redis.Config        `envPrefix:"REDIS_" yaml:"redis"`
}

type Log struct {
	Level string `env:"LEVEL" yaml:"level"`

	// Format is "json" or "text".
	Format string `env:"FORMAT" yaml:"format"`
}

// Catalog selects the product backend and its list cache.
type Catalog struct {
	Backend     string `env:"BACKEND" yaml:"backend"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" yaml:"auto_migrate"`

	// Latency is added to every call of the memory backend.
	Latency time.Duration `env:"LATENCY" yaml:"latency"`

	Cache     string        `env:"CACHE" yaml:"cache"`
	CacheTTL  time.Duration `env:"CACHE_TTL" yaml:"cache_ttl"`
	CacheSize int           `env:"CACHE_SIZE" yaml:"cache_size"`

	// MaxConcurrentWrites bounds in-flight creates and deletes. Zero is unbounded.
	MaxConcurrentWrites int64 `env:"MAX_CONCURRENT_WRITES" yaml:"max_concurrent_writes"`
}

// Default returns the configuration used when neither a file nor the
// environment set a value.
func Default() Config {
	return Config{
		Addr:            ":8080",
		ShutdownTimeout: 10 * time.Second,
		Log:             Log{Level: "info", Format: "json"},
		Sentry:          logger.SentryConfig{Environment: "production"},
		Catalog: Catalog{
			Backend:   BackendMemory,
			Cache:     CacheMemory,
			CacheTTL:  30 * time.Second,
			CacheSize: 16,
		},
		Database: db.Config{
			MigrationsTable: "apm_migrations",
			MaxConns:        10,
			MinConns:        1,
			MaxConnIdleTime: 10 * time.Minute,
			MaxConnLifetime: 30 * time.Minute,
			ConnectRetries:  3,
			RetryInterval:   2 * time.Second,
		},
		Redis: redis.Config{
			PoolSize:       10,
			DialTimeout:    5 * time.Second,
			IOTimeout:      3 * time.Second,
			ConnectRetries: 3,
			RetryInterval:  2 * time.Second,
		},
	}
}

// Load builds the configuration from the defaults, then the YAML file at path
// (skipped when path is empty), then the APM_* environment variables.
// The result is not validated: command line overrides apply first.
func Load(path string) (Config, error) {
	return LoadFrom(path, env.ToMap(os.Environ()))
}

// LoadFrom is Load with an explicit environment. A nil map is empty.
func LoadFrom(path string, environ map[string]string) (Config, error) {
	if environ == nil {
		environ = map[string]string{}
	}
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Join(ErrReadFile, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, errors.Join(ErrParseFile, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{
		Prefix:      EnvPrefix,
		Environment: environ,
	}); err != nil {
		return Config{}, errors.Join(ErrParseEnv, err)
	}
	return cfg, nil
}

// Validate checks the cross-field constraints.
func (c Config) Validate() error {
	var errs []error
	switch c.Catalog.Backend {
	case BackendMemory:
	case BackendPostgres:
		if !c.Database.Enabled() {
			errs = append(errs, fmt.Errorf("%w: postgres backend needs %sDB_URL", ErrInvalidConfig, EnvPrefix))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: unknown catalog backend %q", ErrInvalidConfig, c.Catalog.Backend))
	}

	switch c.Catalog.Cache {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if !c.Redis.Enabled() {
			errs = append(errs, fmt.Errorf("%w: redis cache needs %sREDIS_URL", ErrInvalidConfig, EnvPrefix))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: unknown cache %q", ErrInvalidConfig, c.Catalog.Cache))
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Errorf("%w: log format must be json or text", ErrInvalidConfig))
	}
	if c.Catalog.MaxConcurrentWrites < 0 {
		errs = append(errs, fmt.Errorf("%w: max concurrent writes must not be negative", ErrInvalidConfig))
	}
	return errors.Join(errs...)
}
