package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	API     APIConfig
	Session SessionConfig
	Audit   AuditConfig

	Mongo MongoConfig
	Redis RedisConfig
}

// APIConfig points at the backend REST API.
type APIConfig struct {
	BaseURL string        `env:"API_BASE_URL, default=http://localhost:5000/api"`
	Timeout time.Duration `env:"API_TIMEOUT,  default=30s"`
}

type SessionConfig struct {
	CookieName string        `env:"SESSION_COOKIE_NAME, default=salon_sid"`
	IdleTTL    time.Duration `env:"SESSION_IDLE_TTL,    default=30m"`
	// StorageTTL bounds how long a credential record survives without a write.
	StorageTTL time.Duration `env:"SESSION_STORAGE_TTL, default=720h"`
	// BootstrapWait is how long a request waits for bootstrap before the
	// loading placeholder is served.
	BootstrapWait time.Duration `env:"BOOTSTRAP_WAIT,  default=3s"`
	Storage       string        `env:"STORAGE_DRIVER,  default=memory"`
}

type AuditConfig struct {
	Enabled   bool          `env:"AUDIT_ENABLED,   default=false"`
	Workers   int           `env:"AUDIT_WORKERS,   default=4"`
	Retention time.Duration `env:"AUDIT_RETENTION, default=2160h"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=salon_web"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
	Prefix   string `env:"REDIS_PREFIX,   default=salonweb"`
}

// Production reports whether the process runs in production.
func (c *Config) Production() bool { return c.Env == "production" }

// UsesRedis reports whether any component needs a Redis connection.
func (c *Config) UsesRedis() bool { return c.Session.Storage == StorageRedis }

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom reads configuration from l and validates it.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Session.Storage {
	case StorageMemory, StorageRedis:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageMemory, StorageRedis, c.Session.Storage)
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("API_TIMEOUT must be positive, got %s", c.API.Timeout)
	}
	if c.Session.IdleTTL <= 0 || c.Session.StorageTTL <= 0 {
		return fmt.Errorf("SESSION_IDLE_TTL and SESSION_STORAGE_TTL must be positive")
	}
	if c.Session.BootstrapWait < 0 {
		return fmt.Errorf("BOOTSTRAP_WAIT must not be negative, got %s", c.Session.BootstrapWait)
	}
	if c.Audit.Enabled && c.Audit.Workers <= 0 {
		return fmt.Errorf("AUDIT_WORKERS must be positive when the audit trail is enabled")
	}
	return nil
}
