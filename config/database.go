package config

import (
	"fmt"
	"time"
)

// Database driver names accepted by DBConfig.Driver.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// DBConfig contains task store configuration. Driver selects the backing
// store: postgres for production, sqlite for single-node deployments, memory
// for development.
type DBConfig struct {
	Driver   string `env:"DRIVER"      envDefault:"postgres"`
	Host     string `env:"HOST"        envDefault:"localhost"`
	Port     int    `env:"PORT"        envDefault:"5432"`
	User     string `env:"USER"        envDefault:"landscout"`
	Password string `env:"PASSWORD"    envDefault:"landscout"`
	Name     string `env:"NAME"        envDefault:"landscout"`
	SSLMode  string `env:"SSL_MODE"    envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// SQLitePath is the database file when Driver is sqlite. ":memory:" keeps
	// everything in process.
	SQLitePath string `env:"SQLITE_PATH" envDefault:"landscout.db"`
}

// PostgresDSN builds the connection string for the pgx stdlib driver.
func (c DBConfig) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// RedisConfig contains Redis configuration for the shared cache tier.
type RedisConfig struct {
	Enabled  bool   `env:"ENABLED"  envDefault:"false"`
	Addr     string `env:"ADDR"     envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`
}

// CacheConfig contains cache configuration. The in-process bounded cache is
// always present; Redis replaces it for the demographics tier when enabled.
type CacheConfig struct {
	// Capacity bounds the number of entries in the in-process cache.
	Capacity int `env:"CACHE_CAPACITY" envDefault:"1024"`

	// DefaultTTL is the entry lifetime when callers pass no TTL.
	DefaultTTL time.Duration `env:"CACHE_DEFAULT_TTL" envDefault:"15m"`

	// ReverseGeocodeTTL is the lifetime of cached reverse-geocode lookups.
	ReverseGeocodeTTL time.Duration `env:"CACHE_REVERSE_GEOCODE_TTL" envDefault:"15m"`

	// TractTTL is the lifetime of cached demographic tract responses.
	TractTTL time.Duration `env:"CACHE_TRACT_TTL" envDefault:"1h"`
}

// Sanitize applies guardrails to cache configuration values.
func (c *CacheConfig) Sanitize() {
	if c.Capacity < 1 {
		c.Capacity = 1
	}
	if c.DefaultTTL <= 0 {
		c.DefaultTTL = 15 * time.Minute
	}
	if c.ReverseGeocodeTTL <= 0 {
		c.ReverseGeocodeTTL = c.DefaultTTL
	}
	if c.TractTTL <= 0 {
		c.TractTTL = time.Hour
	}
}
