// Package config loads server settings from INVENTARIO_* environment
// variables and an optional .env file.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every variable name.
const Prefix = "INVENTARIO"

// Revocation backends.
const (
	RevocationSQLite = "sqlite"
	RevocationRedis  = "redis"
)

// Config holds all server configuration. Variable names are derived from
// field names (DBPath -> INVENTARIO_DB_PATH), never from bare names, so
// unrelated variables such as PORT are not picked up.
type Config struct {
	DBPath    string `split_words:"true" default:"inventario.sqlite3"`
	Addr      string `default:":8080"`
	AdminUser string `split_words:"true" default:"Admin"`
	LogFile   string `split_words:"true"`

	CORSOrigins []string `split_words:"true" default:"*"`

	ReadTimeout     time.Duration `split_words:"true" default:"30s"`
	WriteTimeout    time.Duration `split_words:"true" default:"60s"`
	ShutdownTimeout time.Duration `split_words:"true" default:"5s"`

	// Revocation selects where logged-out token IDs are kept.
	Revocation string `default:"sqlite"`
	Redis      RedisConfig
}

// RedisConfig holds the INVENTARIO_REDIS_* settings.
type RedisConfig struct {
	Host     string `default:"localhost"`
	Port     int    `default:"6379"`
	Password string
	DB       int `default:"0"`
}

// Address returns the Redis address in host:port format.
func (r *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Load reads an optional .env file (missing files are ignored; variables
// already set win) and then the environment.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	switch c.Revocation {
	case RevocationSQLite, RevocationRedis:
	default:
		return fmt.Errorf("invalid %s_REVOCATION %q: want %s or %s",
			Prefix, c.Revocation, RevocationSQLite, RevocationRedis)
	}
	if c.DBPath == "" {
		return fmt.Errorf("%s_DB_PATH must not be empty", Prefix)
	}
	return nil
}
