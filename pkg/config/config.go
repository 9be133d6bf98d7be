// Package config loads mysql-mcp configuration.
package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// ConfigFile is the optional YAML configuration file read from the working
// directory. Environment variables always override YAML values.
const ConfigFile = "config.yaml"

// Config holds all configuration for mysql-mcp.
//
// No secrets live here: database credentials arrive per-connection through the
// register operation, never through server configuration.
type Config struct {
	// Transport selects how MCP requests arrive: "stdio" or "http".
	Transport string `yaml:"transport" env:"TRANSPORT" env-default:"stdio"`

	// HTTP server settings, used when Transport is "http".
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"3820"`

	// LogLevel is a zap level name: debug, info, warn, error.
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`

	// Pool configures every per-connection database pool.
	Pool PoolConfig `yaml:"pool"`

	// Query bounds result shaping.
	Query QueryConfig `yaml:"query"`

	// Version is set at load time from the build, not from config.
	Version string `yaml:"-"`
}

// PoolConfig holds settings applied to each registered connection's pool.
type PoolConfig struct {
	// MaxOpenConns bounds the number of live server connections per pool.
	MaxOpenConns int `yaml:"max_open_conns" env:"POOL_MAX_OPEN_CONNS" env-default:"10"`
	// MaxIdleConns is the number of idle connections kept for reuse.
	MaxIdleConns int `yaml:"max_idle_conns" env:"POOL_MAX_IDLE_CONNS" env-default:"2"`
	// ConnMaxLifetimeMinutes recycles server connections after this long.
	ConnMaxLifetimeMinutes int `yaml:"conn_max_lifetime_minutes" env:"POOL_CONN_MAX_LIFETIME_MINUTES" env-default:"30"`
	// ConnectTimeoutSeconds bounds the reachability check at register time.
	ConnectTimeoutSeconds int `yaml:"connect_timeout_seconds" env:"POOL_CONNECT_TIMEOUT_SECONDS" env-default:"10"`
}

// QueryConfig holds result shaping settings.
type QueryConfig struct {
	// MaxRows caps the number of rows returned by a single query operation.
	// Results beyond the cap are dropped and the response is marked truncated.
	MaxRows int `yaml:"max_rows" env:"QUERY_MAX_ROWS" env-default:"1000"`
}

// Load reads configuration from config.yaml (if present) with environment
// variable overrides, or from the environment alone.
func Load(version string) (*Config, error) {
	cfg := &Config{Version: version}

	if _, err := os.Stat(ConfigFile); err == nil {
		if err := cleanenv.ReadConfig(ConfigFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", ConfigFile, err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Transport {
	case "stdio", "http":
	default:
		return fmt.Errorf("invalid transport %q: must be stdio or http", c.Transport)
	}
	if c.Pool.MaxOpenConns <= 0 {
		return fmt.Errorf("pool max_open_conns must be positive, got %d", c.Pool.MaxOpenConns)
	}
	if c.Pool.MaxIdleConns < 0 || c.Pool.MaxIdleConns > c.Pool.MaxOpenConns {
		return fmt.Errorf("pool max_idle_conns must be between 0 and max_open_conns")
	}
	if c.Query.MaxRows <= 0 {
		return fmt.Errorf("query max_rows must be positive, got %d", c.Query.MaxRows)
	}
	return nil
}

// ListenAddr returns the HTTP listen address.
func (c *Config) ListenAddr() string {
	return c.BindAddr + ":" + c.Port
}
