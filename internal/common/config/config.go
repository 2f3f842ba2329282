// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig               `mapstructure:"app"`
	Camunda  CamundaConfig           `mapstructure:"camunda"`
	Database DatabaseConfig          `mapstructure:"database"`
	Workers  map[string]WorkerConfig `mapstructure:"workers"`
	Logging  LoggingConfig           `mapstructure:"logging"`
	Ranking  RankingConfig           `mapstructure:"ranking"`
	Session  SessionConfig           `mapstructure:"session"`
	Server   ServerConfig            `mapstructure:"server"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres       PostgresConfig       `mapstructure:"postgres"`
	Redis          RedisConfig          `mapstructure:"redis"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// CircuitBreakerConfig guards the professional store queries.
type CircuitBreakerConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	MaxRequests  int     `mapstructure:"max_requests"` // probes allowed while half-open
	Interval     int     `mapstructure:"interval"`     // milliseconds
	Timeout      int     `mapstructure:"timeout"`      // milliseconds
	MinRequests  int     `mapstructure:"min_requests"`
	FailureRatio float64 `mapstructure:"failure_ratio"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// RankingConfig tunes the professional directory. Zero values fall back to
// the ranker defaults.
type RankingConfig struct {
	PageCap            int `mapstructure:"page_cap"`
	TrendingWindowDays int `mapstructure:"trending_window_days"`
	TopOverFetchFactor int `mapstructure:"top_overfetch_factor"`
	DefaultLimit       int `mapstructure:"default_limit"`
	DefaultTopLimit    int `mapstructure:"default_top_limit"`
	CountCacheTTL      int `mapstructure:"count_cache_ttl"` // milliseconds, 0 disables
}

// TrendingWindow returns the trailing view window as a duration.
func (r RankingConfig) TrendingWindow() time.Duration {
	return time.Duration(r.TrendingWindowDays) * 24 * time.Hour
}

type SessionConfig struct {
	KeyPrefix string `mapstructure:"key_prefix"`
}

// ServerConfig holds the health and metrics listener settings.
type ServerConfig struct {
	Address string `mapstructure:"address"`
}
