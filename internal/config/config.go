package config

import (
	"time"

	"github.com/phrazzld/scry-review/internal/domain/srs"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	SRS      SRSConfig      `mapstructure:"srs"`
	Locks    LocksConfig    `mapstructure:"locks" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                  int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel              string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds" validate:"gte=1"`
}

// RequestTimeout returns the per-request timeout applied by the HTTP layer.
func (c ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	// Driver selects the review store: "postgres" or "sqlite".
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	// URL is a postgres connection string or a sqlite file path / DSN.
	URL          string `mapstructure:"url" validate:"required"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=0"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"gte=1"`
}

// SRSConfig overrides the scheduler parameters. Zero values keep the defaults.
type SRSConfig struct {
	Weights               []float64 `mapstructure:"weights" validate:"omitempty,len=13"`
	AgainReviewMinutes    int       `mapstructure:"again_review_minutes" validate:"gte=0"`
	LearningReviewMinutes int       `mapstructure:"learning_review_minutes" validate:"gte=0"`
}

// Params builds validated scheduler parameters from the configuration.
func (c SRSConfig) Params() (*srs.Params, error) {
	return srs.NewParams(srs.ParamsConfig{
		Weights:               c.Weights,
		AgainReviewMinutes:    c.AgainReviewMinutes,
		LearningReviewMinutes: c.LearningReviewMinutes,
	})
}

// LocksConfig selects how concurrent reviews of one item are serialized.
type LocksConfig struct {
	// Backend is "local" for a single instance or "redis" when several
	// instances share a database.
	Backend    string `mapstructure:"backend" validate:"required,oneof=local redis"`
	RedisAddr  string `mapstructure:"redis_addr" validate:"required_if=Backend redis"`
	TTLSeconds int    `mapstructure:"ttl_seconds" validate:"gte=1"`
}

// TTL returns the lock lease duration.
func (c LocksConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}
