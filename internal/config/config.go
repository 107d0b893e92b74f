// Package config loads service configuration from YAML with APP_* environment overrides.
package config

import (
	"github.com/maxviazov/author-feed-service/internal/logger"
)

type Config struct {
	App       AppConfig           `mapstructure:"app"`
	Logger    logger.LoggerConfig `mapstructure:"logger"`
	Postgres  PostgresConfig      `mapstructure:"postgres"`
	Redis     RedisConfig         `mapstructure:"redis"`
	Auth      AuthConfig          `mapstructure:"auth"`
	HTTP      HTTPConfig          `mapstructure:"http"`
	Scheduler SchedulerConfig     `mapstructure:"scheduler"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
	Env     string `mapstructure:"env"`
	Port    int    `mapstructure:"port" validate:"gte=1,lte=65535"`
	// ShutdownTimeout is in seconds.
	ShutdownTimeout int `mapstructure:"shutdown_timeout" validate:"gte=1"`
}

// PostgresConfig holds connection and pool tuning. Durations are in seconds.
type PostgresConfig struct {
	Host              string `mapstructure:"host" validate:"required"`
	Port              int    `mapstructure:"port" validate:"gte=1,lte=65535"`
	User              string `mapstructure:"user" validate:"required"`
	Password          string `mapstructure:"password" validate:"required"`
	DBName            string `mapstructure:"db" validate:"required"`
	SSLMode           string `mapstructure:"sslmode" validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	MaxConns          int32  `mapstructure:"max_conns" validate:"gte=1"`
	MinConns          int32  `mapstructure:"min_conns" validate:"gte=0,ltefield=MaxConns"`
	MaxConnLifetime   int    `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   int    `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod int    `mapstructure:"health_check_period"`
}

// RedisConfig is optional: an empty Addr selects the in-memory cache.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db" validate:"gte=0,lte=15"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=16"`
	Issuer    string `mapstructure:"issuer"`
	// TokenTTL is in minutes and only applies to tokens minted by the CLI.
	TokenTTL int `mapstructure:"token_ttl" validate:"gte=1"`
}

type HTTPConfig struct {
	CORSOrigins         []string `mapstructure:"cors_origins"`
	FollowRatePerMinute int      `mapstructure:"follow_rate_per_minute" validate:"gte=1"`
	FollowBurst         int      `mapstructure:"follow_burst" validate:"gte=1"`
}

// SchedulerConfig uses six-field cron specs (with seconds).
type SchedulerConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	SyncViewsSpec      string `mapstructure:"sync_views_spec"`
	HotScoreSpec       string `mapstructure:"hot_score_spec"`
	HotScoreWindowDays int    `mapstructure:"hot_score_window_days" validate:"gte=1"`
}
