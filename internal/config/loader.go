package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envBound lists keys that are commonly supplied only through the environment.
// AutomaticEnv alone does not see keys that never appear in the file.
var envBound = []string{
	"postgres.user",
	"postgres.password",
	"postgres.db",
	"postgres.host",
	"postgres.port",
	"redis.addr",
	"redis.password",
	"auth.jwt_secret",
	"app.port",
	"logger.level",
	"logger.env",
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	for _, key := range envBound {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}
	setDefaults(v)

	var config Config
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validator.New().Struct(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "author-feed-service")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.shutdown_timeout", 10)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 1)
	v.SetDefault("postgres.max_conn_lifetime", 3600)
	v.SetDefault("postgres.max_conn_idle_time", 300)
	v.SetDefault("postgres.health_check_period", 30)

	v.SetDefault("redis.key_prefix", "authorfeed:")

	v.SetDefault("auth.issuer", "author-feed-service")
	v.SetDefault("auth.token_ttl", 60)

	v.SetDefault("http.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("http.follow_rate_per_minute", 30)
	v.SetDefault("http.follow_burst", 10)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.sync_views_spec", "0 * * * * *")
	v.SetDefault("scheduler.hot_score_spec", "0 */5 * * * *")
	v.SetDefault("scheduler.hot_score_window_days", 365)
}
