package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load,
// e.g. CURATOR_SERVER_PORT or CURATOR_DATABASE_URL.
const EnvPrefix = "CURATOR"

// Load configuration from environment variables and optionally a config file.
// Environment variables take precedence over values from the config file.
// When configFile is empty, ./config.yaml and $HOME/.config/curator/config.yaml
// are tried and silently skipped if absent.
// Returns a populated Config struct or an error if loading/validation fails.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/curator")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the struct tags of cfg and the embedded ranking settings.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if err := cfg.Ranking.Config.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// setDefaults registers a default for every key so AutomaticEnv can
// override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.session_ttl", "30m")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.url", "file:curator.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("scheduler.min_ease_factor", 0)
	v.SetDefault("scheduler.max_ease_factor", 0)
	v.SetDefault("scheduler.first_interval", 0)
	v.SetDefault("scheduler.second_interval", 0)
	v.SetDefault("scheduler.lapse_interval", 0)
	v.SetDefault("scheduler.history_limit", 0)
	v.SetDefault("scheduler.stability_bonus", 0)

	v.SetDefault("ranking.daily_review_limit", 100)
	v.SetDefault("ranking.new_items_per_day", 20)
	v.SetDefault("ranking.order", "urgency")
	v.SetDefault("ranking.ahead_of_schedule", false)
	v.SetDefault("ranking.seed", 0)
	v.SetDefault("ranking.quota.min_priority", 0)
	v.SetDefault("ranking.quota.min_fraction", 0)
	v.SetDefault("ranking.weights.urgency", 1.0)
	v.SetDefault("ranking.weights.retention", 1.0)
	v.SetDefault("ranking.weights.difficulty", 1.0)
	v.SetDefault("ranking.weights.overdue_cap_days", 30.0)
	v.SetDefault("ranking.default_content_weight", 1.0)

	v.SetDefault("events.workers", 2)
	v.SetDefault("events.queue_size", 256)

	v.SetDefault("client.base_url", "http://localhost:8080")
	v.SetDefault("client.timeout", "10s")
	v.SetDefault("client.retry_attempts", 3)
}
