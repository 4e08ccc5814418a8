package config

import (
	"time"

	"github.com/phrazzld/curator-srs/internal/domain/ranking"
	"github.com/phrazzld/curator-srs/internal/domain/srs"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Ranking   RankingConfig   `mapstructure:"ranking"`
	Events    EventsConfig    `mapstructure:"events"`
	Client    ClientConfig    `mapstructure:"client"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"             validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level"        validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`

	// SessionTTL is how long a review session may sit idle before it is
	// abandoned and dropped. Zero keeps idle sessions forever.
	SessionTTL time.Duration `mapstructure:"session_ttl" validate:"gte=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	// Driver is the database/sql driver name: "pgx" for PostgreSQL, "sqlite" for an embedded file.
	Driver          string        `mapstructure:"driver"            validate:"required,oneof=pgx sqlite"`
	URL             string        `mapstructure:"url"               validate:"required"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"    validate:"gte=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
}

// SchedulerConfig overrides SM-2 constants. Zero values keep the standard values.
type SchedulerConfig struct {
	MinEaseFactor  float64 `mapstructure:"min_ease_factor" validate:"omitempty,gte=1.3"`
	MaxEaseFactor  float64 `mapstructure:"max_ease_factor" validate:"omitempty,gte=1.3"`
	FirstInterval  float64 `mapstructure:"first_interval"  validate:"gte=0"`
	SecondInterval float64 `mapstructure:"second_interval" validate:"gte=0"`
	LapseInterval  float64 `mapstructure:"lapse_interval"  validate:"gte=0"`
	HistoryLimit   int     `mapstructure:"history_limit"   validate:"gte=0"`
	StabilityBonus float64 `mapstructure:"stability_bonus" validate:"gte=0"`
}

// Params converts the scheduler settings into SM-2 parameters.
func (c SchedulerConfig) Params() *srs.Params {
	return srs.NewParams(srs.ParamsConfig{
		MinEaseFactor:            c.MinEaseFactor,
		MaxEaseFactor:            c.MaxEaseFactor,
		FirstInterval:            c.FirstInterval,
		SecondInterval:           c.SecondInterval,
		LapseInterval:            c.LapseInterval,
		HistoryLimit:             c.HistoryLimit,
		RepetitionStabilityBonus: c.StabilityBonus,
	})
}

// RankingConfig holds the default queue settings and the content-type weight table.
type RankingConfig struct {
	ranking.Config `mapstructure:",squash"`

	// ContentWeights maps content-type tags to priority weights.
	ContentWeights map[string]float64 `mapstructure:"content_weights"`

	// DefaultContentWeight applies to tags missing from ContentWeights.
	DefaultContentWeight float64 `mapstructure:"default_content_weight" validate:"gte=0"`
}

// WeightTable builds the ranking weight table.
func (c RankingConfig) WeightTable() *ranking.WeightTable {
	return ranking.NewWeightTable(c.ContentWeights, c.DefaultContentWeight)
}

// EventsConfig sizes the asynchronous event delivery pool and selects which
// event types reach the log sink.
type EventsConfig struct {
	Workers   int `mapstructure:"workers"    validate:"gte=0"`
	QueueSize int `mapstructure:"queue_size" validate:"gte=0"`
	// Types limits the sink to these event types. Empty forwards all of them.
	Types []string `mapstructure:"types" validate:"dive,oneof=review.submitted session.completed session.abandoned"`
}

// ClientConfig configures the command-line API client.
type ClientConfig struct {
	BaseURL       string        `mapstructure:"base_url"       validate:"required,url"`
	Timeout       time.Duration `mapstructure:"timeout"        validate:"gte=0"`
	RetryAttempts uint          `mapstructure:"retry_attempts"`
}
