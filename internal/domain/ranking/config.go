package ranking

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/curator-srs/internal/domain"
)

// Order selects how the ranked queue is arranged.
type Order string

// Supported queue orders.
const (
	OrderUrgency     Order = "urgency"
	OrderRandom      Order = "random"
	OrderOldest      Order = "oldest"
	OrderDifficulty  Order = "difficulty"
	OrderInterleaved Order = "interleaved"
)

// ErrInvalidConfig is wrapped by every ranking configuration validation failure.
var ErrInvalidConfig = errors.New("invalid ranking configuration")

// Weights are the coefficients of the priority score.
type Weights struct {
	Urgency    float64 `mapstructure:"urgency"    validate:"gte=0"`
	Retention  float64 `mapstructure:"retention"  validate:"gte=0"`
	Difficulty float64 `mapstructure:"difficulty" validate:"gte=0"`

	// OverdueCapDays flattens urgency beyond this many days overdue; 0 disables the cap.
	OverdueCapDays float64 `mapstructure:"overdue_cap_days" validate:"gte=0"`
}

// Quota reserves part of a limited queue for high-priority content.
type Quota struct {
	MinPriority float64 `mapstructure:"min_priority" validate:"gte=0"`
	MinFraction float64 `mapstructure:"min_fraction" validate:"gte=0,lte=1"`
}

// Config controls a single Rank call.
type Config struct {
	// DailyReviewLimit caps the queue length; 0 means unlimited.
	DailyReviewLimit int `mapstructure:"daily_review_limit" validate:"gte=0"`

	// NewItemsPerDay caps items without a successful repetition; 0 means unlimited.
	NewItemsPerDay int `mapstructure:"new_items_per_day" validate:"gte=0"`

	Order Order `mapstructure:"order" validate:"omitempty,oneof=urgency random oldest difficulty interleaved"`

	// AheadOfSchedule admits never-reviewed items that are not due yet.
	AheadOfSchedule bool `mapstructure:"ahead_of_schedule"`

	Quota   Quota   `mapstructure:"quota"`
	Weights Weights `mapstructure:"weights"`

	// Seed drives OrderRandom; 0 seeds from the ranking time.
	Seed int64 `mapstructure:"seed"`

	// Usage is what the user already consumed of the daily caps. It is
	// filled by the caller from review history, never from configuration.
	Usage Usage `mapstructure:"-" json:"-"`
}

// Usage counts a user's reviews on the current day.
type Usage struct {
	// IntroducedToday counts items whose first review happened today.
	IntroducedToday int `validate:"gte=0"`

	// ReviewedToday counts distinct items reviewed today.
	ReviewedToday int `validate:"gte=0"`
}

// DefaultWeights returns equal weights with a 30 day overdue cap.
func DefaultWeights() Weights {
	return Weights{
		Urgency:        1,
		Retention:      1,
		Difficulty:     1,
		OverdueCapDays: 30,
	}
}

// DefaultConfig returns an unlimited urgency-ordered configuration.
func DefaultConfig() Config {
	return Config{
		Order:   OrderUrgency,
		Weights: DefaultWeights(),
	}
}

var validate = validator.New()

// Validate checks the configuration and returns a domain.ValidationError
// naming the first offending field.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return domain.NewValidationError(fe.Namespace(), fe.Value(), ErrInvalidConfig)
	}
	return domain.NewValidationError("ranking", c, errors.Join(ErrInvalidConfig, err))
}

// withDefaults fills an unset order and all-zero weights.
func (c Config) withDefaults() Config {
	if c.Order == "" {
		c.Order = OrderUrgency
	}
	if c.Weights == (Weights{}) {
		c.Weights = DefaultWeights()
	}
	return c
}
