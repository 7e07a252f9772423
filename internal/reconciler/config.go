package reconciler

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"sales-reconciliation-service/internal/models"
	"sales-reconciliation-service/internal/parsers"
	"sales-reconciliation-service/pkg/errors"
)

var validate = validator.New()

// Benchmark is the expected range of a platform's effective commission rate
type Benchmark struct {
	Min float64 `json:"min" mapstructure:"min" validate:"gte=0,lte=1"`
	Max float64 `json:"max" mapstructure:"max" validate:"gte=0,lte=1,gtefield=Min"`
}

// Config holds the engine configuration. Fractions are in [0,1]: 0.05 is 5%.
type Config struct {
	VarianceThreshold   float64            `json:"variance_threshold" mapstructure:"variance_threshold" validate:"gte=0,lte=1"`
	DiscountFraction    float64            `json:"discount_estimate_fraction" mapstructure:"discount_estimate_fraction" validate:"gte=0,lte=1"`
	Granularity         models.Granularity `json:"granularity" mapstructure:"granularity" validate:"oneof=daily weekly monthly"`
	CommissionBenchmark Benchmark          `json:"commission_benchmark" mapstructure:"commission_benchmark"`
	Profile             parsers.Profile    `json:"sources" mapstructure:"sources" validate:"-"`
}

// DefaultConfig returns the default engine configuration with the sample profile
func DefaultConfig() Config {
	return Config{
		VarianceThreshold: 0.05,
		DiscountFraction:  0.12,
		Granularity:       models.GranularityDaily,
		CommissionBenchmark: Benchmark{
			Min: 0.18,
			Max: 0.25,
		},
		Profile: parsers.SampleProfile(),
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if validationErrs, ok := err.(validator.ValidationErrors); ok && len(validationErrs) > 0 {
			fieldErr := validationErrs[0]
			return errors.ConfigurationError(errors.CodeInvalidConfig, fieldErr.Namespace(), fieldErr.Value(), err).
				WithSuggestion(fmt.Sprintf("%s failed the '%s' rule; fractions are written as 0.05 for 5%%", fieldErr.Field(), fieldErr.Tag()))
		}
		return errors.ConfigurationError(errors.CodeInvalidConfig, "engine", nil, err)
	}
	return c.Profile.Validate()
}

// Threshold returns the variance threshold as a decimal fraction
func (c *Config) Threshold() decimal.Decimal {
	return decimal.NewFromFloat(c.VarianceThreshold)
}

// Discount returns the estimated discount fraction as a decimal
func (c *Config) Discount() decimal.Decimal {
	return decimal.NewFromFloat(c.DiscountFraction)
}

// CommissionRange returns the benchmark bounds as decimal fractions
func (c *Config) CommissionRange() (decimal.Decimal, decimal.Decimal) {
	return decimal.NewFromFloat(c.CommissionBenchmark.Min), decimal.NewFromFloat(c.CommissionBenchmark.Max)
}
