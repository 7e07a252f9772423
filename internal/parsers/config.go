package parsers

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"sales-reconciliation-service/internal/models"
	"sales-reconciliation-service/pkg/errors"
)

var validate = validator.New()

// SourceConfig declares how one export is laid out. Keys refer to the
// canonical header keys produced by NormalizeTable, not to the raw header text.
type SourceConfig struct {
	ID             models.SourceID `json:"id" mapstructure:"id" validate:"required,oneof=pos platform_a platform_b"`
	Name           string          `json:"name" mapstructure:"name" validate:"required"`
	HeaderSkipRows int             `json:"header_skip_rows" mapstructure:"header_skip_rows" validate:"gte=0,lte=1000"`
	OrderIDKey     string          `json:"order_id_key" mapstructure:"order_id_key" validate:"required_if=ID pos"`
	StatusKey      string          `json:"status_key,omitempty" mapstructure:"status_key" validate:"required_unless=ID pos"`
	StatusMatch    string          `json:"status_match,omitempty" mapstructure:"status_match" validate:"required_unless=ID pos"`
	RevenueKey     string          `json:"revenue_key" mapstructure:"revenue_key" validate:"required"`
	CommissionKey  string          `json:"commission_key,omitempty" mapstructure:"commission_key"`
	AdSpendKey     string          `json:"ad_spend_key,omitempty" mapstructure:"ad_spend_key"`
	DateKey        string          `json:"date_key,omitempty" mapstructure:"date_key"`
	Sheet          string          `json:"sheet,omitempty" mapstructure:"sheet"`
	Delimiter      string          `json:"delimiter,omitempty" mapstructure:"delimiter" validate:"omitempty,len=1"`
	MinColumns     int             `json:"min_columns" mapstructure:"min_columns" validate:"gte=0"`
}

// Validate checks if the source configuration is valid
func (c *SourceConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return configError(string(c.ID), err)
	}
	return nil
}

// Comma returns the CSV field delimiter, defaulting to ','
func (c *SourceConfig) Comma() rune {
	if c.Delimiter == "" {
		return ','
	}
	return []rune(c.Delimiter)[0]
}

// RequiredKeys returns every header key the configuration refers to
func (c *SourceConfig) RequiredKeys() []string {
	var keys []string
	for _, key := range []string{c.OrderIDKey, c.StatusKey, c.RevenueKey, c.CommissionKey, c.AdSpendKey, c.DateKey} {
		if strings.TrimSpace(key) != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// Profile holds the configuration of all three sources
type Profile struct {
	POS       SourceConfig `json:"pos" mapstructure:"pos"`
	PlatformA SourceConfig `json:"platform_a" mapstructure:"platform_a"`
	PlatformB SourceConfig `json:"platform_b" mapstructure:"platform_b"`
}

// Get returns the configuration for the given source
func (p *Profile) Get(id models.SourceID) (SourceConfig, bool) {
	switch id {
	case models.SourcePOS:
		return p.POS, true
	case models.SourcePlatformA:
		return p.PlatformA, true
	case models.SourcePlatformB:
		return p.PlatformB, true
	default:
		return SourceConfig{}, false
	}
}

// Validate checks every source and that each slot holds the matching source
func (p *Profile) Validate() error {
	for _, id := range models.AllSources() {
		cfg, _ := p.Get(id)
		if cfg.ID != id {
			return errors.ConfigurationError(errors.CodeInvalidConfig, fmt.Sprintf("%s.id", id), cfg.ID, nil).
				WithSuggestion(fmt.Sprintf("the %s section must declare id: %s", id, id))
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// SampleProfile returns the layout of the sample exports shipped with the
// service. Real deployments supply their own profile; skip counts and status
// strings are never inferred from the files.
func SampleProfile() Profile {
	return Profile{
		POS: SourceConfig{
			ID:             models.SourcePOS,
			Name:           "POS",
			HeaderSkipRows: 5,
			OrderIDKey:     "Invoice",
			RevenueKey:     "Total",
			DateKey:        "Date",
			MinColumns:     2,
		},
		PlatformA: SourceConfig{
			ID:             models.SourcePlatformA,
			Name:           "Platform A",
			HeaderSkipRows: 4,
			OrderIDKey:     "Order",
			StatusKey:      "Status",
			StatusMatch:    "DELIVERED",
			RevenueKey:     "Net",
			CommissionKey:  "Service",
			AdSpendKey:     "Extra",
			DateKey:        "Date",
			MinColumns:     4,
		},
		PlatformB: SourceConfig{
			ID:             models.SourcePlatformB,
			Name:           "Platform B",
			HeaderSkipRows: 3,
			OrderIDKey:     "Order",
			StatusKey:      "Status",
			StatusMatch:    "delivered",
			RevenueKey:     "Customer",
			CommissionKey:  "Platform",
			AdSpendKey:     "Sponsored",
			DateKey:        "Date",
			MinColumns:     4,
		},
	}
}

func configError(source string, err error) error {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok || len(validationErrs) == 0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, source, nil, err)
	}

	fieldErr := validationErrs[0]
	setting := fmt.Sprintf("%s.%s", source, fieldErr.Field())
	return errors.ConfigurationError(errors.CodeInvalidConfig, setting, fieldErr.Value(), err).
		WithSuggestion(fmt.Sprintf("%s failed the '%s' rule", setting, fieldErr.Tag()))
}
