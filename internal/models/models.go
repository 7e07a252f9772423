package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// SourceID identifies one of the three exports that take part in a reconciliation
type SourceID string

const (
	SourcePOS       SourceID = "pos"
	SourcePlatformA SourceID = "platform_a"
	SourcePlatformB SourceID = "platform_b"
)

// AllSources returns the sources in report order
func AllSources() []SourceID {
	return []SourceID{SourcePOS, SourcePlatformA, SourcePlatformB}
}

// String returns the string representation of SourceID
func (s SourceID) String() string {
	return string(s)
}

// IsValid checks if the source is one of the known sources
func (s SourceID) IsValid() bool {
	return s == SourcePOS || s == SourcePlatformA || s == SourcePlatformB
}

// IsPlatform reports whether the source is a delivery platform settlement
func (s SourceID) IsPlatform() bool {
	return s == SourcePlatformA || s == SourcePlatformB
}

// ParseSourceID parses a source identifier, accepting dashes or underscores
func ParseSourceID(s string) (SourceID, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	id := SourceID(normalized)
	if !id.IsValid() {
		return "", fmt.Errorf("unknown source '%s': must be pos, platform_a or platform_b", s)
	}
	return id, nil
}

// RawTable holds the decoded cells of one export, before any normalization
type RawTable struct {
	Source   SourceID
	FileName string
	Rows     [][]string
}

// RowCount returns the number of physical rows in the table
func (t RawTable) RowCount() int {
	return len(t.Rows)
}

// CanonicalRecord maps a header key to the raw cell text of one data row.
// Line is the 1-based index of the row in the decoded RawTable. Blank CSV
// lines and empty XLSX rows are dropped while decoding, so Line may be lower
// than the physical line in the file.
type CanonicalRecord struct {
	Line   int
	Values map[string]string
}

// Get returns the value stored under key, or "" when absent
func (r CanonicalRecord) Get(key string) string {
	return r.Values[key]
}

// NormalizedTable is a RawTable after header detection and key derivation
type NormalizedTable struct {
	Source      SourceID
	Keys        []string
	HeaderCells int
	Records     []CanonicalRecord
}

// HasKey reports whether key was derived from the header row
func (t NormalizedTable) HasKey(key string) bool {
	for _, k := range t.Keys {
		if k == key {
			return true
		}
	}
	return false
}

// SourceRow is the typed view of a canonical record after schema binding.
// Amount fields keep the raw cell text; coercion happens during aggregation.
type SourceRow struct {
	Line       int
	OrderID    string
	Status     string
	Date       string
	Revenue    string
	Commission string
	AdSpend    string
}

// SourceAggregate holds the per-source totals
type SourceAggregate struct {
	Source       SourceID        `json:"source"`
	Name         string          `json:"name"`
	Revenue      decimal.Decimal `json:"revenue"`
	OrderCount   int             `json:"order_count"`
	Commission   decimal.Decimal `json:"commission"`
	AdSpend      decimal.Decimal `json:"ad_spend"`
	RowsRead     int             `json:"rows_read"`
	RowsExcluded int             `json:"rows_excluded"`
}

// NewSourceAggregate creates an empty aggregate for the given source
func NewSourceAggregate(source SourceID, name string) SourceAggregate {
	return SourceAggregate{
		Source:     source,
		Name:       name,
		Revenue:    decimal.Zero,
		Commission: decimal.Zero,
		AdSpend:    decimal.Zero,
	}
}

// AverageOrderValue returns revenue per counted order, or zero without orders
func (a SourceAggregate) AverageOrderValue() decimal.Decimal {
	if a.OrderCount == 0 {
		return decimal.Zero
	}
	return a.Revenue.Div(decimal.NewFromInt(int64(a.OrderCount)))
}

// EffectiveCommissionRate returns commission as a fraction of revenue
func (a SourceAggregate) EffectiveCommissionRate() decimal.Decimal {
	if !a.Revenue.IsPositive() {
		return decimal.Zero
	}
	return a.Commission.Div(a.Revenue)
}

// String returns a string representation of the SourceAggregate
func (a SourceAggregate) String() string {
	return fmt.Sprintf("SourceAggregate{Source: %s, Revenue: %s, Orders: %d, Commission: %s, AdSpend: %s}",
		a.Source, a.Revenue.StringFixed(2), a.OrderCount, a.Commission.StringFixed(2), a.AdSpend.StringFixed(2))
}
