package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseSourceID(t *testing.T) {
	tests := []struct {
		input    string
		expected SourceID
		wantErr  bool
	}{
		{"pos", SourcePOS, false},
		{" Platform-A ", SourcePlatformA, false},
		{"platform_b", SourcePlatformB, false},
		{"bank", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSourceID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSourceID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("ParseSourceID() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSourceID_IsPlatform(t *testing.T) {
	if SourcePOS.IsPlatform() {
		t.Errorf("POS must not be a platform")
	}
	for _, s := range []SourceID{SourcePlatformA, SourcePlatformB} {
		if !s.IsPlatform() {
			t.Errorf("%s should be a platform", s)
		}
	}
	if len(AllSources()) != 3 {
		t.Errorf("expected 3 sources, got %d", len(AllSources()))
	}
}

func TestSourceAggregate_Ratios(t *testing.T) {
	agg := NewSourceAggregate(SourcePlatformA, "Platform A")
	if !agg.AverageOrderValue().IsZero() {
		t.Errorf("expected zero AOV without orders, got %s", agg.AverageOrderValue())
	}
	if !agg.EffectiveCommissionRate().IsZero() {
		t.Errorf("expected zero commission rate without revenue, got %s", agg.EffectiveCommissionRate())
	}

	agg.Revenue = decimal.NewFromInt(15000)
	agg.OrderCount = 80
	agg.Commission = decimal.NewFromInt(3000)

	if !agg.AverageOrderValue().Equal(decimal.NewFromFloat(187.5)) {
		t.Errorf("expected AOV 187.5, got %s", agg.AverageOrderValue())
	}
	if !agg.EffectiveCommissionRate().Equal(decimal.NewFromFloat(0.2)) {
		t.Errorf("expected commission rate 0.2, got %s", agg.EffectiveCommissionRate())
	}
}

func TestNormalizedTable_HasKey(t *testing.T) {
	table := NormalizedTable{Keys: []string{"Invoice", "Total"}}
	if !table.HasKey("Total") {
		t.Errorf("expected Total key")
	}
	if table.HasKey("total") {
		t.Errorf("keys are case sensitive")
	}
}

func TestParseGranularity(t *testing.T) {
	tests := []struct {
		input    string
		expected Granularity
		wantErr  bool
	}{
		{"", GranularityDaily, false},
		{"Weekly", GranularityWeekly, false},
		{"monthly", GranularityMonthly, false},
		{"hourly", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseGranularity(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseGranularity() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("ParseGranularity() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGranularity_Truncate(t *testing.T) {
	// Thursday
	ts := time.Date(2024, 3, 14, 18, 30, 0, 0, time.UTC)

	tests := []struct {
		granularity Granularity
		expected    time.Time
		label       string
	}{
		{GranularityDaily, time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC), "2024-03-14"},
		{GranularityWeekly, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), "Week of 2024-03-11"},
		{GranularityMonthly, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "March 2024"},
	}

	for _, tt := range tests {
		t.Run(string(tt.granularity), func(t *testing.T) {
			got := tt.granularity.Truncate(ts)
			if !got.Equal(tt.expected) {
				t.Errorf("Truncate() = %v, want %v", got, tt.expected)
			}
			if label := tt.granularity.Label(got); label != tt.label {
				t.Errorf("Label() = %q, want %q", label, tt.label)
			}
		})
	}

	// Sunday belongs to the week that started the previous Monday
	sunday := time.Date(2024, 3, 17, 9, 0, 0, 0, time.UTC)
	if got := GranularityWeekly.Truncate(sunday); got.Day() != 11 {
		t.Errorf("expected Sunday to truncate to Monday 11th, got %v", got)
	}
}

func TestGranularity_PeriodLabel(t *testing.T) {
	first := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	if got := GranularityMonthly.PeriodLabel(first, last); got != "March 2024" {
		t.Errorf("expected single month label, got %q", got)
	}
	if got := GranularityDaily.PeriodLabel(first, last); got != "2024-03-01 to 2024-03-31" {
		t.Errorf("expected range label, got %q", got)
	}
}

func TestParseTimeWithFormats(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Time
		wantErr  bool
	}{
		{"2024-03-14", time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC), false},
		{"2024-03-14 18:30:00", time.Date(2024, 3, 14, 18, 30, 0, 0, time.UTC), false},
		{"14/03/2024", time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC), false},
		{"14-03-2024 09:15", time.Date(2024, 3, 14, 9, 15, 0, 0, time.UTC), false},
		{"14 Mar 2024", time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC), false},
		{"", time.Time{}, true},
		{"yesterday", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimeWithFormats(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTimeWithFormats() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.expected) {
				t.Errorf("ParseTimeWithFormats() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestReport_Source(t *testing.T) {
	report := &Report{
		Sources: []SourceAggregate{
			NewSourceAggregate(SourcePOS, "POS"),
			NewSourceAggregate(SourcePlatformA, "Platform A"),
		},
	}

	if _, ok := report.Source(SourcePlatformA); !ok {
		t.Errorf("expected platform_a aggregate")
	}
	if _, ok := report.Source(SourcePlatformB); ok {
		t.Errorf("did not expect platform_b aggregate")
	}
}

func TestReconciliationSummary_TotalVariance(t *testing.T) {
	summary := ReconciliationSummary{RevenueVariance: decimal.NewFromInt(-500), Status: StatusFail}
	if !summary.TotalVariance().Equal(decimal.NewFromInt(500)) {
		t.Errorf("expected absolute variance 500, got %s", summary.TotalVariance())
	}
	if summary.IsPassing() {
		t.Errorf("FAIL summary must not be passing")
	}
}
