package models

import (
	"fmt"
	"strings"
	"time"
)

// Granularity controls how the performance series is bucketed
type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityWeekly  Granularity = "weekly"
	GranularityMonthly Granularity = "monthly"
)

// String returns the string representation of Granularity
func (g Granularity) String() string {
	return string(g)
}

// IsValid checks if the granularity is supported
func (g Granularity) IsValid() bool {
	return g == GranularityDaily || g == GranularityWeekly || g == GranularityMonthly
}

// ParseGranularity parses a granularity, defaulting to daily on empty input
func ParseGranularity(s string) (Granularity, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return GranularityDaily, nil
	}
	g := Granularity(s)
	if !g.IsValid() {
		return "", fmt.Errorf("invalid granularity '%s': must be daily, weekly or monthly", s)
	}
	return g, nil
}

// Truncate returns the start of the period that contains t.
// Weeks start on Monday.
func (g Granularity) Truncate(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	switch g {
	case GranularityWeekly:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case GranularityMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	default:
		return day
	}
}

// Label formats the period starting at t
func (g Granularity) Label(t time.Time) string {
	switch g {
	case GranularityWeekly:
		start := g.Truncate(t)
		return fmt.Sprintf("Week of %s", start.Format("2006-01-02"))
	case GranularityMonthly:
		return t.Format("January 2006")
	default:
		return t.Format("2006-01-02")
	}
}

// PeriodLabel describes the span from first to last, collapsing equal periods
func (g Granularity) PeriodLabel(first, last time.Time) string {
	from := g.Label(g.Truncate(first))
	to := g.Label(g.Truncate(last))
	if from == to {
		return from
	}
	return fmt.Sprintf("%s to %s", from, to)
}

// ParseTimeWithFormats attempts to parse time from string using the formats
// seen in POS and platform exports
func ParseTimeWithFormats(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("time string cannot be empty")
	}

	formats := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
		"02/01/2006 15:04:05",
		"02/01/2006 15:04",
		"02/01/2006",
		"02-01-2006 15:04",
		"02-01-2006",
		"2006/01/02",
		"02 Jan 2006",
		"02 Jan 2006 15:04",
		"Jan 2, 2006",
		"January 2, 2006",
	}

	var lastErr error
	for _, format := range formats {
		t, err := time.Parse(format, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}

	return time.Time{}, fmt.Errorf("unable to parse time '%s': %w", s, lastErr)
}
