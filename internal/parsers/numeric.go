package parsers

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// CleanNumber converts raw cell text into a number. Thousands separators are
// removed, then every character outside [0-9.-], and the longest leading
// numeric prefix is parsed. Anything unparseable is zero.
//
// A trailing minus with no leading sign is accounting notation for a negative
// amount, so "1,000-" is -1000.
func CleanNumber(s string) decimal.Decimal {
	s = strings.ReplaceAll(s, ",", "")

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return decimal.Zero
	}

	negative := false
	body := cleaned
	if strings.HasPrefix(body, "-") {
		negative = true
		body = body[1:]
	} else if strings.HasSuffix(body, "-") && strings.Count(body, "-") == 1 {
		negative = true
		body = strings.TrimSuffix(body, "-")
	}

	prefix := numericPrefix(body)
	if prefix == "" {
		return decimal.Zero
	}

	value, err := decimal.NewFromString(prefix)
	if err != nil {
		return decimal.Zero
	}
	if negative {
		value = value.Neg()
	}
	return value
}

// numericPrefix returns the longest leading digits[.digits] run of s.
// A leading ".5" is accepted; a lone "." is not.
func numericPrefix(s string) string {
	end := 0
	digits := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
		digits++
	}
	if end < len(s) && s[end] == '.' {
		frac := end + 1
		for frac < len(s) && s[frac] >= '0' && s[frac] <= '9' {
			frac++
		}
		if frac > end+1 {
			digits += frac - end - 1
			end = frac
		}
	}
	if digits == 0 {
		return ""
	}
	if s[0] == '.' {
		return "0" + s[:end]
	}
	return s[:end]
}

// CoerceNumber converts a cell of any type into a number. It never fails:
// nil and unsupported types are zero.
func CoerceNumber(v any) decimal.Decimal {
	switch value := v.(type) {
	case nil:
		return decimal.Zero
	case string:
		return CleanNumber(value)
	case decimal.Decimal:
		return value
	case *decimal.Decimal:
		if value == nil {
			return decimal.Zero
		}
		return *value
	case int:
		return decimal.NewFromInt(int64(value))
	case int32:
		return decimal.NewFromInt32(value)
	case int64:
		return decimal.NewFromInt(value)
	case float32:
		return CoerceNumber(float64(value))
	case float64:
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(value)
	case fmt.Stringer:
		return CleanNumber(value.String())
	default:
		return decimal.Zero
	}
}
