package validation

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// IsEmpty reports whether value counts as missing for the required check:
// nil, the empty string, and empty lists. Zero, false, and "0" are values.
func IsEmpty(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case string:
		return typed == ""
	case []string:
		return len(typed) == 0
	case []any:
		return len(typed) == 0
	default:
		return false
	}
}

// ParseNumber reads value as a number. Strings are parsed like JavaScript's
// parseFloat: leading whitespace is skipped and the longest numeric prefix is
// used, so "12abc" is 12 and "abc" is not a number. ok is false for anything
// that does not yield a finite or infinite number.
func ParseNumber(value any) (float64, bool) {
	switch typed := value.(type) {
	case float64:
		return typed, !math.IsNaN(typed)
	case float32:
		return float64(typed), !math.IsNaN(float64(typed))
	case int:
		return float64(typed), true
	case int32:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case uint:
		return float64(typed), true
	case uint64:
		return float64(typed), true
	case json.Number:
		return ParseNumber(string(typed))
	case string:
		return parseFloatPrefix(typed)
	default:
		return 0, false
	}
}

func parseFloatPrefix(raw string) (float64, bool) {
	s := strings.TrimLeft(raw, " \t\n\r\v\f")
	if s == "" {
		return 0, false
	}

	i := 0
	if s[i] == '+' || s[i] == '-' {
		i++
	}
	if strings.HasPrefix(s[i:], "Infinity") {
		if s[0] == '-' {
			return math.Inf(-1), true
		}
		return math.Inf(1), true
	}

	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0, false
	}
	end := i

	// The exponent only counts when it carries at least one digit.
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && isDigit(s[j]) {
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			end = j
		}
	}

	parsed, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		// Out of range prefixes overflow to ±Inf, matching parseFloat.
		if errors.Is(err, strconv.ErrRange) {
			return parsed, true
		}
		return 0, false
	}
	return parsed, true
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// timeLayouts lists the accepted date and datetime encodings.
var timeLayouts = []string{
	time.DateOnly,
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// ParseTime reads value as a point in time. Layouts without a zone are read as
// UTC. ok is false when nothing matches.
func ParseTime(value any) (time.Time, bool) {
	switch typed := value.(type) {
	case time.Time:
		return typed, !typed.IsZero()
	case string:
		trimmed := strings.TrimSpace(typed)
		if trimmed == "" {
			return time.Time{}, false
		}
		for _, layout := range timeLayouts {
			if parsed, err := time.ParseInLocation(layout, trimmed, time.UTC); err == nil {
				return parsed, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// formatValue renders value for pattern matching.
func formatValue(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	default:
		return fmt.Sprint(typed)
	}
}
