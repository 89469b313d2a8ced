package validation

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/goliatone/go-formengine/pkg/schema"
)

var patternCache sync.Map // string -> *regexp.Regexp (nil when invalid)

// compilePattern anchors pattern so it must match the whole value. Invalid
// patterns return nil; schema.Check reports them at load time.
func compilePattern(pattern string) *regexp.Regexp {
	if cached, ok := patternCache.Load(pattern); ok {
		re, _ := cached.(*regexp.Regexp)
		return re
	}
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		re = nil
	}
	actual, _ := patternCache.LoadOrStore(pattern, re)
	typed, _ := actual.(*regexp.Regexp)
	return typed
}

// ValidateField runs the checks for one field in order (required, pattern,
// minimum, maximum) and returns the first failure, or nil. The returned
// Issue has no Path; callers that know it fill it in.
func ValidateField(field schema.Field, value any) *Issue {
	if IsEmpty(value) {
		if field.Required {
			return newIssue(field, CodeRequiredMissing, nil, fmt.Sprintf("%s is required", field.Label()))
		}
		return nil
	}

	if field.Pattern != "" && field.Kind.IsScalar() {
		if re := compilePattern(field.Pattern); re != nil && !re.MatchString(formatValue(value)) {
			return newIssue(field, CodePatternMismatch, map[string]any{"pattern": field.Pattern}, "Invalid "+field.Label())
		}
	}

	if field.HasMin() {
		if below, ok := compare(field, value, field.Min); ok && below < 0 {
			msg := fmt.Sprintf("%s must be at least %s", field.Label(), field.Min)
			if field.Kind.IsTemporal() {
				msg = fmt.Sprintf("%s must be after %s", field.Label(), field.Min)
			}
			return newIssue(field, CodeBelowMinimum, map[string]any{"min": field.Min}, msg)
		}
	}

	if field.HasMax() {
		if above, ok := compare(field, value, field.Max); ok && above > 0 {
			msg := fmt.Sprintf("%s must be at most %s", field.Label(), field.Max)
			if field.Kind.IsTemporal() {
				msg = fmt.Sprintf("%s must be before %s", field.Label(), field.Max)
			}
			return newIssue(field, CodeAboveMaximum, map[string]any{"max": field.Max}, msg)
		}
	}

	return nil
}

// Message is ValidateField reduced to its message; "" means valid.
func Message(field schema.Field, value any) string {
	if issue := ValidateField(field, value); issue != nil {
		return issue.Message
	}
	return ""
}

// compare orders value against bound for kinds that carry bounds. ok is false
// when the kind has no ordering or either side does not parse, in which case
// the bound never fails.
func compare(field schema.Field, value any, bound string) (int, bool) {
	switch {
	case field.Kind.IsNumeric():
		v, ok := ParseNumber(value)
		if !ok {
			return 0, false
		}
		b, ok := ParseNumber(bound)
		if !ok {
			return 0, false
		}
		switch {
		case v < b:
			return -1, true
		case v > b:
			return 1, true
		default:
			return 0, true
		}
	case field.Kind.IsTemporal():
		v, ok := ParseTime(value)
		if !ok {
			return 0, false
		}
		b, ok := ParseTime(bound)
		if !ok {
			return 0, false
		}
		return v.Compare(b), true
	default:
		return 0, false
	}
}

func newIssue(field schema.Field, code Code, params map[string]any, generated string) *Issue {
	msg := generated
	if field.ErrorMessage != "" {
		msg = field.ErrorMessage
	}
	return &Issue{Code: code, Message: msg, Params: params}
}
