package domain

import (
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/sikndrR/fitnessApp/internal/progress"
)

// forbiddenKeyChars cannot appear in a path segment: '/' splits segments and the
// rest are reserved by hierarchical stores that key on them.
const forbiddenKeyChars = "/.#$[]"

// ValidateDate checks the YYYY-MM-DD form used as a date key.
func ValidateDate(date string) error {
	if len(date) != len(dateLayout) {
		return invalid("date", "%q is not in YYYY-MM-DD form", date)
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return invalid("date", "%q is not a calendar date", date)
	}
	return nil
}

// IsDateKey reports whether key names a date record.
func IsDateKey(key string) bool {
	return ValidateDate(key) == nil
}

// ValidateUserKey checks a canonical key produced by identity.Normalize.
func ValidateUserKey(user string) error {
	return validateSegment("user", user)
}

// ValidateName checks an entry name before it becomes a path segment.
func ValidateName(name string) error {
	return validateSegment("name", name)
}

func validateSegment(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid(field, "must not be empty")
	}
	if strings.ContainsAny(value, forbiddenKeyChars) {
		return invalid(field, "%q must not contain any of %q", value, forbiddenKeyChars)
	}
	for _, r := range value {
		if unicode.IsControl(r) {
			return invalid(field, "%q must not contain control characters", value)
		}
	}
	return nil
}

// ValidateAttributes checks that attrs carries exactly the category's fields, each a
// non-negative decimal within progress.ParseAmount's range, and returns a trimmed copy.
func ValidateAttributes(category Category, attrs Attributes) (Attributes, error) {
	fields := category.Fields()
	if fields == nil {
		return nil, invalid("category", "unknown category %q", category)
	}
	allowed := make(map[string]struct{}, len(fields))
	out := make(Attributes, len(fields))
	for _, field := range fields {
		allowed[field] = struct{}{}
		raw, ok := attrs[field]
		if !ok {
			return nil, invalid(field, "is required")
		}
		value := strings.TrimSpace(raw)
		if _, err := parseNonNegative(field, value); err != nil {
			return nil, err
		}
		out[field] = value
	}
	for key := range attrs {
		if _, ok := allowed[key]; !ok {
			return nil, invalid(key, "is not an attribute of %s entries", category)
		}
	}
	return out, nil
}

func parseNonNegative(field, value string) (decimal.Decimal, error) {
	d, err := progress.ParseAmount(value)
	if errors.Is(err, progress.ErrOutOfRange) {
		return decimal.Zero, invalid(field, "%q is out of range", value)
	}
	if err != nil {
		return decimal.Zero, invalid(field, "%q is not a number", value)
	}
	if d.IsNegative() {
		return decimal.Zero, invalid(field, "must not be negative")
	}
	return d, nil
}

func parsePositive(field, value string) (float64, error) {
	d, err := parseNonNegative(field, strings.TrimSpace(value))
	if err != nil {
		return 0, err
	}
	if d.IsZero() {
		return 0, invalid(field, "must be greater than zero")
	}
	return d.InexactFloat64(), nil
}
