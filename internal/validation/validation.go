// Package validation holds the small rule set applied on creation paths.
package validation

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Rule codes stored in Violations.
const (
	RuleRequired = "required"
	RuleTooShort = "too_short"
	RuleTooLong  = "too_long"
	RulePositive = "must_be_positive"
)

// Violations maps a field name to the first rule it broke.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Err returns nil when nothing was violated, otherwise an *Error.
func (v Violations) Err() error {
	if v.Empty() {
		return nil
	}
	return &Error{Violations: v}
}

// Error reports every violated field and rule.
type Error struct {
	Violations Violations
}

func (e *Error) Error() string {
	fields := make([]string, 0, len(e.Violations))
	for f := range e.Violations {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + e.Violations[f]
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = RuleRequired
	}
}

// RequiredPtr treats nil like an empty string.
func RequiredPtr(field string, value *string, v Violations) {
	if value == nil {
		v[field] = RuleRequired
		return
	}
	Required(field, *value, v)
}

// Length checks the rune count of value. Fields already marked are left alone.
func Length(field, value string, minLen, maxLen int, v Violations) {
	if _, ok := v[field]; ok {
		return
	}
	n := utf8.RuneCountInString(value)
	switch {
	case n < minLen:
		v[field] = RuleTooShort
	case maxLen > 0 && n > maxLen:
		v[field] = RuleTooLong
	}
}

func PositiveInt(field string, val int, v Violations) {
	if val <= 0 {
		v[field] = RulePositive
	}
}
