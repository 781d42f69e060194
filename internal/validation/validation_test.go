package validation

import (
	"errors"
	"testing"
)

func TestLength(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"too short", "a", RuleTooShort},
		{"lower bound", "ab", ""},
		{"upper bound", "01234567890123456789012345678901234567890123456789", ""},
		{"too long", "012345678901234567890123456789012345678901234567890", RuleTooLong},
		{"runes not bytes", "éé", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := make(Violations)
			Length("name", tt.value, 2, 50, v)
			if got := v["name"]; got != tt.want {
				t.Errorf("Length(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestLength_KeepsRequired(t *testing.T) {
	v := make(Violations)
	Required("name", "  ", v)
	Length("name", "  ", 2, 50, v)
	if v["name"] != RuleRequired {
		t.Errorf("expected %q to win, got %q", RuleRequired, v["name"])
	}
}

func TestRequiredPtr(t *testing.T) {
	v := make(Violations)
	RequiredPtr("libelle", nil, v)
	if v["libelle"] != RuleRequired {
		t.Errorf("nil pointer should be required, got %q", v["libelle"])
	}
	s := "ok"
	v = make(Violations)
	RequiredPtr("libelle", &s, v)
	if !v.Empty() {
		t.Errorf("expected no violations, got %v", v)
	}
}

func TestViolations_Err(t *testing.T) {
	if err := make(Violations).Err(); err != nil {
		t.Fatalf("empty violations should give nil error, got %v", err)
	}

	v := Violations{"name": RuleTooShort, "libelle": RuleRequired}
	err := v.Err()
	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	want := "validation failed: libelle: required, name: too_short"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
