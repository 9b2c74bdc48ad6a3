package phone

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw    string
		region string
		want   string
	}{
		{"+20 100 123 4567", "EG", "+201001234567"},
		{"01001234567", "EG", "+201001234567"},
		{" 0100-123-4567 ", "eg", "+201001234567"},
		{"+1 (650) 253-0000", "EG", "+16502530000"},
		{"650 253 0000", "US", "+16502530000"},
	}
	for _, tt := range tests {
		got, err := Normalize(tt.raw, tt.region)
		if err != nil {
			t.Errorf("Normalize(%q, %q): unexpected error %v", tt.raw, tt.region, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Normalize(%q, %q) = %q, want %q", tt.raw, tt.region, got, tt.want)
		}
	}
}

func TestNormalize_Invalid(t *testing.T) {
	for _, raw := range []string{"", "   ", "abc", "12345", "+20 1"} {
		if _, err := Normalize(raw, "EG"); !errors.Is(err, ErrInvalid) {
			t.Errorf("Normalize(%q): expected ErrInvalid, got %v", raw, err)
		}
	}
}
