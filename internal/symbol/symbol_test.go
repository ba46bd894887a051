package symbol

import (
	"errors"
	"testing"
)

func TestNormalize_Valid(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"AAPL", "AAPL"},
		{"aapl", "AAPL"},
		{"  tsLa ", "TSLA"},
		{"brk.b", "BRK.B"},
		{"RDS-A", "RDS-A"},
	}
	for _, tt := range tests {
		got, err := Normalize(tt.in)
		if err != nil {
			t.Errorf("Normalize(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize_Invalid(t *testing.T) {
	tests := []string{
		"",
		"   ",
		"1ABC",
		"AA PL",
		"$AAPL",
		"ABCDEFGHIJK", // too long
	}
	for _, in := range tests {
		_, err := Normalize(in)
		if !errors.Is(err, ErrInvalidSymbol) {
			t.Errorf("Normalize(%q): expected ErrInvalidSymbol, got %v", in, err)
		}
	}
}

func TestMustNormalize_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for invalid ticker")
		}
	}()
	MustNormalize("not a ticker")
}
