// Package symbol handles equity ticker normalization and validation.
package symbol

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// tickerRegex matches an uppercase ticker: a letter followed by up to nine
// letters, digits, dots or dashes. Examples: AAPL, BRK.B, RDS-A.
var tickerRegex = regexp.MustCompile(`^[A-Z][A-Z0-9.\-]{0,9}$`)

var ErrInvalidSymbol = errors.New("symbol: invalid ticker format")

// Normalize trims and uppercases a ticker and validates its format.
// Lookups everywhere in the simulator go through Normalize, which makes
// them case-insensitive.
func Normalize(s string) (string, error) {
	sym := strings.ToUpper(strings.TrimSpace(s))
	if !tickerRegex.MatchString(sym) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, s)
	}
	return sym, nil
}

// MustNormalize is Normalize for static tables; it panics on bad input.
func MustNormalize(s string) string {
	sym, err := Normalize(s)
	if err != nil {
		panic(err)
	}
	return sym
}
