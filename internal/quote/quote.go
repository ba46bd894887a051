// Package quote implements the fixed-table price oracle used by the ledger.
//
// Prices are static and in-memory: a Table is built once at start-up and
// every Quote call for the same symbol returns the same price. There is no
// market-data feed.
package quote

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/atmx/paper-trader/internal/symbol"
)

// Policy decides what happens when a symbol is not in the table.
type Policy int

const (
	// Strict fails with *UnknownSymbolError for symbols outside the table.
	Strict Policy = iota
	// Lenient quotes well-formed unknown symbols at zero.
	Lenient
)

func (p Policy) String() string {
	switch p {
	case Strict:
		return "strict"
	case Lenient:
		return "lenient"
	default:
		return "unknown"
	}
}

// ParsePolicy parses "strict" or "lenient".
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "strict", "":
		return Strict, nil
	case "lenient":
		return Lenient, nil
	default:
		return 0, fmt.Errorf("quote: unknown policy %q (expected strict or lenient)", s)
	}
}

var (
	// ErrUnknownSymbol is matched by every *UnknownSymbolError.
	ErrUnknownSymbol = errors.New("quote: unknown symbol")

	// ErrInvalidPrice is returned when a table price is not positive.
	ErrInvalidPrice = errors.New("quote: price must be positive")
)

// UnknownSymbolError names the symbol that could not be quoted.
type UnknownSymbolError struct {
	Symbol string
}

func (e *UnknownSymbolError) Error() string {
	return fmt.Sprintf("quote: symbol '%s' is not available for trading", e.Symbol)
}

func (e *UnknownSymbolError) Unwrap() error { return ErrUnknownSymbol }

// DefaultPrices is the built-in price table.
func DefaultPrices() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"AAPL":  decimal.NewFromInt(150),
		"TSLA":  decimal.NewFromInt(700),
		"GOOGL": decimal.NewFromInt(2500),
		"MSFT":  decimal.NewFromInt(300),
		"AMZN":  decimal.NewFromInt(3300),
		"NFLX":  decimal.NewFromInt(450),
		"NVDA":  decimal.NewFromInt(500),
		"META":  decimal.NewFromInt(320),
	}
}

// Table is an immutable symbol → price lookup.
// It is safe for concurrent use since it is never written after NewTable.
type Table struct {
	prices map[string]decimal.Decimal
	policy Policy
}

// NewTable builds a table from prices. Keys are normalized, so "aapl" and
// "AAPL" name the same entry. A nil or empty map selects DefaultPrices.
func NewTable(prices map[string]decimal.Decimal, policy Policy) (*Table, error) {
	if len(prices) == 0 {
		prices = DefaultPrices()
	}
	t := &Table{
		prices: make(map[string]decimal.Decimal, len(prices)),
		policy: policy,
	}
	for raw, price := range prices {
		sym, err := symbol.Normalize(raw)
		if err != nil {
			return nil, err
		}
		if !price.IsPositive() {
			return nil, fmt.Errorf("%w: %s=%s", ErrInvalidPrice, sym, price)
		}
		t.prices[sym] = price
	}
	return t, nil
}

// NewDefaultTable returns the built-in table under the given policy.
func NewDefaultTable(policy Policy) *Table {
	t, err := NewTable(nil, policy)
	if err != nil {
		panic(err) // static table
	}
	return t
}

// Policy returns the unknown-symbol policy of the table.
func (t *Table) Policy() Policy {
	return t.policy
}

// Quote returns the unit price for symbol. Malformed symbols fail under
// both policies; well-formed unknown symbols fail (Strict) or quote at
// zero (Lenient).
func (t *Table) Quote(s string) (decimal.Decimal, error) {
	sym, err := symbol.Normalize(s)
	if err != nil {
		return decimal.Zero, &UnknownSymbolError{Symbol: s}
	}
	price, ok := t.prices[sym]
	if !ok {
		if t.policy == Lenient {
			return decimal.Zero, nil
		}
		return decimal.Zero, &UnknownSymbolError{Symbol: sym}
	}
	return price, nil
}

// Supports reports whether symbol is in the table.
func (t *Table) Supports(s string) bool {
	sym, err := symbol.Normalize(s)
	if err != nil {
		return false
	}
	_, ok := t.prices[sym]
	return ok
}

// Symbols returns the supported tickers in sorted order.
func (t *Table) Symbols() []string {
	out := make([]string, 0, len(t.prices))
	for sym := range t.prices {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}
