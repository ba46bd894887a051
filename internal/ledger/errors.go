package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/atmx/paper-trader/internal/quote"
	"github.com/atmx/paper-trader/internal/symbol"
)

var (
	// ErrInvalidAmount is returned when a deposit or withdrawal is <= 0.
	ErrInvalidAmount = errors.New("ledger: amount must be positive")

	// ErrInvalidQuantity is returned when a buy or sell quantity is <= 0.
	ErrInvalidQuantity = errors.New("ledger: quantity must be positive")

	// ErrInsufficientFunds is returned when a withdrawal or purchase would
	// drive cash below zero.
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")

	// ErrInsufficientShares is returned when selling more than is held.
	ErrInsufficientShares = errors.New("ledger: insufficient shares")

	// ErrNoPosition is returned when selling a symbol that is not held.
	ErrNoPosition = errors.New("ledger: no position")

	// ErrNegativeOpening is returned by New for a negative opening balance.
	ErrNegativeOpening = errors.New("ledger: opening cash must not be negative")
)

// AmountError carries a rejected deposit or withdrawal amount.
type AmountError struct {
	Op     Operation
	Amount decimal.Decimal
}

func (e *AmountError) Error() string {
	return fmt.Sprintf("ledger: %s amount must be positive, got %s", e.Op.noun(), e.Amount)
}

func (e *AmountError) Unwrap() error { return ErrInvalidAmount }

// QuantityError carries a rejected buy or sell quantity.
type QuantityError struct {
	Op       Operation
	Quantity int64
}

func (e *QuantityError) Error() string {
	return fmt.Sprintf("ledger: %s quantity must be positive, got %d", e.Op.noun(), e.Quantity)
}

func (e *QuantityError) Unwrap() error { return ErrInvalidQuantity }

// PositionLimitError reports a buy that would overflow the share count of
// an existing position. It counts as an invalid quantity.
type PositionLimitError struct {
	Symbol    string
	Held      int64
	Requested int64
}

func (e *PositionLimitError) Error() string {
	return fmt.Sprintf("ledger: buying %d shares of %s would exceed the maximum position size (%d held)",
		e.Requested, e.Symbol, e.Held)
}

func (e *PositionLimitError) Unwrap() error { return ErrInvalidQuantity }

// InsufficientFundsError reports available vs requested cash.
type InsufficientFundsError struct {
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("ledger: insufficient funds: $%s available, need $%s",
		e.Available.StringFixed(2), e.Requested.StringFixed(2))
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// InsufficientSharesError reports available vs requested shares.
type InsufficientSharesError struct {
	Symbol    string
	Available int64
	Requested int64
}

func (e *InsufficientSharesError) Error() string {
	return fmt.Sprintf("ledger: insufficient shares of %s: %d available, need %d",
		e.Symbol, e.Available, e.Requested)
}

func (e *InsufficientSharesError) Unwrap() error { return ErrInsufficientShares }

// NoPositionError names a symbol that has no open position. It matches both
// ErrNoPosition and quote.ErrUnknownSymbol.
type NoPositionError struct {
	Symbol string
}

func (e *NoPositionError) Error() string {
	return fmt.Sprintf("ledger: no position found for symbol '%s'", e.Symbol)
}

func (e *NoPositionError) Is(target error) bool {
	return target == ErrNoPosition || target == quote.ErrUnknownSymbol
}

// Reason maps an operation error to a stable label. It returns "ok" for nil
// and "internal" for errors outside the ledger taxonomy.
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrInsufficientShares):
		return "insufficient_shares"
	case errors.Is(err, ErrNoPosition):
		// Checked before ErrUnknownSymbol: NoPositionError matches both.
		return "no_position"
	case errors.Is(err, quote.ErrUnknownSymbol), errors.Is(err, symbol.ErrInvalidSymbol):
		return "unknown_symbol"
	default:
		return "internal"
	}
}
