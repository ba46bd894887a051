// Package model defines the core domain types shared across the simulator.
// All monetary values use shopspring/decimal, never float64.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimestampLayout is the rendering used for TradeRecord timestamps.
const TimestampLayout = "2006-01-02T15:04:05"

// RecordType tags a TradeRecord.
type RecordType string

const (
	RecordDeposit    RecordType = "deposit"
	RecordWithdrawal RecordType = "withdrawal"
	RecordBuy        RecordType = "buy"
	RecordSell       RecordType = "sell"
)

// TradeRecord is an immutable record of one cash-affecting event.
// Once appended to a ledger's history it is never modified or deleted.
type TradeRecord struct {
	ID          string              `json:"id"`
	Type        RecordType          `json:"type"`
	Symbol      string              `json:"symbol"`       // empty for cash records
	Quantity    int64               `json:"quantity"`     // zero for cash records
	Price       decimal.NullDecimal `json:"price"`        // null for cash records
	TotalAmount decimal.Decimal     `json:"total_amount"` // signed: +inflow, -outflow
	Timestamp   time.Time           `json:"timestamp"`
}

// IsTrade reports whether the record is a buy or a sell.
func (r TradeRecord) IsTrade() bool {
	return r.Type == RecordBuy || r.Type == RecordSell
}

// Stamp renders the record timestamp.
func (r TradeRecord) Stamp() string {
	return r.Timestamp.Format(TimestampLayout)
}

// Position is a holding of shares in one symbol with a running
// weighted-average cost basis. Shares is always > 0.
//
// Cost is the exact total paid for the shares held; AvgCost is derived
// from it and is only ever display-rounded.
type Position struct {
	Symbol  string          `json:"symbol"`
	Shares  int64           `json:"shares"`
	AvgCost decimal.Decimal `json:"avg_cost"`
	Cost    decimal.Decimal `json:"cost_basis"`
}

// CostBasis returns the total cost of the shares held.
func (p Position) CostBasis() decimal.Decimal {
	return p.Cost
}

// Holding is a Position marked to the current quote.
type Holding struct {
	Position
	MarketPrice   decimal.Decimal `json:"market_price"`
	MarketValue   decimal.Decimal `json:"market_value"`   // shares * market price
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"` // market value - cost basis
}

// Totals is the cash/positions split of the account value.
type Totals struct {
	Cash           decimal.Decimal `json:"cash"`
	PositionsValue decimal.Decimal `json:"positions_value"`
	Total          decimal.Decimal `json:"total"`
}

// Portfolio aggregates holdings, totals and profit/loss for the account owner.
type Portfolio struct {
	Owner      string          `json:"owner"`
	Totals     Totals          `json:"totals"`
	Holdings   []Holding       `json:"holdings"`
	Basis      decimal.Decimal `json:"basis"` // contributions per PnLPolicy
	ProfitLoss decimal.Decimal `json:"profit_loss"`
	PnLPolicy  string          `json:"pnl_policy"`
}
