package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/atmx/paper-trader/internal/model"
	"github.com/atmx/paper-trader/internal/symbol"
)

// PnLPolicy decides whether withdrawals reduce the profit/loss basis.
type PnLPolicy int

const (
	// PnLNet: basis = opening + deposits - withdrawals.
	PnLNet PnLPolicy = iota
	// PnLDeposits: basis = opening + deposits; withdrawals are ignored.
	PnLDeposits
)

func (p PnLPolicy) String() string {
	switch p {
	case PnLNet:
		return "net"
	case PnLDeposits:
		return "deposits"
	default:
		return "unknown"
	}
}

// ParsePnLPolicy parses "net" or "deposits".
func ParsePnLPolicy(s string) (PnLPolicy, error) {
	switch s {
	case "net", "":
		return PnLNet, nil
	case "deposits":
		return PnLDeposits, nil
	default:
		return 0, fmt.Errorf("ledger: unknown pnl policy %q (expected net or deposits)", s)
	}
}

// Owner returns the account label.
func (l *Ledger) Owner() string {
	return l.owner
}

// PnLPolicy returns the configured profit/loss policy.
func (l *Ledger) PnLPolicy() PnLPolicy {
	return l.pnlPolicy
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cash
}

// Positions returns a snapshot of open positions in insertion order.
func (l *Ledger) Positions() []model.Position {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.positionsLocked()
}

// Position returns the open position for sym, if any.
func (l *Ledger) Position(sym string) (model.Position, bool) {
	norm, err := symbol.Normalize(sym)
	if err != nil {
		return model.Position{}, false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	pos, ok := l.positions[norm]
	if !ok {
		return model.Position{}, false
	}
	return *pos, true
}

// History returns a copy of all records in call order.
func (l *Ledger) History() []model.TradeRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.TradeRecord, len(l.history))
	copy(out, l.history)
	return out
}

// Holdings marks every open position to its current quote.
func (l *Ledger) Holdings() ([]model.Holding, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	holdings, _, err := l.holdingsLocked()
	return holdings, err
}

// Totals returns cash, Σ shares×quote over positions, and their sum.
func (l *Ledger) Totals() (model.Totals, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalsLocked()
}

// Basis returns the contributions that profit/loss is measured against.
func (l *Ledger) Basis() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.basisLocked()
}

// ProfitLoss returns total portfolio value minus the basis.
func (l *Ledger) ProfitLoss() (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	totals, err := l.totalsLocked()
	if err != nil {
		return decimal.Zero, err
	}
	return totals.Total.Sub(l.basisLocked()), nil
}

// Portfolio returns a full valuation in one consistent snapshot.
func (l *Ledger) Portfolio() (model.Portfolio, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	holdings, value, err := l.holdingsLocked()
	if err != nil {
		return model.Portfolio{}, err
	}
	totals := model.Totals{
		Cash:           l.cash,
		PositionsValue: value,
		Total:          l.cash.Add(value),
	}
	basis := l.basisLocked()
	return model.Portfolio{
		Owner:      l.owner,
		Totals:     totals,
		Holdings:   holdings,
		Basis:      basis,
		ProfitLoss: totals.Total.Sub(basis),
		PnLPolicy:  l.pnlPolicy.String(),
	}, nil
}

func (l *Ledger) positionsLocked() []model.Position {
	out := make([]model.Position, 0, len(l.order))
	for _, sym := range l.order {
		out = append(out, *l.positions[sym])
	}
	return out
}

func (l *Ledger) holdingsLocked() ([]model.Holding, decimal.Decimal, error) {
	holdings := make([]model.Holding, 0, len(l.order))
	value := decimal.Zero
	for _, pos := range l.positionsLocked() {
		price, err := l.quoter.Quote(pos.Symbol)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("value %s: %w", pos.Symbol, err)
		}
		mv := price.Mul(decimal.NewFromInt(pos.Shares))
		holdings = append(holdings, model.Holding{
			Position:      pos,
			MarketPrice:   price,
			MarketValue:   mv,
			UnrealizedPnL: mv.Sub(pos.CostBasis()),
		})
		value = value.Add(mv)
	}
	return holdings, value, nil
}

func (l *Ledger) totalsLocked() (model.Totals, error) {
	_, value, err := l.holdingsLocked()
	if err != nil {
		return model.Totals{}, err
	}
	return model.Totals{
		Cash:           l.cash,
		PositionsValue: value,
		Total:          l.cash.Add(value),
	}, nil
}

func (l *Ledger) basisLocked() decimal.Decimal {
	basis := l.opening
	for _, r := range l.history {
		switch r.Type {
		case model.RecordDeposit:
			basis = basis.Add(r.TotalAmount)
		case model.RecordWithdrawal:
			if l.pnlPolicy == PnLNet {
				// TotalAmount is negative for withdrawals.
				basis = basis.Add(r.TotalAmount)
			}
		}
	}
	return basis
}
