// Package ledger implements the single-user trading account: cash balance,
// per-symbol positions with weighted-average cost, and an append-only
// history of cash-affecting events.
//
// Every mutating operation validates first and mutates second, so a failed
// call leaves cash, positions and history exactly as they were. Operations
// are serialized by a mutex; a Ledger may be shared between goroutines.
package ledger

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atmx/paper-trader/internal/model"
	"github.com/atmx/paper-trader/internal/symbol"
)

// Operation names a mutating ledger call.
type Operation string

const (
	OpDeposit  Operation = "deposit"
	OpWithdraw Operation = "withdraw"
	OpBuy      Operation = "buy"
	OpSell     Operation = "sell"
)

func (o Operation) noun() string {
	if o == OpWithdraw {
		return "withdrawal"
	}
	return string(o)
}

// Quoter resolves a symbol to its current unit price.
type Quoter interface {
	Quote(symbol string) (decimal.Decimal, error)
}

// Event describes one completed mutating call, successful or not.
type Event struct {
	Op            Operation
	Symbol        string
	Err           error
	Elapsed       time.Duration
	Cash          decimal.Decimal // cash after the call
	OpenPositions int
}

// Observer is notified after every mutating call, outside the ledger lock.
type Observer interface {
	Observe(Event)
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock sets the time source used for record timestamps.
func WithClock(clock func() time.Time) Option {
	return func(l *Ledger) { l.clock = clock }
}

// WithPnLPolicy selects how withdrawals affect the profit/loss basis.
func WithPnLPolicy(p PnLPolicy) Option {
	return func(l *Ledger) { l.pnlPolicy = p }
}

// WithObserver registers an observer for mutating calls.
func WithObserver(o Observer) Option {
	return func(l *Ledger) { l.observer = o }
}

// WithOwner labels the account.
func WithOwner(owner string) Option {
	return func(l *Ledger) { l.owner = owner }
}

// Ledger is the account state. Create one with New.
type Ledger struct {
	mu sync.Mutex

	cash      decimal.Decimal
	opening   decimal.Decimal
	positions map[string]*model.Position
	order     []string // position symbols in insertion order
	history   []model.TradeRecord

	quoter    Quoter
	clock     func() time.Time
	pnlPolicy PnLPolicy
	observer  Observer
	owner     string
}

// New creates a ledger holding opening cash, pricing trades with q.
// The opening balance counts towards the profit/loss basis but is not a
// history record.
func New(opening decimal.Decimal, q Quoter, opts ...Option) (*Ledger, error) {
	if opening.IsNegative() {
		return nil, fmt.Errorf("%w: %s", ErrNegativeOpening, opening)
	}
	if q == nil {
		return nil, fmt.Errorf("ledger: quoter is required")
	}
	l := &Ledger{
		cash:      opening,
		opening:   opening,
		positions: make(map[string]*model.Position),
		quoter:    q,
		clock:     func() time.Time { return time.Now().UTC() },
		pnlPolicy: PnLNet,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Deposit adds amount to cash.
func (l *Ledger) Deposit(amount decimal.Decimal) error {
	return l.run(OpDeposit, "", func() error {
		if !amount.IsPositive() {
			return &AmountError{Op: OpDeposit, Amount: amount}
		}
		l.cash = l.cash.Add(amount)
		l.appendRecord(model.RecordDeposit, "", 0, decimal.NullDecimal{}, amount)
		return nil
	})
}

// Withdraw removes amount from cash. Withdrawing the full balance is allowed.
func (l *Ledger) Withdraw(amount decimal.Decimal) error {
	return l.run(OpWithdraw, "", func() error {
		if !amount.IsPositive() {
			return &AmountError{Op: OpWithdraw, Amount: amount}
		}
		if amount.GreaterThan(l.cash) {
			return &InsufficientFundsError{Available: l.cash, Requested: amount}
		}
		l.cash = l.cash.Sub(amount)
		l.appendRecord(model.RecordWithdrawal, "", 0, decimal.NullDecimal{}, amount.Neg())
		return nil
	})
}

// Buy purchases quantity shares of sym at the quoted price and returns the
// total cost.
func (l *Ledger) Buy(sym string, quantity int64) (decimal.Decimal, error) {
	var cost decimal.Decimal
	err := l.run(OpBuy, sym, func() error {
		if quantity <= 0 {
			return &QuantityError{Op: OpBuy, Quantity: quantity}
		}
		price, err := l.quoter.Quote(sym)
		if err != nil {
			return err
		}
		// Quote already rejected malformed symbols.
		norm, err := symbol.Normalize(sym)
		if err != nil {
			return err
		}
		pos, held := l.positions[norm]
		if held && quantity > math.MaxInt64-pos.Shares {
			return &PositionLimitError{Symbol: norm, Held: pos.Shares, Requested: quantity}
		}
		qty := decimal.NewFromInt(quantity)
		total := price.Mul(qty)
		if total.GreaterThan(l.cash) {
			return &InsufficientFundsError{Available: l.cash, Requested: total}
		}

		l.cash = l.cash.Sub(total)
		if held {
			// Weighted average of the exact cost basis and this purchase.
			pos.Shares += quantity
			pos.Cost = pos.Cost.Add(total)
			pos.AvgCost = pos.Cost.Div(decimal.NewFromInt(pos.Shares))
		} else {
			l.positions[norm] = &model.Position{Symbol: norm, Shares: quantity, AvgCost: price, Cost: total}
			l.order = append(l.order, norm)
		}
		l.appendRecord(model.RecordBuy, norm, quantity, decimal.NewNullDecimal(price), total.Neg())
		cost = total
		return nil
	})
	return cost, err
}

// Sell disposes of quantity shares of sym at the current quote (not the
// average cost) and returns the proceeds. Average cost is unchanged; the
// position is removed once no shares remain.
func (l *Ledger) Sell(sym string, quantity int64) (decimal.Decimal, error) {
	var proceeds decimal.Decimal
	err := l.run(OpSell, sym, func() error {
		if quantity <= 0 {
			return &QuantityError{Op: OpSell, Quantity: quantity}
		}
		norm, err := symbol.Normalize(sym)
		if err != nil {
			return &NoPositionError{Symbol: sym}
		}
		pos, ok := l.positions[norm]
		if !ok {
			return &NoPositionError{Symbol: norm}
		}
		if quantity > pos.Shares {
			return &InsufficientSharesError{Symbol: norm, Available: pos.Shares, Requested: quantity}
		}
		price, err := l.quoter.Quote(norm)
		if err != nil {
			return err
		}

		total := price.Mul(decimal.NewFromInt(quantity))
		l.cash = l.cash.Add(total)
		remaining := pos.Shares - quantity
		if remaining == 0 {
			l.removePosition(norm)
		} else {
			pos.Cost = pos.Cost.Mul(decimal.NewFromInt(remaining)).Div(decimal.NewFromInt(pos.Shares))
			pos.Shares = remaining
		}
		l.appendRecord(model.RecordSell, norm, quantity, decimal.NewNullDecimal(price), total)
		proceeds = total
		return nil
	})
	return proceeds, err
}

// run executes fn under the ledger lock and notifies the observer after
// releasing it.
func (l *Ledger) run(op Operation, sym string, fn func() error) error {
	start := time.Now()

	l.mu.Lock()
	err := fn()
	ev := Event{
		Op:            op,
		Symbol:        sym,
		Err:           err,
		Cash:          l.cash,
		OpenPositions: len(l.positions),
	}
	l.mu.Unlock()

	if l.observer != nil {
		ev.Elapsed = time.Since(start)
		l.observer.Observe(ev)
	}
	return err
}

// appendRecord must be called with l.mu held, after all validation passed.
func (l *Ledger) appendRecord(typ model.RecordType, sym string, qty int64, price decimal.NullDecimal, total decimal.Decimal) {
	l.history = append(l.history, model.TradeRecord{
		ID:          uuid.NewString(),
		Type:        typ,
		Symbol:      sym,
		Quantity:    qty,
		Price:       price,
		TotalAmount: total,
		Timestamp:   l.clock(),
	})
}

func (l *Ledger) removePosition(sym string) {
	delete(l.positions, sym)
	for i, s := range l.order {
		if s == sym {
			l.order = append(l.order[:i], l.order[i+1:]...)
			return
		}
	}
}
