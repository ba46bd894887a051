// Package trade interprets account commands ("buy AAPL 10", "pnl", ...)
// against a ledger. It is the single entry point used by the interactive
// session, the scenario runner and the one-shot CLI commands, and it is
// the layer that logs: the ledger itself stays silent.
package trade

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/atmx/paper-trader/internal/ledger"
	"github.com/atmx/paper-trader/internal/symbol"
)

var (
	// ErrUnknownCommand is returned for an unrecognized verb.
	ErrUnknownCommand = errors.New("trade: unknown command")

	// ErrUsage is returned when a command has missing or malformed arguments.
	ErrUsage = errors.New("trade: bad arguments")
)

// Quoter is the price source the service reports from.
type Quoter interface {
	Quote(symbol string) (decimal.Decimal, error)
	Supports(symbol string) bool
	Symbols() []string
}

// TradeObserver receives the size of every successful trade.
type TradeObserver interface {
	ObserveTrade(op ledger.Operation, symbol string, quantity int64)
}

// Reply is the outcome of one command. Message is for humans; Data carries
// the structured result for JSON output.
type Reply struct {
	Command string `json:"command"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Fill is the structured result of a successful buy or sell. Total is the
// cost of a buy or the proceeds of a sell.
type Fill struct {
	Symbol   string          `json:"symbol"`
	Quantity int64           `json:"quantity"`
	Total    decimal.Decimal `json:"total"`
}

// Service executes commands against one ledger. Concurrency control lives
// in the ledger; Service holds no mutable state of its own.
type Service struct {
	ledger   *ledger.Ledger
	quotes   Quoter
	observer TradeObserver
	logger   *slog.Logger
}

// NewService creates a new trade service.
// Pass nil for observer if trade volume metrics are not needed.
func NewService(l *ledger.Ledger, q Quoter, observer TradeObserver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		ledger:   l,
		quotes:   q,
		observer: observer,
		logger:   logger,
	}
}

// Ledger returns the underlying ledger.
func (s *Service) Ledger() *ledger.Ledger {
	return s.ledger
}

const helpText = `Commands:
  deposit <amount>        add cash
  withdraw <amount>       remove cash
  buy <symbol> <qty>      buy shares at the quoted price
  sell <symbol> <qty>     sell shares at the quoted price
  quote <symbol>          show the price of a symbol
  assets                  list tradable symbols
  balance                 show cash balance
  holdings                show open positions
  totals                  show cash, positions value and total
  pnl                     show profit/loss
  history                 show all transactions
  help                    show this text`

// Exec parses and runs one command line.
func (s *Service) Exec(line string) (Reply, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Reply{}, fmt.Errorf("%w: empty command", ErrUsage)
	}
	verb := strings.ToLower(fields[0])
	args := fields[1:]

	switch verb {
	case "deposit":
		return s.deposit(args)
	case "withdraw":
		return s.withdraw(args)
	case "buy":
		return s.buy(args)
	case "sell":
		return s.sell(args)
	case "quote":
		return s.quote(args)
	case "assets":
		return s.assets()
	case "balance":
		return s.balance()
	case "holdings":
		return s.holdings()
	case "totals":
		return s.totals()
	case "pnl":
		return s.pnl()
	case "history":
		return s.history()
	case "help":
		return Reply{Command: verb, Message: helpText}, nil
	default:
		return Reply{}, fmt.Errorf("%w: %q (try help)", ErrUnknownCommand, fields[0])
	}
}

// Reason labels err for scenario expectations: trade usage errors get their
// own labels, everything else defers to ledger.Reason.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrUsage):
		return "usage"
	case errors.Is(err, ErrUnknownCommand):
		return "unknown_command"
	default:
		return ledger.Reason(err)
	}
}

// --- Mutating commands ---

func (s *Service) deposit(args []string) (Reply, error) {
	amount, err := parseAmount("deposit", args)
	if err != nil {
		return Reply{}, err
	}
	if err := s.ledger.Deposit(amount); err != nil {
		s.rejected(ledger.OpDeposit, "", err)
		return Reply{}, err
	}
	s.logger.Info("cash deposited", "amount", amount.String(), "cash", s.ledger.Cash().String())
	return Reply{Command: "deposit", Message: "Deposited " + formatMoney(amount), Data: amount}, nil
}

func (s *Service) withdraw(args []string) (Reply, error) {
	amount, err := parseAmount("withdraw", args)
	if err != nil {
		return Reply{}, err
	}
	if err := s.ledger.Withdraw(amount); err != nil {
		s.rejected(ledger.OpWithdraw, "", err)
		return Reply{}, err
	}
	s.logger.Info("cash withdrawn", "amount", amount.String(), "cash", s.ledger.Cash().String())
	return Reply{Command: "withdraw", Message: "Withdrew " + formatMoney(amount), Data: amount}, nil
}

func (s *Service) buy(args []string) (Reply, error) {
	sym, qty, err := parseTrade("buy", args)
	if err != nil {
		return Reply{}, err
	}
	cost, err := s.ledger.Buy(sym, qty)
	if err != nil {
		s.rejected(ledger.OpBuy, sym, err)
		return Reply{}, err
	}
	res := Fill{Symbol: symbol.MustNormalize(sym), Quantity: qty, Total: cost}
	s.executed(ledger.OpBuy, res)
	return Reply{
		Command: "buy",
		Message: fmt.Sprintf("Bought %d shares of %s for %s", qty, res.Symbol, formatMoney(cost)),
		Data:    res,
	}, nil
}

func (s *Service) sell(args []string) (Reply, error) {
	sym, qty, err := parseTrade("sell", args)
	if err != nil {
		return Reply{}, err
	}
	proceeds, err := s.ledger.Sell(sym, qty)
	if err != nil {
		s.rejected(ledger.OpSell, sym, err)
		return Reply{}, err
	}
	res := Fill{Symbol: symbol.MustNormalize(sym), Quantity: qty, Total: proceeds}
	s.executed(ledger.OpSell, res)
	return Reply{
		Command: "sell",
		Message: fmt.Sprintf("Sold %d shares of %s for %s", qty, res.Symbol, formatMoney(proceeds)),
		Data:    res,
	}, nil
}

func (s *Service) executed(op ledger.Operation, f Fill) {
	if s.observer != nil {
		s.observer.ObserveTrade(op, f.Symbol, f.Quantity)
	}
	s.logger.Info("trade executed",
		"op", string(op),
		"symbol", f.Symbol,
		"qty", f.Quantity,
		"total", f.Total.String(),
		"cash", s.ledger.Cash().String(),
	)
}

func (s *Service) rejected(op ledger.Operation, sym string, err error) {
	s.logger.Warn("operation rejected",
		"op", string(op),
		"symbol", sym,
		"reason", ledger.Reason(err),
		"err", err,
	)
}

// --- Read-only commands ---

func (s *Service) quote(args []string) (Reply, error) {
	if len(args) != 1 {
		return Reply{}, fmt.Errorf("%w: usage: quote <symbol>", ErrUsage)
	}
	price, err := s.quotes.Quote(args[0])
	if err != nil {
		return Reply{}, err
	}
	sym := symbol.MustNormalize(args[0])
	msg := fmt.Sprintf("%s: %s", sym, formatMoney(price))
	if !s.quotes.Supports(sym) {
		// Only reachable under the lenient policy.
		msg += " (not in price table)"
	}
	return Reply{
		Command: "quote",
		Message: msg,
		Data:    map[string]decimal.Decimal{sym: price},
	}, nil
}

func (s *Service) assets() (Reply, error) {
	prices := make(map[string]decimal.Decimal)
	var lines []string
	for _, sym := range s.quotes.Symbols() {
		price, err := s.quotes.Quote(sym)
		if err != nil {
			return Reply{}, err
		}
		prices[sym] = price
		lines = append(lines, fmt.Sprintf("%-6s %12s", sym, formatMoney(price)))
	}
	return Reply{Command: "assets", Message: strings.Join(lines, "\n"), Data: prices}, nil
}

func (s *Service) balance() (Reply, error) {
	cash := s.ledger.Cash()
	return Reply{Command: "balance", Message: "Balance: " + formatMoney(cash), Data: cash}, nil
}

func (s *Service) holdings() (Reply, error) {
	holdings, err := s.ledger.Holdings()
	if err != nil {
		return Reply{}, err
	}
	return Reply{Command: "holdings", Message: renderHoldings(holdings), Data: holdings}, nil
}

func (s *Service) totals() (Reply, error) {
	totals, err := s.ledger.Totals()
	if err != nil {
		return Reply{}, err
	}
	return Reply{Command: "totals", Message: renderTotals(totals), Data: totals}, nil
}

func (s *Service) pnl() (Reply, error) {
	p, err := s.ledger.Portfolio()
	if err != nil {
		return Reply{}, err
	}
	msg := fmt.Sprintf("Profit/Loss: %s (value %s, basis %s, policy %s)",
		formatMoney(p.ProfitLoss), formatMoney(p.Totals.Total), formatMoney(p.Basis), p.PnLPolicy)
	return Reply{Command: "pnl", Message: msg, Data: p}, nil
}

func (s *Service) history() (Reply, error) {
	h := s.ledger.History()
	return Reply{Command: "history", Message: renderHistory(h), Data: h}, nil
}

// --- Argument parsing ---

func parseAmount(verb string, args []string) (decimal.Decimal, error) {
	if len(args) != 1 {
		return decimal.Zero, fmt.Errorf("%w: usage: %s <amount>", ErrUsage, verb)
	}
	amount, err := decimal.NewFromString(strings.TrimPrefix(args[0], "$"))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid amount %q", ErrUsage, args[0])
	}
	return amount, nil
}

func parseTrade(verb string, args []string) (string, int64, error) {
	if len(args) != 2 {
		return "", 0, fmt.Errorf("%w: usage: %s <symbol> <qty>", ErrUsage, verb)
	}
	qty, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("%w: invalid quantity %q (whole shares only)", ErrUsage, args[1])
	}
	return args[0], qty, nil
}
