package trade_test

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atmx/paper-trader/internal/ledger"
	"github.com/atmx/paper-trader/internal/model"
	"github.com/atmx/paper-trader/internal/quote"
	"github.com/atmx/paper-trader/internal/trade"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

type tradeCall struct {
	op  ledger.Operation
	sym string
	qty int64
}

type recordingObserver struct {
	calls []tradeCall
}

func (r *recordingObserver) ObserveTrade(op ledger.Operation, sym string, qty int64) {
	r.calls = append(r.calls, tradeCall{op, sym, qty})
}

// newTestService creates a Service over the default strict table with a
// fixed clock and a silent logger.
func newTestService(t *testing.T, cash float64) (*trade.Service, *recordingObserver) {
	t.Helper()
	table := quote.NewDefaultTable(quote.Strict)
	clock := func() time.Time { return time.Date(2023, 1, 1, 9, 30, 0, 0, time.UTC) }
	l, err := ledger.New(d(cash), table, ledger.WithClock(clock))
	if err != nil {
		t.Fatalf("failed to create ledger: %v", err)
	}
	obs := &recordingObserver{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return trade.NewService(l, table, obs, logger), obs
}

func mustExec(t *testing.T, svc *trade.Service, line string) trade.Reply {
	t.Helper()
	reply, err := svc.Exec(line)
	if err != nil {
		t.Fatalf("%q: unexpected error: %v", line, err)
	}
	return reply
}

// --- Mutating commands ---

func TestExec_DepositWithdraw(t *testing.T) {
	svc, _ := newTestService(t, 0)

	if got := mustExec(t, svc, "deposit 1500").Message; got != "Deposited $1,500.00" {
		t.Errorf("deposit message = %q", got)
	}
	if got := mustExec(t, svc, "withdraw $200.5").Message; got != "Withdrew $200.50" {
		t.Errorf("withdraw message = %q", got)
	}
	if got := mustExec(t, svc, "balance").Message; got != "Balance: $1,299.50" {
		t.Errorf("balance message = %q", got)
	}
}

func TestExec_BuySell(t *testing.T) {
	svc, obs := newTestService(t, 10000)

	reply := mustExec(t, svc, "buy aapl 10")
	if reply.Message != "Bought 10 shares of AAPL for $1,500.00" {
		t.Errorf("buy message = %q", reply.Message)
	}
	fill, ok := reply.Data.(trade.Fill)
	if !ok {
		t.Fatalf("buy data is %T, want trade.Fill", reply.Data)
	}
	if fill.Symbol != "AAPL" || fill.Quantity != 10 || !fill.Total.Equal(d(1500)) {
		t.Errorf("unexpected fill: %+v", fill)
	}

	reply = mustExec(t, svc, "SELL AAPL 4")
	if reply.Message != "Sold 4 shares of AAPL for $600.00" {
		t.Errorf("sell message = %q", reply.Message)
	}

	if !svc.Ledger().Cash().Equal(d(9100)) {
		t.Errorf("cash = %s, want 9100", svc.Ledger().Cash())
	}

	want := []tradeCall{
		{ledger.OpBuy, "AAPL", 10},
		{ledger.OpSell, "AAPL", 4},
	}
	if len(obs.calls) != len(want) {
		t.Fatalf("observer saw %d trades, want %d", len(obs.calls), len(want))
	}
	for i := range want {
		if obs.calls[i] != want[i] {
			t.Errorf("trade %d = %+v, want %+v", i, obs.calls[i], want[i])
		}
	}
}

func TestExec_RejectedTradeNotObserved(t *testing.T) {
	svc, obs := newTestService(t, 100)

	_, err := svc.Exec("buy AAPL 10")
	if !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}
	if len(obs.calls) != 0 {
		t.Errorf("observer saw %d trades, want 0", len(obs.calls))
	}
}

func TestExec_Errors(t *testing.T) {
	tests := []struct {
		line   string
		reason string
	}{
		{"", "usage"},
		{"dance", "unknown_command"},
		{"deposit", "usage"},
		{"deposit lots", "usage"},
		{"deposit 0", "invalid_amount"},
		{"withdraw -5", "invalid_amount"},
		{"withdraw 20000", "insufficient_funds"},
		{"buy AAPL", "usage"},
		{"buy AAPL 1.5", "usage"},
		{"buy AAPL 0", "invalid_quantity"},
		{"buy XYZ 1", "unknown_symbol"},
		{"buy $$$ 1", "unknown_symbol"},
		{"sell AAPL 1", "no_position"},
		{"quote", "usage"},
		{"quote XYZ", "unknown_symbol"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			svc, _ := newTestService(t, 10000)
			_, err := svc.Exec(tt.line)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if got := trade.Reason(err); got != tt.reason {
				t.Errorf("Reason = %q, want %q (err: %v)", got, tt.reason, err)
			}
		})
	}
}

func TestExec_UnknownSymbolMessage(t *testing.T) {
	svc, _ := newTestService(t, 10000)
	_, err := svc.Exec("buy xyz 1")
	if err == nil || err.Error() != "quote: symbol 'XYZ' is not available for trading" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestExec_FailedCommandLeavesStateUnchanged(t *testing.T) {
	svc, _ := newTestService(t, 1000)
	mustExec(t, svc, "buy MSFT 2")

	for _, line := range []string{"buy GOOGL 1", "sell MSFT 3", "withdraw 5000", "buy XYZ 1"} {
		if _, err := svc.Exec(line); err == nil {
			t.Fatalf("%q: expected error", line)
		}
	}
	if !svc.Ledger().Cash().Equal(d(400)) {
		t.Errorf("cash = %s, want 400", svc.Ledger().Cash())
	}
	if n := len(svc.Ledger().History()); n != 1 {
		t.Errorf("history has %d records, want 1", n)
	}
}

func TestExec_AmountsBeyondInt64Cents(t *testing.T) {
	svc, _ := newTestService(t, 0)

	const big = "$100,000,000,000,000,000.00"
	if got := mustExec(t, svc, "deposit 200000000000000000").Message; got != "Deposited $200,000,000,000,000,000.00" {
		t.Errorf("deposit message = %q", got)
	}
	if got := mustExec(t, svc, "withdraw 100000000000000000").Message; got != "Withdrew "+big {
		t.Errorf("withdraw message = %q", got)
	}
	if got := mustExec(t, svc, "balance").Message; got != "Balance: "+big {
		t.Errorf("balance message = %q", got)
	}
	lines := strings.Split(mustExec(t, svc, "history").Message, "\n")
	if !strings.HasSuffix(lines[len(lines)-1], "-"+big) {
		t.Errorf("withdrawal line = %q", lines[len(lines)-1])
	}
}

// --- Read-only commands ---

func TestExec_Quote(t *testing.T) {
	svc, _ := newTestService(t, 0)
	reply := mustExec(t, svc, "quote googl")
	if reply.Message != "GOOGL: $2,500.00" {
		t.Errorf("quote message = %q", reply.Message)
	}
}

func TestExec_QuoteLenientUnknownSymbol(t *testing.T) {
	table := quote.NewDefaultTable(quote.Lenient)
	l, err := ledger.New(d(0), table)
	if err != nil {
		t.Fatal(err)
	}
	svc := trade.NewService(l, table, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if got := mustExec(t, svc, "quote xyz").Message; got != "XYZ: $0.00 (not in price table)" {
		t.Errorf("quote message = %q", got)
	}
	if got := mustExec(t, svc, "quote aapl").Message; got != "AAPL: $150.00" {
		t.Errorf("quote message = %q", got)
	}
}

func TestExec_Assets(t *testing.T) {
	svc, _ := newTestService(t, 0)
	reply := mustExec(t, svc, "assets")
	lines := strings.Split(reply.Message, "\n")
	if len(lines) != len(quote.DefaultPrices()) {
		t.Fatalf("got %d asset lines, want %d", len(lines), len(quote.DefaultPrices()))
	}
	if !strings.HasPrefix(lines[0], "AAPL") || !strings.HasSuffix(lines[0], "$150.00") {
		t.Errorf("first line = %q", lines[0])
	}
}

func TestExec_HoldingsAndTotals(t *testing.T) {
	svc, _ := newTestService(t, 10000)

	if got := mustExec(t, svc, "holdings").Message; got != "No holdings." {
		t.Errorf("empty holdings message = %q", got)
	}

	mustExec(t, svc, "buy TSLA 2")
	holdings := mustExec(t, svc, "holdings")
	if !strings.Contains(holdings.Message, "TSLA") || !strings.Contains(holdings.Message, "$1,400.00") {
		t.Errorf("holdings message = %q", holdings.Message)
	}
	if hs, ok := holdings.Data.([]model.Holding); !ok || len(hs) != 1 {
		t.Errorf("holdings data = %#v", holdings.Data)
	}

	want := "Cash: $8,600.00\nPositions: $1,400.00\nTotal: $10,000.00"
	if got := mustExec(t, svc, "totals").Message; got != want {
		t.Errorf("totals message = %q, want %q", got, want)
	}
}

func TestExec_PnL(t *testing.T) {
	svc, _ := newTestService(t, 10000)
	mustExec(t, svc, "deposit 500")
	mustExec(t, svc, "buy AAPL 10")

	want := "Profit/Loss: $0.00 (value $10,500.00, basis $10,500.00, policy net)"
	if got := mustExec(t, svc, "pnl").Message; got != want {
		t.Errorf("pnl message = %q, want %q", got, want)
	}
}

func TestExec_History(t *testing.T) {
	svc, _ := newTestService(t, 0)

	if got := mustExec(t, svc, "history").Message; got != "No transactions." {
		t.Errorf("empty history message = %q", got)
	}

	mustExec(t, svc, "deposit 1000")
	mustExec(t, svc, "buy AAPL 2")
	mustExec(t, svc, "withdraw 100")

	lines := strings.Split(mustExec(t, svc, "history").Message, "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d history lines, want 3", len(lines))
	}
	for _, l := range lines {
		if !strings.HasPrefix(l, "2023-01-01T09:30:00") {
			t.Errorf("line missing timestamp: %q", l)
		}
	}
	if !strings.Contains(lines[1], "AAPL") || !strings.Contains(lines[1], "2 @ $150.00 = -$300.00") {
		t.Errorf("buy line = %q", lines[1])
	}
	if !strings.HasSuffix(lines[2], "-$100.00") {
		t.Errorf("withdrawal line = %q", lines[2])
	}
}

func TestExec_Help(t *testing.T) {
	svc, _ := newTestService(t, 0)
	reply := mustExec(t, svc, "HELP")
	for _, verb := range []string{"deposit", "withdraw", "buy", "sell", "pnl", "history"} {
		if !strings.Contains(reply.Message, verb) {
			t.Errorf("help text missing %q", verb)
		}
	}
}

func TestReason_FallsBackToLedger(t *testing.T) {
	if got := trade.Reason(nil); got != "ok" {
		t.Errorf("Reason(nil) = %q, want ok", got)
	}
	if got := trade.Reason(errors.New("boom")); got != "internal" {
		t.Errorf("Reason(boom) = %q, want internal", got)
	}
}
