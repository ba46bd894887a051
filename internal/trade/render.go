package trade

import (
	"fmt"
	"math"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/atmx/paper-trader/internal/model"
)

var (
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

// formatMoney renders d as US dollars rounded to the cent, e.g. "$1,500.00".
// Amounts whose cent count does not fit in an int64 are grouped by hand
// with the same currency symbols.
func formatMoney(d decimal.Decimal) string {
	cents := d.Shift(2).Round(0)
	if cents.LessThanOrEqual(maxCents) && cents.GreaterThanOrEqual(minCents) {
		return money.New(cents.IntPart(), money.USD).Display()
	}
	cur := money.GetCurrency(money.USD)
	whole, frac, _ := strings.Cut(d.Abs().StringFixed(2), ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteString(cur.Thousand)
		}
		b.WriteRune(r)
	}
	out := cur.Grapheme + b.String() + cur.Decimal + frac
	if d.IsNegative() {
		out = "-" + out
	}
	return out
}

func renderHoldings(holdings []model.Holding) string {
	if len(holdings) == 0 {
		return "No holdings."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-6s %8s %12s %12s %14s %14s",
		"SYMBOL", "SHARES", "AVG COST", "PRICE", "VALUE", "UNREALIZED")
	for _, h := range holdings {
		fmt.Fprintf(&b, "\n%-6s %8d %12s %12s %14s %14s",
			h.Symbol,
			h.Shares,
			formatMoney(h.AvgCost),
			formatMoney(h.MarketPrice),
			formatMoney(h.MarketValue),
			formatMoney(h.UnrealizedPnL),
		)
	}
	return b.String()
}

func renderTotals(t model.Totals) string {
	return fmt.Sprintf("Cash: %s\nPositions: %s\nTotal: %s",
		formatMoney(t.Cash), formatMoney(t.PositionsValue), formatMoney(t.Total))
}

func renderHistory(records []model.TradeRecord) string {
	if len(records) == 0 {
		return "No transactions."
	}
	lines := make([]string, 0, len(records))
	for _, r := range records {
		if r.IsTrade() {
			lines = append(lines, fmt.Sprintf("%s  %-10s %-6s %d @ %s = %s",
				r.Stamp(), r.Type, r.Symbol, r.Quantity,
				formatMoney(r.Price.Decimal), formatMoney(r.TotalAmount)))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s  %-10s %s",
			r.Stamp(), r.Type, formatMoney(r.TotalAmount)))
	}
	return strings.Join(lines, "\n")
}
