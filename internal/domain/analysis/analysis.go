// Package analysis breaks the reconciled ledgers down by delivery method,
// advertising, return reason and SKU, and simulates return rate reductions.
package analysis

import (
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/returns-insights/internal/domain/ledger"
	"github.com/FACorreiaa/returns-insights/internal/domain/metrics"
)

// RefundImpact is the absolute refund of a return, falling back to the
// product revenue of the return row when no refund was recorded.
func RefundImpact(r ledger.ReturnRecord) decimal.Decimal {
	if !r.Refund.IsZero() {
		return r.Refund.Abs()
	}
	return r.ProductRevenue.Abs()
}

// group accumulates sales and distinct returned orders of one breakdown key.
type group struct {
	sales    int
	returned map[string]struct{}
	revenue  decimal.Decimal
	impact   decimal.Decimal
	refunds  decimal.Decimal
	shipping decimal.Decimal
}

func newGroup() *group {
	return &group{returned: make(map[string]struct{})}
}

// add records a sale and, the first time its order is seen with returns,
// every matching return record.
func (g *group) add(sale ledger.SaleRecord, byOrder map[string][]ledger.ReturnRecord) {
	g.sales++
	g.revenue = g.revenue.Add(sale.ProductRevenue)

	if sale.OrderID == "" {
		return
	}
	matches, ok := byOrder[sale.OrderID]
	if !ok {
		return
	}
	if _, seen := g.returned[sale.OrderID]; seen {
		return
	}
	g.returned[sale.OrderID] = struct{}{}

	for _, r := range matches {
		impact := RefundImpact(r)
		g.impact = g.impact.Add(impact)
		g.refunds = g.refunds.Add(impact)
		g.shipping = g.shipping.Add(r.ShippingCost.Abs())
	}
}

func (g *group) returns() int {
	return len(g.returned)
}

func (g *group) ratePct() float64 {
	return ratePct(g.returns(), g.sales)
}

func ratePct(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// windowed walks the in-window sales of the input.
func windowed(in metrics.Input, windowDays int, fn func(ledger.SaleRecord)) {
	for _, s := range in.Sales {
		if in.InWindow(s, windowDays) {
			fn(s)
		}
	}
}
