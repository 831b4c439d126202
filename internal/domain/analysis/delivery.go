package analysis

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/returns-insights/internal/domain/ledger"
	"github.com/FACorreiaa/returns-insights/internal/domain/metrics"
)

// DefaultDeliveryMethod labels sales exported without a delivery method.
const DefaultDeliveryMethod = "Mercado Envios"

// DeliveryStats is the return picture of one delivery method.
type DeliveryStats struct {
	Method  string          `json:"forma_entrega"`
	Sales   int             `json:"vendas"`
	Returns int             `json:"devolucoes"`
	RatePct float64         `json:"taxa_pct"`
	Impact  decimal.Decimal `json:"impacto"`
}

// ByDeliveryMethod groups in-window sales by delivery method, most sold first.
func ByDeliveryMethod(in metrics.Input, windowDays int) []DeliveryStats {
	byOrder := in.ReturnsByOrder()
	groups := make(map[string]*group)

	windowed(in, windowDays, func(s ledger.SaleRecord) {
		method := strings.TrimSpace(s.DeliveryMethod)
		if method == "" {
			method = DefaultDeliveryMethod
		}
		g, ok := groups[method]
		if !ok {
			g = newGroup()
			groups[method] = g
		}
		g.add(s, byOrder)
	})

	out := make([]DeliveryStats, 0, len(groups))
	for method, g := range groups {
		out = append(out, DeliveryStats{
			Method:  method,
			Sales:   g.sales,
			Returns: g.returns(),
			RatePct: g.ratePct(),
			Impact:  g.impact.Neg(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sales != out[j].Sales {
			return out[i].Sales > out[j].Sales
		}
		return out[i].Method < out[j].Method
	})
	return out
}
