package analysis

import (
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/returns-insights/internal/domain/ledger"
	"github.com/FACorreiaa/returns-insights/internal/domain/metrics"
)

// Advertising group labels.
const (
	LabelAdvertised = "Com Publicidade"
	LabelOrganic    = "Orgânico"
)

// AdvertisingStats compares advertised and organic sales.
type AdvertisingStats struct {
	Kind    string          `json:"tipo"`
	Sales   int             `json:"vendas"`
	Returns int             `json:"devolucoes"`
	RatePct float64         `json:"taxa_pct"`
	Revenue decimal.Decimal `json:"receita"`
	Impact  decimal.Decimal `json:"impacto"`
}

// ByAdvertising splits in-window sales into advertised and organic. A group
// without sales is left out.
func ByAdvertising(in metrics.Input, windowDays int) []AdvertisingStats {
	byOrder := in.ReturnsByOrder()
	ads, organic := newGroup(), newGroup()

	windowed(in, windowDays, func(s ledger.SaleRecord) {
		if s.IsAdvertised() {
			ads.add(s, byOrder)
			return
		}
		organic.add(s, byOrder)
	})

	var out []AdvertisingStats
	for _, kv := range []struct {
		label string
		g     *group
	}{{LabelAdvertised, ads}, {LabelOrganic, organic}} {
		if kv.g.sales == 0 {
			continue
		}
		out = append(out, AdvertisingStats{
			Kind:    kv.label,
			Sales:   kv.g.sales,
			Returns: kv.g.returns(),
			RatePct: kv.g.ratePct(),
			Revenue: kv.g.revenue,
			Impact:  kv.g.impact.Neg(),
		})
	}
	return out
}
