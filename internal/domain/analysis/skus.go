package analysis

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/returns-insights/internal/domain/ledger"
	"github.com/FACorreiaa/returns-insights/internal/domain/metrics"
)

// UnknownSKU labels sales exported without a SKU.
const UnknownSKU = "N/A"

// RiskClass thresholds on the return rate, in percent.
const (
	CriticalRatePct  = 15.0
	AttentionRatePct = 8.0
)

// RiskClass grades a SKU by its return rate.
type RiskClass string

const (
	RiskCritical  RiskClass = "Crítica"
	RiskAttention RiskClass = "Atenção"
	RiskNeutral   RiskClass = "Neutra"
)

// ClassifyRate grades a return rate given in percent.
func ClassifyRate(ratePct float64) RiskClass {
	switch {
	case ratePct >= CriticalRatePct:
		return RiskCritical
	case ratePct >= AttentionRatePct:
		return RiskAttention
	default:
		return RiskNeutral
	}
}

// SKUStats is the return risk of one SKU. Money figures are non-positive.
type SKUStats struct {
	SKU          string          `json:"sku"`
	Sales        int             `json:"vendas"`
	Returns      int             `json:"devolucoes"`
	RatePct      float64         `json:"taxa_pct"`
	Impact       decimal.Decimal `json:"impacto"`
	Refunds      decimal.Decimal `json:"reembolsos"`
	ShippingCost decimal.Decimal `json:"custo_devolucao"`
	Risk         float64         `json:"risco"`
	Class        RiskClass       `json:"classe"`
}

// SKURiskResult holds the ranked SKUs and the returned orders across all SKUs.
type SKURiskResult struct {
	SKUs         []SKUStats `json:"skus"`
	TotalReturns int        `json:"total_devolucoes"`
}

// SKURisk ranks in-window SKUs with at least one returned order by returns,
// keeping the first topN. topN <= 0 keeps all of them.
func SKURisk(in metrics.Input, windowDays, topN int) SKURiskResult {
	byOrder := in.ReturnsByOrder()
	groups := make(map[string]*group)

	windowed(in, windowDays, func(s ledger.SaleRecord) {
		sku := strings.TrimSpace(s.SKU)
		if sku == "" {
			sku = UnknownSKU
		}
		g, ok := groups[sku]
		if !ok {
			g = newGroup()
			groups[sku] = g
		}
		g.add(s, byOrder)
	})

	var res SKURiskResult
	for sku, g := range groups {
		res.TotalReturns += g.returns()
		if g.returns() == 0 {
			continue
		}
		rate := g.ratePct()
		impact := g.impact.InexactFloat64()
		res.SKUs = append(res.SKUs, SKUStats{
			SKU:          sku,
			Sales:        g.sales,
			Returns:      g.returns(),
			RatePct:      rate,
			Impact:       g.impact.Neg(),
			Refunds:      g.refunds.Neg(),
			ShippingCost: g.shipping.Neg(),
			Risk:         rate * impact / 100,
			Class:        ClassifyRate(rate),
		})
	}

	sort.Slice(res.SKUs, func(i, j int) bool {
		a, b := res.SKUs[i], res.SKUs[j]
		if a.Returns != b.Returns {
			return a.Returns > b.Returns
		}
		return a.SKU < b.SKU
	})
	if topN > 0 && len(res.SKUs) > topN {
		res.SKUs = res.SKUs[:topN]
	}
	return res
}
