package analysis

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/returns-insights/internal/domain/ledger"
	"github.com/FACorreiaa/returns-insights/internal/domain/metrics"
)

// Scenario is the return picture under one assumption.
type Scenario struct {
	Returns int             `json:"devolucoes"`
	RatePct float64         `json:"taxa_pct"`
	Impact  decimal.Decimal `json:"impacto"`
}

// Simulation compares the observed window with one where returns drop by
// ReductionPct percent.
type Simulation struct {
	ReductionPct float64         `json:"reducao_percentual"`
	Sales        int             `json:"vendas_totais"`
	Revenue      decimal.Decimal `json:"faturamento_total"`
	Current      Scenario        `json:"cenario_atual"`
	Simulated    Scenario        `json:"cenario_simulado"`
	Saving       decimal.Decimal `json:"economia"`
}

// InvalidReductionError is returned for reductions outside 0..100.
type InvalidReductionError struct {
	Value float64
}

func (e InvalidReductionError) Error() string {
	return fmt.Sprintf("reduction must be between 0 and 100, got %g", e.Value)
}

// Simulate projects the window's returns and refund impact after a
// reductionPct percent cut. Simulated returns are truncated to whole orders.
func Simulate(in metrics.Input, windowDays int, reductionPct float64) (Simulation, error) {
	if !(reductionPct >= 0 && reductionPct <= 100) {
		return Simulation{}, InvalidReductionError{Value: reductionPct}
	}

	byOrder := in.ReturnsByOrder()
	g := newGroup()
	windowed(in, windowDays, func(s ledger.SaleRecord) {
		g.add(s, byOrder)
	})

	keep := decimal.NewFromFloat(1 - reductionPct/100)
	simulatedReturns := int(float64(g.returns()) * (1 - reductionPct/100))
	simulatedImpact := g.impact.Mul(keep).Round(2)

	return Simulation{
		ReductionPct: reductionPct,
		Sales:        g.sales,
		Revenue:      g.revenue,
		Current: Scenario{
			Returns: g.returns(),
			RatePct: g.ratePct(),
			Impact:  g.impact.Neg(),
		},
		Simulated: Scenario{
			Returns: simulatedReturns,
			RatePct: ratePct(simulatedReturns, g.sales),
			Impact:  simulatedImpact.Neg(),
		},
		Saving: g.impact.Sub(simulatedImpact),
	}, nil
}
