// Package metrics reconciles sales with returns by order identifier and
// aggregates them over trailing-day windows anchored at the reference date.
package metrics

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/returns-insights/internal/domain/ledger"
)

// Window lengths reported side by side, and the window of the summary.
var StandardWindows = []int{30, 60, 90, 120, 150, 180}

const SummaryWindow = 180

// Input is the immutable data set a snapshot is computed from.
type Input struct {
	Sales         []ledger.SaleRecord
	Matrix        []ledger.ReturnRecord
	Full          []ledger.ReturnRecord
	ReferenceDate time.Time
}

// InputFrom prepares an Input, failing with ledger.ErrEmptyReferenceDate when
// no window can be anchored.
func InputFrom(data *ledger.ProcessedData) (Input, error) {
	ref, err := data.ReferenceDate()
	if err != nil {
		return Input{}, err
	}
	return Input{
		Sales:         data.Sales,
		Matrix:        data.Matrix,
		Full:          data.Full,
		ReferenceDate: ref,
	}, nil
}

// Bounds returns the inclusive [start, end] of a window. Negative lengths
// produce start after end, which selects nothing.
func (in Input) Bounds(windowDays int) (time.Time, time.Time) {
	return in.ReferenceDate.AddDate(0, 0, -windowDays), in.ReferenceDate
}

// InWindow reports whether a sale falls inside the window. Undated sales never do.
func (in Input) InWindow(s ledger.SaleRecord, windowDays int) bool {
	if s.SoldAt == nil {
		return false
	}
	start, end := in.Bounds(windowDays)
	return !s.SoldAt.Before(start) && !s.SoldAt.After(end)
}

// ReturnsByOrder indexes every return record of both channels by order
// identifier. Records without an identifier are not indexed.
func (in Input) ReturnsByOrder() map[string][]ledger.ReturnRecord {
	idx := make(map[string][]ledger.ReturnRecord, len(in.Matrix)+len(in.Full))
	for _, records := range [][]ledger.ReturnRecord{in.Matrix, in.Full} {
		for _, r := range records {
			if r.OrderID == "" {
				continue
			}
			idx[r.OrderID] = append(idx[r.OrderID], r)
		}
	}
	return idx
}

// Snapshot is the aggregate of one window. Loss and impact figures are
// reported as non-positive values.
type Snapshot struct {
	WindowDays int       `json:"janela_dias"`
	Start      time.Time `json:"inicio"`
	End        time.Time `json:"fim"`

	Sales           int             `json:"vendas"`
	Units           int             `json:"unidades"`
	ProductRevenue  decimal.Decimal `json:"faturamento_produtos"`
	TotalRevenue    decimal.Decimal `json:"faturamento_total"`
	ReturnedOrders  int             `json:"devolucoes_vendas"`
	ReturnRate      float64         `json:"taxa_devolucao"`
	ReturnedRevenue decimal.Decimal `json:"faturamento_devolucoes"`
	ReturnImpact    decimal.Decimal `json:"impacto_devolucao"`
	TotalLoss       decimal.Decimal `json:"perda_total"`
	PartialLoss     decimal.Decimal `json:"perda_parcial"`
	Healthy         int             `json:"saudaveis"`
	Critical        int             `json:"criticas"`
	Neutral         int             `json:"neutras"`
	HealthyImpact   decimal.Decimal `json:"impacto_saudaveis"`
	CriticalImpact  decimal.Decimal `json:"impacto_criticas"`
	NeutralImpact   decimal.Decimal `json:"impacto_neutras"`
}

// ReturnRatePct is the return rate as a percentage.
func (s Snapshot) ReturnRatePct() float64 {
	return s.ReturnRate * 100
}

// ClassifiedReturns is the number of return records matched in the window.
func (s Snapshot) ClassifiedReturns() int {
	return s.Healthy + s.Critical + s.Neutral
}

// Engine computes snapshots with a given classifier.
type Engine struct {
	classifier *Classifier
}

// NewEngine creates an engine. A nil classifier uses the default rules.
func NewEngine(classifier *Classifier) *Engine {
	if classifier == nil {
		classifier = defaultClassifier
	}
	return &Engine{classifier: classifier}
}

// Compute aggregates one window. It holds no state between calls.
func (e *Engine) Compute(in Input, windowDays int) Snapshot {
	start, end := in.Bounds(windowDays)
	snap := Snapshot{WindowDays: windowDays, Start: start, End: end}

	byOrder := in.ReturnsByOrder()
	returned := make(map[string]struct{})

	var (
		productRevenue, totalRevenue, returnedRevenue decimal.Decimal
		impact, partial                               decimal.Decimal
		healthyImpact, criticalImpact, neutralImpact  decimal.Decimal
	)

	for _, sale := range in.Sales {
		if !in.InWindow(sale, windowDays) {
			continue
		}

		snap.Sales++
		snap.Units++
		productRevenue = productRevenue.Add(sale.ProductRevenue)
		totalRevenue = totalRevenue.Add(sale.TotalRevenue())

		if sale.OrderID == "" {
			continue
		}
		matches, ok := byOrder[sale.OrderID]
		if !ok {
			continue
		}

		returned[sale.OrderID] = struct{}{}
		returnedRevenue = returnedRevenue.Add(sale.ProductRevenue)

		for _, r := range matches {
			cost := r.Cost()
			switch e.classifier.Classify(r.State) {
			case Healthy:
				snap.Healthy++
				healthyImpact = healthyImpact.Add(cost)
			case Critical:
				snap.Critical++
				criticalImpact = criticalImpact.Add(cost)
			default:
				snap.Neutral++
				neutralImpact = neutralImpact.Add(cost)
			}
			impact = impact.Add(cost)
			partial = partial.Add(r.PartialCost())
		}
	}

	snap.ProductRevenue = productRevenue
	snap.TotalRevenue = totalRevenue
	snap.ReturnedRevenue = returnedRevenue
	snap.ReturnedOrders = len(returned)
	if snap.Sales > 0 {
		snap.ReturnRate = float64(snap.ReturnedOrders) / float64(snap.Sales)
	}

	snap.ReturnImpact = impact.Neg()
	snap.TotalLoss = impact.Neg()
	snap.PartialLoss = partial.Neg()
	snap.HealthyImpact = healthyImpact.Neg()
	snap.CriticalImpact = criticalImpact.Neg()
	snap.NeutralImpact = neutralImpact.Neg()
	return snap
}

// ComputeWindows computes one snapshot per window length, in order.
func (e *Engine) ComputeWindows(in Input, windows []int) []Snapshot {
	out := make([]Snapshot, 0, len(windows))
	for _, days := range windows {
		out = append(out, e.Compute(in, days))
	}
	return out
}

var defaultEngine = NewEngine(nil)

// Compute aggregates one window with the default classifier.
func Compute(in Input, windowDays int) Snapshot {
	return defaultEngine.Compute(in, windowDays)
}

// ComputeWindows computes several windows with the default classifier.
func ComputeWindows(in Input, windows []int) []Snapshot {
	return defaultEngine.ComputeWindows(in, windows)
}
