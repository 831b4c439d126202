// Package quality measures how complete the uploaded ledgers are. Row-level
// parse failures never stop a load; they surface here as percentages.
package quality

import (
	"math"

	"github.com/FACorreiaa/returns-insights/internal/domain/ledger"
)

// SalesQuality holds missing-field percentages for the sales ledger.
type SalesQuality struct {
	Rows              int     `json:"linhas"`
	Empty             bool    `json:"vazio"`
	MissingOrderIDPct float64 `json:"sem_numero_venda_pct"`
	MissingDatePct    float64 `json:"sem_data_pct"`
	MissingSKUPct     float64 `json:"sem_sku_pct"`
}

// ReturnsQuality holds missing-field percentages for one return channel.
type ReturnsQuality struct {
	Channel          ledger.Channel `json:"canal"`
	Rows             int            `json:"linhas"`
	Empty            bool           `json:"vazio"`
	MissingReasonPct float64        `json:"sem_motivo_pct"`
	MissingStatePct  float64        `json:"sem_estado_pct"`
	NoShippingCost   bool           `json:"sem_custo_logistico"`
}

// Report is the data quality summary of one upload.
type Report struct {
	Sales  SalesQuality   `json:"vendas"`
	Matrix ReturnsQuality `json:"devolucoes_matriz"`
	Full   ReturnsQuality `json:"devolucoes_full"`
	// ShippingCostMissing is true when either channel has no shipping cost
	// on any record. A channel without records counts as missing.
	ShippingCostMissing bool `json:"custo_logistico_ausente"`
}

// Compute builds the report. An empty collection reports 0% for every field
// and sets Empty, so no percentage is ever NaN or infinite.
func Compute(sales []ledger.SaleRecord, matrix, full []ledger.ReturnRecord) Report {
	r := Report{
		Sales:  salesQuality(sales),
		Matrix: returnsQuality(ledger.ChannelMatrix, matrix),
		Full:   returnsQuality(ledger.ChannelFull, full),
	}
	r.ShippingCostMissing = r.Matrix.NoShippingCost || r.Full.NoShippingCost
	return r
}

// ForData computes the report of a processed upload.
func ForData(data *ledger.ProcessedData) Report {
	return Compute(data.Sales, data.Matrix, data.Full)
}

func salesQuality(sales []ledger.SaleRecord) SalesQuality {
	q := SalesQuality{Rows: len(sales), Empty: len(sales) == 0}

	var noID, noDate, noSKU int
	for _, s := range sales {
		if s.OrderID == "" {
			noID++
		}
		if s.SoldAt == nil {
			noDate++
		}
		if s.SKU == "" {
			noSKU++
		}
	}
	q.MissingOrderIDPct = pct(noID, len(sales))
	q.MissingDatePct = pct(noDate, len(sales))
	q.MissingSKUPct = pct(noSKU, len(sales))
	return q
}

func returnsQuality(channel ledger.Channel, records []ledger.ReturnRecord) ReturnsQuality {
	q := ReturnsQuality{Channel: channel, Rows: len(records), Empty: len(records) == 0}

	var noReason, noState, withShipping int
	for _, r := range records {
		if r.Reason == "" {
			noReason++
		}
		if r.State == "" {
			noState++
		}
		if r.HasShippingCost() {
			withShipping++
		}
	}
	q.MissingReasonPct = pct(noReason, len(records))
	q.MissingStatePct = pct(noState, len(records))
	q.NoShippingCost = withShipping == 0
	return q
}

func pct(missing, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(missing) / float64(total) * 100
}

// Score condenses the report into 0..100, where 100 means no field is
// missing. Empty collections do not contribute.
func (r Report) Score() float64 {
	var values []float64
	if !r.Sales.Empty {
		values = append(values, r.Sales.MissingOrderIDPct, r.Sales.MissingDatePct, r.Sales.MissingSKUPct)
	}
	for _, c := range []ReturnsQuality{r.Matrix, r.Full} {
		if !c.Empty {
			values = append(values, c.MissingReasonPct, c.MissingStatePct)
		}
	}
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	score := 100 - sum/float64(len(values))
	return math.Max(0, math.Min(100, score))
}

// Channel returns the quality of one return channel.
func (r Report) Channel(c ledger.Channel) ReturnsQuality {
	if c == ledger.ChannelFull {
		return r.Full
	}
	return r.Matrix
}
