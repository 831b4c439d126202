package quality

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/FACorreiaa/returns-insights/internal/domain/ledger"
)

func TestCompute_Sales(t *testing.T) {
	now := time.Now()
	sales := []ledger.SaleRecord{
		{OrderID: "1", SoldAt: &now, SKU: "A"},
		{OrderID: "2", SKU: "B"},
		{OrderID: "", SoldAt: &now, SKU: "C"},
		{OrderID: "4", SoldAt: &now, SKU: "D"},
	}

	r := Compute(sales, nil, nil)
	assert.Equal(t, 4, r.Sales.Rows)
	assert.False(t, r.Sales.Empty)
	assert.Equal(t, 0.0, r.Sales.MissingSKUPct, "every row has a SKU")
	assert.Equal(t, 25.0, r.Sales.MissingDatePct)
	assert.Equal(t, 25.0, r.Sales.MissingOrderIDPct)
}

func TestCompute_EmptyCollectionsAreFinite(t *testing.T) {
	r := Compute(nil, nil, nil)

	for _, v := range []float64{
		r.Sales.MissingOrderIDPct, r.Sales.MissingDatePct, r.Sales.MissingSKUPct,
		r.Matrix.MissingReasonPct, r.Matrix.MissingStatePct,
		r.Full.MissingReasonPct, r.Full.MissingStatePct,
	} {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		assert.Equal(t, 0.0, v)
	}
	assert.True(t, r.Sales.Empty)
	assert.True(t, r.Matrix.Empty)
	assert.True(t, r.Full.Empty)
	assert.True(t, r.ShippingCostMissing, "empty channels count as missing shipping cost")
	assert.Equal(t, 0.0, r.Score())
}

func TestCompute_Returns(t *testing.T) {
	matrix := []ledger.ReturnRecord{
		{State: "x", Reason: "y", ShippingCost: decimal.NewFromInt(-10)},
		{State: "", Reason: "y"},
	}
	full := []ledger.ReturnRecord{
		{State: "x", Reason: ""},
		{State: "x", Reason: ""},
		{State: "x", Reason: "z"},
		{State: "", Reason: "z"},
	}

	r := Compute(nil, matrix, full)
	assert.Equal(t, ledger.ChannelMatrix, r.Matrix.Channel)
	assert.Equal(t, 0.0, r.Matrix.MissingReasonPct)
	assert.Equal(t, 50.0, r.Matrix.MissingStatePct)
	assert.False(t, r.Matrix.NoShippingCost)

	assert.Equal(t, 50.0, r.Full.MissingReasonPct)
	assert.Equal(t, 25.0, r.Full.MissingStatePct)
	assert.True(t, r.Full.NoShippingCost)

	assert.True(t, r.ShippingCostMissing, "full has no shipping cost at all")
	assert.Equal(t, r.Full, r.Channel(ledger.ChannelFull))
}

func TestCompute_ShippingCostPresentInBothChannels(t *testing.T) {
	withCost := []ledger.ReturnRecord{{ShippingCost: decimal.NewFromInt(5)}, {}}
	r := Compute(nil, withCost, withCost)
	assert.False(t, r.ShippingCostMissing)
}

func TestReport_Score(t *testing.T) {
	now := time.Now()
	sales := []ledger.SaleRecord{{OrderID: "1", SoldAt: &now, SKU: "A"}, {OrderID: "2", SoldAt: &now}}
	matrix := []ledger.ReturnRecord{{State: "x", Reason: "y"}}

	r := Compute(sales, matrix, nil)
	// sales: 0, 0, 50; matrix: 0, 0; full is empty and ignored
	assert.InDelta(t, 90.0, r.Score(), 1e-9)

	perfect := Compute([]ledger.SaleRecord{{OrderID: "1", SoldAt: &now, SKU: "A"}}, nil, nil)
	assert.Equal(t, 100.0, perfect.Score())
}
