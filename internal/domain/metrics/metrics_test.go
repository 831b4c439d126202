package metrics

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/returns-insights/internal/domain/ledger"
)

var ref = time.Date(2025, time.June, 30, 18, 0, 0, 0, time.UTC)

func daysAgo(n int) *time.Time {
	t := ref.AddDate(0, 0, -n)
	return &t
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestClassify(t *testing.T) {
	tests := []struct {
		label string
		want  Health
	}{
		{"we gave you the money, order closed", Healthy},
		{"We Released The Money", Healthy},
		{"Te demos o dinheiro da venda", Healthy},
		{"liberamos o dinheiro", Healthy},
		{"refund to the buyer - item lost", Critical},
		{"Cancelled by the buyer", Critical},
		{"MEDIAÇÃO FINALIZADA COM REEMBOLSO", Critical},
		{"reembolso para o comprador", Critical},
		{"Cancelada pelo comprador", Critical},
		{"Devolução em andamento", Neutral},
		{"", Neutral},
		{"   ", Neutral},
		{"refund to the buyer but we gave you the money", Healthy},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.label))
		})
	}
}

func TestClassifier_CustomRules(t *testing.T) {
	c := NewClassifier([]Rule{{Phrase: "OK", Health: Healthy}, {Phrase: " ", Health: Critical}})
	assert.Equal(t, Healthy, c.Classify("all ok"))
	assert.Equal(t, Neutral, c.Classify("nothing"))

	c.Build(nil)
	assert.Equal(t, Neutral, c.Classify("all ok"))
}

func TestClassifier_ConcurrentUse(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if (i+j)%2 == 0 {
					assert.Equal(t, Healthy, Classify("te demos o dinheiro"))
				} else {
					assert.Equal(t, Critical, Classify("refund to the buyer"))
				}
			}
		}(i)
	}
	wg.Wait()
}

// Ten sales across 200 days; three returned orders, one of each class.
func endToEndInput() Input {
	sales := make([]ledger.SaleRecord, 0, 10)
	offsets := []int{0, 10, 25, 60, 90, 120, 150, 179, 190, 200}
	for i, off := range offsets {
		sales = append(sales, ledger.SaleRecord{
			OrderID:         fmt.Sprintf("%d", 1000+i),
			SoldAt:          daysAgo(off),
			SKU:             "SKU-1",
			ProductRevenue:  dec("100"),
			ShippingRevenue: dec("10"),
		})
	}

	matrix := []ledger.ReturnRecord{
		{OrderID: "1000", Channel: ledger.ChannelMatrix, State: "we gave you the money", Refund: dec("-100"), Fees: dec("-10"), ShippingCost: dec("-5")},
		{OrderID: "1001", Channel: ledger.ChannelMatrix, State: "refund to the buyer", Refund: dec("-50"), Fees: dec("-5")},
	}
	full := []ledger.ReturnRecord{
		{OrderID: "1003", Channel: ledger.ChannelFull, State: "Em análise", Refund: dec("-20")},
		{OrderID: "1009", Channel: ledger.ChannelFull, State: "refund to the buyer", Refund: dec("-999")},
	}
	return Input{Sales: sales, Matrix: matrix, Full: full, ReferenceDate: ref}
}

func TestCompute_EndToEnd(t *testing.T) {
	snap := Compute(endToEndInput(), 180)

	assert.Equal(t, 180, snap.WindowDays)
	assert.Equal(t, 8, snap.Sales, "sales at 190 and 200 days are out of the window")
	assert.Equal(t, 8, snap.Units)
	assert.True(t, snap.ProductRevenue.Equal(dec("800")))
	assert.True(t, snap.TotalRevenue.Equal(dec("880")))
	assert.Equal(t, 3, snap.ReturnedOrders)
	assert.InDelta(t, 3.0/8.0, snap.ReturnRate, 1e-9)
	assert.InDelta(t, 37.5, snap.ReturnRatePct(), 1e-9)
	assert.True(t, snap.ReturnedRevenue.Equal(dec("300")))

	assert.Equal(t, 1, snap.Healthy)
	assert.Equal(t, 1, snap.Critical)
	assert.Equal(t, 1, snap.Neutral)

	assert.True(t, snap.HealthyImpact.Equal(dec("-115")), snap.HealthyImpact.String())
	assert.True(t, snap.CriticalImpact.Equal(dec("-55")))
	assert.True(t, snap.NeutralImpact.Equal(dec("-20")))
	assert.True(t, snap.ReturnImpact.Equal(dec("-190")))
	assert.True(t, snap.TotalLoss.Equal(dec("-190")))
	assert.True(t, snap.PartialLoss.Equal(dec("-20")))
}

func TestCompute_WindowBoundsInclusive(t *testing.T) {
	in := Input{
		Sales: []ledger.SaleRecord{
			{OrderID: "a", SoldAt: daysAgo(30)},
			{OrderID: "b", SoldAt: daysAgo(0)},
			{OrderID: "c", SoldAt: func() *time.Time { v := ref.AddDate(0, 0, -30).Add(-time.Minute); return &v }()},
			{OrderID: "d"},
		},
		ReferenceDate: ref,
	}

	snap := Compute(in, 30)
	assert.Equal(t, 2, snap.Sales)
	assert.Equal(t, ref.AddDate(0, 0, -30), snap.Start)
	assert.Equal(t, ref, snap.End)

	assert.Equal(t, 1, Compute(in, 0).Sales)
	assert.Equal(t, 0, Compute(in, -1).Sales, "negative windows are empty")
}

func TestCompute_NoSales(t *testing.T) {
	snap := Compute(Input{ReferenceDate: ref, Matrix: []ledger.ReturnRecord{{OrderID: "x", Refund: dec("-10")}}}, 90)
	assert.Equal(t, 0, snap.Sales)
	assert.Equal(t, 0.0, snap.ReturnRate)
	assert.True(t, snap.ReturnImpact.IsZero())
}

func TestCompute_MultipleReturnsPerOrder(t *testing.T) {
	in := Input{
		Sales: []ledger.SaleRecord{{OrderID: "1", SoldAt: daysAgo(1), ProductRevenue: dec("50")}},
		Matrix: []ledger.ReturnRecord{
			{OrderID: "1", State: "te demos o dinheiro", Refund: dec("-10")},
			{OrderID: "1", State: "reembolso para o comprador", Refund: dec("-20")},
		},
		Full:          []ledger.ReturnRecord{{OrderID: "1", State: "", Fees: dec("-3")}},
		ReferenceDate: ref,
	}

	snap := Compute(in, 30)
	assert.Equal(t, 1, snap.ReturnedOrders, "order counted once")
	assert.Equal(t, 3, snap.ClassifiedReturns(), "each return row classified")
	assert.InDelta(t, 1.0, snap.ReturnRate, 1e-9)
	assert.True(t, snap.ReturnedRevenue.Equal(dec("50")))
	assert.True(t, snap.TotalLoss.Equal(dec("-33")))
	assert.True(t, snap.PartialLoss.Equal(dec("-3")))
}

func TestCompute_PositiveCostsStillReportedAsLoss(t *testing.T) {
	in := Input{
		Sales:         []ledger.SaleRecord{{OrderID: "1", SoldAt: daysAgo(1)}},
		Matrix:        []ledger.ReturnRecord{{OrderID: "1", Refund: dec("40"), Fees: dec("-5"), ShippingCost: dec("7")}},
		ReferenceDate: ref,
	}

	snap := Compute(in, 30)
	assert.True(t, snap.TotalLoss.Equal(dec("-52")))
	assert.True(t, snap.PartialLoss.Equal(dec("-12")))
}

func TestCompute_EmptyOrderIDsNeverMatch(t *testing.T) {
	in := Input{
		Sales:         []ledger.SaleRecord{{OrderID: "", SoldAt: daysAgo(1)}},
		Matrix:        []ledger.ReturnRecord{{OrderID: "", Refund: dec("-10")}},
		ReferenceDate: ref,
	}
	snap := Compute(in, 30)
	assert.Equal(t, 1, snap.Sales)
	assert.Equal(t, 0, snap.ReturnedOrders)
}

func TestCompute_Properties(t *testing.T) {
	in := endToEndInput()

	prev := -1
	for days := 0; days <= 250; days += 5 {
		snap := Compute(in, days)

		assert.GreaterOrEqual(t, snap.Sales, prev, "sale count is monotonic in window length")
		prev = snap.Sales

		assert.GreaterOrEqual(t, snap.ReturnRate, 0.0)
		assert.LessOrEqual(t, snap.ReturnRate, 1.0)
		for _, v := range []decimal.Decimal{snap.ReturnImpact, snap.TotalLoss, snap.PartialLoss, snap.HealthyImpact, snap.CriticalImpact} {
			assert.True(t, v.LessThanOrEqual(decimal.Zero))
		}
	}
}

func TestCompute_Idempotent(t *testing.T) {
	in := endToEndInput()
	assert.Equal(t, Compute(in, 90), Compute(in, 90))
}

func TestComputeWindows(t *testing.T) {
	snaps := ComputeWindows(endToEndInput(), StandardWindows)
	require.Len(t, snaps, len(StandardWindows))
	for i, s := range snaps {
		assert.Equal(t, StandardWindows[i], s.WindowDays)
	}
	assert.Equal(t, 3, snaps[0].Sales)
	assert.Equal(t, 8, snaps[len(snaps)-1].Sales)
}

func TestInputFrom(t *testing.T) {
	_, err := InputFrom(ledger.NewProcessedData([]ledger.SaleRecord{{OrderID: "1"}}, nil, nil))
	assert.ErrorIs(t, err, ledger.ErrEmptyReferenceDate)

	in, err := InputFrom(ledger.NewProcessedData([]ledger.SaleRecord{{OrderID: "1", SoldAt: daysAgo(3)}}, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, ref.AddDate(0, 0, -3), in.ReferenceDate)
}
