package analysis

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/returns-insights/internal/domain/ledger"
	"github.com/FACorreiaa/returns-insights/internal/domain/metrics"
)

var ref = time.Date(2025, time.March, 31, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) *time.Time {
	t := ref.AddDate(0, 0, -n)
	return &t
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleInput() metrics.Input {
	sales := []ledger.SaleRecord{
		{OrderID: "1", SoldAt: daysAgo(1), SKU: "A", ProductRevenue: dec("100"), DeliveryMethod: "Mercado Envios Full", Advertised: "Sim"},
		{OrderID: "2", SoldAt: daysAgo(2), SKU: "A", ProductRevenue: dec("100"), DeliveryMethod: "Mercado Envios Full", Advertised: "sim "},
		{OrderID: "3", SoldAt: daysAgo(3), SKU: "A", ProductRevenue: dec("100"), DeliveryMethod: "", Advertised: ""},
		{OrderID: "4", SoldAt: daysAgo(4), SKU: "B", ProductRevenue: dec("50"), DeliveryMethod: " ", Advertised: "Não"},
		{OrderID: "5", SoldAt: daysAgo(5), SKU: "", ProductRevenue: dec("30"), DeliveryMethod: "Flex"},
		{OrderID: "6", SoldAt: daysAgo(400), SKU: "A", ProductRevenue: dec("100")},
	}
	matrix := []ledger.ReturnRecord{
		{OrderID: "1", Refund: dec("-80"), ShippingCost: dec("-12")},
		{OrderID: "1", Refund: dec("0"), ProductRevenue: dec("20")},
		{OrderID: "4", Refund: dec("-50")},
		{OrderID: "6", Refund: dec("-100")},
	}
	full := []ledger.ReturnRecord{
		{OrderID: "5", Refund: dec("-30"), ShippingCost: dec("-3")},
	}
	return metrics.Input{Sales: sales, Matrix: matrix, Full: full, ReferenceDate: ref}
}

func TestRefundImpact(t *testing.T) {
	assert.True(t, RefundImpact(ledger.ReturnRecord{Refund: dec("-40")}).Equal(dec("40")))
	assert.True(t, RefundImpact(ledger.ReturnRecord{Refund: dec("25")}).Equal(dec("25")))
	assert.True(t, RefundImpact(ledger.ReturnRecord{ProductRevenue: dec("-15")}).Equal(dec("15")))
	assert.True(t, RefundImpact(ledger.ReturnRecord{}).IsZero())
}

func TestByDeliveryMethod(t *testing.T) {
	stats := ByDeliveryMethod(sampleInput(), 30)
	require.Len(t, stats, 3)

	assert.Equal(t, DefaultDeliveryMethod, stats[0].Method, "blank methods fall back to the default")
	assert.Equal(t, 2, stats[0].Sales)
	assert.Equal(t, 1, stats[0].Returns)
	assert.True(t, stats[0].Impact.Equal(dec("-50")))

	assert.Equal(t, "Mercado Envios Full", stats[1].Method)
	assert.Equal(t, 2, stats[1].Sales)
	assert.Equal(t, 1, stats[1].Returns)
	assert.InDelta(t, 50.0, stats[1].RatePct, 1e-9)
	assert.True(t, stats[1].Impact.Equal(dec("-100")), stats[1].Impact.String())

	assert.Equal(t, "Flex", stats[2].Method)
	assert.InDelta(t, 100.0, stats[2].RatePct, 1e-9)
}

func TestByAdvertising(t *testing.T) {
	stats := ByAdvertising(sampleInput(), 30)
	require.Len(t, stats, 2)

	assert.Equal(t, LabelAdvertised, stats[0].Kind)
	assert.Equal(t, 2, stats[0].Sales)
	assert.Equal(t, 1, stats[0].Returns)
	assert.True(t, stats[0].Revenue.Equal(dec("200")))
	assert.True(t, stats[0].Impact.Equal(dec("-100")))

	assert.Equal(t, LabelOrganic, stats[1].Kind)
	assert.Equal(t, 3, stats[1].Sales)
	assert.Equal(t, 2, stats[1].Returns)
	assert.True(t, stats[1].Revenue.Equal(dec("180")))
}

func TestByAdvertising_OmitsEmptyGroups(t *testing.T) {
	in := metrics.Input{
		Sales:         []ledger.SaleRecord{{OrderID: "1", SoldAt: daysAgo(0)}},
		ReferenceDate: ref,
	}
	stats := ByAdvertising(in, 30)
	require.Len(t, stats, 1)
	assert.Equal(t, LabelOrganic, stats[0].Kind)

	assert.Empty(t, ByAdvertising(metrics.Input{ReferenceDate: ref}, 30))
}

func TestInferReason(t *testing.T) {
	tests := []struct {
		name string
		rec  ledger.ReturnRecord
		want string
	}{
		{"recorded reason kept", ledger.ReturnRecord{Reason: " Produto com defeito ", State: "cancelada"}, "Produto com defeito"},
		{"seller refund", ledger.ReturnRecord{StatusDescription: "Te demos o dinheiro"}, ReasonSellerRefund},
		{"buyer refund by state", ledger.ReturnRecord{State: "Reembolso para o comprador"}, ReasonBuyerRefund},
		{"buyer refund by status", ledger.ReturnRecord{StatusDescription: "Reembolsamos o comprador"}, ReasonBuyerRefund},
		{"mediation", ledger.ReturnRecord{State: "Finalizada via mediação"}, ReasonMediation},
		{"cancelled", ledger.ReturnRecord{StatusDescription: "Venda cancelada"}, ReasonCancelled},
		{"not returned", ledger.ReturnRecord{State: "Devolução não entregue"}, ReasonNotReturned},
		{"back to buyer", ledger.ReturnRecord{State: "Enviamos de volta ao comprador"}, ReasonBackToBuyer},
		{"completed", ledger.ReturnRecord{State: "Produto devolvido"}, ReasonReturnCompleted},
		{"other", ledger.ReturnRecord{State: "Em análise"}, ReasonOther},
		{"nothing", ledger.ReturnRecord{}, ReasonOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferReason(tt.rec))
		})
	}
}

func TestByReason(t *testing.T) {
	long := strings.Repeat("é", 60)
	matrix := []ledger.ReturnRecord{
		{Reason: "Arrependimento"},
		{Reason: "Arrependimento"},
		{State: "Cancelada pelo comprador"},
		{Reason: long},
	}
	full := []ledger.ReturnRecord{{Reason: "Arrependimento"}}

	stats := ByReason(matrix, full)
	require.Len(t, stats, 3)
	assert.Equal(t, "Arrependimento", stats[0].Reason)
	assert.Equal(t, 3, stats[0].Count)
	assert.InDelta(t, 60.0, stats[0].SharePct, 1e-9)
	assert.Equal(t, ReasonCancelled, stats[1].Reason)
	assert.Equal(t, MaxReasonLength, len([]rune(stats[2].Reason)), "reasons are truncated by rune")

	var total float64
	for _, s := range stats {
		total += s.SharePct
	}
	assert.InDelta(t, 100.0, total, 1e-9)

	assert.Empty(t, ByReason(nil, nil))
}

func TestSKURisk(t *testing.T) {
	res := SKURisk(sampleInput(), 30, 0)

	assert.Equal(t, 3, res.TotalReturns)
	require.Len(t, res.SKUs, 3)

	a := res.SKUs[0]
	assert.Equal(t, "A", a.SKU)
	assert.Equal(t, 3, a.Sales)
	assert.Equal(t, 1, a.Returns)
	assert.InDelta(t, 100.0/3, a.RatePct, 1e-9)
	assert.True(t, a.Impact.Equal(dec("-100")))
	assert.True(t, a.Refunds.Equal(dec("-100")))
	assert.True(t, a.ShippingCost.Equal(dec("-12")))
	assert.InDelta(t, 100.0/3, a.Risk, 1e-9)
	assert.Equal(t, RiskCritical, a.Class)

	assert.Equal(t, "B", res.SKUs[1].SKU)
	assert.Equal(t, UnknownSKU, res.SKUs[2].SKU)

	top := SKURisk(sampleInput(), 30, 1)
	require.Len(t, top.SKUs, 1)
	assert.Equal(t, 3, top.TotalReturns, "total is computed before truncation")
}

func TestSKURisk_OmitsSKUsWithoutReturns(t *testing.T) {
	in := metrics.Input{
		Sales:         []ledger.SaleRecord{{OrderID: "1", SKU: "Z", SoldAt: daysAgo(0)}},
		ReferenceDate: ref,
	}
	res := SKURisk(in, 30, 10)
	assert.Empty(t, res.SKUs)
	assert.Zero(t, res.TotalReturns)
}

func TestClassifyRate(t *testing.T) {
	assert.Equal(t, RiskCritical, ClassifyRate(15))
	assert.Equal(t, RiskAttention, ClassifyRate(14.9))
	assert.Equal(t, RiskAttention, ClassifyRate(8))
	assert.Equal(t, RiskNeutral, ClassifyRate(7.99))
	assert.Equal(t, RiskNeutral, ClassifyRate(0))
}

func TestSimulate(t *testing.T) {
	sim, err := Simulate(sampleInput(), 30, 50)
	require.NoError(t, err)

	assert.Equal(t, 5, sim.Sales)
	assert.True(t, sim.Revenue.Equal(dec("380")))
	assert.Equal(t, 3, sim.Current.Returns)
	assert.InDelta(t, 60.0, sim.Current.RatePct, 1e-9)
	assert.True(t, sim.Current.Impact.Equal(dec("-180")), sim.Current.Impact.String())

	assert.Equal(t, 1, sim.Simulated.Returns, "1.5 returns truncate to 1")
	assert.InDelta(t, 20.0, sim.Simulated.RatePct, 1e-9)
	assert.True(t, sim.Simulated.Impact.Equal(dec("-90")))
	assert.True(t, sim.Saving.Equal(dec("90")))
}

func TestSimulate_Bounds(t *testing.T) {
	none, err := Simulate(sampleInput(), 30, 0)
	require.NoError(t, err)
	assert.Equal(t, none.Current.Returns, none.Simulated.Returns)
	assert.True(t, none.Saving.IsZero())

	all, err := Simulate(sampleInput(), 30, 100)
	require.NoError(t, err)
	assert.Zero(t, all.Simulated.Returns)
	assert.True(t, all.Simulated.Impact.IsZero())

	_, err = Simulate(sampleInput(), 30, 101)
	var invalid InvalidReductionError
	assert.ErrorAs(t, err, &invalid)
	_, err = Simulate(sampleInput(), 30, -1)
	assert.Error(t, err)

	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.NotPanics(t, func() {
			_, err = Simulate(sampleInput(), 30, v)
		})
		assert.ErrorAs(t, err, &invalid, "reduction %v", v)
	}
}

func TestCompareChannels(t *testing.T) {
	data := ledger.NewProcessedData(nil, make([]ledger.ReturnRecord, 3), make([]ledger.ReturnRecord, 1))
	stats := CompareChannels(data)
	require.Len(t, stats, 2)
	assert.Equal(t, ChannelStats{Channel: ledger.ChannelMatrix, Returns: 3, SharePct: 75}, stats[0])
	assert.Equal(t, ChannelStats{Channel: ledger.ChannelFull, Returns: 1, SharePct: 25}, stats[1])

	empty := CompareChannels(ledger.NewProcessedData(nil, nil, nil))
	assert.Equal(t, 0.0, empty[0].SharePct)
	assert.Equal(t, 0.0, empty[1].SharePct)
}
