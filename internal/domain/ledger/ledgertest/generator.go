package ledgertest

import (
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/returns-insights/pkg/money"
)

// Generator produces realistic sales and returns using gofakeit.
type Generator struct {
	faker *gofakeit.Faker
}

// NewGenerator creates a generator with a random seed.
func NewGenerator() *Generator {
	return &Generator{faker: gofakeit.New(0)}
}

// NewGeneratorWithSeed creates a generator with a fixed seed for reproducible data.
func NewGeneratorWithSeed(seed int64) *Generator {
	return &Generator{faker: gofakeit.New(seed)}
}

var (
	deliveryMethods = []string{"Mercado Envios Full", "Mercado Envios Flex", "Coleta", "Agência", ""}
	saleStates      = []string{"Entregue", "Entregue", "Entregue", "Cancelada", "A caminho"}

	healthyReturns = []ReturnTemplate{
		{State: "Te demos o dinheiro da venda", Status: "Devolução concluída", Reason: "Arrependimento de compra"},
		{State: "Liberamos o dinheiro para você", Status: "Produto revisado", Reason: "Produto chegou com defeito"},
	}
	criticalReturns = []ReturnTemplate{
		{State: "Reembolso para o comprador", Status: "Reembolso concluído", Reason: "Produto diferente do anunciado"},
		{State: "Cancelada pelo comprador", Status: "Venda cancelada", Reason: ""},
		{State: "Mediação finalizada com reembolso", Status: "Mediação", Reason: "Produto não chegou"},
	}
	neutralReturns = []ReturnTemplate{
		{State: "Devolução em andamento", Status: "Aguardando devolução", Reason: "Tamanho errado"},
		{State: "", Status: "", Reason: ""},
	}
)

// ReturnTemplate is a state/status/reason triple typical of one outcome.
type ReturnTemplate struct {
	State  string
	Status string
	Reason string
}

// SKU returns a product code.
func (g *Generator) SKU() string {
	return g.faker.LetterN(3) + "-" + g.faker.DigitN(4)
}

// OrderID returns a 13-digit order number.
func (g *Generator) OrderID() string {
	return "2000" + g.faker.DigitN(9)
}

// Amount returns a random amount in [minAmount, maxAmount] with centavos.
func (g *Generator) Amount(minAmount, maxAmount float64) decimal.Decimal {
	return decimal.NewFromFloat(g.faker.Float64Range(minAmount, maxAmount)).Round(2)
}

// Sales generates n sales dated within the days before ref, spread over skus.
func (g *Generator) Sales(n int, ref time.Time, days int, skus []string) []SaleRow {
	if len(skus) == 0 {
		skus = []string{g.SKU(), g.SKU(), g.SKU()}
	}

	rows := make([]SaleRow, n)
	for i := range rows {
		soldAt := g.faker.DateRange(ref.AddDate(0, 0, -days), ref).Truncate(time.Minute)
		if i == 0 {
			soldAt = ref
		}
		advertised := "Não"
		if g.faker.Bool() {
			advertised = "Sim"
		}
		rows[i] = SaleRow{
			OrderID:         g.OrderID(),
			Date:            FormatDate(soldAt),
			State:           g.faker.RandomString(saleStates),
			SKU:             skus[g.faker.Number(0, len(skus)-1)],
			Units:           strconv.Itoa(g.faker.Number(1, 3)),
			ProductRevenue:  money.FormatBRL(g.Amount(20, 900)),
			ShippingRevenue: money.FormatBRL(g.Amount(0, 40)),
			Fees:            money.FormatBRL(g.Amount(3, 120).Neg()),
			DeliveryMethod:  g.faker.RandomString(deliveryMethods),
			Advertised:      advertised,
		}
	}
	return rows
}

// Returns picks about rate (0..1) of the sales as returns and splits them
// between the matrix and full channels.
func (g *Generator) Returns(sales []SaleRow, rate float64) (matrix, full []ReturnRow) {
	matrix = []ReturnRow{}
	full = []ReturnRow{}

	for _, s := range sales {
		if g.faker.Float64Range(0, 1) >= rate {
			continue
		}

		var tpl ReturnTemplate
		switch g.faker.Number(0, 2) {
		case 0:
			tpl = healthyReturns[g.faker.Number(0, len(healthyReturns)-1)]
		case 1:
			tpl = criticalReturns[g.faker.Number(0, len(criticalReturns)-1)]
		default:
			tpl = neutralReturns[g.faker.Number(0, len(neutralReturns)-1)]
		}

		r := ReturnRow{
			OrderID:        s.OrderID,
			Date:           s.Date,
			State:          tpl.State,
			Status:         tpl.Status,
			DeliveryMethod: s.DeliveryMethod,
			Reason:         tpl.Reason,
			ProductRevenue: s.ProductRevenue,
			Refund:         money.FormatBRL(g.Amount(10, 500).Neg()),
			Fees:           money.FormatBRL(g.Amount(1, 60).Neg()),
		}
		if g.faker.Bool() {
			r.ShippingCost = money.FormatBRL(g.Amount(8, 45).Neg())
		}

		if s.DeliveryMethod == "Mercado Envios Full" {
			r.Channel = "Full"
			full = append(full, r)
		} else {
			r.Channel = "Mercado Livre"
			matrix = append(matrix, r)
		}
	}
	return matrix, full
}
