package report

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/FACorreiaa/returns-insights/internal/domain/ledger"
)

// SaleRow is the CSV shape of a sale.
type SaleRow struct {
	OrderID         string `csv:"N.º de venda"`
	SoldAt          string `csv:"Data da venda"`
	SKU             string `csv:"SKU"`
	ProductRevenue  string `csv:"Receita por produtos (BRL)"`
	ShippingRevenue string `csv:"Receita por envio (BRL)"`
	DeliveryMethod  string `csv:"Forma de entrega"`
	Advertised      string `csv:"Venda por publicidade"`
}

// ReturnRow is the CSV shape of a return.
type ReturnRow struct {
	OrderID           string `csv:"N.º de venda"`
	Channel           string `csv:"Canal"`
	State             string `csv:"Estado"`
	StatusDescription string `csv:"Descrição do status"`
	Reason            string `csv:"Motivo do resultado"`
	Refund            string `csv:"Cancelamentos e reembolsos (BRL)"`
	Fees              string `csv:"Tarifas de venda e impostos (BRL)"`
	ShippingCost      string `csv:"Custos de envio (BRL)"`
}

// Kind selects which ledger a CSV export holds.
type Kind string

const (
	KindSales   Kind = "sales"
	KindReturns Kind = "returns"
)

// ParseKind validates a CSV kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindSales, KindReturns:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown export kind %q", s)
}

// WriteSalesCSV writes every sale as CSV with a header row.
func WriteSalesCSV(w io.Writer, sales []ledger.SaleRecord) error {
	rows := make([]SaleRow, 0, len(sales))
	for _, s := range sales {
		row := SaleRow{
			OrderID:         s.OrderID,
			SKU:             s.SKU,
			ProductRevenue:  s.ProductRevenue.StringFixed(2),
			ShippingRevenue: s.ShippingRevenue.StringFixed(2),
			DeliveryMethod:  s.DeliveryMethod,
			Advertised:      s.Advertised,
		}
		if s.SoldAt != nil {
			row.SoldAt = s.SoldAt.Format("2006-01-02 15:04")
		}
		rows = append(rows, row)
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("failed to write sales CSV: %w", err)
	}
	return nil
}

// WriteReturnsCSV writes every return as CSV with a header row.
func WriteReturnsCSV(w io.Writer, returns []ledger.ReturnRecord) error {
	rows := make([]ReturnRow, 0, len(returns))
	for _, r := range returns {
		rows = append(rows, ReturnRow{
			OrderID:           r.OrderID,
			Channel:           string(r.Channel),
			State:             r.State,
			StatusDescription: r.StatusDescription,
			Reason:            r.Reason,
			Refund:            r.Refund.StringFixed(2),
			Fees:              r.Fees.StringFixed(2),
			ShippingCost:      r.ShippingCost.StringFixed(2),
		})
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("failed to write returns CSV: %w", err)
	}
	return nil
}

// WriteCSV writes the ledger selected by kind.
func WriteCSV(w io.Writer, data *ledger.ProcessedData, kind Kind) error {
	if kind == KindReturns {
		return WriteReturnsCSV(w, data.Returns())
	}
	return WriteSalesCSV(w, data.Sales)
}
