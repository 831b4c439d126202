package ledgertest

import "time"

// SampleReference is the latest sale date of the sample upload.
var SampleReference = time.Date(2025, time.June, 30, 18, 0, 0, 0, time.UTC)

// SampleSales is a small hand-checked sales ledger: two sales inside the
// last 30 days and one 40 days before the reference.
func SampleSales() []SaleRow {
	return []SaleRow{
		{
			OrderID: "3001", Date: FormatDate(SampleReference), State: "Entregue", SKU: "SKU-A", Units: "1",
			ProductRevenue: "R$ 100,00", ShippingRevenue: "R$ 10,00", DeliveryMethod: "Coleta", Advertised: "Sim",
		},
		{
			OrderID: "3002", Date: FormatDate(SampleReference.AddDate(0, 0, -10)), State: "Entregue", SKU: "SKU-A", Units: "1",
			ProductRevenue: "R$ 200,00", DeliveryMethod: "Mercado Envios Full", Advertised: "Não",
		},
		{
			OrderID: "3003", Date: FormatDate(SampleReference.AddDate(0, 0, -40)), State: "Entregue", SKU: "SKU-B", Units: "1",
			ProductRevenue: "R$ 50,00", DeliveryMethod: "Coleta", Advertised: "Não",
		},
	}
}

// SampleReturns returns one healthy matrix return of 3001 and one critical
// full return of 3002.
func SampleReturns() (matrix, full []ReturnRow) {
	matrix = []ReturnRow{{
		OrderID: "3001", State: "Te demos o dinheiro da venda", Status: "Devolução concluída",
		Channel: "Matriz", DeliveryMethod: "Coleta", Reason: "Arrependimento de compra",
		ProductRevenue: "R$ 100,00", Refund: "-R$ 100,00",
	}}
	full = []ReturnRow{{
		OrderID: "3002", State: "Reembolso para o comprador", Status: "Reembolso concluído",
		Channel: "Full", DeliveryMethod: "Mercado Envios Full", Reason: "Produto não chegou",
		ProductRevenue: "R$ 200,00", Refund: "-R$ 200,00", Fees: "-R$ 20,00",
	}}
	return matrix, full
}

// SampleWorkbooks renders the sample upload as workbook bytes.
func SampleWorkbooks() (sales, returns []byte, err error) {
	sales, err = SalesWorkbook(SampleSales())
	if err != nil {
		return nil, nil, err
	}
	matrix, full := SampleReturns()
	returns, err = ReturnsWorkbook(matrix, full)
	if err != nil {
		return nil, nil, err
	}
	return sales, returns, nil
}
