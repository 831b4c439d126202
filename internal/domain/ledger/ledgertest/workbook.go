// Package ledgertest builds marketplace-shaped workbooks for tests and for
// the seed command: banner rows above a Portuguese header, textual dates and
// BRL-formatted amounts, exactly as the marketplace export lays them out.
package ledgertest

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/returns-insights/internal/domain/ledger"
)

// Header rows as exported.
var (
	SalesHeaders = []string{
		"N.º de venda", "Data da venda", "Estado", "SKU", "Unidades",
		"Receita por produtos (BRL)", "Receita por envio (BRL)",
		"Tarifa de venda e impostos (BRL)", "Forma de entrega", "Venda por publicidade",
	}
	ReturnHeaders = []string{
		"N.º de venda", "Data da venda", "Estado", "Descrição do status", "Canal",
		"Forma de entrega", "Motivo do resultado", "Receita por produtos (BRL)",
		"Cancelamentos e reembolsos (BRL)", "Tarifas de venda e impostos (BRL)",
		"Custo de envio com base nas medidas e peso declarados",
	}
)

// SaleRow is one sales line as raw cell text.
type SaleRow struct {
	OrderID         string
	Date            string
	State           string
	SKU             string
	Units           string
	ProductRevenue  string
	ShippingRevenue string
	Fees            string
	DeliveryMethod  string
	Advertised      string
}

func (r SaleRow) cells() []interface{} {
	return []interface{}{
		r.OrderID, r.Date, r.State, r.SKU, r.Units,
		r.ProductRevenue, r.ShippingRevenue, r.Fees, r.DeliveryMethod, r.Advertised,
	}
}

// ReturnRow is one returns line as raw cell text.
type ReturnRow struct {
	OrderID        string
	Date           string
	State          string
	Status         string
	Channel        string
	DeliveryMethod string
	Reason         string
	ProductRevenue string
	Refund         string
	Fees           string
	ShippingCost   string
}

func (r ReturnRow) cells() []interface{} {
	return []interface{}{
		r.OrderID, r.Date, r.State, r.Status, r.Channel, r.DeliveryMethod,
		r.Reason, r.ProductRevenue, r.Refund, r.Fees, r.ShippingCost,
	}
}

// BannerRows is the number of title rows written above each header.
const BannerRows = 5

// SalesWorkbook writes a workbook with a single sales sheet.
func SalesWorkbook(rows []SaleRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ledger.SalesSheet); err != nil {
		return nil, err
	}
	data := make([][]interface{}, len(rows))
	for i, r := range rows {
		data[i] = r.cells()
	}
	if err := writeSheet(f, ledger.SalesSheet, "Relatório de vendas", SalesHeaders, data); err != nil {
		return nil, err
	}
	return toBytes(f)
}

// ReturnsWorkbook writes both return sheets. A nil slice omits that sheet,
// an empty one writes the header only.
func ReturnsWorkbook(matrix, full []ReturnRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	written := 0
	for _, sheet := range []struct {
		name string
		rows []ReturnRow
	}{
		{ledger.MatrixSheet, matrix},
		{ledger.FullSheet, full},
	} {
		if sheet.rows == nil {
			continue
		}
		if written == 0 {
			if err := f.SetSheetName("Sheet1", sheet.name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(sheet.name); err != nil {
			return nil, err
		}
		data := make([][]interface{}, len(sheet.rows))
		for i, r := range sheet.rows {
			data[i] = r.cells()
		}
		if err := writeSheet(f, sheet.name, "Relatório de devoluções", ReturnHeaders, data); err != nil {
			return nil, err
		}
		written++
	}
	if written == 0 {
		if err := f.SetSheetName("Sheet1", "Resumo"); err != nil {
			return nil, err
		}
	}
	return toBytes(f)
}

func writeSheet(f *excelize.File, sheet, title string, headers []string, rows [][]interface{}) error {
	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, "A2", "Gerado em "+FormatDate(time.Date(2025, time.June, 30, 9, 0, 0, 0, time.UTC))); err != nil {
		return err
	}

	headerCells := make([]interface{}, len(headers))
	for i, h := range headers {
		headerCells[i] = h
	}
	if err := setRow(f, sheet, BannerRows+1, headerCells); err != nil {
		return err
	}
	for i, r := range rows {
		if err := setRow(f, sheet, BannerRows+2+i, r); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func toBytes(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return bytes.Clone(buf.Bytes()), nil
}

var monthNames = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// FormatDate renders a time the way the export writes it:
// "24 de fevereiro de 2026 22:51 hs.".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%d de %s de %d %02d:%02d hs.", t.Day(), monthNames[t.Month()-1], t.Year(), t.Hour(), t.Minute())
}
