// Package report exports an upload's metrics, quality and raw ledgers as an
// XLSX workbook or as CSV.
package report

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/returns-insights/internal/domain/analysis"
	"github.com/FACorreiaa/returns-insights/internal/domain/ledger"
	"github.com/FACorreiaa/returns-insights/internal/domain/metrics"
	"github.com/FACorreiaa/returns-insights/internal/domain/quality"
)

// Sheet names in workbook order.
const (
	SheetSummary    = "Resumo"
	SheetQuality    = "Qualidade"
	SheetWindows    = "Janelas"
	SheetChannels   = "Matriz_Full"
	SheetRawSales   = "Vendas_Brutos"
	SheetRawReturns = "Devolucoes_Brutos"
)

// RawRowLimit caps the rows copied into each raw data sheet.
const RawRowLimit = 1000

// DefaultFileName is the download name of the workbook.
const DefaultFileName = "Dashboard_Vendas_Devolucoes.xlsx"

// Options tunes the export.
type Options struct {
	// Windows listed in the Janelas sheet; defaults to metrics.StandardWindows.
	Windows []int
	// Engine computes snapshots; defaults to the standard classifier.
	Engine *metrics.Engine
}

func (o Options) withDefaults() Options {
	if len(o.Windows) == 0 {
		o.Windows = metrics.StandardWindows
	}
	if o.Engine == nil {
		o.Engine = metrics.NewEngine(nil)
	}
	return o
}

// sheet is a block of rows written from A1 with a bold title and header.
type sheet struct {
	name   string
	title  string
	header []interface{}
	rows   [][]interface{}
	widths []float64
}

// BuildWorkbook assembles the six-sheet dashboard workbook. It fails with
// ledger.ErrEmptyReferenceDate when no sale is dated.
func BuildWorkbook(data *ledger.ProcessedData, opts Options) (*excelize.File, error) {
	opts = opts.withDefaults()

	in, err := metrics.InputFrom(data)
	if err != nil {
		return nil, err
	}

	sheets := []sheet{
		summarySheet(opts.Engine.Compute(in, metrics.SummaryWindow)),
		qualitySheet(quality.ForData(data)),
		windowsSheet(opts.Engine.ComputeWindows(in, opts.Windows)),
		channelsSheet(analysis.CompareChannels(data)),
		rawSalesSheet(data.Sales),
		rawReturnsSheet(data.Returns()),
	}

	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	for i, s := range sheets {
		if i == 0 {
			err = f.SetSheetName("Sheet1", s.name)
		} else {
			_, err = f.NewSheet(s.name)
		}
		if err == nil {
			err = writeSheet(f, s, bold)
		}
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to write sheet %s: %w", s.name, err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

// WriteWorkbook builds the workbook and streams it to w.
func WriteWorkbook(w io.Writer, data *ledger.ProcessedData, opts Options) error {
	f, err := BuildWorkbook(data, opts)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, s sheet, bold int) error {
	row := 1
	if s.title != "" {
		if err := f.SetCellValue(s.name, "A1", s.title); err != nil {
			return err
		}
		if err := f.SetCellStyle(s.name, "A1", "A1", bold); err != nil {
			return err
		}
		row = 3
	}

	headerCell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(s.name, headerCell, &s.header); err != nil {
		return err
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(s.header), row)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(s.name, headerCell, lastHeader, bold); err != nil {
		return err
	}

	for i := range s.rows {
		cell, err := excelize.CoordinatesToCellName(1, row+1+i)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(s.name, cell, &s.rows[i]); err != nil {
			return err
		}
	}

	for i, width := range s.widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(s.name, col, col, width); err != nil {
			return err
		}
	}
	return nil
}

func amount(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func percent(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func yesNo(b bool) string {
	if b {
		return "Sim"
	}
	return "Não"
}

func summarySheet(s metrics.Snapshot) sheet {
	return sheet{
		name:   SheetSummary,
		title:  fmt.Sprintf("RESUMO EXECUTIVO - %d DIAS", s.WindowDays),
		header: []interface{}{"Métrica", "Valor"},
		rows: [][]interface{}{
			{"Total de Vendas", s.Sales},
			{"Faturamento Total (R$)", amount(s.TotalRevenue)},
			{"Taxa de Devolução (%)", percent(s.ReturnRatePct())},
			{"Devoluções", s.ReturnedOrders},
			{"Impacto Financeiro (R$)", amount(s.ReturnImpact)},
			{"Perda Total (R$)", amount(s.TotalLoss)},
			{"Perda Parcial (R$)", amount(s.PartialLoss)},
			{"Devoluções Saudáveis", s.Healthy},
			{"Devoluções Críticas", s.Critical},
			{"Devoluções Neutras", s.Neutral},
		},
		widths: []float64{30, 15},
	}
}

func qualitySheet(q quality.Report) sheet {
	return sheet{
		name:   SheetQuality,
		title:  "QUALIDADE DO ARQUIVO",
		header: []interface{}{"Métrica", "Percentual"},
		rows: [][]interface{}{
			{"SKU sem informação (%)", percent(q.Sales.MissingSKUPct)},
			{"Data sem informação (%)", percent(q.Sales.MissingDatePct)},
			{"N.º de venda sem informação (%)", percent(q.Sales.MissingOrderIDPct)},
			{"Devoluções Matriz - Sem motivo (%)", percent(q.Matrix.MissingReasonPct)},
			{"Devoluções Matriz - Sem estado (%)", percent(q.Matrix.MissingStatePct)},
			{"Devoluções Full - Sem motivo (%)", percent(q.Full.MissingReasonPct)},
			{"Devoluções Full - Sem estado (%)", percent(q.Full.MissingStatePct)},
			{"Custo logístico ausente", yesNo(q.ShippingCostMissing)},
			{"Pontuação de qualidade", percent(q.Score())},
		},
		widths: []float64{40, 15},
	}
}

func windowsSheet(snaps []metrics.Snapshot) sheet {
	rows := make([][]interface{}, 0, len(snaps))
	for _, s := range snaps {
		rows = append(rows, []interface{}{
			s.WindowDays, s.Sales, amount(s.TotalRevenue), s.ReturnedOrders,
			percent(s.ReturnRatePct()), amount(s.TotalLoss),
		})
	}
	return sheet{
		name:   SheetWindows,
		title:  "ANÁLISE POR JANELAS DE TEMPO",
		header: []interface{}{"Período (dias)", "Vendas", "Faturamento (R$)", "Devoluções", "Taxa (%)", "Perda Total (R$)"},
		rows:   rows,
		widths: []float64{15, 12, 18, 12, 10, 18},
	}
}

func channelsSheet(stats []analysis.ChannelStats) sheet {
	rows := make([][]interface{}, 0, len(stats))
	for _, c := range stats {
		label := "Matriz"
		if c.Channel == ledger.ChannelFull {
			label = "Full"
		}
		rows = append(rows, []interface{}{label, c.Returns, percent(c.SharePct)})
	}
	return sheet{
		name:   SheetChannels,
		title:  "MATRIZ vs FULL",
		header: []interface{}{"Canal", "Devoluções", "Percentual"},
		rows:   rows,
		widths: []float64{15, 12, 12},
	}
}

func rawSalesSheet(sales []ledger.SaleRecord) sheet {
	if len(sales) > RawRowLimit {
		sales = sales[:RawRowLimit]
	}
	rows := make([][]interface{}, 0, len(sales))
	for _, s := range sales {
		var date interface{} = ""
		if s.SoldAt != nil {
			date = s.SoldAt.Format("2006-01-02 15:04")
		}
		rows = append(rows, []interface{}{
			s.OrderID, date, s.SKU, amount(s.ProductRevenue), amount(s.ShippingRevenue),
		})
	}
	return sheet{
		name:   SheetRawSales,
		header: []interface{}{"N.º de venda", "Data da venda", "SKU", "Receita por produtos (BRL)", "Receita por envio (BRL)"},
		rows:   rows,
		widths: []float64{15, 20, 12, 18, 18},
	}
}

func rawReturnsSheet(returns []ledger.ReturnRecord) sheet {
	if len(returns) > RawRowLimit {
		returns = returns[:RawRowLimit]
	}
	rows := make([][]interface{}, 0, len(returns))
	for _, r := range returns {
		rows = append(rows, []interface{}{
			r.OrderID, amount(r.Refund), r.State, r.Reason, r.ChannelLabel,
		})
	}
	return sheet{
		name:   SheetRawReturns,
		header: []interface{}{"N.º de venda", "Cancelamentos e reembolsos (BRL)", "Estado", "Motivo do resultado", "Canal"},
		rows:   rows,
		widths: []float64{15, 25, 20, 30, 12},
	}
}
