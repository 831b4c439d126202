package parser

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/returns-insights/internal/domain/import/sniffer"
	"github.com/FACorreiaa/returns-insights/internal/domain/ledger"
)

// SheetStats describes how one sheet was read.
type SheetStats struct {
	Sheet       string
	HeaderRow   int // 0-based
	HeaderFound bool
	Headers     []string
	TotalRows   int // data rows after the header, blank ones included
	SkippedRows int // fully blank rows
}

// sheetGrid is a sheet read as raw text with its header located.
type sheetGrid struct {
	rows    [][]string
	headers []string
	stats   SheetStats
}

// ErrInvalidWorkbook is returned when an upload is not a readable xlsx file.
var ErrInvalidWorkbook = errors.New("failed to open Excel file")

func openWorkbook(r io.Reader) (*excelize.File, error) {
	f, err := excelize.OpenReader(r, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWorkbook, err)
	}
	return f, nil
}

func readSheet(f *excelize.File, sheet string, required []string) (*sheetGrid, error) {
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}

	headerIdx, found := sniffer.FindHeader(rows, required)
	g := &sheetGrid{
		rows:  rows,
		stats: SheetStats{Sheet: sheet, HeaderRow: headerIdx, HeaderFound: found},
	}
	if len(rows) == 0 {
		return g, nil
	}

	g.headers = sniffer.CleanHeaders(rows[headerIdx])
	g.stats.Headers = g.headers
	return g, nil
}

// each calls fn for every non-blank data row with its 1-based sheet row
// number and the row keyed by header.
func (g *sheetGrid) each(fn func(rowNum int, raw map[string]string)) {
	if len(g.rows) == 0 {
		return
	}
	for i := g.stats.HeaderRow + 1; i < len(g.rows); i++ {
		row := g.rows[i]
		g.stats.TotalRows++

		if isBlank(row) {
			g.stats.SkippedRows++
			continue
		}

		raw := make(map[string]string, len(g.headers))
		for idx, header := range g.headers {
			if header == "" {
				continue
			}
			value := ""
			if idx < len(row) {
				value = strings.TrimSpace(row[idx])
			}
			raw[header] = value
		}
		fn(i+1, raw)
	}
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func readSales(f *excelize.File, sheet string) ([]ledger.SaleRecord, SheetStats, error) {
	g, err := readSheet(f, sheet, sniffer.KeyColumnsSales)
	if err != nil {
		return nil, SheetStats{}, err
	}

	cm := mapColumns(g.headers, salesAliases)
	sales := make([]ledger.SaleRecord, 0, len(g.rows))
	g.each(func(rowNum int, raw map[string]string) {
		sales = append(sales, cm.sale(rowNum, raw))
	})
	return sales, g.stats, nil
}

func readReturns(f *excelize.File, sheet string, channel ledger.Channel) ([]ledger.ReturnRecord, SheetStats, error) {
	g, err := readSheet(f, sheet, sniffer.KeyColumnsReturns)
	if err != nil {
		return nil, SheetStats{}, err
	}

	cm := mapColumns(g.headers, returnAliases)
	records := make([]ledger.ReturnRecord, 0, len(g.rows))
	g.each(func(rowNum int, raw map[string]string) {
		records = append(records, cm.returnRecord(channel, rowNum, raw))
	})
	return records, g.stats, nil
}
