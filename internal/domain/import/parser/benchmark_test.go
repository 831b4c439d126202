package parser

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/FACorreiaa/returns-insights/internal/domain/import/normalizer"
	"github.com/FACorreiaa/returns-insights/internal/domain/ledger/ledgertest"
)

// generateWorkbooks creates sales and returns workbooks with the given sale count
func generateWorkbooks(b *testing.B, sales int) ([]byte, []byte) {
	b.Helper()
	gen := ledgertest.NewGeneratorWithSeed(int64(sales))
	rows := gen.Sales(sales, time.Date(2025, time.June, 30, 12, 0, 0, 0, time.UTC), 365, nil)
	matrix, full := gen.Returns(rows, 0.15)

	salesData, err := ledgertest.SalesWorkbook(rows)
	if err != nil {
		b.Fatal(err)
	}
	returnsData, err := ledgertest.ReturnsWorkbook(matrix, full)
	if err != nil {
		b.Fatal(err)
	}
	return salesData, returnsData
}

// BenchmarkLoaderProcess measures a full load at increasing sizes
func BenchmarkLoaderProcess(b *testing.B) {
	for _, size := range []int{100, 1000, 10000} {
		salesData, returnsData := generateWorkbooks(b, size)
		loader := NewLoader(DefaultConfig(), nil)

		b.Run(fmt.Sprintf("%d_sales", size), func(b *testing.B) {
			b.SetBytes(int64(len(salesData) + len(returnsData)))
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				data, err := loader.Process(context.Background(), bytes.NewReader(salesData), bytes.NewReader(returnsData))
				if err != nil {
					b.Fatal(err)
				}
				_ = data.RowCounts.Sales
			}
		})
	}
}

// BenchmarkLoadSales isolates the sales ledger
func BenchmarkLoadSales(b *testing.B) {
	salesData, _ := generateWorkbooks(b, 5000)
	loader := NewLoader(DefaultConfig(), nil)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sales, err := loader.LoadSales(bytes.NewReader(salesData))
		if err != nil {
			b.Fatal(err)
		}
		_ = len(sales)
	}
}

// BenchmarkParseDateFormats tests date parsing with the shapes found in exports
func BenchmarkParseDateFormats(b *testing.B) {
	formats := []struct {
		name  string
		value string
	}{
		{"Textual", "24 de fevereiro de 2026 22:51 hs."},
		{"ISO", "2026-02-24 22:51:00"},
		{"Brazilian", "24/02/2026 22:51"},
		{"Serial", "46077.95"},
	}

	for _, f := range formats {
		b.Run(f.name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = normalizer.ParseDate(f.value)
			}
		})
	}
}

// BenchmarkParseAmountFormats tests amount parsing with different notations
func BenchmarkParseAmountFormats(b *testing.B) {
	formats := []struct {
		name  string
		value string
	}{
		{"BRL", "R$ 1.234,56"},
		{"NegativeBRL", "-R$ 1.234,56"},
		{"Plain", "1234.56"},
		{"Scientific", "1.5E+2"},
	}

	for _, f := range formats {
		b.Run(f.name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = normalizer.ParseAmount(f.value)
			}
		})
	}
}
