// Package parser loads marketplace sales and returns workbooks into ledger
// records. Sheets are found by name, headers by key columns, and every cell
// goes through the normalizer so a bad row degrades instead of failing.
package parser

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/returns-insights/internal/domain/ledger"
)

// Config names the sheets read from each workbook.
type Config struct {
	SalesSheet  string
	MatrixSheet string
	FullSheet   string
}

// DefaultConfig returns the sheet names used by the marketplace export.
func DefaultConfig() Config {
	return Config{
		SalesSheet:  ledger.SalesSheet,
		MatrixSheet: ledger.MatrixSheet,
		FullSheet:   ledger.FullSheet,
	}
}

// Loader reads sales and returns workbooks.
type Loader struct {
	config Config
	logger *slog.Logger
	tracer trace.Tracer
}

// NewLoader creates a loader. A nil logger discards output.
func NewLoader(config Config, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{
		config: config,
		logger: logger,
		tracer: otel.Tracer("returns-insights/parser"),
	}
}

// LoadSales reads the sales sheet. A workbook without it yields a
// *ledger.MissingSheetError.
func (l *Loader) LoadSales(r io.Reader) ([]ledger.SaleRecord, error) {
	f, err := openWorkbook(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := resolveSheet(f, l.config.SalesSheet)
	if sheet == "" {
		return nil, &ledger.MissingSheetError{Sheet: l.config.SalesSheet, Available: f.GetSheetList()}
	}

	sales, stats, err := readSales(f, sheet)
	if err != nil {
		return nil, err
	}
	l.logStats(stats, len(sales))
	return sales, nil
}

// LoadReturns reads both return sheets. Either may be absent, in which case
// its collection is empty.
func (l *Loader) LoadReturns(r io.Reader) (matrix, full []ledger.ReturnRecord, err error) {
	f, err := openWorkbook(r)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	matrix, err = l.loadChannel(f, l.config.MatrixSheet, ledger.ChannelMatrix)
	if err != nil {
		return nil, nil, err
	}
	full, err = l.loadChannel(f, l.config.FullSheet, ledger.ChannelFull)
	if err != nil {
		return nil, nil, err
	}
	return matrix, full, nil
}

func (l *Loader) loadChannel(f *excelize.File, want string, channel ledger.Channel) ([]ledger.ReturnRecord, error) {
	sheet := resolveSheet(f, want)
	if sheet == "" {
		l.logger.Debug("return sheet absent", slog.String("sheet", want))
		return []ledger.ReturnRecord{}, nil
	}

	records, stats, err := readReturns(f, sheet, channel)
	if err != nil {
		return nil, err
	}
	l.logStats(stats, len(records))
	return records, nil
}

// Process loads both workbooks and assembles the processed data set.
func (l *Loader) Process(ctx context.Context, sales, returns io.Reader) (*ledger.ProcessedData, error) {
	ctx, span := l.tracer.Start(ctx, "parser.Process")
	defer span.End()

	salesRecords, err := l.LoadSales(sales)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load sales")
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matrix, full, err := l.LoadReturns(returns)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load returns")
		return nil, fmt.Errorf("failed to load returns: %w", err)
	}

	data := ledger.NewProcessedData(salesRecords, matrix, full)
	span.SetAttributes(
		attribute.Int("rows.sales", data.RowCounts.Sales),
		attribute.Int("rows.matrix", data.RowCounts.Matrix),
		attribute.Int("rows.full", data.RowCounts.Full),
	)

	attrs := []any{
		slog.Int("sales", data.RowCounts.Sales),
		slog.Int("matrix", data.RowCounts.Matrix),
		slog.Int("full", data.RowCounts.Full),
	}
	if ref, err := data.ReferenceDate(); err == nil {
		attrs = append(attrs, slog.Time("reference_date", ref))
	} else {
		l.logger.WarnContext(ctx, "no valid sale date, windowed metrics unavailable")
	}
	l.logger.InfoContext(ctx, "workbooks processed", attrs...)

	return data, nil
}

func (l *Loader) logStats(stats SheetStats, records int) {
	if !stats.HeaderFound {
		l.logger.Warn("header row not found, using first row",
			slog.String("sheet", stats.Sheet),
		)
	}
	l.logger.Debug("sheet loaded",
		slog.String("sheet", stats.Sheet),
		slog.Int("header_row", stats.HeaderRow),
		slog.Int("rows", stats.TotalRows),
		slog.Int("skipped", stats.SkippedRows),
		slog.Int("records", records),
	)
}
