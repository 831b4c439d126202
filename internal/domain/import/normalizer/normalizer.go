// Package normalizer turns raw spreadsheet cells into typed values: dates,
// BRL amounts and plain text, chosen by the column header.
package normalizer

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the value type inferred for a column.
type Kind int

const (
	KindText Kind = iota
	KindDate
	KindAmount
)

func (k Kind) String() string {
	switch k {
	case KindDate:
		return "date"
	case KindAmount:
		return "amount"
	default:
		return "text"
	}
}

// Header keywords (lowercase substrings) that select a column kind.
var (
	dateKeywords   = []string{"data"}
	amountKeywords = []string{"brl", "receita", "custo", "tarifa", "reembolso"}
)

// ColumnKind infers how a column's cells are converted. Date wins over amount.
func ColumnKind(header string) Kind {
	h := strings.ToLower(strings.TrimSpace(header))
	if containsAny(h, dateKeywords) {
		return KindDate
	}
	if containsAny(h, amountKeywords) {
		return KindAmount
	}
	return KindText
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// Cell is a normalized value. Text always carries the raw trimmed input.
type Cell struct {
	Kind   Kind
	Text   string
	Time   *time.Time
	Amount decimal.Decimal
}

// Row maps column name to its normalized cell.
type Row map[string]Cell

// NormalizeRow converts every column of a raw row. It never fails: an
// unparseable date becomes a nil Time and an unparseable amount becomes zero.
func NormalizeRow(raw map[string]string) Row {
	row := make(Row, len(raw))
	for col, value := range raw {
		row[col] = NormalizeCell(col, value)
	}
	return row
}

// NormalizeCell converts one value according to its column.
func NormalizeCell(column, value string) Cell {
	c := Cell{Kind: ColumnKind(column), Text: strings.TrimSpace(value)}
	switch c.Kind {
	case KindDate:
		c.Time = ParseDate(c.Text)
	case KindAmount:
		c.Amount = ParseAmount(c.Text)
	}
	return c
}

// Text returns the trimmed raw text of a column, or "" when absent.
func (r Row) Text(col string) string {
	return r[col].Text
}

// Amount returns the decimal value of a column, or zero when absent.
func (r Row) Amount(col string) decimal.Decimal {
	return r[col].Amount
}

// Time returns the parsed date of a column, or nil when absent.
func (r Row) Time(col string) *time.Time {
	return r[col].Time
}
