package normalizer

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a BRL currency cell into a decimal. It accepts
// "R$ 1.234,56", "1234.56", "-45,90" and plain numeric cells. When a comma is
// present it is the decimal separator and periods are thousands separators.
// Without a comma, several periods are thousands separators and a single one
// is the decimal point. Empty or unparseable input yields zero.
func ParseAmount(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero
	}

	// Raw numeric cells, including exponent form.
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		if d, err := decimal.NewFromString(s); err == nil {
			return d
		}
	}

	cleaned := keepAmountChars(s)
	if cleaned == "" {
		return decimal.Zero
	}

	negative := strings.HasPrefix(cleaned, "-")
	cleaned = strings.ReplaceAll(cleaned, "-", "")

	switch {
	case strings.Contains(cleaned, ","):
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	case strings.Count(cleaned, ".") > 1:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	if negative {
		d = d.Neg()
	}
	return d
}

func keepAmountChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// OrderID canonicalizes an order identifier. Numeric cells that a
// spreadsheet wrote in exponent form or with a ".0" suffix become plain
// integers; anything else is only trimmed.
func OrderID(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if !strings.ContainsAny(s, "eE.") {
		return s
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.Equal(d.Truncate(0)) {
		return s
	}
	return d.Truncate(0).String()
}
