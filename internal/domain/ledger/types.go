// Package ledger holds the normalized sales and return records shared by the
// loader, the metrics engines and the exporters.
package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Sheet names as exported by the marketplace.
const (
	SalesSheet       = "Vendas BR"
	MatrixSheet      = "devoluções vendas matriz"
	FullSheet        = "devoluções vendas full"
	AdvertisedMarker = "Sim"
)

// Channel identifies which return ledger a record came from.
type Channel string

const (
	ChannelMatrix Channel = "matriz" // seller-fulfilled
	ChannelFull   Channel = "full"   // marketplace-fulfilled
)

// SheetName returns the workbook sheet holding returns for the channel.
func (c Channel) SheetName() string {
	if c == ChannelFull {
		return FullSheet
	}
	return MatrixSheet
}

// Channels lists return channels in reporting order.
var Channels = []Channel{ChannelMatrix, ChannelFull}

// ErrEmptyReferenceDate is returned when no sale carries a valid date, so no
// trailing window can be anchored.
var ErrEmptyReferenceDate = errors.New("no sale has a valid date")

// MissingSheetError reports a required sheet absent from a workbook.
type MissingSheetError struct {
	Sheet     string
	Available []string
}

func (e *MissingSheetError) Error() string {
	return fmt.Sprintf("sheet %q not found (available: %s)", e.Sheet, strings.Join(e.Available, ", "))
}

// SaleRecord is one row of the sales ledger.
type SaleRecord struct {
	Row             int               `json:"row"`
	OrderID         string            `json:"order_id"`
	SoldAt          *time.Time        `json:"sold_at,omitempty"`
	SKU             string            `json:"sku"`
	ProductRevenue  decimal.Decimal   `json:"product_revenue"`
	ShippingRevenue decimal.Decimal   `json:"shipping_revenue"`
	DeliveryMethod  string            `json:"delivery_method,omitempty"`
	Advertised      string            `json:"advertised,omitempty"`
	Extra           map[string]string `json:"extra,omitempty"`
}

// HasDate reports whether the sale carries a parseable date.
func (s SaleRecord) HasDate() bool {
	return s.SoldAt != nil
}

// IsAdvertised reports whether the sale came from a paid placement.
func (s SaleRecord) IsAdvertised() bool {
	return strings.EqualFold(strings.TrimSpace(s.Advertised), AdvertisedMarker)
}

// TotalRevenue is product plus shipping revenue.
func (s SaleRecord) TotalRevenue() decimal.Decimal {
	return s.ProductRevenue.Add(s.ShippingRevenue)
}

// ReturnRecord is one row of a return ledger.
type ReturnRecord struct {
	Row               int               `json:"row"`
	Channel           Channel           `json:"channel"`
	OrderID           string            `json:"order_id"`
	Refund            decimal.Decimal   `json:"refund"`
	Fees              decimal.Decimal   `json:"fees"`
	ShippingCost      decimal.Decimal   `json:"shipping_cost"`
	ProductRevenue    decimal.Decimal   `json:"product_revenue"`
	State             string            `json:"state"`
	Reason            string            `json:"reason"`
	StatusDescription string            `json:"status_description,omitempty"`
	DeliveryMethod    string            `json:"delivery_method,omitempty"`
	ChannelLabel      string            `json:"channel_label,omitempty"`
	Extra             map[string]string `json:"extra,omitempty"`
}

// HasShippingCost reports whether a logistics cost was recorded.
func (r ReturnRecord) HasShippingCost() bool {
	return !r.ShippingCost.IsZero()
}

// Cost is the absolute refund, fee and shipping cost of the return.
func (r ReturnRecord) Cost() decimal.Decimal {
	return r.Refund.Abs().Add(r.Fees.Abs()).Add(r.ShippingCost.Abs())
}

// PartialCost is the absolute fee and shipping cost of the return.
func (r ReturnRecord) PartialCost() decimal.Decimal {
	return r.Fees.Abs().Add(r.ShippingCost.Abs())
}

// RowCounts holds the number of rows loaded per ledger.
type RowCounts struct {
	Sales  int `json:"vendas"`
	Matrix int `json:"matriz"`
	Full   int `json:"full"`
}

// ProcessedData is the full result of one upload: sales, both return ledgers
// and the reference date used to anchor trailing windows.
type ProcessedData struct {
	Sales     []SaleRecord   `json:"sales"`
	Matrix    []ReturnRecord `json:"matrix"`
	Full      []ReturnRecord `json:"full"`
	RowCounts RowCounts      `json:"row_counts"`

	referenceDate *time.Time
}

// NewProcessedData assembles the ledgers and derives counts and the reference date.
func NewProcessedData(sales []SaleRecord, matrix, full []ReturnRecord) *ProcessedData {
	return &ProcessedData{
		Sales:  sales,
		Matrix: matrix,
		Full:   full,
		RowCounts: RowCounts{
			Sales:  len(sales),
			Matrix: len(matrix),
			Full:   len(full),
		},
		referenceDate: LatestSaleDate(sales),
	}
}

// ReferenceDate returns the most recent valid sale date.
func (d *ProcessedData) ReferenceDate() (time.Time, error) {
	if d == nil || d.referenceDate == nil {
		return time.Time{}, ErrEmptyReferenceDate
	}
	return *d.referenceDate, nil
}

// Returns concatenates matrix then full return records.
func (d *ProcessedData) Returns() []ReturnRecord {
	out := make([]ReturnRecord, 0, len(d.Matrix)+len(d.Full))
	out = append(out, d.Matrix...)
	return append(out, d.Full...)
}

// ReturnsFor returns the records of a single channel.
func (d *ProcessedData) ReturnsFor(c Channel) []ReturnRecord {
	if c == ChannelFull {
		return d.Full
	}
	return d.Matrix
}

// LatestSaleDate returns the maximum sale date, or nil when none is valid.
func LatestSaleDate(sales []SaleRecord) *time.Time {
	var latest *time.Time
	for i := range sales {
		t := sales[i].SoldAt
		if t == nil {
			continue
		}
		if latest == nil || t.After(*latest) {
			v := *t
			latest = &v
		}
	}
	return latest
}
