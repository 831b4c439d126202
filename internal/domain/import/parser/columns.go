package parser

import (
	"strings"

	"github.com/FACorreiaa/returns-insights/internal/domain/import/normalizer"
	"github.com/FACorreiaa/returns-insights/internal/domain/ledger"
)

type field int

const (
	fieldOrderID field = iota
	fieldSoldAt
	fieldSKU
	fieldProductRevenue
	fieldShippingRevenue
	fieldDeliveryMethod
	fieldAdvertised
	fieldRefund
	fieldFees
	fieldShippingCost
	fieldState
	fieldReason
	fieldStatusDescription
	fieldChannelLabel
)

// Header aliases per field, compared after normalizeHeader.
var salesAliases = map[field][]string{
	fieldOrderID:         {"n.º de venda"},
	fieldSoldAt:          {"data da venda"},
	fieldSKU:             {"sku"},
	fieldProductRevenue:  {"receita por produtos (brl)"},
	fieldShippingRevenue: {"receita por envio (brl)"},
	fieldDeliveryMethod:  {"forma de entrega"},
	fieldAdvertised:      {"venda por publicidade"},
}

var returnAliases = map[field][]string{
	fieldOrderID:           {"n.º de venda"},
	fieldRefund:            {"cancelamentos e reembolsos (brl)"},
	fieldFees:              {"tarifas de venda e impostos (brl)", "tarifa de venda e impostos (brl)"},
	fieldShippingCost:      {"custo de envio com base nas medidas e peso declarados", "custos de envio (brl)"},
	fieldProductRevenue:    {"receita por produtos (brl)"},
	fieldState:             {"estado"},
	fieldReason:            {"motivo do resultado"},
	fieldStatusDescription: {"descrição do status"},
	fieldDeliveryMethod:    {"forma de entrega"},
	fieldChannelLabel:      {"canal"},
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, "°", "º")
	return strings.Join(strings.Fields(h), " ")
}

// columnMap binds fields to the header text used in a particular sheet.
type columnMap struct {
	byField map[field]string
	bound   map[string]bool
}

func mapColumns(headers []string, aliases map[field][]string) columnMap {
	cm := columnMap{
		byField: make(map[field]string, len(aliases)),
		bound:   make(map[string]bool, len(aliases)),
	}

	for _, header := range headers {
		if header == "" {
			continue
		}
		h := normalizeHeader(header)
		for f, names := range aliases {
			if _, taken := cm.byField[f]; taken {
				continue
			}
			for _, name := range names {
				if h == name {
					cm.byField[f] = header
					cm.bound[header] = true
					break
				}
			}
		}
	}
	return cm
}

func (cm columnMap) has(f field) bool {
	_, ok := cm.byField[f]
	return ok
}

func (cm columnMap) text(row normalizer.Row, f field) string {
	return row.Text(cm.byField[f])
}

func (cm columnMap) extra(raw map[string]string) map[string]string {
	var out map[string]string
	for header, value := range raw {
		if cm.bound[header] || value == "" {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[header] = value
	}
	return out
}

func (cm columnMap) sale(rowNum int, raw map[string]string) ledger.SaleRecord {
	row := normalizer.NormalizeRow(raw)
	return ledger.SaleRecord{
		Row:             rowNum,
		OrderID:         normalizer.OrderID(cm.text(row, fieldOrderID)),
		SoldAt:          row.Time(cm.byField[fieldSoldAt]),
		SKU:             cm.text(row, fieldSKU),
		ProductRevenue:  row.Amount(cm.byField[fieldProductRevenue]),
		ShippingRevenue: row.Amount(cm.byField[fieldShippingRevenue]),
		DeliveryMethod:  cm.text(row, fieldDeliveryMethod),
		Advertised:      cm.text(row, fieldAdvertised),
		Extra:           cm.extra(raw),
	}
}

func (cm columnMap) returnRecord(channel ledger.Channel, rowNum int, raw map[string]string) ledger.ReturnRecord {
	row := normalizer.NormalizeRow(raw)
	return ledger.ReturnRecord{
		Row:               rowNum,
		Channel:           channel,
		OrderID:           normalizer.OrderID(cm.text(row, fieldOrderID)),
		Refund:            row.Amount(cm.byField[fieldRefund]),
		Fees:              row.Amount(cm.byField[fieldFees]),
		ShippingCost:      row.Amount(cm.byField[fieldShippingCost]),
		ProductRevenue:    row.Amount(cm.byField[fieldProductRevenue]),
		State:             cm.text(row, fieldState),
		Reason:            cm.text(row, fieldReason),
		StatusDescription: cm.text(row, fieldStatusDescription),
		DeliveryMethod:    cm.text(row, fieldDeliveryMethod),
		ChannelLabel:      cm.text(row, fieldChannelLabel),
		Extra:             cm.extra(raw),
	}
}
