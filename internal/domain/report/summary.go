package report

import (
	"fmt"
	"strings"

	"github.com/FACorreiaa/returns-insights/internal/domain/metrics"
	"github.com/FACorreiaa/returns-insights/internal/domain/quality"
	"github.com/FACorreiaa/returns-insights/pkg/money"
)

// SummaryText renders a snapshot and quality report as plain text lines,
// used in e-mails and command output.
func SummaryText(s metrics.Snapshot, q quality.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Resumo dos últimos %d dias (%s a %s)\n", s.WindowDays, s.Start.Format("02/01/2006"), s.End.Format("02/01/2006"))
	fmt.Fprintf(&b, "Vendas: %d\n", s.Sales)
	fmt.Fprintf(&b, "Faturamento total: %s\n", money.FormatBRL(s.TotalRevenue))
	fmt.Fprintf(&b, "Devoluções: %d (%.2f%%)\n", s.ReturnedOrders, s.ReturnRatePct())
	fmt.Fprintf(&b, "Perda total: %s\n", money.FormatBRL(s.TotalLoss))
	fmt.Fprintf(&b, "Perda parcial: %s\n", money.FormatBRL(s.PartialLoss))
	fmt.Fprintf(&b, "Saudáveis: %d | Críticas: %d | Neutras: %d\n", s.Healthy, s.Critical, s.Neutral)
	fmt.Fprintf(&b, "Qualidade dos dados: %.0f/100", q.Score())
	if q.ShippingCostMissing {
		b.WriteString(" (custo logístico ausente)")
	}
	b.WriteString("\n")
	return b.String()
}
