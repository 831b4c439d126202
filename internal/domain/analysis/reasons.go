package analysis

import (
	"sort"
	"strings"

	"github.com/FACorreiaa/returns-insights/internal/domain/ledger"
)

// MaxReasonLength bounds reason labels in the breakdown.
const MaxReasonLength = 50

// Reason labels inferred for returns exported without a reason.
const (
	ReasonSellerRefund    = "Reembolso ao Vendedor"
	ReasonBuyerRefund     = "Reembolso ao Comprador"
	ReasonMediation       = "Finalizado via Mediação"
	ReasonCancelled       = "Venda Cancelada"
	ReasonNotReturned     = "Devolução não realizada"
	ReasonBackToBuyer     = "Produto devolvido ao comprador"
	ReasonReturnCompleted = "Devolução Concluída"
	ReasonOther           = "Outros Motivos de Devolução"
)

// ReasonStats is the share of one return reason.
type ReasonStats struct {
	Reason   string  `json:"motivo"`
	Count    int     `json:"quantidade"`
	SharePct float64 `json:"percentual"`
}

// InferReason returns the recorded reason or, when blank, a category
// derived from the state and status description. First match wins.
func InferReason(r ledger.ReturnRecord) string {
	if reason := strings.TrimSpace(r.Reason); reason != "" {
		return reason
	}

	state := strings.ToLower(r.State)
	status := strings.ToLower(r.StatusDescription)
	either := func(s string) bool {
		return strings.Contains(state, s) || strings.Contains(status, s)
	}

	switch {
	case either("te demos o dinheiro"):
		return ReasonSellerRefund
	case strings.Contains(state, "reembolso") || strings.Contains(status, "reembolsamos"):
		return ReasonBuyerRefund
	case either("mediação"):
		return ReasonMediation
	case either("cancelada"):
		return ReasonCancelled
	case strings.Contains(state, "não entregue") || strings.Contains(state, "não foi feita"):
		return ReasonNotReturned
	case strings.Contains(state, "enviamos de volta") || strings.Contains(state, "devolvemos o produto ao comprador"):
		return ReasonBackToBuyer
	case strings.Contains(state, "devolvido") || strings.Contains(state, "devolução finalizada"):
		return ReasonReturnCompleted
	}
	return ReasonOther
}

// ByReason counts every return record of both channels by reason, most
// frequent first. Returns are not windowed.
func ByReason(matrix, full []ledger.ReturnRecord) []ReasonStats {
	counts := make(map[string]int)
	total := 0
	for _, records := range [][]ledger.ReturnRecord{matrix, full} {
		for _, r := range records {
			counts[truncate(InferReason(r), MaxReasonLength)]++
			total++
		}
	}

	out := make([]ReasonStats, 0, len(counts))
	for reason, n := range counts {
		out = append(out, ReasonStats{Reason: reason, Count: n, SharePct: ratePct(n, total)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Reason < out[j].Reason
	})
	return out
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
