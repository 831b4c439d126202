package analysis

import "github.com/FACorreiaa/returns-insights/internal/domain/ledger"

// ChannelStats is the share of return rows held by one channel.
type ChannelStats struct {
	Channel  ledger.Channel `json:"canal"`
	Returns  int            `json:"devolucoes"`
	SharePct float64        `json:"percentual"`
}

// CompareChannels reports each channel's share of all return rows.
func CompareChannels(data *ledger.ProcessedData) []ChannelStats {
	total := len(data.Matrix) + len(data.Full)
	out := make([]ChannelStats, 0, len(ledger.Channels))
	for _, c := range ledger.Channels {
		n := len(data.ReturnsFor(c))
		out = append(out, ChannelStats{Channel: c, Returns: n, SharePct: ratePct(n, total)})
	}
	return out
}
