package metrics

import "github.com/prometheus/client_golang/prometheus"

// SettlementMetrics records transfer outcomes per settlement path.
type SettlementMetrics struct {
	transfers        *prometheus.CounterVec
	transferredCents *prometheus.CounterVec
}

// NewSettlementMetrics registers settlement metrics on the provided registerer.
func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	transfers := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_transfers_total",
		Help: "Processor transfers by path (order/sweep/reversal) and outcome.",
	}, []string{"path", "outcome"})
	transferredCents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_transferred_cents_total",
		Help: "Minor units moved to vendors by path.",
	}, []string{"path"})
	reg.MustRegister(transfers, transferredCents)
	return &SettlementMetrics{
		transfers:        transfers,
		transferredCents: transferredCents,
	}
}

// ObserveTransfer counts one transfer attempt outcome and, when it
// succeeded, the amount moved.
func (s *SettlementMetrics) ObserveTransfer(path, outcome string, amountCents int64) {
	if s == nil || s.transfers == nil {
		return
	}
	s.transfers.WithLabelValues(normalizeLabel(path), normalizeLabel(outcome)).Inc()
	if outcome == "success" && amountCents > 0 {
		s.transferredCents.WithLabelValues(normalizeLabel(path)).Add(float64(amountCents))
	}
}
