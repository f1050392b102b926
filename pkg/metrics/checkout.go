package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "extro"

// Placement outcomes.
const (
	OutcomePaid     = "paid"
	OutcomePending  = "pending"
	OutcomeWaived   = "waived"
	OutcomeReplayed = "replayed"
	OutcomeFailed   = "failed"
	OutcomeConflict = "conflict"
)

// CheckoutMetrics counts checkout and loyalty ledger activity.
type CheckoutMetrics struct {
	intents    *prometheus.CounterVec
	placements *prometheus.CounterVec
	conflicts  prometheus.Counter
	issued     *prometheus.CounterVec
	reconciled prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	intents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "checkout",
		Name:      "intents_total",
		Help:      "Checkout authorizations by result (payment, skip).",
	}, []string{"result"})
	placements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "checkout",
		Name:      "placements_total",
		Help:      "Order placements by outcome.",
	}, []string{"outcome"})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "loyalty",
		Name:      "redemption_conflicts_total",
		Help:      "Loyalty code redemptions rejected because the code was already used.",
	})
	issued := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "loyalty",
		Name:      "codes_issued_total",
		Help:      "Loyalty codes issued by origin (threshold, admin).",
	}, []string{"origin"})
	reconciled := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "checkout",
		Name:      "placements_reconciled_total",
		Help:      "Stuck placement intents completed by the reconciliation job.",
	})
	reg.MustRegister(intents, placements, conflicts, issued, reconciled)
	return &CheckoutMetrics{
		intents:    intents,
		placements: placements,
		conflicts:  conflicts,
		issued:     issued,
		reconciled: reconciled,
	}
}

// IncIntent counts an authorization result.
func (c *CheckoutMetrics) IncIntent(result string) {
	if c == nil || c.intents == nil {
		return
	}
	c.intents.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncPlacement counts a placement outcome.
func (c *CheckoutMetrics) IncPlacement(outcome string) {
	if c == nil || c.placements == nil {
		return
	}
	c.placements.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncRedemptionConflict counts a lost compare-and-swap on a loyalty code.
func (c *CheckoutMetrics) IncRedemptionConflict() {
	if c == nil || c.conflicts == nil {
		return
	}
	c.conflicts.Inc()
}

// IncCodeIssued counts issued loyalty codes.
func (c *CheckoutMetrics) IncCodeIssued(origin string, n int) {
	if c == nil || c.issued == nil || n <= 0 {
		return
	}
	c.issued.WithLabelValues(normalizeLabel(origin)).Add(float64(n))
}

// IncReconciled counts intents finished by the reconciliation job.
func (c *CheckoutMetrics) IncReconciled() {
	if c == nil || c.reconciled == nil {
		return
	}
	c.reconciled.Inc()
}
