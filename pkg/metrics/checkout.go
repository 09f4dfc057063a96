package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Checkout outcome labels.
const (
	OutcomeSuccess    = "success"
	OutcomeValidation = "validation"
	OutcomeNotFound   = "not_found"
	OutcomeConflict   = "conflict"
	OutcomeError      = "error"
)

// CheckoutMetrics records checkout attempts and best-effort save failures.
type CheckoutMetrics struct {
	attempts     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	saveFailures *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "playdepot_checkout_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "playdepot_checkout_duration_seconds",
		Help:    "Duration of checkout requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	saveFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "playdepot_checkout_save_failures_total",
		Help: "Post-commit failures (card, address, cart) that did not fail the order.",
	}, []string{"kind"})
	reg.MustRegister(attempts, duration, saveFailures)
	return &CheckoutMetrics{
		attempts:     attempts,
		duration:     duration,
		saveFailures: saveFailures,
	}
}

// Observe records one finished checkout.
func (c *CheckoutMetrics) Observe(outcome string, elapsed time.Duration) {
	if c == nil || c.attempts == nil {
		return
	}
	outcome = normalizeLabel(outcome)
	c.attempts.WithLabelValues(outcome).Inc()
	c.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// IncSaveFailure counts a failed post-commit step: a card or address save,
// or the cart cleanup.
func (c *CheckoutMetrics) IncSaveFailure(kind string) {
	if c == nil || c.saveFailures == nil {
		return
	}
	c.saveFailures.WithLabelValues(normalizeLabel(kind)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
