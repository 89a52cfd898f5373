package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Checkout outcomes used as the outcome label.
const (
	OutcomeConfirmed          = "confirmed"
	OutcomeValidationFailed   = "validation_failed"
	OutcomeInsufficientStock  = "insufficient_stock"
	OutcomeCouponRejected     = "coupon_rejected"
	OutcomePersistenceFailure = "persistence_failure"
)

// Bookkeeping steps that may fail without failing a best-effort checkout.
const (
	StepStockDecrement = "stock_decrement"
	StepCouponUsage    = "coupon_usage"
	StepOutbox         = "outbox"
)

// CheckoutMetrics instruments order placement.
type CheckoutMetrics struct {
	attempts    *prometheus.CounterVec
	duration    prometheus.Histogram
	bookkeeping *prometheus.CounterVec
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_attempts_total",
		Help:      "Checkout attempts by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "checkout_duration_seconds",
		Help:      "Time spent placing an order, from validation to confirmation or failure.",
		Buckets:   []float64{.025, .05, .1, .25, .5, 1, 2.5, 5},
	})
	bookkeeping := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_bookkeeping_failures_total",
		Help:      "Best-effort stock or coupon writes that failed after the order was saved.",
	}, []string{"step"})
	reg.MustRegister(attempts, duration, bookkeeping)
	return &CheckoutMetrics{attempts: attempts, duration: duration, bookkeeping: bookkeeping}
}

// ObserveAttempt records the outcome and latency of one checkout.
func (m *CheckoutMetrics) ObserveAttempt(outcome string, elapsed time.Duration) {
	if m == nil || m.attempts == nil {
		return
	}
	m.attempts.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *CheckoutMetrics) IncBookkeepingFailure(step string) {
	if m == nil || m.bookkeeping == nil {
		return
	}
	m.bookkeeping.WithLabelValues(step).Inc()
}
