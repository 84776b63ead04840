package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Payment outcome labels.
const (
	OutcomeFree            = "free"
	OutcomeSimulated       = "simulated"
	OutcomeApproved        = "approved"
	OutcomeDeclined        = "declined"
	OutcomeNetworkFallback = "network_fallback"
)

// PaymentMetrics records outcomes and gateway latency for the payment path.
type PaymentMetrics struct {
	outcomes       *prometheus.CounterVec
	gatewayLatency *prometheus.HistogramVec
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
// A nil registerer yields a no-op instance.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_outcomes_total",
		Help: "Payment attempts by final outcome.",
	}, []string{"outcome", "recurring"})
	gatewayLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_gateway_duration_seconds",
		Help:    "Latency of gateway charge calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"environment"})
	reg.MustRegister(outcomes, gatewayLatency)
	return &PaymentMetrics{
		outcomes:       outcomes,
		gatewayLatency: gatewayLatency,
	}
}

// IncOutcome increments the counter for a payment's final outcome.
func (p *PaymentMetrics) IncOutcome(outcome string, recurring bool) {
	if p == nil || p.outcomes == nil {
		return
	}
	label := "false"
	if recurring {
		label = "true"
	}
	p.outcomes.WithLabelValues(outcome, label).Inc()
}

// ObserveGatewayLatency records the duration of one gateway charge call.
func (p *PaymentMetrics) ObserveGatewayLatency(environment string, duration time.Duration) {
	if p == nil || p.gatewayLatency == nil {
		return
	}
	if environment == "" {
		environment = "unknown"
	}
	p.gatewayLatency.WithLabelValues(environment).Observe(duration.Seconds())
}
