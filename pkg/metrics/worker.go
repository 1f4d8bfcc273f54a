package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// WorkerMetrics records outcomes for the order-event consumer.
type WorkerMetrics struct {
	eventsConsumed  *prometheus.CounterVec
	eventsDuplicate prometheus.Counter
	eventsFailed    *prometheus.CounterVec
	earningsWritten *prometheus.CounterVec
}

// NewWorkerMetrics registers consumer metrics on the provided registerer.
func NewWorkerMetrics(reg prometheus.Registerer) *WorkerMetrics {
	if reg == nil {
		return &WorkerMetrics{}
	}
	consumed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_events_consumed_total",
		Help: "Order events pulled from the subscription, by order status.",
	}, []string{"status"})
	duplicate := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_events_duplicate_total",
		Help: "Order events skipped by the idempotency guard.",
	})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_events_failed_total",
		Help: "Order events that could not be processed, by reason.",
	}, []string{"reason"})
	written := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "affiliate_earnings_written_total",
		Help: "Ledger writes performed by the consumer, by kind.",
	}, []string{"kind"})
	reg.MustRegister(consumed, duplicate, failed, written)
	return &WorkerMetrics{
		eventsConsumed:  consumed,
		eventsDuplicate: duplicate,
		eventsFailed:    failed,
		earningsWritten: written,
	}
}

// IncConsumed counts one consumed order event.
func (w *WorkerMetrics) IncConsumed(status string) {
	if w == nil || w.eventsConsumed == nil {
		return
	}
	w.eventsConsumed.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncDuplicate counts one event dropped as already processed.
func (w *WorkerMetrics) IncDuplicate() {
	if w == nil || w.eventsDuplicate == nil {
		return
	}
	w.eventsDuplicate.Inc()
}

// IncFailed counts one failed event with the given reason.
func (w *WorkerMetrics) IncFailed(reason string) {
	if w == nil || w.eventsFailed == nil {
		return
	}
	w.eventsFailed.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncEarningWritten counts one ledger write. Kind is "recorded" for new
// rows and "updated" for status transitions.
func (w *WorkerMetrics) IncEarningWritten(kind string) {
	if w == nil || w.earningsWritten == nil {
		return
	}
	w.earningsWritten.WithLabelValues(normalizeLabel(kind)).Inc()
}
