package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records payment and reservation lifecycle counters.
type PaymentMetrics struct {
	initiated            *prometheus.CounterVec
	outcomes             *prometheus.CounterVec
	reservationsCreated  prometheus.Counter
	reservationConflicts prometheus.Counter
	notificationFailures prometheus.Counter
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	initiated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_initiated_total",
		Help: "Payment collections initiated, by transaction kind.",
	}, []string{"kind"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_outcome_total",
		Help: "Payment outcomes applied, by reported status and ingress path.",
	}, []string{"status", "path"})
	reservationsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reservations_created_total",
		Help: "Reservations created from successful payments.",
	})
	reservationConflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reservation_conflicts_total",
		Help: "Reserve attempts rejected because another user holds the house.",
	})
	notificationFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notification_failures_total",
		Help: "Confirmation emails that failed to send.",
	})
	reg.MustRegister(initiated, outcomes, reservationsCreated, reservationConflicts, notificationFailures)
	return &PaymentMetrics{
		initiated:            initiated,
		outcomes:             outcomes,
		reservationsCreated:  reservationsCreated,
		reservationConflicts: reservationConflicts,
		notificationFailures: notificationFailures,
	}
}

// IncInitiated counts one initiated collection for the kind.
func (m *PaymentMetrics) IncInitiated(kind string) {
	if m == nil || m.initiated == nil {
		return
	}
	m.initiated.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncOutcome counts one applied outcome for the status/path pair.
func (m *PaymentMetrics) IncOutcome(status, path string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(status), normalizeLabel(path)).Inc()
}

// IncReservationCreated counts one reservation created.
func (m *PaymentMetrics) IncReservationCreated() {
	if m == nil || m.reservationsCreated == nil {
		return
	}
	m.reservationsCreated.Inc()
}

// IncReservationConflict counts one rejected reserve-success event.
func (m *PaymentMetrics) IncReservationConflict() {
	if m == nil || m.reservationConflicts == nil {
		return
	}
	m.reservationConflicts.Inc()
}

// IncNotificationFailure counts one swallowed confirmation-send failure.
func (m *PaymentMetrics) IncNotificationFailure() {
	if m == nil || m.notificationFailures == nil {
		return
	}
	m.notificationFailures.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
