package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPaymentMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPaymentMetrics(reg)

	m.IncInitiated("reserve")
	m.IncInitiated("reserve")
	m.IncOutcome("SUCCESSFUL", "webhook")
	m.IncReservationCreated()
	m.IncReservationConflict()
	m.IncNotificationFailure()

	if got := testutil.ToFloat64(m.initiated.WithLabelValues("reserve")); got != 2 {
		t.Fatalf("expected 2 initiations, got %v", got)
	}
	if got := testutil.ToFloat64(m.outcomes.WithLabelValues("SUCCESSFUL", "webhook")); got != 1 {
		t.Fatalf("expected 1 outcome, got %v", got)
	}
	if got := testutil.ToFloat64(m.reservationsCreated); got != 1 {
		t.Fatalf("expected 1 reservation, got %v", got)
	}
}

func TestPaymentMetricsNilSafe(t *testing.T) {
	var m *PaymentMetrics
	m.IncInitiated("tour")
	m.IncOutcome("FAILED", "poll")
	m.IncReservationCreated()
	m.IncReservationConflict()
	m.IncNotificationFailure()

	empty := NewPaymentMetrics(nil)
	empty.IncInitiated("tour")
}
