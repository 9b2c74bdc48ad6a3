package telemetry

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics counts booking outcomes and status changes. A nil
// *BookingMetrics is valid and records nothing.
type BookingMetrics struct {
	attempts    *prometheus.CounterVec
	transitions *prometheus.CounterVec
	lookups     *prometheus.CounterVec
	offered     prometheus.Histogram
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "attempts_total",
			Help:      "Booking attempts by outcome (created, replayed, slot_taken, clinic_closed, ...).",
		}, []string{"outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "status_transitions_total",
			Help:      "Appointment status changes.",
		}, []string{"from", "to"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "availability",
			Name:      "lookups_total",
			Help:      "Availability lookups by source (cache or store).",
		}, []string{"source"}),
		offered: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "availability",
			Name:      "slots_offered",
			Help:      "Number of free slots returned per availability computation.",
			Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64},
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.attempts, m.transitions, m.lookups, m.offered)
	return m
}

func (m *BookingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *BookingMetrics) ObserveLookup(source string, slots int) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(source).Inc()
	if source != "cache" {
		m.offered.Observe(float64(slots))
	}
}
