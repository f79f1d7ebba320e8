package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks registrations, ledger outcomes and the lookup critical path.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registrations   *prometheus.CounterVec
	AccessEvents    *prometheus.CounterVec
	PublishFailures prometheus.Counter
	ArchivedEvents  prometheus.Counter
	LookupDuration  prometheus.Histogram
}

// New registers all check-in metrics on reg.  Pass prometheus.DefaultRegisterer
// in production and a fresh prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "checkin_registrations_total",
			Help: "Registration attempts by outcome",
		}, []string{"outcome"}),
		AccessEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "checkin_access_events_total",
			Help: "Access events returned by the ledger, by event type and persistence",
		}, []string{"event_type", "persisted"}),
		PublishFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "checkin_event_publish_failures_total",
			Help: "Appended events that could not be handed to the notifier",
		}),
		ArchivedEvents: f.NewCounter(prometheus.CounterOpts{
			Name: "checkin_archived_events_total",
			Help: "Ledger events exported to object storage",
		}),
		LookupDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "checkin_lookup_duration_seconds",
			Help:    "Duration of registry lookups on the scan path",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncRegistration(outcome string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncAccessEvent(eventType string, persisted bool) {
	if m == nil {
		return
	}
	p := "true"
	if !persisted {
		p = "false"
	}
	m.AccessEvents.WithLabelValues(eventType, p).Inc()
}

func (m *Metrics) IncPublishFailure() {
	if m == nil {
		return
	}
	m.PublishFailures.Inc()
}

func (m *Metrics) AddArchived(n int) {
	if m == nil {
		return
	}
	m.ArchivedEvents.Add(float64(n))
}

// ObserveLookup records the duration of a lookup started at start.
func (m *Metrics) ObserveLookup(start time.Time) {
	if m == nil {
		return
	}
	m.LookupDuration.Observe(time.Since(start).Seconds())
}
