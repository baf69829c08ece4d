package classpath

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors updated by resolutions.
// A nil *Metrics records nothing.
type Metrics struct {
	resolutions         *prometheus.CounterVec
	capabilityConflicts prometheus.Counter
	duration            *prometheus.HistogramVec
}

// NewMetrics creates the resolution collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "classpath_resolutions_total",
				Help: "Total number of classpath resolutions by mode, configuration and outcome",
			},
			[]string{"mode", "configuration", "outcome"},
		),
		capabilityConflicts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "classpath_capability_conflicts_resolved_total",
				Help: "Total number of capability conflicts settled by a selection rule",
			},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "classpath_resolution_duration_seconds",
				Help:    "Time taken to resolve a classpath",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.resolutions, m.capabilityConflicts, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) observe(req Request, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(req.Mode.String(), req.Configuration.String(), outcome).Inc()
	m.duration.WithLabelValues(req.Mode.String()).Observe(d.Seconds())
}

func (m *Metrics) conflicts(n int) {
	if m == nil || n == 0 {
		return
	}
	m.capabilityConflicts.Add(float64(n))
}
