// FILE: lixenwraith/reconf/metrics.go
package reconf

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Registry activity to Prometheus. A nil *Metrics is valid and records nothing.
type Metrics struct {
	builds        prometheus.Counter
	buildErrors   prometheus.Counter
	cacheHits     prometheus.Counter
	invalidations prometheus.Counter
	buildDuration prometheus.Histogram
	sources       prometheus.Gauge
}

// NewMetrics creates the collectors under namespace and registers them with reg.
// Collectors already registered by an earlier call are reused.
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	m := &Metrics{
		builds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "config",
			Name:      "builds_total",
			Help:      "Number of merged stores built from sources.",
		}),
		buildErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "config",
			Name:      "build_errors_total",
			Help:      "Number of builds aborted by a source error.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "config",
			Name:      "cache_hits_total",
			Help:      "Number of builds served from the cached store.",
		}),
		invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "config",
			Name:      "invalidations_total",
			Help:      "Number of cache invalidations.",
		}),
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "config",
			Name:      "build_duration_seconds",
			Help:      "Time spent reading and merging sources.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		sources: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "config",
			Name:      "sources",
			Help:      "Number of registered sources.",
		}),
	}

	var err error
	m.builds = register(reg, m.builds, &err)
	m.buildErrors = register(reg, m.buildErrors, &err)
	m.cacheHits = register(reg, m.cacheHits, &err)
	m.invalidations = register(reg, m.invalidations, &err)
	m.buildDuration = register(reg, m.buildDuration, &err)
	m.sources = register(reg, m.sources, &err)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to reg, returning the existing collector when an identical
// one is already registered. The first other failure is kept in errp.
func register[C prometheus.Collector](reg prometheus.Registerer, c C, errp *error) C {
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(C); ok {
			return existing
		}
	}
	if *errp == nil {
		*errp = fmt.Errorf("failed to register metric: %w", err)
	}
	return c
}

func (m *Metrics) observeBuild(start time.Time, err error) {
	if m == nil {
		return
	}
	m.buildDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		m.buildErrors.Inc()
		return
	}
	m.builds.Inc()
}

func (m *Metrics) cacheHit() {
	if m != nil {
		m.cacheHits.Inc()
	}
}

func (m *Metrics) invalidated() {
	if m != nil {
		m.invalidations.Inc()
	}
}

func (m *Metrics) setSources(n int) {
	if m != nil {
		m.sources.Set(float64(n))
	}
}
