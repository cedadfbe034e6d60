// Package prom adapts cache.Metrics to Prometheus, the way the teacher's
// metrics/prom package adapts cache.Metrics there — same constructor
// shape (registry, namespace, subsystem, const labels), generalized from
// hit/miss/evict/size counters to the segmented-LRU signals this module
// produces: admissions, promotions, demotions, evictions, reservation
// failures, and per-tier size gauges.
package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/IvanBrykalov/segcache/cache"
)

// Adapter implements cache.Metrics and exports Prometheus counters and
// gauges. Safe for concurrent use; all Prometheus metric types are
// goroutine-safe.
type Adapter struct {
	admissions          prometheus.Counter
	admittedBytes       prometheus.Counter
	promotions          prometheus.Counter
	demotions           prometheus.Counter
	evictions           prometheus.Counter
	evictedBytes        prometheus.Counter
	reservationFailures prometheus.Counter

	protectedBytes       prometheus.Gauge
	protectedElements    prometheus.Gauge
	probationaryBytes    prometheus.Gauge
	probationaryElements prometheus.Gauge
}

// New constructs a Prometheus metrics adapter.
//   - reg:         registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:     Prometheus namespace and subsystem
//   - constLabels: static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		admissions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: "admissions_total",
			Help: "Segments admitted into probationary", ConstLabels: constLabels,
		}),
		admittedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: "admitted_bytes_total",
			Help: "Bytes admitted into probationary", ConstLabels: constLabels,
		}),
		promotions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: "promotions_total",
			Help: "Segments promoted from probationary to protected", ConstLabels: constLabels,
		}),
		demotions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: "demotions_total",
			Help: "Segments downgraded from protected to probationary", ConstLabels: constLabels,
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: "evictions_total",
			Help: "Segments evicted", ConstLabels: constLabels,
		}),
		evictedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: "evicted_bytes_total",
			Help: "Bytes freed by eviction", ConstLabels: constLabels,
		}),
		reservationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: "reservation_failures_total",
			Help: "Add/Reserve calls that found no releasable space", ConstLabels: constLabels,
		}),
		protectedBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Subsystem: sub, Name: "protected_bytes",
			Help: "Resident bytes in the protected tier", ConstLabels: constLabels,
		}),
		protectedElements: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Subsystem: sub, Name: "protected_elements",
			Help: "Resident entries in the protected tier", ConstLabels: constLabels,
		}),
		probationaryBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Subsystem: sub, Name: "probationary_bytes",
			Help: "Resident bytes in the probationary tier", ConstLabels: constLabels,
		}),
		probationaryElements: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Subsystem: sub, Name: "probationary_elements",
			Help: "Resident entries in the probationary tier", ConstLabels: constLabels,
		}),
	}
	reg.MustRegister(
		a.admissions, a.admittedBytes, a.promotions, a.demotions,
		a.evictions, a.evictedBytes, a.reservationFailures,
		a.protectedBytes, a.protectedElements, a.probationaryBytes, a.probationaryElements,
	)
	return a
}

func (a *Adapter) Admission(sizeBytes uint64) {
	a.admissions.Inc()
	a.admittedBytes.Add(float64(sizeBytes))
}

func (a *Adapter) Promotion() { a.promotions.Inc() }

func (a *Adapter) Demotion() { a.demotions.Inc() }

func (a *Adapter) Eviction(sizeBytes uint64) {
	a.evictions.Inc()
	a.evictedBytes.Add(float64(sizeBytes))
}

func (a *Adapter) ReservationFailure() { a.reservationFailures.Inc() }

func (a *Adapter) Sizes(protectedBytes, protectedElements, probationaryBytes, probationaryElements uint64) {
	a.protectedBytes.Set(float64(protectedBytes))
	a.protectedElements.Set(float64(protectedElements))
	a.probationaryBytes.Set(float64(probationaryBytes))
	a.probationaryElements.Set(float64(probationaryElements))
}

// Compile-time check: ensure Adapter implements cache.Metrics.
var _ cache.Metrics = (*Adapter)(nil)
