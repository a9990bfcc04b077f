package cache

// metrics.go contains a thin abstraction over Prometheus so that slabcache
// can be used with or without metrics. When the user passes a
// *prometheus.Registry in New(..., WithMetrics(NewPromMetrics(...))), we
// create labeled metrics and expose them via the registry. Otherwise a
// no-op sink is used and the hot path does not pay for metric updates.
//
// All metrics are **cache-level**, labeled by cache name; aggregations can
// be done on the Prometheus side via sum()/rate().
//
// ┌──────────────────────────────────┬───────┬────────┐
// │ Metric                           │ Type  │ Labels │
// ├──────────────────────────────────┼───────┼────────┤
// │ slabcache_slabs_total            │ Gge   │ cache  │
// │ slabcache_slabs_created_total    │ Ctr   │ cache  │
// │ slabcache_slabs_destroyed_total  │ Ctr   │ cache  │
// │ slabcache_objects_alloc          │ Gge   │ cache  │
// │ slabcache_magazine_hits_total    │ Ctr   │ cache  │
// │ slabcache_magazine_misses_total  │ Ctr   │ cache  │
// │ slabcache_hash_depth             │ Gge   │ cache  │
// │ slabcache_reap_freed_total       │ Ctr   │ cache  │
// └──────────────────────────────────┴───────┴────────┘
//
// © 2025 slabcache authors. MIT License.

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metricsSink is an internal interface abstracting away the concrete
// backend (Prometheus vs noop). It is not exposed outside the package;
// Cache only knows about the generic methods here.
type metricsSink interface {
	setSlabTotal(name string, v int64)
	incSlabsCreated(name string)
	incSlabsDestroyed(name string)
	setObjAlloc(name string, v int64)
	incMagazineHit(name string)
	incMagazineMiss(name string)
	setHashDepth(name string, v int64)
	addReapFreed(name string, delta int64)
}

type noopMetrics struct{}

func (noopMetrics) setSlabTotal(string, int64)     {}
func (noopMetrics) incSlabsCreated(string)          {}
func (noopMetrics) incSlabsDestroyed(string)        {}
func (noopMetrics) setObjAlloc(string, int64)       {}
func (noopMetrics) incMagazineHit(string)           {}
func (noopMetrics) incMagazineMiss(string)           {}
func (noopMetrics) setHashDepth(string, int64)       {}
func (noopMetrics) addReapFreed(string, int64)       {}

// promMetrics is the Prometheus-backed metricsSink implementation,
// registered once per process via NewPromMetrics.
type promMetrics struct {
	slabTotal      *prometheus.GaugeVec
	slabsCreated   *prometheus.CounterVec
	slabsDestroyed *prometheus.CounterVec
	objAlloc       *prometheus.GaugeVec
	magazineHits   *prometheus.CounterVec
	magazineMisses *prometheus.CounterVec
	hashDepth      *prometheus.GaugeVec
	reapFreed      *prometheus.CounterVec
}

// NewPromMetrics builds a metricsSink registered against reg, for use
// with WithMetrics. Exported because the registry is process-wide and
// typically shared across several caches, so callers build it once
// outside any single New call.
func NewPromMetrics(reg *prometheus.Registry) metricsSink {
	label := []string{"cache"}
	m := &promMetrics{
		slabTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "slabcache", Name: "slabs_total",
			Help: "Current number of slabs (partial + complete).",
		}, label),
		slabsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slabcache", Name: "slabs_created_total",
			Help: "Cumulative slabs grown.",
		}, label),
		slabsDestroyed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slabcache", Name: "slabs_destroyed_total",
			Help: "Cumulative slabs torn down by the reaper or cache destroy.",
		}, label),
		objAlloc: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "slabcache", Name: "objects_alloc",
			Help: "Current number of objects handed out and not yet freed.",
		}, label),
		magazineHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slabcache", Name: "magazine_hits_total",
			Help: "Alloc calls satisfied from the magazine without touching the cache lock.",
		}, label),
		magazineMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slabcache", Name: "magazine_misses_total",
			Help: "Alloc calls that found the magazine empty and needed a refill.",
		}, label),
		hashDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "slabcache", Name: "hash_depth",
			Help: "High-water chain length observed in the in-use hash.",
		}, label),
		reapFreed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slabcache", Name: "reap_freed_total",
			Help: "Cumulative slabs freed by reap_now.",
		}, label),
	}
	reg.MustRegister(m.slabTotal, m.slabsCreated, m.slabsDestroyed, m.objAlloc,
		m.magazineHits, m.magazineMisses, m.hashDepth, m.reapFreed)
	return m
}

func (m *promMetrics) setSlabTotal(name string, v int64) {
	m.slabTotal.WithLabelValues(name).Set(float64(v))
}
func (m *promMetrics) incSlabsCreated(name string) {
	m.slabsCreated.WithLabelValues(name).Inc()
}
func (m *promMetrics) incSlabsDestroyed(name string) {
	m.slabsDestroyed.WithLabelValues(name).Inc()
}
func (m *promMetrics) setObjAlloc(name string, v int64) {
	m.objAlloc.WithLabelValues(name).Set(float64(v))
}
func (m *promMetrics) incMagazineHit(name string) {
	m.magazineHits.WithLabelValues(name).Inc()
}
func (m *promMetrics) incMagazineMiss(name string) {
	m.magazineMisses.WithLabelValues(name).Inc()
}
func (m *promMetrics) setHashDepth(name string, v int64) {
	m.hashDepth.WithLabelValues(name).Set(float64(v))
}
func (m *promMetrics) addReapFreed(name string, delta int64) {
	m.reapFreed.WithLabelValues(name).Add(float64(delta))
}
