package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the CRM API.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	importRows      *prometheus.CounterVec
	conversions     *prometheus.CounterVec
	invalidations   *prometheus.CounterVec
}

// ImportSnapshot summarizes bulk-import counters for the stats endpoint.
type ImportSnapshot struct {
	RowsCreated  float64 `json:"rows_created"`
	RowsUpdated  float64 `json:"rows_updated"`
	RowsSkipped  float64 `json:"rows_skipped"`
	RowsErrored  float64 `json:"rows_errored"`
	CacheHitRate float64 `json:"cache_hit_rate"`
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crm_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_external_errors_total",
				Help: "Total errors from the managed backend.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"domain"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"domain"},
		),
		importRows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_import_rows_total",
				Help: "Total bulk-import rows by outcome.",
			},
			[]string{"outcome"},
		),
		conversions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_lead_conversions_total",
				Help: "Total campaign lead conversions by result.",
			},
			[]string{"result"},
		),
		invalidations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crm_cache_invalidations_total",
				Help: "Total cache entries invalidated, by reason.",
			},
			[]string{"reason"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(domain string) {
	m.cacheHits.WithLabelValues(domain).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(domain string) {
	m.cacheMisses.WithLabelValues(domain).Inc()
}

// CountImportRow records one bulk-import row outcome
// (created / updated / skipped / error).
func (m *Metrics) CountImportRow(outcome string) {
	m.importRows.WithLabelValues(outcome).Inc()
}

// CountConversion records a lead conversion result.
func (m *Metrics) CountConversion(result string) {
	m.conversions.WithLabelValues(result).Inc()
}

// CountInvalidations adds n to the invalidation counter for a reason
// (mutation / org_switch / sign_out).
func (m *Metrics) CountInvalidations(reason string, n int) {
	m.invalidations.WithLabelValues(reason).Add(float64(n))
}

// GetImportSnapshot returns cumulative import counters for the
// GET /v1/metrics/imports endpoint.
func (m *Metrics) GetImportSnapshot() *ImportSnapshot {
	hits := float64(0)
	misses := float64(0)
	for _, d := range []string{"people", "deals", "campaigns", "interactions", "library", "dashboard"} {
		hits += getCounterValue(m.cacheHits, d)
		misses += getCounterValue(m.cacheMisses, d)
	}
	hitRate := float64(0)
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	return &ImportSnapshot{
		RowsCreated:  getCounterValue(m.importRows, "created"),
		RowsUpdated:  getCounterValue(m.importRows, "updated"),
		RowsSkipped:  getCounterValue(m.importRows, "skipped"),
		RowsErrored:  getCounterValue(m.importRows, "error"),
		CacheHitRate: hitRate,
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
