package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/thundertext/thunder-api/internal/domain"
)

// Metrics holds all Prometheus metrics for the API.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	tokensUsed      *prometheus.CounterVec
	generations     *prometheus.CounterVec
	quotaDenials    prometheus.Counter
	usageCostCents  prometheus.Counter
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
				Name:    "ttx_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ttx_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ttx_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ttx_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		tokensUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ttx_ai_tokens_total",
				Help: "Total text-generation tokens consumed.",
			},
			[]string{"type"},
		),
		generations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ttx_generations_total",
				Help: "Total content generations by kind and outcome.",
			},
			[]string{"kind", "status"},
		),
		quotaDenials: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ttx_quota_denials_total",
				Help: "Total requests rejected by the monthly quota.",
			},
		),
		usageCostCents: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ttx_usage_cost_cents_total",
				Help: "Cumulative recorded generation cost in cents.",
			},
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
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// RecordTokens records prompt and completion token usage.
func (m *Metrics) RecordTokens(total int) {
	m.tokensUsed.WithLabelValues("total").Add(float64(total))
}

// IncrGeneration counts one generation attempt outcome.
func (m *Metrics) IncrGeneration(kind, status string) {
	m.generations.WithLabelValues(kind, status).Inc()
}

// IncrQuotaDenial counts one quota rejection.
func (m *Metrics) IncrQuotaDenial() {
	m.quotaDenials.Inc()
}

// AddUsageCost accumulates recorded generation cost.
func (m *Metrics) AddUsageCost(cents int) {
	m.usageCostCents.Add(float64(cents))
}

// GetAISnapshot returns a snapshot of AI-related metrics suitable for the
// GET /v1/metrics/ai endpoint.
func (m *Metrics) GetAISnapshot() *domain.AIMetrics {
	kinds := []string{"image_iteration", "enhance_description", "profile"}

	tokens := getCounterValue(m.tokensUsed.WithLabelValues("total"))
	var success, failed float64
	for _, kind := range kinds {
		success += getCounterValue(m.generations.WithLabelValues(kind, "success"))
		failed += getCounterValue(m.generations.WithLabelValues(kind, "error"))
	}

	total := success + failed
	errorRate := float64(0)
	if total > 0 {
		errorRate = failed / total
	}

	return &domain.AIMetrics{
		TotalGenerations: int64(total),
		ErrorRate:        errorRate,
		TokensUsed:       int64(tokens),
		QuotaDenials:     int64(getCounterValue(m.quotaDenials)),
		CostCents:        int64(getCounterValue(m.usageCostCents)),
		Period:           "all_time",
	}
}

// getCounterValue extracts the current float64 value from a counter.
func getCounterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
