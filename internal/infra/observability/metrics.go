package observability

import (
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/domain"
)

const (
	metricRequestDuration = "bfa_request_duration_seconds"
	metricExternalErrors  = "bfa_external_errors_total"
	metricCacheHits       = "bfa_cache_hits_total"
	metricCacheMisses     = "bfa_cache_misses_total"
	metricTokens          = "bfa_llm_tokens_total"
	metricRequests        = "bfa_requests_total"
	metricProvenance      = "bfa_result_provenance_total"
	metricRateLimitDenied = "bfa_rate_limit_denials_total"
	metricItineraries     = "bfa_itineraries_total"
)

// Metrics holds all Prometheus metrics for the BFA.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	tokensUsed      *prometheus.CounterVec
	requestsTotal   *prometheus.CounterVec
	provenance      *prometheus.CounterVec
	rateLimitDenied *prometheus.CounterVec
	itineraries     *prometheus.CounterVec
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
				Name:    metricRequestDuration,
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricExternalErrors,
				Help: "Total errors from external price sources.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricCacheHits,
				Help: "Total price cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricCacheMisses,
				Help: "Total price cache misses.",
			},
			[]string{"cache"},
		),
		tokensUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricTokens,
				Help: "Total LLM tokens consumed.",
			},
			[]string{"type"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricRequests,
				Help: "Total requests processed.",
			},
			[]string{"status"},
		),
		provenance: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricProvenance,
				Help: "Results by kind (flight, accommodation, destination, activity) and provenance.",
			},
			[]string{"kind", "provenance"},
		),
		rateLimitDenied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricRateLimitDenied,
				Help: "Calls declined by a per-resource rate limiter.",
			},
			[]string{"resource", "reason"},
		),
		itineraries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricItineraries,
				Help: "Itineraries generated, by plan source.",
			},
			[]string{"source"},
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
func (m *Metrics) RecordTokens(prompt, completion int) {
	m.tokensUsed.WithLabelValues("prompt").Add(float64(prompt))
	m.tokensUsed.WithLabelValues("completion").Add(float64(completion))
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// IncrProvenance counts one result of the given kind and provenance.
func (m *Metrics) IncrProvenance(kind, provenance string) {
	m.provenance.WithLabelValues(kind, provenance).Inc()
}

// IncrRateLimitDenial matches resilience.WithDenyHook.
func (m *Metrics) IncrRateLimitDenial(resource, reason string) {
	m.rateLimitDenied.WithLabelValues(resource, reason).Inc()
}

// IncrItinerary counts one generated itinerary.
func (m *Metrics) IncrItinerary(source string) {
	m.itineraries.WithLabelValues(source).Inc()
}

// GetPricingSnapshot returns a snapshot suitable for GET /v1/metrics/pricing.
// Prometheus counters are cumulative, so the period is always "all_time".
func (m *Metrics) GetPricingSnapshot() *domain.PricingMetrics {
	families := m.gather()

	hits := sumFamily(families[metricCacheHits])
	misses := sumFamily(families[metricCacheMisses])
	hitRate := 0.0
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	itineraries := byLabels(families[metricItineraries])
	created := 0.0
	for _, v := range itineraries {
		created += v
	}
	fallbackRate := 0.0
	if created > 0 {
		fallbackRate = itineraries[domain.SourceFallbackTempl] / created
	}

	tokens := byLabels(families[metricTokens])

	return &domain.PricingMetrics{
		CacheHitRate:       hitRate,
		CacheHits:          hits,
		CacheMisses:        misses,
		ExternalErrors:     byLabels(families[metricExternalErrors]),
		Provenance:         byLabels(families[metricProvenance]),
		RateLimitDenials:   byLabels(families[metricRateLimitDenied]),
		PromptTokens:       tokens["prompt"],
		CompletionTokens:   tokens["completion"],
		FallbackRate:       fallbackRate,
		ItinerariesCreated: created,
		Period:             "all_time",
	}
}

func (m *Metrics) gather() map[string]*dto.MetricFamily {
	out := make(map[string]*dto.MetricFamily)
	mfs, err := m.Registry.Gather()
	if err != nil {
		return out
	}
	for _, mf := range mfs {
		out[mf.GetName()] = mf
	}
	return out
}

// byLabels flattens a counter family into "label1/label2" -> value.
func byLabels(mf *dto.MetricFamily) map[string]float64 {
	out := make(map[string]float64)
	if mf == nil {
		return out
	}
	for _, metric := range mf.GetMetric() {
		pairs := metric.GetLabel()
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].GetName() < pairs[j].GetName() })
		values := make([]string, 0, len(pairs))
		for _, p := range pairs {
			values = append(values, p.GetValue())
		}
		out[strings.Join(values, "/")] += metric.GetCounter().GetValue()
	}
	return out
}

func sumFamily(mf *dto.MetricFamily) float64 {
	total := 0.0
	for _, v := range byLabels(mf) {
		total += v
	}
	return total
}
