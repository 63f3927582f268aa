package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status    string           `json:"status"` // healthy, degraded, unhealthy
	Providers []ProviderHealth `json:"providers"`
}

// ProviderHealth reports whether a price provider is configured and whether
// its circuit is currently letting calls through.
type ProviderHealth struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
	Circuit    string `json:"circuit,omitempty"` // closed, half-open, open
	Status     string `json:"status"`
}

// PricingMetrics is returned by GET /v1/metrics/pricing.
type PricingMetrics struct {
	CacheHitRate       float64            `json:"cacheHitRate"`
	CacheHits          float64            `json:"cacheHits"`
	CacheMisses        float64            `json:"cacheMisses"`
	ExternalErrors     map[string]float64 `json:"externalErrors"`
	Provenance         map[string]float64 `json:"provenance"`
	RateLimitDenials   map[string]float64 `json:"rateLimitDenials"`
	PromptTokens       float64            `json:"promptTokens"`
	CompletionTokens   float64            `json:"completionTokens"`
	FallbackRate       float64            `json:"fallbackRate"`
	ItinerariesCreated float64            `json:"itinerariesCreated"`
	Period             string             `json:"period"`
}
