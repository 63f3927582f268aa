package observability

import (
	"testing"
	"time"
)

func TestPricingSnapshot_Empty(t *testing.T) {
	snap := NewMetrics().GetPricingSnapshot()

	if snap.CacheHitRate != 0 || snap.FallbackRate != 0 || snap.ItinerariesCreated != 0 {
		t.Fatalf("expected zero snapshot, got %+v", snap)
	}
	if snap.Period != "all_time" {
		t.Errorf("expected period all_time, got %q", snap.Period)
	}
}

func TestPricingSnapshot_AggregatesCounters(t *testing.T) {
	m := NewMetrics()

	m.IncrCacheHit("product")
	m.IncrCacheHit("activity")
	m.IncrCacheHit("activity")
	m.IncrCacheMiss("product")
	m.IncrExternalError("amadeus")
	m.IncrExternalError("amadeus")
	m.IncrProvenance("flight", "real")
	m.IncrProvenance("accommodation", "estimate")
	m.IncrRateLimitDenial("marketplace", "window_full")
	m.RecordTokens(100, 40)
	m.RecordTokens(20, 10)
	m.IncrItinerary("llm")
	m.IncrItinerary("llm")
	m.IncrItinerary("llm")
	m.IncrItinerary("fallback_template")
	m.RecordRequestDuration("itinerary", 250*time.Millisecond)

	snap := m.GetPricingSnapshot()

	if snap.CacheHits != 3 || snap.CacheMisses != 1 {
		t.Fatalf("cache counters: hits=%v misses=%v", snap.CacheHits, snap.CacheMisses)
	}
	if snap.CacheHitRate != 0.75 {
		t.Errorf("expected hit rate 0.75, got %v", snap.CacheHitRate)
	}
	if snap.ExternalErrors["amadeus"] != 2 {
		t.Errorf("expected 2 amadeus errors, got %v", snap.ExternalErrors)
	}
	if snap.Provenance["flight/real"] != 1 || snap.Provenance["accommodation/estimate"] != 1 {
		t.Errorf("unexpected provenance map %v", snap.Provenance)
	}
	if snap.RateLimitDenials["window_full/marketplace"] != 1 {
		t.Errorf("unexpected denials map %v", snap.RateLimitDenials)
	}
	if snap.PromptTokens != 120 || snap.CompletionTokens != 50 {
		t.Errorf("tokens: prompt=%v completion=%v", snap.PromptTokens, snap.CompletionTokens)
	}
	if snap.ItinerariesCreated != 4 || snap.FallbackRate != 0.25 {
		t.Errorf("itineraries=%v fallbackRate=%v", snap.ItinerariesCreated, snap.FallbackRate)
	}
}
