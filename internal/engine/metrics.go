package engine

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	AdzunaRequests     atomic.Int64
	IndeedRequests     atomic.Int64
	LinkedInRequests   atomic.Int64
	JobspressoRequests atomic.Int64
	ProviderErrors     atomic.Int64
	LLMCalls           atomic.Int64
	LLMErrors          atomic.Int64
	EmbeddingCalls     atomic.Int64
	AnalysisRuns       atomic.Int64
	AnalysisErrors     atomic.Int64
}

// Metric identifies one counter.
type Metric int

const (
	MetricAdzunaRequests Metric = iota
	MetricIndeedRequests
	MetricLinkedInRequests
	MetricJobspressoRequests
	MetricProviderErrors
	MetricLLMCalls
	MetricLLMErrors
	MetricEmbeddingCalls
	MetricAnalysisRuns
	MetricAnalysisErrors
)

// Incr increments the given counter.
func Incr(m Metric) {
	switch m {
	case MetricAdzunaRequests:
		metrics.AdzunaRequests.Add(1)
	case MetricIndeedRequests:
		metrics.IndeedRequests.Add(1)
	case MetricLinkedInRequests:
		metrics.LinkedInRequests.Add(1)
	case MetricJobspressoRequests:
		metrics.JobspressoRequests.Add(1)
	case MetricProviderErrors:
		metrics.ProviderErrors.Add(1)
	case MetricLLMCalls:
		metrics.LLMCalls.Add(1)
	case MetricLLMErrors:
		metrics.LLMErrors.Add(1)
	case MetricEmbeddingCalls:
		metrics.EmbeddingCalls.Add(1)
	case MetricAnalysisRuns:
		metrics.AnalysisRuns.Add(1)
	case MetricAnalysisErrors:
		metrics.AnalysisErrors.Add(1)
	}
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"adzuna_requests":     metrics.AdzunaRequests.Load(),
		"indeed_requests":     metrics.IndeedRequests.Load(),
		"linkedin_requests":   metrics.LinkedInRequests.Load(),
		"jobspresso_requests": metrics.JobspressoRequests.Load(),
		"provider_errors":     metrics.ProviderErrors.Load(),
		"llm_calls":           metrics.LLMCalls.Load(),
		"llm_errors":          metrics.LLMErrors.Load(),
		"embedding_calls":     metrics.EmbeddingCalls.Load(),
		"analysis_runs":       metrics.AnalysisRuns.Load(),
		"analysis_errors":     metrics.AnalysisErrors.Load(),
		"cache_hits":          hits,
		"cache_misses":        misses,
	}
}

// FormatMetrics returns metrics as a simple text format for the HTTP endpoint.
func FormatMetrics() string {
	snapshot := GetMetrics()
	keys := []string{
		"adzuna_requests", "indeed_requests", "linkedin_requests",
		"jobspresso_requests", "provider_errors", "llm_calls", "llm_errors",
		"embedding_calls", "analysis_runs", "analysis_errors",
		"cache_hits", "cache_misses",
	}
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s %d\n", k, snapshot[k])
	}
	return b.String()
}
