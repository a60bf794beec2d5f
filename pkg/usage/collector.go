package usage

import (
	"sort"
	"strings"
	"sync"
)

// RateLimitMarker is the substring that classifies a failure as a rate
// limit. Classification is a textual heuristic: any error whose message
// contains this marker (case-insensitively) counts as a rate-limit hit.
const RateLimitMarker = "rate limit"

// MatchesRateLimit reports whether the error text carries the rate-limit
// marker.
func MatchesRateLimit(errText string) bool {
	return strings.Contains(strings.ToLower(errText), RateLimitMarker)
}

// Metrics holds the counters for one (provider, model) pair.
type Metrics struct {
	// Provider is the external LLM vendor.
	Provider string `json:"provider"`

	// Model is the model identifier.
	Model string `json:"model"`

	// TotalRequests counts every recorded outcome, success or failure.
	TotalRequests int64 `json:"total_requests"`

	// SuccessfulRequests counts successful outcomes.
	SuccessfulRequests int64 `json:"successful_requests"`

	// FailedRequests counts failed outcomes of any kind.
	FailedRequests int64 `json:"failed_requests"`

	// TotalTokensUsed sums token counts from successful requests only.
	TotalTokensUsed int64 `json:"total_tokens_used"`

	// RateLimitHits counts failures whose error text matched the
	// rate-limit marker.
	RateLimitHits int64 `json:"rate_limit_hits"`
}

// metricsKey identifies one (provider, model) counter set.
type metricsKey struct {
	provider string
	model    string
}

// Collector accumulates routing outcome counters. It is safe for
// concurrent use.
type Collector struct {
	mu      sync.RWMutex
	metrics map[metricsKey]*Metrics
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		metrics: make(map[metricsKey]*Metrics),
	}
}

// get returns the counter set for a key, creating it if absent.
// Caller must hold mu.
func (c *Collector) get(provider, model string) *Metrics {
	key := metricsKey{provider: provider, model: model}
	m, ok := c.metrics[key]
	if !ok {
		m = &Metrics{Provider: provider, Model: model}
		c.metrics[key] = m
	}
	return m
}

// RecordSuccess records a successful outcome. tokenCount contributes to the
// token total only when positive; providers that do not report usage pass
// zero.
func (c *Collector) RecordSuccess(provider, model string, tokenCount int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.get(provider, model)
	m.TotalRequests++
	m.SuccessfulRequests++
	if tokenCount > 0 {
		m.TotalTokensUsed += int64(tokenCount)
	}
}

// RecordFailure records a failed outcome. The error text is checked against
// the rate-limit marker to additionally count rate-limit hits.
func (c *Collector) RecordFailure(provider, model, errText string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.get(provider, model)
	m.TotalRequests++
	m.FailedRequests++
	if MatchesRateLimit(errText) {
		m.RateLimitHits++
	}
}

// RecordRateLimitHit counts one rate-limited attempt that was retried
// rather than becoming the terminal outcome. Terminal rate-limit failures
// are counted by RecordFailure instead; the two never double-count one
// attempt.
func (c *Collector) RecordRateLimitHit(provider, model string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.get(provider, model).RateLimitHits++
}

// Get returns a copy of the counters for one (provider, model) pair. The
// zero Metrics is returned for a pair that has recorded nothing.
func (c *Collector) Get(provider, model string) Metrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if m, ok := c.metrics[metricsKey{provider: provider, model: model}]; ok {
		return *m
	}
	return Metrics{Provider: provider, Model: model}
}

// Snapshot returns a copy of every counter set, sorted by provider and
// model for stable output.
func (c *Collector) Snapshot() []Metrics {
	c.mu.RLock()
	out := make([]Metrics, 0, len(c.metrics))
	for _, m := range c.metrics {
		out = append(out, *m)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Provider != out[j].Provider {
			return out[i].Provider < out[j].Provider
		}
		return out[i].Model < out[j].Model
	})
	return out
}

// Aggregate sums all counter sets into one Metrics value. Provider and
// Model are left empty in the result.
func (c *Collector) Aggregate() Metrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var total Metrics
	for _, m := range c.metrics {
		total.TotalRequests += m.TotalRequests
		total.SuccessfulRequests += m.SuccessfulRequests
		total.FailedRequests += m.FailedRequests
		total.TotalTokensUsed += m.TotalTokensUsed
		total.RateLimitHits += m.RateLimitHits
	}
	return total
}
