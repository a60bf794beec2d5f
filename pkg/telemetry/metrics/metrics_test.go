package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/ganymede/pkg/config"
)

func testConfig() config.MetricsConfig {
	return config.MetricsConfig{
		Enabled:   true,
		Namespace: "ganymede",
		Subsystem: "router",
	}
}

func TestRecordOutcomeExposed(t *testing.T) {
	rm := NewRouteMetrics(testConfig(), prometheus.NewRegistry())

	rm.RecordOutcome("openai", "gpt-4", StatusSuccess, 120*time.Millisecond, 1, 42)
	rm.RecordOutcome("openai", "gpt-4", StatusRateLimited, 200*time.Millisecond, 3, 0)
	rm.RecordRateLimitHit("openai", "gpt-4")

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	rm.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	checks := []string{
		`ganymede_router_requests_total{model="gpt-4",provider="openai",status="success"} 1`,
		`ganymede_router_requests_total{model="gpt-4",provider="openai",status="rate_limited"} 1`,
		`ganymede_router_tokens_total{model="gpt-4",provider="openai"} 42`,
		`ganymede_router_rate_limit_hits_total{model="gpt-4",provider="openai"} 1`,
	}
	for _, want := range checks {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestZeroTokensNotCounted(t *testing.T) {
	rm := NewRouteMetrics(testConfig(), prometheus.NewRegistry())

	rm.RecordOutcome("openai", "gpt-4", StatusProviderError, time.Millisecond, 1, 0)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	rm.Handler().ServeHTTP(rec, req)

	if strings.Contains(rec.Body.String(), `ganymede_router_tokens_total{model="gpt-4"`) {
		t.Error("tokens_total series created for a zero-token outcome")
	}
}
