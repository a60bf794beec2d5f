package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mockproviders "mercator-hq/ganymede/internal/providers"
	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/router"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()

	cfg := config.NewDefaultConfig()
	cfg.Credentials = []config.CredentialConfig{
		{ID: "key-a", Provider: "openai", Model: "gpt-4", SecretRef: "env:KEY_A"},
	}
	if mutate != nil {
		mutate(cfg)
	}

	rt, err := router.New(cfg, router.Options{
		Invoker: mockproviders.NewMockInvoker(),
	})
	if err != nil {
		t.Fatalf("router.New() error = %v", err)
	}
	t.Cleanup(func() { _ = rt.Close(t.Context()) })

	return NewServer(&cfg.Server, &cfg.Telemetry.Metrics, rt)
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRouteEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	handler := srv.Handler()

	rec := doJSON(t, handler, http.MethodPost, "/v1/route", `{
		"provider": "openai",
		"model": "gpt-4",
		"messages": [{"role": "user", "content": "hello"}]
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var result struct {
		Success      bool   `json:"success"`
		Content      string `json:"content"`
		CredentialID string `json:"credential_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !result.Success {
		t.Errorf("success = false, body = %s", rec.Body.String())
	}
	if result.CredentialID != "key-a" {
		t.Errorf("credential_id = %q, want key-a", result.CredentialID)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("X-Request-ID response header missing")
	}
}

func TestRouteEndpointFailureStillOK(t *testing.T) {
	// Routing failures are reported in the body, not as HTTP errors.
	srv := newTestServer(t, func(cfg *config.Config) {
		cfg.Credentials = nil
	})

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/v1/route", `{
		"provider": "openai",
		"model": "gpt-4",
		"messages": [{"role": "user", "content": "hello"}]
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "no credential available") {
		t.Errorf("body = %s, want no-credential error", rec.Body.String())
	}
}

func TestRouteEndpointValidation(t *testing.T) {
	srv := newTestServer(t, nil)
	handler := srv.Handler()

	tests := []struct {
		name string
		body string
	}{
		{"invalid JSON", `{`},
		{"missing provider", `{"model": "gpt-4", "messages": [{"role": "user", "content": "x"}]}`},
		{"missing model", `{"provider": "openai", "messages": [{"role": "user", "content": "x"}]}`},
		{"empty messages", `{"provider": "openai", "model": "gpt-4", "messages": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, handler, http.MethodPost, "/v1/route", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}

	if rec := doJSON(t, handler, http.MethodGet, "/v1/route", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", rec.Code)
	}
}

func TestCredentialsEndpoint(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) {
		cfg.Credentials = nil
	})
	handler := srv.Handler()

	rec := doJSON(t, handler, http.MethodPost, "/v1/credentials", `{
		"id": "key-b",
		"provider": "anthropic",
		"model": "claude-3",
		"secret_ref": "env:KEY_B"
	}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "env:KEY_B") {
		t.Error("secret reference echoed in response")
	}

	rec = doJSON(t, handler, http.MethodPost, "/v1/credentials", `{"id": "", "provider": "p", "model": "m", "secret_ref": "env:X"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("incomplete credential status = %d, want 400", rec.Code)
	}
}

func TestUsageEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	handler := srv.Handler()

	doJSON(t, handler, http.MethodPost, "/v1/route", `{
		"provider": "openai",
		"model": "gpt-4",
		"messages": [{"role": "user", "content": "hello"}]
	}`)

	rec := doJSON(t, handler, http.MethodGet, "/v1/usage", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Pairs []struct {
			Provider           string `json:"provider"`
			Model              string `json:"model"`
			SuccessfulRequests int64  `json:"successful_requests"`
		} `json:"pairs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(body.Pairs) != 1 || body.Pairs[0].SuccessfulRequests != 1 {
		t.Errorf("pairs = %+v, want one pair with one success", body.Pairs)
	}
}

func TestPoolEndpointOmitsSecrets(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/v1/pool", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "key-a") {
		t.Errorf("body = %s, want credential id", rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "env:KEY_A") {
		t.Error("secret reference leaked in pool snapshot")
	}
}

func TestJournalEndpoint(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) {
		cfg.Usage.Journal.Enabled = true
		cfg.Usage.Journal.Backend = "memory"
		cfg.Usage.Journal.PruneSchedule = ""
	})
	handler := srv.Handler()

	rec := doJSON(t, handler, http.MethodGet, "/v1/journal?limit=bogus", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/v1/journal?limit=10", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestJournalEndpointDisabled(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/v1/journal", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 when journal disabled", rec.Code)
	}
}

func TestHealthzEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s, want ok status", rec.Body.String())
	}
}

func TestMetricsEndpointMounted(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) {
		cfg.Telemetry.Metrics.Enabled = true
	})
	handler := srv.Handler()

	doJSON(t, handler, http.MethodPost, "/v1/route", `{
		"provider": "openai",
		"model": "gpt-4",
		"messages": [{"role": "user", "content": "hello"}]
	}`)

	rec := doJSON(t, handler, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ganymede_router_requests_total") {
		t.Errorf("exposition missing requests_total counter:\n%s", rec.Body.String())
	}
}

func TestStartStopsOnContextCancel(t *testing.T) {
	srv := newTestServer(t, func(cfg *config.Config) {
		cfg.Server.ListenAddress = "127.0.0.1:0"
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Start(ctx)
	}()

	// Give the listener a moment to come up before cancelling.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() error = %v, want nil after graceful shutdown", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after context cancellation")
	}
	if srv.IsRunning() {
		t.Error("IsRunning() = true after shutdown")
	}
}

func TestRequestIDPropagated(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "client-supplied-id")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != "client-supplied-id" {
		t.Errorf("request id = %q, want client-supplied-id", got)
	}
}
