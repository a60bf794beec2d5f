package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"mercator-hq/ganymede/pkg/compression"
	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/credentials"
)

// SecretResolver resolves a credential's opaque secret handle into the
// actual API key at invocation time. The resolved value is used for one
// request and never stored.
type SecretResolver func(secretRef string) (string, error)

// EnvSecretResolver resolves handles of the form "env:NAME" from the
// process environment.
func EnvSecretResolver(secretRef string) (string, error) {
	name, ok := strings.CutPrefix(secretRef, "env:")
	if !ok {
		return "", fmt.Errorf("unsupported secret reference %q (expected env:NAME)", secretRef)
	}
	value := os.Getenv(name)
	if value == "" {
		return "", fmt.Errorf("environment variable %q is not set", name)
	}
	return value, nil
}

// HTTPInvoker invokes chat-completion endpoints over HTTP with connection
// pooling. One shared client serves all providers; per-provider base URLs
// and timeouts come from configuration.
type HTTPInvoker struct {
	providers map[string]config.ProviderConfig
	resolver  SecretResolver
	client    *http.Client
	logger    *slog.Logger
}

// NewHTTPInvoker creates an HTTP invoker for the configured providers.
// A nil resolver defaults to EnvSecretResolver.
func NewHTTPInvoker(providers map[string]config.ProviderConfig, resolver SecretResolver, logger *slog.Logger) *HTTPInvoker {
	if resolver == nil {
		resolver = EnvSecretResolver
	}
	if logger == nil {
		logger = slog.Default()
	}

	maxIdle := config.DefaultProviderMaxIdleConns
	for _, pc := range providers {
		if pc.MaxIdleConns > maxIdle {
			maxIdle = pc.MaxIdleConns
		}
	}

	transport := &http.Transport{
		MaxIdleConns:        maxIdle * len(providers),
		MaxIdleConnsPerHost: maxIdle,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	return &HTTPInvoker{
		providers: providers,
		resolver:  resolver,
		client:    &http.Client{Transport: transport},
		logger:    logger.With("component", "http-invoker"),
	}
}

// chatRequest is the wire format sent to a chat-completions endpoint.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the wire format of a successful completion.
type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// errorResponse is the wire format of a provider error body.
type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Invoke performs one chat-completion call using the credential's secret.
// HTTP 429 maps to *RateLimitError, deadline expiry to *TimeoutError, and
// every other failure to *ProviderError.
func (i *HTTPInvoker) Invoke(ctx context.Context, cred *credentials.Credential, messages []compression.Message) (*InvokeResult, error) {
	pc, ok := i.providers[cred.Provider]
	if !ok {
		return nil, &ProviderError{
			Provider: cred.Provider,
			Message:  "provider is not configured",
		}
	}

	timeout := pc.Timeout
	if timeout <= 0 {
		timeout = config.DefaultProviderTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	secret, err := i.resolver(cred.SecretRef)
	if err != nil {
		return nil, &ProviderError{
			Provider: cred.Provider,
			Message:  "failed to resolve credential secret",
			Cause:    err,
		}
	}

	payload := chatRequest{
		Model:    cred.Model,
		Messages: make([]chatMessage, len(messages)),
	}
	for idx, m := range messages {
		payload.Messages[idx] = chatMessage{Role: m.Role, Content: m.Content}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &ProviderError{
			Provider: cred.Provider,
			Message:  "failed to encode request",
			Cause:    err,
		}
	}

	url := strings.TrimRight(pc.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &ProviderError{
			Provider: cred.Provider,
			Message:  "failed to build request",
			Cause:    err,
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+secret)

	resp, err := i.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &TimeoutError{Provider: cred.Provider, Timeout: timeout}
		}
		return nil, &ProviderError{
			Provider: cred.Provider,
			Message:  "request failed",
			Cause:    err,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, &ProviderError{
			Provider: cred.Provider,
			Message:  "failed to read response body",
			Cause:    err,
		}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{
			Provider:   cred.Provider,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Message:    providerMessage(respBody),
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProviderError{
			Provider:   cred.Provider,
			StatusCode: resp.StatusCode,
			Message:    providerMessage(respBody),
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &ProviderError{
			Provider: cred.Provider,
			Message:  "failed to parse response",
			Cause:    err,
		}
	}
	if len(parsed.Choices) == 0 {
		return nil, &ProviderError{
			Provider: cred.Provider,
			Message:  "response contained no choices",
		}
	}

	return &InvokeResult{
		Content:    parsed.Choices[0].Message.Content,
		TokenCount: parsed.Usage.TotalTokens,
	}, nil
}

// providerMessage extracts a human-readable message from an error body,
// falling back to the raw body when it is not the expected JSON shape.
func providerMessage(body []byte) string {
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	if msg == "" {
		msg = "no error detail provided"
	}
	return msg
}

// parseRetryAfter parses a Retry-After header given in seconds. Absent or
// malformed values return zero.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
