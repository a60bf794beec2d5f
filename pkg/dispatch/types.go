package dispatch

import (
	"mercator-hq/ganymede/pkg/compression"
)

// Request is one logical routing request.
type Request struct {
	// RequestID correlates logs, journal records, and traces. Assigned by
	// the router when empty.
	RequestID string `json:"request_id,omitempty"`

	// Provider is the external LLM vendor to route to.
	Provider string `json:"provider"`

	// Model is the model identifier.
	Model string `json:"model"`

	// Messages is the ordered conversation history.
	Messages []compression.Message `json:"messages"`

	// Metadata carries caller-defined key/value pairs. The dispatcher does
	// not interpret it.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Result is the normalized outcome of one dispatch. Exactly one of Content
// (on success) or Error (on failure) is meaningful.
type Result struct {
	// Success reports whether the request succeeded.
	Success bool `json:"success"`

	// Content is the provider's completion text on success.
	Content string `json:"content,omitempty"`

	// Error is the terminal error message on failure.
	Error string `json:"error,omitempty"`

	// Provider is the requested provider.
	Provider string `json:"provider"`

	// Model is the requested model.
	Model string `json:"model"`

	// CredentialID is the last credential used; empty when none could be
	// selected.
	CredentialID string `json:"credential_id,omitempty"`

	// TokenCount is the token usage of a successful request: the
	// provider-reported count when available, the compressed estimate
	// otherwise. Zero on failure.
	TokenCount int `json:"token_count,omitempty"`

	// EstimatedTokens is the token estimate of the compressed history that
	// was sent to the provider.
	EstimatedTokens int `json:"estimated_tokens"`

	// Attempts is the number of provider invocations made.
	Attempts int `json:"attempts"`
}
