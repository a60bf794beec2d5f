package journal

import (
	"context"
	"time"
)

// Record is one persisted routing outcome.
type Record struct {
	// ID is a UUID assigned when the record is created.
	ID string `json:"id"`

	// RequestID correlates the record with the routing request.
	RequestID string `json:"request_id"`

	// Provider is the external LLM vendor.
	Provider string `json:"provider"`

	// Model is the model identifier.
	Model string `json:"model"`

	// CredentialID is the credential that served (or failed) the request.
	// Empty when no credential could be selected.
	CredentialID string `json:"credential_id,omitempty"`

	// Success reports whether the request succeeded.
	Success bool `json:"success"`

	// RateLimited reports whether the terminal failure was classified as a
	// rate limit.
	RateLimited bool `json:"rate_limited"`

	// TokenCount is the token usage of a successful request; zero when
	// unreported or failed.
	TokenCount int `json:"token_count"`

	// ErrorText is the terminal error message for failed requests.
	ErrorText string `json:"error_text,omitempty"`

	// Attempts is the number of provider invocations made.
	Attempts int `json:"attempts"`

	// CreatedAt is when the outcome was recorded.
	CreatedAt time.Time `json:"created_at"`
}

// Store is the journal persistence backend.
type Store interface {
	// Write persists one record.
	Write(ctx context.Context, record *Record) error

	// List returns up to limit records, newest first. Provider and model
	// filter independently; an empty value matches all.
	List(ctx context.Context, provider, model string, limit int) ([]*Record, error)

	// Count returns the total number of stored records.
	Count(ctx context.Context) (int64, error)

	// DeleteOlderThan removes records created before the cutoff and
	// returns how many were deleted.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases backend resources.
	Close() error
}
