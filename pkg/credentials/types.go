package credentials

import "time"

// Credential is one API key bound to a (provider, model) pair.
//
// A credential is owned exclusively by its bucket inside the Pool. Its
// mutable fields (UsageCount, LastUsedAt, RateLimitResetAt) are updated only
// under the bucket's lock; callers that receive a credential from Select
// must treat those fields as unsynchronized and read only the immutable
// identity fields (ID, Provider, Model, SecretRef).
type Credential struct {
	// ID identifies the credential. Duplicate IDs are permitted; the pool
	// performs no uniqueness check.
	ID string

	// Provider is the external LLM vendor this credential belongs to.
	Provider string

	// Model is the model identifier this credential is registered for.
	Model string

	// SecretRef is an opaque handle to the actual secret (e.g., an
	// environment variable reference). The pool never resolves or logs it,
	// and it is omitted from snapshots.
	SecretRef string

	// UsageCount is the number of times this credential has been selected.
	// It increases exactly once per selection, regardless of whether the
	// subsequent provider call succeeds.
	UsageCount int64

	// LastUsedAt is the time of the most recent selection.
	LastUsedAt time.Time

	// RateLimitResetAt, when set and in the future, marks the credential as
	// cooling down after a rate-limit response. Selection does not consult
	// it unless cooling exclusion is enabled on the pool.
	RateLimitResetAt time.Time
}

// CoolingDown reports whether the credential is inside its rate-limit
// cooldown window at the given time.
func (c *Credential) CoolingDown(now time.Time) bool {
	return !c.RateLimitResetAt.IsZero() && c.RateLimitResetAt.After(now)
}

// CredentialView is a read-only projection of a credential for diagnostic
// snapshots. It deliberately excludes the secret handle.
type CredentialView struct {
	// ID is the credential identifier.
	ID string `json:"id"`

	// UsageCount is the number of selections at snapshot time.
	UsageCount int64 `json:"usage_count"`

	// LastUsedAt is the time of the most recent selection; zero if never
	// selected.
	LastUsedAt time.Time `json:"last_used_at"`

	// RateLimitResetAt is the end of the current cooldown window; zero if
	// the credential has never been rate limited.
	RateLimitResetAt time.Time `json:"rate_limit_reset_at,omitempty"`
}

// BucketSnapshot is a read-only view of one (provider, model) bucket.
type BucketSnapshot struct {
	// Provider is the bucket's provider key.
	Provider string `json:"provider"`

	// Model is the bucket's model key.
	Model string `json:"model"`

	// Cursor is the bucket's round-robin cursor position.
	Cursor int `json:"cursor"`

	// Credentials lists the bucket's credentials in registration order.
	Credentials []CredentialView `json:"credentials"`
}
