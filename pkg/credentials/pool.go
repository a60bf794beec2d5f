package credentials

import (
	"sort"
	"sync"
	"time"
)

// PoolConfig contains configuration for the credential pool.
type PoolConfig struct {
	// ExcludeCooling controls whether Select skips credentials whose
	// rate-limit cooldown has not yet expired. When false (the default) a
	// just-rate-limited credential remains eligible and can be re-selected
	// immediately.
	ExcludeCooling bool
}

// bucketKey identifies one (provider, model) bucket.
type bucketKey struct {
	provider string
	model    string
}

// bucket holds the ordered credentials and rotation cursor for one
// (provider, model) pair. All access to its fields goes through mu so that
// the pick-and-mutate sequence is atomic.
type bucket struct {
	mu     sync.Mutex
	creds  []*Credential
	cursor int
}

// Pool owns all credential buckets. It is safe for concurrent use; each
// bucket carries its own lock so selections against different (provider,
// model) pairs do not contend.
type Pool struct {
	mu      sync.RWMutex
	buckets map[bucketKey]*bucket
	config  PoolConfig
}

// NewPool creates an empty credential pool.
func NewPool(config PoolConfig) *Pool {
	return &Pool{
		buckets: make(map[bucketKey]*bucket),
		config:  config,
	}
}

// Add appends a credential to its (provider, model) bucket, creating the
// bucket if it does not exist. Duplicate IDs are appended as-is: the pool
// does not interpret IDs, and registering the same credential twice gives
// it double weight under rotation. ID uniqueness is a bookkeeping concern
// of the surfaces that feed the pool (the config validator and the router
// facade enforce it there so config hot reloads stay idempotent).
func (p *Pool) Add(cred *Credential) {
	key := bucketKey{provider: cred.Provider, model: cred.Model}

	p.mu.Lock()
	b, ok := p.buckets[key]
	if !ok {
		b = &bucket{}
		p.buckets[key] = b
	}
	p.mu.Unlock()

	b.mu.Lock()
	b.creds = append(b.creds, cred)
	b.mu.Unlock()
}

// Select picks one credential from the (provider, model) bucket using the
// given strategy. On success the credential's usage counter is incremented
// and its last-used time stamped; both happen atomically with the pick so
// concurrent selections never lose an update.
//
// Returns a NoCredentialAvailableError if the bucket is missing, empty, or
// (with ExcludeCooling enabled) every credential is inside its cooldown
// window.
func (p *Pool) Select(provider, model string, strategy Strategy) (*Credential, error) {
	p.mu.RLock()
	b, ok := p.buckets[bucketKey{provider: provider, model: model}]
	p.mu.RUnlock()

	if !ok {
		return nil, &NoCredentialAvailableError{Provider: provider, Model: model}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.creds) == 0 {
		return nil, &NoCredentialAvailableError{Provider: provider, Model: model}
	}

	eligible := b.creds
	if p.config.ExcludeCooling {
		now := time.Now()
		eligible = make([]*Credential, 0, len(b.creds))
		for _, c := range b.creds {
			if !c.CoolingDown(now) {
				eligible = append(eligible, c)
			}
		}
		if len(eligible) == 0 {
			return nil, &NoCredentialAvailableError{
				Provider:    provider,
				Model:       model,
				CoolingDown: len(b.creds),
			}
		}
	}

	index, next, err := strategy.Pick(eligible, b.cursor)
	if err != nil {
		return nil, err
	}

	cred := eligible[index]
	cred.UsageCount++
	cred.LastUsedAt = time.Now()
	b.cursor = next

	return cred, nil
}

// MarkRateLimited sets the credential's cooldown window to end at the given
// time. The update is made under the owning bucket's lock.
func (p *Pool) MarkRateLimited(cred *Credential, until time.Time) {
	p.mu.RLock()
	b, ok := p.buckets[bucketKey{provider: cred.Provider, model: cred.Model}]
	p.mu.RUnlock()

	if !ok {
		cred.RateLimitResetAt = until
		return
	}

	b.mu.Lock()
	cred.RateLimitResetAt = until
	b.mu.Unlock()
}

// Snapshot returns a read-only view of every bucket, sorted by provider and
// model for stable output. Secret handles are never included.
func (p *Pool) Snapshot() []BucketSnapshot {
	p.mu.RLock()
	keys := make([]bucketKey, 0, len(p.buckets))
	for key := range p.buckets {
		keys = append(keys, key)
	}
	p.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].provider != keys[j].provider {
			return keys[i].provider < keys[j].provider
		}
		return keys[i].model < keys[j].model
	})

	snapshots := make([]BucketSnapshot, 0, len(keys))
	for _, key := range keys {
		p.mu.RLock()
		b := p.buckets[key]
		p.mu.RUnlock()

		b.mu.Lock()
		views := make([]CredentialView, len(b.creds))
		for i, c := range b.creds {
			views[i] = CredentialView{
				ID:               c.ID,
				UsageCount:       c.UsageCount,
				LastUsedAt:       c.LastUsedAt,
				RateLimitResetAt: c.RateLimitResetAt,
			}
		}
		snapshot := BucketSnapshot{
			Provider:    key.provider,
			Model:       key.model,
			Cursor:      b.cursor,
			Credentials: views,
		}
		b.mu.Unlock()

		snapshots = append(snapshots, snapshot)
	}

	return snapshots
}
