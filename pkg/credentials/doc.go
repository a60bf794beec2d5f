// Package credentials implements pooling and rotation of provider
// credentials.
//
// Credentials are grouped into buckets keyed by (provider, model). Each
// bucket holds an ordered list of credentials and an independent rotation
// cursor. Buckets are created lazily on first registration and are never
// removed.
//
// # Selection
//
// A Strategy picks one credential from a bucket. The pool applies the
// strategy, increments the credential's usage counter, and stamps its
// last-used time as a single atomic unit under the bucket's lock, so
// concurrent callers never observe a stale cursor or lose a usage update.
//
// # Usage
//
//	pool := credentials.NewPool(credentials.PoolConfig{})
//	pool.Add(&credentials.Credential{
//	    ID:        "cred-1",
//	    Provider:  "openai",
//	    Model:     "gpt-4",
//	    SecretRef: "env:OPENAI_KEY_1",
//	})
//
//	cred, err := pool.Select("openai", "gpt-4", strategies.NewRoundRobin())
//	if err != nil {
//	    // No credential registered for this (provider, model) pair.
//	}
package credentials
