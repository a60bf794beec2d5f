package credentials

// Strategy is the interface all rotation strategies implement. It defines
// the contract for picking one credential out of a bucket.
//
// The interface lives in this package rather than in the strategies
// subpackage so that the pool can depend on it without importing its own
// implementations.
//
// Implementations must be stateless and therefore trivially thread-safe:
// all rotation state (the cursor) is owned by the bucket and passed in by
// the pool, which calls Pick under the bucket's lock.
type Strategy interface {
	// Pick selects an index into creds. The slice is never empty and is
	// ordered by registration.
	//
	// cursor is the bucket's current rotation cursor. Pick returns the
	// selected index and the cursor value the bucket should store for the
	// next selection; strategies that do not rotate return the cursor
	// unchanged.
	Pick(creds []*Credential, cursor int) (index int, next int, err error)

	// Name returns the strategy name for logging and diagnostics.
	// Examples: "round-robin", "least-used", "random".
	Name() string
}
