package credentials

import (
	"errors"
	"fmt"
)

// Common credential pool errors that can be checked with errors.Is().
var (
	// ErrNoCredentialAvailable is returned when the requested bucket is
	// missing, empty, or fully excluded by cooling-down filtering.
	ErrNoCredentialAvailable = errors.New("no credential available")
)

// NoCredentialAvailableError is returned by Select when no credential can be
// picked for a (provider, model) pair.
type NoCredentialAvailableError struct {
	// Provider is the requested provider.
	Provider string

	// Model is the requested model.
	Model string

	// CoolingDown is the number of credentials excluded because they were
	// inside their rate-limit cooldown window. Zero when the bucket was
	// simply missing or empty.
	CoolingDown int
}

// Error implements the error interface.
func (e *NoCredentialAvailableError) Error() string {
	if e.CoolingDown > 0 {
		return fmt.Sprintf("no credential available for provider %q model %q (%d cooling down)",
			e.Provider, e.Model, e.CoolingDown)
	}
	return fmt.Sprintf("no credential available for provider %q model %q", e.Provider, e.Model)
}

// Is implements error matching for errors.Is().
func (e *NoCredentialAvailableError) Is(target error) bool {
	return target == ErrNoCredentialAvailable
}
