package dispatch

import (
	"errors"
	"fmt"
)

// Common dispatch errors that can be checked with errors.Is().
var (
	// ErrRetryBudgetExhausted is returned when every attempt was consumed
	// by rate-limited invocations.
	ErrRetryBudgetExhausted = errors.New("retry budget exhausted")
)

// RetryBudgetExhaustedError is the terminal failure after all attempts hit
// rate limits. It carries the last provider error so the outcome still
// classifies as a rate limit.
type RetryBudgetExhaustedError struct {
	// Attempts is the total number of invocations made.
	Attempts int

	// LastError is the error from the final attempt.
	LastError error
}

// Error implements the error interface.
func (e *RetryBudgetExhaustedError) Error() string {
	return fmt.Sprintf("retry budget exhausted after %d attempts: %v", e.Attempts, e.LastError)
}

// Is implements error matching for errors.Is().
func (e *RetryBudgetExhaustedError) Is(target error) bool {
	return target == ErrRetryBudgetExhausted
}

// Unwrap returns the wrapped error for error chain traversal.
func (e *RetryBudgetExhaustedError) Unwrap() error {
	return e.LastError
}
