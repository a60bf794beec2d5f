// Package dispatch orchestrates one logical routing request: compress the
// conversation history, select a credential, invoke the provider, and
// retry through rate limits within a bounded attempt budget.
//
// # Retry behavior
//
// A rate-limited invocation puts the credential on a fixed 60 second
// cooldown and, when fallback is enabled, consumes one attempt and loops
// back to credential selection. Selection reapplies the configured strategy
// over the whole bucket on every attempt; by default a just-rate-limited
// credential stays eligible and can be picked again immediately. Any
// non-rate-limit failure is terminal. An empty bucket is terminal with no
// retry.
//
// # Outcome contract
//
// Dispatch never returns an error: every outcome, including internal
// failures, is normalized into a Result. Each terminal outcome is recorded
// into the usage collector exactly once, and optionally into the journal
// and Prometheus metrics.
package dispatch
