// Package usage accumulates per-(provider, model) request counters from
// every routing outcome.
//
// Counters are monotonic: they are incremented on each recorded outcome and
// never reset by normal operation. Token usage is summed from successful
// requests only. Rate-limit hits are classified by a substring match on the
// failure's error text, not by a structured error code.
//
// The optional journal subpackage persists individual outcome records;
// this package holds only in-memory aggregates.
package usage
