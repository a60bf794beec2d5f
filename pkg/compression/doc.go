// Package compression shrinks over-long conversation histories to fit a
// token budget before they are sent to a provider.
//
// Token counts are estimated with a fixed characters-per-token ratio, not a
// real tokenizer. The estimate is cheap and approximate; it exists to budget
// context size, not to bill usage.
//
// Three strategies are available:
//
//   - truncate: keep only a fixed-size suffix of the history.
//   - summarize: keep the leading system message, collapse the middle of
//     the conversation into one synthetic system message, and keep the last
//     three messages verbatim.
//   - hybrid: summarize when the history is far over budget, truncate
//     otherwise.
//
// A history that already fits the budget passes through unchanged. The
// output's token estimate is always recomputed from the final message set.
package compression
