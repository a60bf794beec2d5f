// Package journal persists individual routing outcomes for offline
// analysis.
//
// The journal is optional and sits beside the in-memory usage collector:
// the collector answers "how many", the journal answers "which ones".
// Outcomes are written asynchronously through a buffered channel so that
// recording never blocks a request flow; when the buffer is full, records
// are dropped and counted rather than applying backpressure.
//
// Two storage backends are provided: SQLite for persistence across
// restarts and an in-memory store for tests and ephemeral deployments.
// A cron-scheduled pruner enforces the retention window.
package journal
