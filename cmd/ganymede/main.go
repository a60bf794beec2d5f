// Ganymede is a request router for LLM providers.
//
// It routes chat requests across pooled credentials, providing:
//   - Per-(provider, model) credential pooling and rotation
//   - Approximate context compression before dispatch
//   - Bounded retry on rate limits with per-credential cooldown
//   - Per-provider usage metrics and an optional outcome journal
//
// Usage:
//
//	# Start the router with default configuration
//	ganymede run
//
//	# Start with custom configuration file
//	ganymede run --config /path/to/config.yaml
//
//	# Show version information
//	ganymede version
//
//	# Validate a configuration file
//	ganymede validate --config /path/to/config.yaml
package main

func main() {
	Execute()
}
