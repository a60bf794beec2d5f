// Package providers defines the contract between the routing core and
// external LLM providers, plus an HTTP implementation of it.
//
// The routing core treats a provider invocation as opaque: it hands over a
// credential and a compressed message history, and receives either content
// with an optional token count or an error. Rate limiting is surfaced
// through the error text, which the dispatcher classifies by substring.
//
// # Usage
//
//	invoker := providers.NewHTTPInvoker(cfg.Providers, nil)
//	result, err := invoker.Invoke(ctx, cred, compressed.Messages)
//	if err != nil {
//	    // May be a *RateLimitError, *TimeoutError, or *ProviderError.
//	}
package providers
