package providers

import (
	"context"

	"mercator-hq/ganymede/pkg/compression"
	"mercator-hq/ganymede/pkg/credentials"
)

// Invoker is the external provider collaborator. The routing core calls it
// with a selected credential and an already-compressed message history and
// treats everything behind it as opaque.
//
// Implementations must be safe for concurrent use; the dispatcher invokes
// them from many request flows over the same instance. Implementations
// should honor ctx cancellation and deadlines.
type Invoker interface {
	// Invoke performs one provider call. On success it returns the
	// completion content and, when the provider reports one, a token count.
	// On failure it returns an error whose text may carry a rate-limit
	// indicator.
	Invoke(ctx context.Context, cred *credentials.Credential, messages []compression.Message) (*InvokeResult, error)
}

// InvokeResult is the successful outcome of a provider invocation.
type InvokeResult struct {
	// Content is the completion text returned by the provider.
	Content string

	// TokenCount is the total token usage reported by the provider.
	// Zero or negative means the provider did not report usage; callers
	// fall back to their own estimate.
	TokenCount int
}

// InvokerFunc adapts a function to the Invoker interface.
type InvokerFunc func(ctx context.Context, cred *credentials.Credential, messages []compression.Message) (*InvokeResult, error)

// Invoke calls f.
func (f InvokerFunc) Invoke(ctx context.Context, cred *credentials.Credential, messages []compression.Message) (*InvokeResult, error) {
	return f(ctx, cred, messages)
}
