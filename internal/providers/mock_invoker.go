// Package providers contains test doubles for the provider invoker.
package providers

import (
	"context"
	"sync"

	"mercator-hq/ganymede/pkg/compression"
	"mercator-hq/ganymede/pkg/credentials"
	"mercator-hq/ganymede/pkg/providers"
)

// MockInvoker is a scriptable Invoker for tests. Responses are consumed in
// order; the last response repeats once the script is exhausted.
type MockInvoker struct {
	mu        sync.Mutex
	responses []MockResponse
	calls     []MockCall
}

// MockResponse is one scripted invocation outcome.
type MockResponse struct {
	Result *providers.InvokeResult
	Err    error
}

// MockCall records the arguments of one invocation.
type MockCall struct {
	CredentialID string
	Messages     []compression.Message
}

// NewMockInvoker creates a mock that replays the given responses in order.
func NewMockInvoker(responses ...MockResponse) *MockInvoker {
	return &MockInvoker{responses: responses}
}

// Invoke pops the next scripted response and records the call.
func (m *MockInvoker) Invoke(_ context.Context, cred *credentials.Credential, messages []compression.Message) (*providers.InvokeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, MockCall{
		CredentialID: cred.ID,
		Messages:     messages,
	})

	if len(m.responses) == 0 {
		return &providers.InvokeResult{Content: "ok"}, nil
	}

	resp := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return resp.Result, resp.Err
}

// Calls returns a copy of the recorded invocations.
func (m *MockInvoker) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

// CallCount returns how many invocations were made.
func (m *MockInvoker) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
