package aiclient

import (
	"context"
	"fmt"
	"sync"
)

// A fake provider client, for use in tests. Responses are consumed in order;
// the last one repeats once the script runs out.
type MockClient struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	requests  []GenerateRequest
}

var _ Client = (*MockClient)(nil)

func NewMockClient(responses ...string) *MockClient {
	return &MockClient{Responses: responses}
}

func (m *MockClient) Generate(ctx context.Context, req *GenerateRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, *req)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", &Error{Provider: "mock", Wrapped: fmt.Errorf("%w: no scripted response", ErrInvalidResponse)}
	}
	out := m.Responses[0]
	if len(m.Responses) > 1 {
		m.Responses = m.Responses[1:]
	}
	return out, nil
}

// FailWith makes all subsequent Generate calls return err.
func (m *MockClient) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}

// Requests returns a copy of every request seen so far.
func (m *MockClient) Requests() []GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]GenerateRequest, len(m.requests))
	copy(out, m.requests)
	return out
}
