package mock

import (
	"context"
	"fmt"
)

// MockAnswerer is a test double for ai.Answerer.
type MockAnswerer struct {
	// AnswerFunc is called by Answer if set.
	// If nil, uses default deterministic behavior.
	AnswerFunc func(ctx context.Context, question string, snippets []string) (string, error)

	callCount int
}

// NewMockAnswerer creates a mock answerer with default deterministic
// behavior. Note: Returns concrete type to allow test assertions.
func NewMockAnswerer() *MockAnswerer {
	return &MockAnswerer{}
}

// Answer returns a canned response describing its inputs.
func (m *MockAnswerer) Answer(ctx context.Context, question string, snippets []string) (string, error) {
	m.callCount++

	if m.AnswerFunc != nil {
		return m.AnswerFunc(ctx, question, snippets)
	}

	return fmt.Sprintf("mock answer to %q grounded in %d snippets", question, len(snippets)), nil
}

// CallCount returns the number of times Answer was called.
func (m *MockAnswerer) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockAnswerer) Reset() {
	m.callCount = 0
	m.AnswerFunc = nil
}
