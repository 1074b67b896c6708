package mock

import "github.com/poiesic/medrecall/ai"

// MockProvider is a test double for ai.Provider aggregating the mock
// services.
type MockProvider struct {
	embedder *MockEmbedder
	answerer *MockAnswerer
}

// NewMockProvider creates a provider backed by mock services.
//
// Returns ai.Provider since it's the primary entry point; use
// GetMockEmbedder/GetMockAnswerer for assertions on the concrete types.
func NewMockProvider() ai.Provider {
	return &MockProvider{
		embedder: NewMockEmbedder(),
		answerer: NewMockAnswerer(),
	}
}

// Embedder returns the mock embedding service.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Answerer returns the mock answer service.
func (p *MockProvider) Answerer() ai.Answerer {
	return p.answerer
}

// Close is a no-op.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the concrete mock embedder for test assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockAnswerer returns the concrete mock answerer for test assertions.
func (p *MockProvider) GetMockAnswerer() *MockAnswerer {
	return p.answerer
}
