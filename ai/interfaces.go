package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity
// search. The embedding dimension is fixed per model; indexed vectors and
// query vectors must come from the same model. Implementations must be
// thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates embeddings for multiple texts in a batch. The
	// returned slice contains embeddings in the same order as the input.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Answerer generates an answer to a question grounded in retrieved record
// snippets. Implementations must be thread-safe for concurrent use.
type Answerer interface {
	// Answer produces a response to the question using only the provided
	// snippets as source material.
	Answer(ctx context.Context, question string, snippets []string) (string, error)
}

// Provider aggregates the AI services for convenient initialization and
// lifecycle management.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Answerer returns the grounded answer service.
	Answerer() Answerer

	// Close releases resources held by the provider and its services.
	Close() error
}
