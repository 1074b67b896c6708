package storage

import (
	"context"

	"github.com/poiesic/medrecall/core"
)

// VectorRepository provides operations for managing embedded text units.
// Implementations must be thread-safe and support concurrent access.
type VectorRepository interface {
	// Upsert stores records by their unit IDs, replacing any prior record
	// with the same ID. Each replacement is atomic from a reader's
	// perspective: a query never sees two records for one logical unit.
	Upsert(ctx context.Context, records ...*core.VectorRecord) error

	// Get retrieves a single record by subject and unit ID.
	// Returns ErrNotFound if the record doesn't exist.
	Get(ctx context.Context, subjectID, id string) (*core.VectorRecord, error)

	// Delete removes records by subject and unit IDs.
	// Missing IDs are ignored.
	Delete(ctx context.Context, subjectID string, ids ...string) error

	// Query finds the text units most similar to the given vector, scoped
	// to one subject. Results are ordered by score descending, ties broken
	// by stable store order, at most limit entries. An empty result is not
	// an error. Returns ErrDimensionMismatch if the query vector's
	// dimension differs from the indexed vectors.
	Query(ctx context.Context, vector []float32, subjectID string, limit int) ([]*core.SearchResult, error)

	// Count returns the number of records stored for the subject, or for
	// the whole collection when subjectID is empty.
	Count(ctx context.Context, subjectID string) (int, error)

	// Close closes the repository and releases resources.
	Close() error
}
