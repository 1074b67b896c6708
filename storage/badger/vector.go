// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/medrecall/core"
	"github.com/poiesic/medrecall/storage"
)

// VectorRepository implements storage.VectorRepository for BadgerDB.
//
// Vectors are normalized to unit length on write, so the dot product at
// query time is the cosine similarity. Similarity search is a linear scan
// over the subject's key prefix; per-subject collections are small enough
// that an approximate index would add state without benefit.
type VectorRepository struct {
	backend *Backend
}

var _ storage.VectorRepository = (*VectorRepository)(nil)

// NewVectorRepository creates a new VectorRepository.
func NewVectorRepository(backend *Backend) (*VectorRepository, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend required")
	}
	return &VectorRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns the database lifecycle.
func (r *VectorRepository) Close() error {
	return nil
}

// Upsert stores records by unit ID, replacing prior entries.
func (r *VectorRepository) Upsert(ctx context.Context, records ...*core.VectorRecord) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			if err := core.ValidateVectorRecord(record); err != nil {
				return err
			}

			stored := *record
			stored.Vector = normalizeVector(record.Vector)

			key := makeVectorKey(stored.Unit.SubjectID, stored.Unit.ID)
			if err := tx.Set(key, storage.MarshalVectorRecord(&stored)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Get retrieves a single record by subject and unit ID.
func (r *VectorRepository) Get(ctx context.Context, subjectID, id string) (*core.VectorRecord, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	var record *core.VectorRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeVectorKey(subjectID, id))
		if err == badger.ErrKeyNotFound {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			record, err = storage.UnmarshalVectorRecord(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Delete removes records by subject and unit IDs. Missing IDs are ignored.
func (r *VectorRepository) Delete(ctx context.Context, subjectID string, ids ...string) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			if err := tx.Delete(makeVectorKey(subjectID, id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Query finds the subject's most similar records by cosine similarity.
// Iteration order over badger keys is deterministic, so equal scores keep a
// stable relative order across runs.
func (r *VectorRepository) Query(ctx context.Context, vector []float32, subjectID string, limit int) ([]*core.SearchResult, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	if len(vector) == 0 || limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	query := normalizeVector(vector)

	var results []*core.SearchResult
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeSubjectPrefix(subjectID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record *core.VectorRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalVectorRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if record == nil || len(record.Vector) == 0 {
				continue
			}

			if len(record.Vector) != len(query) {
				return fmt.Errorf("%w: index dimension %d, query dimension %d",
					storage.ErrDimensionMismatch, len(record.Vector), len(query))
			}

			results = append(results, &core.SearchResult{
				Unit:  &record.Unit,
				Score: dotProduct(query, record.Vector),
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Stable sort keeps store order for equal scores
	slices.SortStableFunc(results, func(a, b *core.SearchResult) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Count returns the number of records for the subject, or all records when
// subjectID is empty.
func (r *VectorRepository) Count(ctx context.Context, subjectID string) (int, error) {
	if r.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}

	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeSubjectPrefix(subjectID)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// normalizeVector normalizes a vector to unit length.
// Returns a new vector. If the input is a zero vector, returns a zero vector.
func normalizeVector(v []float32) []float32 {
	var magnitude float64
	for _, val := range v {
		magnitude += float64(val) * float64(val)
	}
	magnitude = math.Sqrt(magnitude)

	result := make([]float32, len(v))
	if magnitude == 0 {
		return result
	}
	for i, val := range v {
		result[i] = float32(float64(val) / magnitude)
	}
	return result
}

// dotProduct calculates the dot product of two equal-length vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
