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


package search

import (
	"context"
	"testing"

	"github.com/poiesic/medrecall/ai/mock"
	"github.com/poiesic/medrecall/core"
	"github.com/poiesic/medrecall/storage"
	"github.com/poiesic/medrecall/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSearcher(t *testing.T) (*Searcher, storage.VectorRepository, *mock.MockEmbedder) {
	t.Helper()
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})

	embedder := mock.NewMockEmbedder()
	searcher, err := NewSearcher(repo, embedder)
	require.NoError(t, err)
	return searcher, repo, embedder
}

// indexUnit stores a unit with a vector aligned to an axis so tests control
// ranking directly.
func indexUnit(t *testing.T, repo storage.VectorRepository, subjectID string, kind core.ResourceKind, resourceID, text string, vector []float32) {
	t.Helper()
	err := repo.Upsert(context.Background(), &core.VectorRecord{
		Unit: core.TextUnit{
			ID:           core.UnitID(subjectID, kind, resourceID),
			Text:         text,
			SubjectID:    subjectID,
			ResourceKind: kind,
			ResourceID:   resourceID,
		},
		Vector: vector,
	})
	require.NoError(t, err)
}

func TestSearcher_MedicationRanksFirstForMedicationQuery(t *testing.T) {
	searcher, repo, embedder := newTestSearcher(t)

	// Query vector points along the first axis; the medication document is
	// the only one aligned with it.
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}

	indexUnit(t, repo, "pat-1", core.KindMedication, "m1",
		"Medication: Lisinopril 10mg tablet\nStatus: active", []float32{0.9, 0.1, 0})
	indexUnit(t, repo, "pat-1", core.KindCondition, "c1",
		"Condition: Essential hypertension", []float32{0, 1, 0})
	indexUnit(t, repo, "pat-1", core.KindObservation, "o1",
		"Observation: Body Weight", []float32{0, 0.8, 0.2})
	indexUnit(t, repo, "pat-1", core.KindObservation, "o2",
		"Observation: Heart rate", []float32{0, 0.2, 0.8})
	indexUnit(t, repo, "pat-1", core.KindPatient, "pat-1",
		"Patient: Jane Doe", []float32{0, 0.5, 0.5})

	results, err := searcher.Search(context.Background(), "What medications is the patient on?", "pat-1", 5)
	require.NoError(t, err)
	require.Len(t, results, 5)
	assert.Equal(t, core.KindMedication, results[0].Unit.ResourceKind)
}

func TestSearcher_SubjectIsolation(t *testing.T) {
	searcher, repo, _ := newTestSearcher(t)

	indexUnit(t, repo, "pat-1", core.KindCondition, "c1",
		"Condition: Asthma", mock.DeterministicVector("asthma", mock.DefaultDimension))
	indexUnit(t, repo, "pat-2", core.KindCondition, "c1",
		"Condition: Diabetes", mock.DeterministicVector("diabetes", mock.DefaultDimension))

	results, err := searcher.Search(context.Background(), "conditions", "pat-1", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, result := range results {
		assert.Equal(t, "pat-1", result.Unit.SubjectID)
	}
}

func TestSearcher_EmptyStoreReturnsNoResults(t *testing.T) {
	searcher, _, _ := newTestSearcher(t)

	results, err := searcher.Search(context.Background(), "anything", "pat-1", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearcher_EmptyQueryRejected(t *testing.T) {
	searcher, _, _ := newTestSearcher(t)

	_, err := searcher.Search(context.Background(), "  ", "pat-1", 5)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestSearcher_DefaultTopN(t *testing.T) {
	searcher, repo, _ := newTestSearcher(t)

	for i := 0; i < 8; i++ {
		indexUnit(t, repo, "pat-1", core.KindObservation, string(rune('a'+i)),
			"Observation: item", mock.DeterministicVector("item", mock.DefaultDimension))
	}

	results, err := searcher.Search(context.Background(), "items", "pat-1", 0)
	require.NoError(t, err)
	assert.Len(t, results, DefaultTopN)
}

func TestSnippetsAndFormatContext(t *testing.T) {
	results := []*core.SearchResult{
		{Unit: &core.TextUnit{ResourceKind: core.KindMedication, Text: "Medication: Lisinopril"}},
		{Unit: &core.TextUnit{ResourceKind: core.KindCondition, Text: "Condition: Hypertension"}},
		nil,
	}

	snippets := Snippets(results)
	require.Len(t, snippets, 2)
	assert.Equal(t, "[MedicationRequest]\nMedication: Lisinopril", snippets[0])

	formatted := FormatContext(results)
	assert.Equal(t,
		"[MedicationRequest]\nMedication: Lisinopril\n\n[Condition]\nCondition: Hypertension",
		formatted)
}
