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


package medrecall

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/medrecall/ai/mock"
	"github.com/poiesic/medrecall/fhir"
	"github.com/poiesic/medrecall/ingestion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSource struct {
	bundle *fhir.PatientBundle
}

func (s *fixedSource) FetchBundle(ctx context.Context, subjectID string) (*fhir.PatientBundle, error) {
	if s.bundle == nil || s.bundle.SubjectID != subjectID {
		return nil, fmt.Errorf("unknown subject %s", subjectID)
	}
	return s.bundle, nil
}

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase("", WithInMemoryStore(), WithAIProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDatabase_IngestAndSearch(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	source := &fixedSource{bundle: &fhir.PatientBundle{
		SubjectID: "pat-1",
		Patient:   &fhir.Patient{ID: "pat-1", Gender: "female"},
		Conditions: []fhir.Condition{{
			ID:   "c1",
			Code: &fhir.CodeableConcept{Text: "Essential hypertension"},
		}},
		Medications: []fhir.MedicationRequest{{
			ID:                        "m1",
			MedicationCodeableConcept: &fhir.CodeableConcept{Text: "Lisinopril 10mg"},
			Status:                    "active",
		}},
	}}

	pipeline, err := db.NewIngestionPipeline(source,
		ingestion.WithPoolSize(1), ingestion.WithRetry(1, time.Millisecond))
	require.NoError(t, err)
	defer pipeline.Release()

	report, err := pipeline.IngestSubject(ctx, "pat-1")
	require.NoError(t, err)
	assert.Equal(t, 3, report.Indexed)

	count, err := db.Count(ctx, "pat-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	searcher, err := db.NewSearcher()
	require.NoError(t, err)
	results, err := searcher.Search(ctx, "blood pressure medication", "pat-1", 3)
	require.NoError(t, err)
	assert.Len(t, results, 3)
	for _, result := range results {
		assert.Equal(t, "pat-1", result.Unit.SubjectID)
	}
}

func TestDatabase_AskGroundsAnswerInResults(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)
	db, err := NewDatabase("", WithInMemoryStore(), WithAIProvider(provider))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()

	source := &fixedSource{bundle: &fhir.PatientBundle{
		SubjectID: "pat-1",
		Medications: []fhir.MedicationRequest{{
			ID:                        "m1",
			MedicationCodeableConcept: &fhir.CodeableConcept{Text: "Metformin 500mg"},
		}},
	}}
	pipeline, err := db.NewIngestionPipeline(source,
		ingestion.WithPoolSize(1), ingestion.WithRetry(1, time.Millisecond))
	require.NoError(t, err)
	defer pipeline.Release()

	_, err = pipeline.IngestSubject(ctx, "pat-1")
	require.NoError(t, err)

	var grounded []string
	provider.GetMockAnswerer().AnswerFunc = func(ctx context.Context, question string, snippets []string) (string, error) {
		grounded = snippets
		return "the patient takes metformin", nil
	}

	answer, err := db.Ask(ctx, "What medications is the patient on?", "pat-1", 5)
	require.NoError(t, err)
	assert.Equal(t, "the patient takes metformin", answer)
	require.Len(t, grounded, 1)
	assert.Contains(t, grounded[0], "Metformin 500mg")
}
