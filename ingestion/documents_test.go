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


package ingestion

import (
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/medrecall/core"
	"github.com/poiesic/medrecall/fhir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func concept(display string) *fhir.CodeableConcept {
	return &fhir.CodeableConcept{Coding: []fhir.Coding{{Display: display}}}
}

func TestDocumentBuilder_RendersPatient(t *testing.T) {
	builder := NewDocumentBuilder()
	bundle := &fhir.PatientBundle{
		SubjectID: "pat-1",
		Patient: &fhir.Patient{
			ID:        "pat-1",
			Name:      []fhir.HumanName{{Text: "Jane Doe"}},
			Gender:    "female",
			BirthDate: "1980-04-12",
		},
	}

	units := builder.Build(bundle, time.Now())
	require.Len(t, units, 1)
	assert.Equal(t, "pat-1_patient_pat-1", units[0].ID)
	assert.Equal(t, "Patient: Jane Doe\nGender: female\nBirth Date: 1980-04-12", units[0].Text)
	assert.Equal(t, core.KindPatient, units[0].ResourceKind)
}

func TestDocumentBuilder_MissingFieldsRenderPlaceholder(t *testing.T) {
	builder := NewDocumentBuilder()
	bundle := &fhir.PatientBundle{
		SubjectID:  "pat-1",
		Patient:    &fhir.Patient{ID: "pat-1"},
		Conditions: []fhir.Condition{{ID: "c1"}},
	}

	units := builder.Build(bundle, time.Now())
	require.Len(t, units, 2)
	assert.Equal(t, "Patient: Unknown\nGender: Unknown\nBirth Date: Unknown", units[0].Text)
	assert.Equal(t, "Condition: Unknown\nStatus: Unknown\nOnset Date: Unknown", units[1].Text)
}

func TestDocumentBuilder_CustomPlaceholder(t *testing.T) {
	builder := NewDocumentBuilder(WithPlaceholder("N/A"))
	bundle := &fhir.PatientBundle{
		SubjectID: "pat-1",
		Patient:   &fhir.Patient{ID: "pat-1"},
	}

	units := builder.Build(bundle, time.Now())
	require.Len(t, units, 1)
	assert.Equal(t, "Patient: N/A\nGender: N/A\nBirth Date: N/A", units[0].Text)
}

func TestDocumentBuilder_RendersCondition(t *testing.T) {
	builder := NewDocumentBuilder()
	bundle := &fhir.PatientBundle{
		SubjectID: "pat-1",
		Conditions: []fhir.Condition{{
			ID:             "c1",
			Code:           concept("Essential hypertension"),
			ClinicalStatus: &fhir.CodeableConcept{Text: "active"},
			OnsetDateTime:  "2019-06-01",
		}},
	}

	units := builder.Build(bundle, time.Now())
	require.Len(t, units, 1)
	assert.Equal(t, "pat-1_condition_c1", units[0].ID)
	assert.Equal(t, "Condition: Essential hypertension\nStatus: active\nOnset Date: 2019-06-01", units[0].Text)
}

func TestDocumentBuilder_RendersMedicationWithDosage(t *testing.T) {
	builder := NewDocumentBuilder()
	bundle := &fhir.PatientBundle{
		SubjectID: "pat-1",
		Medications: []fhir.MedicationRequest{{
			ID:                        "m1",
			MedicationCodeableConcept: concept("Lisinopril 10mg tablet"),
			Status:                    "active",
			AuthoredOn:                "2023-01-15",
			DosageInstruction:         []fhir.Dosage{{Text: "Take one tablet daily"}},
		}},
	}

	units := builder.Build(bundle, time.Now())
	require.Len(t, units, 1)
	assert.Equal(t,
		"Medication: Lisinopril 10mg tablet\nStatus: active\nAuthored Date: 2023-01-15\nDosage: Take one tablet daily",
		units[0].Text)
}

func TestDocumentBuilder_ObservationQuantityVsString(t *testing.T) {
	builder := NewDocumentBuilder()
	bundle := &fhir.PatientBundle{
		SubjectID: "pat-1",
		Observations: []fhir.Observation{
			{
				ID:                "o1",
				Code:              concept("Body Weight"),
				ValueQuantity:     &fhir.Quantity{Value: floatPtr(72.5), Unit: "kg"},
				EffectiveDateTime: "2024-02-01",
			},
			{
				ID:                "o2",
				Code:              concept("Blood type"),
				ValueString:       "O positive",
				EffectiveDateTime: "2024-02-01",
			},
			{
				ID:   "o3",
				Code: concept("Smoking status"),
			},
		},
	}

	units := builder.Build(bundle, time.Now())
	require.Len(t, units, 3)
	assert.Equal(t, "Observation: Body Weight\nValue: 72.5 kg\nDate: 2024-02-01", units[0].Text)
	assert.Equal(t, "Observation: Blood type\nValue: O positive\nDate: 2024-02-01", units[1].Text)
	assert.Equal(t, "Observation: Smoking status\nValue: Unknown\nDate: Unknown", units[2].Text)
}

func TestDocumentBuilder_DeterministicIDsAndOrder(t *testing.T) {
	builder := NewDocumentBuilder()

	observations := make([]fhir.Observation, 4)
	for i := range observations {
		observations[i] = fhir.Observation{ID: fmt.Sprintf("o%d", i)}
	}
	bundle := &fhir.PatientBundle{
		SubjectID:    "pat-9",
		Patient:      &fhir.Patient{ID: "pat-9"},
		Conditions:   []fhir.Condition{{ID: "c1"}, {ID: "c2"}},
		Medications:  []fhir.MedicationRequest{{ID: "m1"}},
		Observations: observations,
	}

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	units := builder.Build(bundle, at)
	require.Len(t, units, 8)

	wantIDs := []string{
		"pat-9_patient_pat-9",
		"pat-9_condition_c1",
		"pat-9_condition_c2",
		"pat-9_medication_m1",
		"pat-9_observation_o0",
		"pat-9_observation_o1",
		"pat-9_observation_o2",
		"pat-9_observation_o3",
	}
	seen := make(map[string]bool)
	for i, unit := range units {
		assert.Equal(t, wantIDs[i], unit.ID)
		assert.Equal(t, at, unit.IndexedAt)
		assert.False(t, seen[unit.ID], "duplicate unit id %s", unit.ID)
		seen[unit.ID] = true
	}

	// Same bundle renders identically
	again := builder.Build(bundle, at)
	require.Len(t, again, len(units))
	for i := range units {
		assert.Equal(t, units[i].ID, again[i].ID)
		assert.Equal(t, units[i].Text, again[i].Text)
	}
}

func TestDocumentBuilder_IDLessResourcesGetPositionalIDs(t *testing.T) {
	builder := NewDocumentBuilder()
	bundle := &fhir.PatientBundle{
		SubjectID: "pat-1",
		Patient:   &fhir.Patient{},
		Conditions: []fhir.Condition{
			{Code: concept("Essential hypertension")},
			{Code: concept("Type 2 diabetes")},
		},
		Medications:  []fhir.MedicationRequest{{}},
		Observations: []fhir.Observation{{}, {}},
	}

	units := builder.Build(bundle, time.Now())
	require.Len(t, units, 6)

	assert.NotEqual(t, units[1].ID, units[2].ID)
	assert.NotEqual(t, units[4].ID, units[5].ID)

	wantIDs := []string{
		"pat-1_patient_patient_0",
		"pat-1_condition_condition_0",
		"pat-1_condition_condition_1",
		"pat-1_medication_medication_0",
		"pat-1_observation_observation_0",
		"pat-1_observation_observation_1",
	}
	seen := make(map[string]bool)
	for i, unit := range units {
		assert.Equal(t, wantIDs[i], unit.ID)
		assert.NotEmpty(t, unit.ResourceID)
		assert.False(t, seen[unit.ID], "duplicate unit id %s", unit.ID)
		seen[unit.ID] = true
	}

	// Positional IDs are stable across rebuilds of the same bundle
	again := builder.Build(bundle, time.Now())
	require.Len(t, again, len(units))
	for i := range units {
		assert.Equal(t, units[i].ID, again[i].ID)
	}
}

func TestDocumentBuilder_NilBundle(t *testing.T) {
	assert.Nil(t, NewDocumentBuilder().Build(nil, time.Now()))
}
