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


package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validUnit() TextUnit {
	return TextUnit{
		ID:           UnitID("pat-1", KindCondition, "c1"),
		Text:         "Condition: Hypertension",
		SubjectID:    "pat-1",
		ResourceKind: KindCondition,
		ResourceID:   "c1",
	}
}

func TestUnitID(t *testing.T) {
	assert.Equal(t, "pat-1_patient_pat-1", UnitID("pat-1", KindPatient, "pat-1"))
	assert.Equal(t, "pat-1_condition_c1", UnitID("pat-1", KindCondition, "c1"))
	assert.Equal(t, "pat-1_medication_m1", UnitID("pat-1", KindMedication, "m1"))
	assert.Equal(t, "pat-1_observation_o1", UnitID("pat-1", KindObservation, "o1"))
	assert.Equal(t, "pat-1_resource_x1", UnitID("pat-1", ResourceKind("Other"), "x1"))
}

func TestValidateTextUnit(t *testing.T) {
	unit := validUnit()
	assert.NoError(t, ValidateTextUnit(&unit))

	assert.ErrorIs(t, ValidateTextUnit(nil), ErrInvalidTextUnit)

	noID := validUnit()
	noID.ID = ""
	assert.ErrorIs(t, ValidateTextUnit(&noID), ErrEmptyUnitID)

	noText := validUnit()
	noText.Text = ""
	assert.ErrorIs(t, ValidateTextUnit(&noText), ErrEmptyText)

	noSubject := validUnit()
	noSubject.SubjectID = ""
	assert.ErrorIs(t, ValidateTextUnit(&noSubject), ErrEmptySubjectID)
}

func TestValidateVectorRecord(t *testing.T) {
	record := VectorRecord{Unit: validUnit(), Vector: []float32{0.1, 0.2}}
	assert.NoError(t, ValidateVectorRecord(&record))

	assert.ErrorIs(t, ValidateVectorRecord(nil), ErrInvalidVectorRecord)

	noVector := VectorRecord{Unit: validUnit()}
	err := ValidateVectorRecord(&noVector)
	assert.ErrorIs(t, err, ErrInvalidVectorRecord)
	assert.ErrorIs(t, err, ErrEmptyVector)

	badUnit := VectorRecord{Vector: []float32{0.1}}
	assert.ErrorIs(t, ValidateVectorRecord(&badUnit), ErrInvalidTextUnit)
}
