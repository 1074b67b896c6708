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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorRecordMUSRoundTrip(t *testing.T) {
	record := VectorRecord{
		Unit: TextUnit{
			ID:           "pat-1_observation_o1",
			Text:         "Observation: Body Weight\nValue: 72.5 kg\nDate: 2024-02-01",
			SubjectID:    "pat-1",
			ResourceKind: KindObservation,
			ResourceID:   "o1",
			IndexedAt:    time.Date(2026, 3, 1, 12, 30, 45, 123456000, time.UTC),
		},
		Vector: []float32{0.25, -0.5, 0.75},
	}

	buf := make([]byte, VectorRecordMUS.Size(record))
	n := VectorRecordMUS.Marshal(record, buf)
	assert.Equal(t, len(buf), n)

	decoded, read, err := VectorRecordMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, n, read)
	assert.Equal(t, record, decoded)
}

func TestTextUnitMUSZeroTimestamp(t *testing.T) {
	unit := TextUnit{
		ID:        "pat-1_patient_pat-1",
		Text:      "Patient: Jane Doe",
		SubjectID: "pat-1",
	}

	buf := make([]byte, TextUnitMUS.Size(unit))
	TextUnitMUS.Marshal(unit, buf)

	decoded, _, err := TextUnitMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, unit.ID, decoded.ID)
	assert.Equal(t, unit.Text, decoded.Text)
	assert.Equal(t, unit.IndexedAt.UnixMicro(), decoded.IndexedAt.UnixMicro())
}

func TestVectorRecordMUSTruncatedInput(t *testing.T) {
	record := VectorRecord{
		Unit:   TextUnit{ID: "id", Text: "text", SubjectID: "s"},
		Vector: []float32{1, 2, 3},
	}
	buf := make([]byte, VectorRecordMUS.Size(record))
	VectorRecordMUS.Marshal(record, buf)

	_, _, err := VectorRecordMUS.Unmarshal(buf[:len(buf)/2])
	assert.Error(t, err)
}
