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


package storage

import (
	"testing"
	"time"

	"github.com/poiesic/medrecall/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorRecordSerializationRoundTrip(t *testing.T) {
	record := &core.VectorRecord{
		Unit: core.TextUnit{
			ID:           "pat-1_condition_c1",
			Text:         "Condition: Hypertension",
			SubjectID:    "pat-1",
			ResourceKind: core.KindCondition,
			ResourceID:   "c1",
			IndexedAt:    time.Date(2026, 5, 2, 8, 0, 0, 0, time.UTC),
		},
		Vector: []float32{0.1, 0.2, 0.3},
	}

	decoded, err := UnmarshalVectorRecord(MarshalVectorRecord(record))
	require.NoError(t, err)
	assert.Equal(t, record, decoded)
}

func TestUnmarshalVectorRecordCorruptInput(t *testing.T) {
	_, err := UnmarshalVectorRecord([]byte{0xff, 0x01})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestUnmarshalTextUnitCorruptInput(t *testing.T) {
	_, err := UnmarshalTextUnit([]byte{0xff})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}
