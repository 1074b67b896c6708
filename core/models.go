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
	"fmt"
	"time"
)

// ResourceKind labels the clinical record a text unit was derived from.
type ResourceKind string

const (
	KindPatient     ResourceKind = "Patient"
	KindCondition   ResourceKind = "Condition"
	KindMedication  ResourceKind = "MedicationRequest"
	KindObservation ResourceKind = "Observation"
)

// idSegments maps resource kinds to the lowercase segment used in unit IDs.
var idSegments = map[ResourceKind]string{
	KindPatient:     "patient",
	KindCondition:   "condition",
	KindMedication:  "medication",
	KindObservation: "observation",
}

// UnitID builds the deterministic identifier for a text unit. The same
// subject/kind/resource triple always yields the same ID, so re-indexing a
// resource replaces its prior entry instead of duplicating it.
func UnitID(subjectID string, kind ResourceKind, resourceID string) string {
	segment, ok := idSegments[kind]
	if !ok {
		segment = "resource"
	}
	return fmt.Sprintf("%s_%s_%s", subjectID, segment, resourceID)
}

// TextUnit is the normalized text representation of one clinical resource.
// It is the unit of embedding, storage, and retrieval.
type TextUnit struct {
	ID           string
	Text         string
	SubjectID    string
	ResourceKind ResourceKind
	ResourceID   string
	IndexedAt    time.Time // When the unit was prepared for indexing
}

// VectorRecord is a text unit together with its embedding, as persisted in
// the vector store. Records are never mutated in place; re-indexing the same
// ID overwrites the stored record.
type VectorRecord struct {
	Unit   TextUnit
	Vector []float32
}

// SearchResult is a retrieved text unit with its relevance score.
type SearchResult struct {
	Unit  *TextUnit
	Score float32
}
