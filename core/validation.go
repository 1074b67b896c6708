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

import "fmt"

// ValidateTextUnit validates a TextUnit according to domain rules.
//
// Validation rules:
//   - ID must not be empty
//   - Text must not be empty
//   - SubjectID must not be empty
//
// NOT validated:
//   - IndexedAt (the zero value is allowed for units built in tests)
//   - ResourceID (the document builder substitutes a positional fallback
//     when the source lacks one, so it is never empty in practice)
func ValidateTextUnit(unit *TextUnit) error {
	if unit == nil {
		return fmt.Errorf("%w: unit is nil", ErrInvalidTextUnit)
	}

	if unit.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTextUnit, ErrEmptyUnitID)
	}

	if unit.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTextUnit, ErrEmptyText)
	}

	if unit.SubjectID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTextUnit, ErrEmptySubjectID)
	}

	return nil
}

// ValidateVectorRecord validates a VectorRecord according to domain rules.
//
// Validation rules:
//   - the embedded TextUnit must be valid
//   - Vector must not be empty
func ValidateVectorRecord(record *VectorRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidVectorRecord)
	}

	if err := ValidateTextUnit(&record.Unit); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidVectorRecord, err)
	}

	if len(record.Vector) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidVectorRecord, ErrEmptyVector)
	}

	return nil
}
