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

import "errors"

// Domain validation errors
var (
	// ErrInvalidTextUnit indicates a TextUnit failed validation.
	ErrInvalidTextUnit = errors.New("invalid text unit")

	// ErrInvalidVectorRecord indicates a VectorRecord failed validation.
	ErrInvalidVectorRecord = errors.New("invalid vector record")

	// ErrEmptyUnitID indicates the ID field is empty.
	ErrEmptyUnitID = errors.New("unit id cannot be empty")

	// ErrEmptyText indicates the Text field is empty.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrEmptySubjectID indicates the SubjectID field is empty.
	ErrEmptySubjectID = errors.New("subject id cannot be empty")

	// ErrEmptyVector indicates the embedding vector is empty.
	ErrEmptyVector = errors.New("vector cannot be empty")
)
