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

import "errors"

var (
	// ErrSourceRequired is returned when a pipeline is created without a
	// record source.
	ErrSourceRequired = errors.New("record source is required")

	// ErrVectorRepositoryRequired is returned when a pipeline is created
	// without a vector repository.
	ErrVectorRepositoryRequired = errors.New("vector repository is required")

	// ErrEmbedderRequired is returned when a pipeline is created without an
	// embedder.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrInvalidMaxAttempts is returned when retry is configured with a
	// non-positive attempt count.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrNilBundle is returned when a record source produces a nil bundle
	// without an error.
	ErrNilBundle = errors.New("record source returned nil bundle")
)
