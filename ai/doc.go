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


// Package ai provides abstractions for the AI services used in medrecall.
//
// Two operations are abstracted: text embedding (the backbone of indexing
// and retrieval) and grounded answer generation (turning retrieved record
// snippets into an answer). The ingestion pipeline and searcher depend only
// on these interfaces, never on a concrete provider.
//
// Implementation packages:
//
//   - ai/openai: production implementation for OpenAI-compatible APIs
//   - ai/mock: deterministic test doubles with no external dependencies
//
// Public constructors in ai/openai return the interface types so callers
// cannot couple to provider internals; mock constructors return concrete
// types so tests can inject behavior and make assertions.
package ai
