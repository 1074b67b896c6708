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


// Package ingestion turns a subject's fetched clinical records into indexed
// vector entries. A DocumentBuilder renders each resource into a text unit,
// and the Pipeline embeds the units in concurrent batches and upserts them
// into a vector repository. Unit IDs are deterministic, so re-running
// ingestion for a subject replaces prior entries instead of duplicating them.
package ingestion
