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


package search

import (
	"fmt"
	"strings"

	"github.com/poiesic/medrecall/core"
)

// Snippets renders search results as labeled text blocks suitable for
// grounding an answer. Each block is "[{kind}]" followed by the unit text.
func Snippets(results []*core.SearchResult) []string {
	snippets := make([]string, 0, len(results))
	for _, result := range results {
		if result == nil || result.Unit == nil {
			continue
		}
		snippets = append(snippets,
			fmt.Sprintf("[%s]\n%s", result.Unit.ResourceKind, result.Unit.Text))
	}
	return snippets
}

// FormatContext joins result snippets into a single context block.
func FormatContext(results []*core.SearchResult) string {
	return strings.Join(Snippets(results), "\n\n")
}
