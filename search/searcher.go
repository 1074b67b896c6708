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
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/medrecall/ai"
	"github.com/poiesic/medrecall/core"
	"github.com/poiesic/medrecall/storage"
)

// DefaultTopN is the number of results returned when the caller does not ask
// for a specific count.
const DefaultTopN = 5

// Searcher provides semantic search over a subject's indexed records.
type Searcher struct {
	vectors  storage.VectorRepository
	embedder ai.Embedder
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(vectors storage.VectorRepository, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if vectors == nil {
		return nil, ErrVectorRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		vectors:  vectors,
		embedder: embedder,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search embeds the query and returns up to topN of the subject's records
// ranked by similarity. topN <= 0 uses DefaultTopN. An empty result set is
// not an error. Only records indexed for the given subject are considered.
func (s *Searcher) Search(ctx context.Context, query, subjectID string, topN int) ([]*core.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if topN <= 0 {
		topN = DefaultTopN
	}

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	results, err := s.vectors.Query(ctx, embedding, subjectID, topN)
	if err != nil {
		s.logger.Error("error querying for similar records", "err", err)
		return nil, err
	}

	s.logger.Debug("search complete", "subject", subjectID, "hits", len(results))
	return results, nil
}
