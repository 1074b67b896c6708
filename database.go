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


// Package medrecall indexes a patient's clinical records for semantic
// retrieval. Records are fetched from a FHIR API, rendered into text units,
// embedded, and stored in a local vector index; queries retrieve a subject's
// most relevant records and can ground a generated answer.
package medrecall

import (
	"context"
	"log/slog"

	"github.com/poiesic/medrecall/ai"
	"github.com/poiesic/medrecall/ai/openai"
	"github.com/poiesic/medrecall/ingestion"
	"github.com/poiesic/medrecall/search"
	"github.com/poiesic/medrecall/storage"
	"github.com/poiesic/medrecall/storage/badger"
)

// Database ties together the vector store and the AI provider, and hands out
// ingestion pipelines and searchers built on them.
type Database struct {
	backend  *badger.Backend
	vectors  storage.VectorRepository
	provider ai.Provider
	logger   *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	provider ai.Provider
	inMemory bool
}

// WithAIConfig sets the AI provider configuration.
func WithAIConfig(cfg *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		if cfg != nil {
			o.aiConfig = cfg
		}
	}
}

// WithAIProvider injects a pre-built AI provider instead of constructing one
// from configuration. Tests use this with the mock provider.
func WithAIProvider(provider ai.Provider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithInMemoryStore keeps the vector store in memory instead of on disk.
func WithInMemoryStore() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// NewDatabase opens the vector store at filePath and initializes the AI
// provider.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	vectors, err := badger.NewVectorRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			vectors.Close()
			backend.Close()
			return nil, err
		}
	}

	return &Database{
		backend:  backend,
		vectors:  vectors,
		provider: provider,
		logger:   slog.Default(),
	}, nil
}

// Close releases the AI provider and the underlying store.
func (db *Database) Close() error {
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}
	if err := db.vectors.Close(); err != nil {
		db.logger.Error("error closing vector repository", "err", err)
		return err
	}
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// VectorRepository exposes the vector store.
func (db *Database) VectorRepository() storage.VectorRepository {
	return db.vectors
}

// NewIngestionPipeline builds a pipeline that fetches bundles from source and
// indexes them into this database.
func (db *Database) NewIngestionPipeline(source ingestion.RecordSource, opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(source, db.vectors, db.provider.Embedder(), opts...)
}

// NewSearcher builds a searcher over this database's index.
func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(db.vectors, db.provider.Embedder(), opts...)
}

// Ask retrieves the subject's topN most relevant records for the question and
// generates an answer grounded in them.
func (db *Database) Ask(ctx context.Context, question, subjectID string, topN int) (string, error) {
	searcher, err := db.NewSearcher()
	if err != nil {
		return "", err
	}

	results, err := searcher.Search(ctx, question, subjectID, topN)
	if err != nil {
		return "", err
	}

	return db.provider.Answerer().Answer(ctx, question, search.Snippets(results))
}

// Count reports how many records are indexed for the subject, or in total
// when subjectID is empty.
func (db *Database) Count(ctx context.Context, subjectID string) (int, error) {
	return db.vectors.Count(ctx, subjectID)
}
