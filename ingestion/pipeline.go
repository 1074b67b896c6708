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

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/medrecall/ai"
	"github.com/poiesic/medrecall/core"
	"github.com/poiesic/medrecall/fhir"
	"github.com/poiesic/medrecall/storage"
)

// RecordSource produces the full record set for one subject. It is satisfied
// by *fhir.Client; tests substitute a local implementation.
type RecordSource interface {
	FetchBundle(ctx context.Context, subjectID string) (*fhir.PatientBundle, error)
}

// Report summarizes one subject's ingestion run.
type Report struct {
	SubjectID string
	Built     int // Text units rendered from the bundle
	Indexed   int // Units embedded and upserted
	Skipped   int // Units whose embedding failed after retries
}

// Pipeline fetches a subject's records, renders them into text units, embeds
// the units in concurrent batches, and upserts the results. Embedding runs a
// batch call first and falls back to per-unit calls with backoff when the
// batch fails, so one bad unit never discards its whole batch.
type Pipeline struct {
	source           RecordSource
	vectors          storage.VectorRepository
	embedder         ai.Embedder
	builder          *DocumentBuilder
	pool             *ants.Pool
	batchSize        int
	observationLimit int
	retryAttempts    int
	retryDelay       time.Duration
	now              func() time.Time
	logger           *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithBatchSize sets how many units each embedding batch carries.
// Default is 16.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.batchSize = size
		return nil
	}
}

// WithObservationLimit caps how many observations are indexed per subject,
// keeping arrival order. Zero or negative disables the cap.
// Default is 50.
func WithObservationLimit(limit int) Option {
	return func(p *Pipeline) error {
		p.observationLimit = limit
		return nil
	}
}

// WithRetry sets the per-unit embedding retry policy used when a batch call
// fails. Default is 3 attempts with a 500ms base delay.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		p.retryAttempts = maxAttempts
		p.retryDelay = baseDelay
		return nil
	}
}

// WithDocumentBuilder replaces the default document builder.
func WithDocumentBuilder(builder *DocumentBuilder) Option {
	return func(p *Pipeline) error {
		if builder != nil {
			p.builder = builder
		}
		return nil
	}
}

// WithClock sets the time source used to stamp units. Default is time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) error {
		if now != nil {
			p.now = now
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	source RecordSource,
	vectors storage.VectorRepository,
	embedder ai.Embedder,
	opts ...Option,
) (*Pipeline, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}
	if vectors == nil {
		return nil, ErrVectorRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		source:           source,
		vectors:          vectors,
		embedder:         embedder,
		builder:          NewDocumentBuilder(),
		pool:             pool,
		batchSize:        16,
		observationLimit: 50,
		retryAttempts:    3,
		retryDelay:       500 * time.Millisecond,
		now:              time.Now,
		logger:           slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// IngestSubject fetches, renders, embeds, and indexes one subject's records.
// Embedding failures skip the affected units and are reflected in the report;
// fetch and storage failures abort the run.
func (p *Pipeline) IngestSubject(ctx context.Context, subjectID string) (*Report, error) {
	bundle, err := p.source.FetchBundle(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("fetch records for %s: %w", subjectID, err)
	}
	if bundle == nil {
		return nil, ErrNilBundle
	}

	if p.observationLimit > 0 && len(bundle.Observations) > p.observationLimit {
		p.logger.Info("sampling observations",
			"subject", subjectID,
			"total", len(bundle.Observations),
			"limit", p.observationLimit)
		sampled := *bundle
		sampled.Observations = bundle.Observations[:p.observationLimit]
		bundle = &sampled
	}

	units := p.builder.Build(bundle, p.now().UTC())
	report := &Report{SubjectID: subjectID, Built: len(units)}
	if len(units) == 0 {
		return report, nil
	}

	records, skipped := p.embedUnits(ctx, units)
	report.Skipped = skipped

	if len(records) > 0 {
		if err := p.vectors.Upsert(ctx, records...); err != nil {
			return report, fmt.Errorf("index records for %s: %w", subjectID, err)
		}
		report.Indexed = len(records)
	}

	p.logger.Info("subject ingested",
		"subject", subjectID,
		"built", report.Built,
		"indexed", report.Indexed,
		"skipped", report.Skipped)
	return report, nil
}

// IngestSubjects runs IngestSubject for each subject in order. A failing
// subject does not stop the others; its error is joined into the returned
// error and its slot in the reports carries what completed.
func (p *Pipeline) IngestSubjects(ctx context.Context, subjectIDs []string) ([]*Report, error) {
	reports := make([]*Report, 0, len(subjectIDs))
	var errs []error
	for _, subjectID := range subjectIDs {
		report, err := p.IngestSubject(ctx, subjectID)
		if err != nil {
			p.logger.Error("subject ingestion failed", "subject", subjectID, "err", err)
			errs = append(errs, err)
		}
		if report != nil {
			reports = append(reports, report)
		}
	}
	return reports, errors.Join(errs...)
}

// embedUnits embeds units in concurrent batches and returns the successful
// records in unit order, plus the count of units that failed.
func (p *Pipeline) embedUnits(ctx context.Context, units []*core.TextUnit) ([]*core.VectorRecord, int) {
	type batchResult struct {
		offset  int
		records []*core.VectorRecord
		skipped int
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []batchResult
	)

	for offset := 0; offset < len(units); offset += p.batchSize {
		end := min(offset+p.batchSize, len(units))
		batch := units[offset:end]
		batchOffset := offset

		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			records, skipped := p.embedBatch(ctx, batch)
			mu.Lock()
			results = append(results, batchResult{batchOffset, records, skipped})
			mu.Unlock()
		})
		if err != nil {
			// Pool rejected the task; run inline rather than drop the batch
			records, skipped := p.embedBatch(ctx, batch)
			mu.Lock()
			results = append(results, batchResult{batchOffset, records, skipped})
			mu.Unlock()
			wg.Done()
		}
	}
	wg.Wait()

	slices.SortFunc(results, func(a, b batchResult) int {
		return a.offset - b.offset
	})

	ordered := make([]*core.VectorRecord, 0, len(units))
	skipped := 0
	for _, result := range results {
		ordered = append(ordered, result.records...)
		skipped += result.skipped
	}
	return ordered, skipped
}

// embedBatch embeds one batch of units, falling back to per-unit retried
// calls if the batch request fails.
func (p *Pipeline) embedBatch(ctx context.Context, batch []*core.TextUnit) ([]*core.VectorRecord, int) {
	texts := make([]string, len(batch))
	for i, unit := range batch {
		texts[i] = unit.Text
	}

	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err == nil && len(vectors) == len(batch) {
		records := make([]*core.VectorRecord, len(batch))
		for i, unit := range batch {
			records[i] = &core.VectorRecord{Unit: *unit, Vector: vectors[i]}
		}
		return records, 0
	}

	if err != nil {
		p.logger.Warn("batch embedding failed, retrying per unit", "size", len(batch), "err", err)
	}

	records := make([]*core.VectorRecord, 0, len(batch))
	skipped := 0
	for _, unit := range batch {
		var vector []float32
		retryErr := RetryWithBackoff(ctx, func() error {
			var embedErr error
			vector, embedErr = p.embedder.EmbedText(ctx, unit.Text)
			return embedErr
		}, p.retryAttempts, p.retryDelay)
		if retryErr != nil {
			p.logger.Error("unit embedding failed, skipping", "unit", unit.ID, "err", retryErr)
			skipped++
			continue
		}
		records = append(records, &core.VectorRecord{Unit: *unit, Vector: vector})
	}
	return records, skipped
}

// Release releases the worker pool. The pipeline should not be used after
// calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
