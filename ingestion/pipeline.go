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
	"path"
	"strings"
	"time"

	"github.com/poiesic/verdict/ai"
	"github.com/poiesic/verdict/chunking"
	"github.com/poiesic/verdict/core"
	"github.com/poiesic/verdict/storage"
	"github.com/poiesic/verdict/vectorstore"
)

// ErrJudgmentsRequired is returned when a case type filter is set without a
// judgment repository.
var ErrJudgmentsRequired = errors.New("judgment repository required for case type filter")

// Config holds the run parameters of a Pipeline.
type Config struct {
	// Collection is the single source of truth for the target collection:
	// every embedding must have Collection.Dimensions entries.
	Collection core.CollectionSpec

	// Destructive drops and recreates the collection before ingesting.
	Destructive bool

	// SkipIngested skips documents the ledger already records for the
	// collection. Requires WithLedger.
	SkipIngested bool

	BatchSize  int
	MaxRetries int
	RetryUnit  time.Duration

	// EmbedBatchSize is the number of chunks per embedding call.
	EmbedBatchSize int
}

// DefaultConfig returns a Config for collection with the default batch settings.
func DefaultConfig(collection core.CollectionSpec) Config {
	return Config{
		Collection:     collection,
		BatchSize:      DefaultBatchSize,
		MaxRetries:     DefaultMaxRetries,
		RetryUnit:      DefaultRetryUnit,
		EmbedBatchSize: DefaultEmbedBatchSize,
	}
}

// Pipeline chunks, embeds, and writes documents to one collection.
// Documents are processed one at a time, in order.
type Pipeline struct {
	store           vectorstore.Store
	chunker         *chunking.Chunker
	embedding       *embeddingProcessor
	cfg             Config
	ledger          storage.LedgerRepository
	judgments       storage.JudgmentRepository
	caseType        string
	reportPath      string
	extractFailures map[string]error
	monitor         UpsertMonitor
	logger          *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

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

// WithMonitor attaches a batch monitor, e.g. a ProgressTracker.
func WithMonitor(m UpsertMonitor) Option {
	return func(p *Pipeline) error {
		p.monitor = m
		return nil
	}
}

// WithLedger records every fully written document and enables SkipIngested.
func WithLedger(ledger storage.LedgerRepository) Option {
	return func(p *Pipeline) error {
		p.ledger = ledger
		return nil
	}
}

// WithJudgments attaches stored judgment metadata to each document's chunks.
func WithJudgments(judgments storage.JudgmentRepository) Option {
	return func(p *Pipeline) error {
		p.judgments = judgments
		return nil
	}
}

// WithCaseType ingests only documents whose stored judgment has a case type
// containing caseType, ignoring case. Requires WithJudgments.
func WithCaseType(caseType string) Option {
	return func(p *Pipeline) error {
		p.caseType = strings.TrimSpace(caseType)
		return nil
	}
}

// WithReportPath writes the run report as JSON to path when Run returns.
func WithReportPath(path string) Option {
	return func(p *Pipeline) error {
		p.reportPath = path
		return nil
	}
}

// WithExtractionFailures records documents that could not be read, keyed by
// source. They count toward DocumentsTotal and DocumentsFailed and appear in
// Report.Failures.
func WithExtractionFailures(failures map[string]error) Option {
	return func(p *Pipeline) error {
		p.extractFailures = failures
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(store vectorstore.Store, embedder ai.Embedder, chunker *chunking.Chunker, cfg Config, opts ...Option) (*Pipeline, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if chunker == nil {
		return nil, ErrChunkerRequired
	}
	if err := core.ValidateCollectionSpec(cfg.Collection); err != nil {
		return nil, err
	}
	if cfg.Collection.Distance == "" {
		cfg.Collection.Distance = core.DistanceCosine
	}

	p := &Pipeline{
		store:   store,
		chunker: chunker,
		cfg:     cfg,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	if err := p.batchOptions().Validate(); err != nil {
		return nil, err
	}
	if p.caseType != "" && p.judgments == nil {
		return nil, ErrJudgmentsRequired
	}
	if cfg.SkipIngested && p.ledger == nil {
		p.logger.Warn("skip-ingested requested without a ledger; every document will be ingested")
	}

	embedding, err := newEmbeddingProcessor(embedder, cfg.EmbedBatchSize, cfg.Collection.Dimensions, p.logger)
	if err != nil {
		return nil, err
	}
	p.embedding = embedding
	p.logger = p.logger.With("component", "pipeline", "collection", cfg.Collection.Name)

	return p, nil
}

// Collection returns the target collection spec.
func (p *Pipeline) Collection() core.CollectionSpec {
	return p.cfg.Collection
}

func (p *Pipeline) batchOptions() BatchOptions {
	return BatchOptions{
		BatchSize:  p.cfg.BatchSize,
		MaxRetries: p.cfg.MaxRetries,
		RetryUnit:  p.cfg.RetryUnit,
		Monitor:    p.monitor,
		Logger:     p.logger,
	}
}

// Run ensures the collection and ingests docs in order.
//
// Per-document problems (no chunks, every chunk failing to embed) are
// recorded in the report and the run continues. A failed batch, a
// dimension mismatch, or a cancelled context stops the run; the report
// accumulated so far is returned with the error.
//
// With no documents Run returns ErrNoDocuments without touching the
// collection. The report, including any extraction failures, is still
// produced.
func (p *Pipeline) Run(ctx context.Context, docs []*core.Document) (*Report, error) {
	start := time.Now()
	report := newReport(p.cfg.Collection.Name)
	report.DocumentsTotal = len(docs) + len(p.extractFailures)
	for source, err := range p.extractFailures {
		report.fail(source, err)
	}

	finish := func(err error) (*Report, error) {
		report.Elapsed = time.Since(start)
		if err != nil {
			report.Error = err.Error()
		}
		if p.reportPath != "" {
			if werr := report.WriteJSON(p.reportPath); werr != nil {
				p.logger.Error("failed to write report", "path", p.reportPath, "err", werr)
				err = errors.Join(err, werr)
			}
		}
		p.logger.Info("run finished",
			"processed", report.DocumentsProcessed,
			"skipped", report.DocumentsSkipped,
			"failed", report.DocumentsFailed,
			"records", report.RecordsWritten,
			"elapsed", report.Elapsed)
		return report, err
	}

	if len(docs) == 0 {
		return finish(ErrNoDocuments)
	}

	if err := EnsureCollection(ctx, p.store, p.cfg.Collection, p.cfg.Destructive); err != nil {
		return finish(err)
	}

	if p.cfg.Destructive && p.ledger != nil {
		n, err := p.ledger.ClearCollection(ctx, p.cfg.Collection.Name)
		if err != nil {
			return finish(fmt.Errorf("clear ledger: %w", err))
		}
		p.logger.Info("cleared ledger", "entries", n)
	}

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}
		if err := p.ingestDocument(ctx, doc, report); err != nil {
			return finish(err)
		}
	}

	return finish(nil)
}

// ingestDocument returns an error only when the run must stop.
func (p *Pipeline) ingestDocument(ctx context.Context, doc *core.Document, report *Report) error {
	logger := p.logger.With("source", doc.Source)
	collection := p.cfg.Collection.Name

	fingerprint := doc.Fingerprint
	if fingerprint == "" {
		fingerprint = core.Fingerprint(doc.Text)
	}

	if p.cfg.SkipIngested && p.ledger != nil {
		done, err := p.ledger.IsIngested(ctx, collection, fingerprint)
		if err != nil {
			return fmt.Errorf("check ledger for %s: %w", doc.Source, err)
		}
		if done {
			logger.Info("already ingested, skipping")
			report.DocumentsSkipped++
			return nil
		}
	}

	metadata, keep, err := p.judgmentMetadata(ctx, doc.Source)
	if err != nil {
		return err
	}
	if !keep {
		logger.Info("case type does not match, skipping", "case_type", p.caseType)
		report.DocumentsSkipped++
		return nil
	}

	chunks, err := p.chunker.Chunk(doc, metadata)
	if err != nil {
		logger.Warn("chunking failed", "err", err)
		report.fail(doc.Source, err)
		return nil
	}
	if len(chunks) == 0 {
		logger.Warn("no viable chunks", "length", len(doc.Text))
		report.fail(doc.Source, ErrNoChunks)
		return nil
	}

	records, skipped, err := p.embedding.process(ctx, chunks)
	report.ChunksSkipped += skipped
	report.ChunksEmbedded += len(records)
	if err != nil {
		report.fail(doc.Source, err)
		return fmt.Errorf("embed %s: %w", doc.Source, err)
	}
	if len(records) == 0 {
		report.fail(doc.Source, fmt.Errorf("all %d chunks failed to embed", len(chunks)))
		return nil
	}

	if t, ok := p.monitor.(interface{ AddTotal(int) }); ok {
		t.AddTotal(len(records))
	}

	result, err := UpsertBatched(ctx, p.store, collection, records, p.batchOptions())
	report.addUpsert(result)
	if err != nil {
		report.fail(doc.Source, err)
		return fmt.Errorf("ingest %s: %w", doc.Source, err)
	}

	if p.ledger != nil {
		entry := &core.LedgerEntry{
			Collection:  collection,
			Fingerprint: fingerprint,
			Source:      doc.Source,
			Records:     len(records),
			IngestedAt:  time.Now().UTC(),
		}
		if err := p.ledger.MarkIngested(ctx, entry); err != nil {
			logger.Error("failed to record document in ledger", "err", err)
		}
	}

	report.DocumentsProcessed++
	logger.Info("document ingested", "chunks", len(chunks), "records", len(records), "skipped_chunks", skipped)
	return nil
}

// judgmentMetadata returns the payload metadata for source and whether the
// document passes the case type filter.
func (p *Pipeline) judgmentMetadata(ctx context.Context, source string) (core.Metadata, bool, error) {
	if p.judgments == nil {
		return core.Metadata{}, true, nil
	}

	j, err := p.judgments.GetJudgment(ctx, source)
	if errors.Is(err, storage.ErrNotFound) && path.Base(source) != source {
		// Classifier records name the file only.
		j, err = p.judgments.GetJudgment(ctx, path.Base(source))
	}
	if errors.Is(err, storage.ErrNotFound) {
		j, err = nil, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load judgment for %s: %w", source, err)
	}

	if p.caseType != "" && (j == nil || !matchesCaseType(j.CaseType, p.caseType)) {
		return nil, false, nil
	}
	if j == nil {
		return core.Metadata{}, true, nil
	}
	return j.Metadata(), true, nil
}

func matchesCaseType(actual, want string) bool {
	return strings.Contains(strings.ToLower(actual), strings.ToLower(want))
}
