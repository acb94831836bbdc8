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

// Package verdict wires the configured vector store, metadata repositories
// and AI provider into a Workspace from which pipelines, loaders and
// searchers are built.
package verdict

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/poiesic/verdict/ai"
	"github.com/poiesic/verdict/ai/openai"
	"github.com/poiesic/verdict/chunking"
	"github.com/poiesic/verdict/config"
	"github.com/poiesic/verdict/core"
	"github.com/poiesic/verdict/extract"
	"github.com/poiesic/verdict/ingestion"
	"github.com/poiesic/verdict/search"
	"github.com/poiesic/verdict/storage"
	"github.com/poiesic/verdict/storage/badger"
	"github.com/poiesic/verdict/storage/mongo"
	"github.com/poiesic/verdict/vectorstore"
	vsbadger "github.com/poiesic/verdict/vectorstore/badger"
	"github.com/poiesic/verdict/vectorstore/pgvector"
	"github.com/poiesic/verdict/vectorstore/qdrant"
)

type Workspace struct {
	cfg        *config.Config
	collection core.CollectionSpec
	store      vectorstore.Store
	judgments  storage.JudgmentRepository
	ledger     storage.LedgerRepository
	provider   ai.AIProvider
	closers    []func() error
	logger     *slog.Logger
}

// WorkspaceOption configures a Workspace.
type WorkspaceOption func(*workspaceOptions)

type workspaceOptions struct {
	provider ai.AIProvider
	store    vectorstore.Store
}

// WithProvider uses provider instead of building one from the AI settings.
// The workspace closes it.
func WithProvider(provider ai.AIProvider) WorkspaceOption {
	return func(o *workspaceOptions) {
		o.provider = provider
	}
}

// WithVectorStore uses store instead of the configured backend.
// The workspace closes it.
func WithVectorStore(store vectorstore.Store) WorkspaceOption {
	return func(o *workspaceOptions) {
		o.store = store
	}
}

// Open validates cfg and connects every backend it names. On error
// anything already opened is closed.
func Open(ctx context.Context, cfg *config.Config, opts ...WorkspaceOption) (*Workspace, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	spec, err := cfg.Collection.Spec()
	if err != nil {
		return nil, err
	}

	options := &workspaceOptions{}
	for _, opt := range opts {
		opt(options)
	}

	ws := &Workspace{
		cfg:        cfg,
		collection: spec,
		logger:     slog.Default().With("component", "workspace"),
	}

	if err := ws.openMetadata(ctx); err != nil {
		ws.Close()
		return nil, err
	}

	if options.store != nil {
		ws.store = options.store
	} else if err := ws.openVectorStore(ctx); err != nil {
		ws.Close()
		return nil, err
	}
	ws.closers = append(ws.closers, ws.store.Close)

	if options.provider != nil {
		ws.provider = options.provider
	} else {
		ws.provider, err = openai.NewProvider(ws.aiConfig())
		if err != nil {
			ws.Close()
			return nil, err
		}
	}
	ws.closers = append(ws.closers, ws.provider.Close)

	ws.logger.Debug("workspace open",
		"collection", spec.Name,
		"vector_store", cfg.VectorStore.Type,
		"metadata", cfg.Metadata.Type)
	return ws, nil
}

// sharedBadgerBackend reports whether vectors and metadata live in the same
// on-disk badger database, which can only be opened once.
func (ws *Workspace) sharedBadgerBackend() bool {
	vs, md := ws.cfg.VectorStore, ws.cfg.Metadata
	return vs.Type == config.BackendBadger && md.Type == config.BackendBadger &&
		!vs.Badger.InMemory && !md.Badger.InMemory &&
		filepath.Clean(vs.Badger.Path) == filepath.Clean(md.Badger.Path)
}

func (ws *Workspace) openMetadata(ctx context.Context) error {
	md := ws.cfg.Metadata
	switch md.Type {
	case config.BackendMongo:
		client, err := mongo.Connect(ctx, mongo.Config{URI: md.Mongo.URI, Database: md.Mongo.Database, Timeout: md.Mongo.Timeout})
		if err != nil {
			return err
		}
		ws.closers = append(ws.closers, func() error {
			return client.Disconnect(context.Background())
		})
		db := client.Database(md.Mongo.Database)
		if ws.judgments, err = mongo.NewJudgmentRepository(ctx, db); err != nil {
			return err
		}
		if ws.ledger, err = mongo.NewLedgerRepository(ctx, db); err != nil {
			return err
		}
		return nil

	case config.BackendBadger:
		backend, err := badger.OpenBackend(md.Badger.Path, md.Badger.InMemory)
		if err != nil {
			return err
		}
		ws.closers = append(ws.closers, backend.Close)
		if ws.judgments, err = badger.NewJudgmentRepository(backend); err != nil {
			return err
		}
		if ws.ledger, err = badger.NewLedgerRepository(backend); err != nil {
			return err
		}
		if ws.sharedBadgerBackend() {
			ws.store = vsbadger.New(backend)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown metadata.type %q", config.ErrInvalidConfig, md.Type)
}

func (ws *Workspace) openVectorStore(ctx context.Context) error {
	if ws.store != nil {
		return nil
	}
	vs := ws.cfg.VectorStore
	var err error
	switch vs.Type {
	case config.BackendQdrant:
		ws.store, err = qdrant.New(qdrant.Config{
			Host:    vs.Qdrant.Host,
			Port:    vs.Qdrant.Port,
			APIKey:  vs.Qdrant.APIKey,
			UseTLS:  vs.Qdrant.UseTLS,
			Timeout: vs.Qdrant.Timeout,
		})
	case config.BackendPGVector:
		ws.store, err = pgvector.New(ctx, pgvector.Config{DSN: vs.PGVector.DSN, Timeout: vs.PGVector.Timeout})
	case config.BackendBadger:
		ws.store, err = vsbadger.Open(vs.Badger.Path, vs.Badger.InMemory)
	default:
		err = fmt.Errorf("%w: unknown vector_store.type %q", config.ErrInvalidConfig, vs.Type)
	}
	return err
}

func (ws *Workspace) aiConfig() *ai.Config {
	c := ws.cfg.AI
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.EmbeddingHost),
		ai.WithFormatterHost(c.FormatterHost),
		ai.WithEmbeddingModel(c.EmbeddingModel),
		ai.WithFormatterModel(c.FormatterModel),
		ai.WithAPIKey(c.APIKey),
		ai.WithDimensions(ws.collection.Dimensions),
		ai.WithRequestsPerSecond(c.RequestsPerSecond),
	)
}

// Close releases everything Open acquired, in reverse order, and returns
// the first error.
func (ws *Workspace) Close() error {
	var first error
	for i := len(ws.closers) - 1; i >= 0; i-- {
		if err := ws.closers[i](); err != nil {
			ws.logger.Error("error closing workspace resource", "err", err)
			if first == nil {
				first = err
			}
		}
	}
	ws.closers = nil
	return first
}

func (ws *Workspace) Config() *config.Config {
	return ws.cfg
}

// Collection returns the configured target collection.
func (ws *Workspace) Collection() core.CollectionSpec {
	return ws.collection
}

func (ws *Workspace) VectorStore() vectorstore.Store {
	return ws.store
}

func (ws *Workspace) JudgmentRepository() storage.JudgmentRepository {
	return ws.judgments
}

func (ws *Workspace) LedgerRepository() storage.LedgerRepository {
	return ws.ledger
}

func (ws *Workspace) Provider() ai.AIProvider {
	return ws.provider
}

// NewChunker builds a chunker from the ingestion settings.
func (ws *Workspace) NewChunker() (*chunking.Chunker, error) {
	in := ws.cfg.Ingestion
	unit, err := chunking.ParseUnit(in.ChunkUnit)
	if err != nil {
		return nil, err
	}
	return chunking.NewChunker(in.ChunkSize, in.Overlap,
		chunking.WithUnit(unit), chunking.WithMinLength(in.MinLength))
}

// PipelineConfig returns the pipeline settings from the configuration for
// the workspace collection. Callers adjust it before NewPipeline.
func (ws *Workspace) PipelineConfig() ingestion.Config {
	in := ws.cfg.Ingestion
	pc := ingestion.DefaultConfig(ws.collection)
	pc.BatchSize = in.BatchSize
	pc.MaxRetries = in.MaxRetries
	pc.RetryUnit = in.RetryUnit
	if in.EmbedBatchSize > 0 {
		pc.EmbedBatchSize = in.EmbedBatchSize
	}
	return pc
}

// NewPipeline builds a pipeline wired to the workspace store, embedder,
// ledger and judgment repository.
func (ws *Workspace) NewPipeline(pc ingestion.Config, opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	chunker, err := ws.NewChunker()
	if err != nil {
		return nil, err
	}
	base := []ingestion.Option{
		ingestion.WithLedger(ws.ledger),
		ingestion.WithJudgments(ws.judgments),
	}
	return ingestion.NewPipeline(ws.store, ws.provider.Embedder(), chunker, pc, append(base, opts...)...)
}

// NewLoader builds a loader for dir using the configured pattern and pool size.
func (ws *Workspace) NewLoader(dir string, opts ...extract.LoaderOption) (*extract.Loader, error) {
	in := ws.cfg.Ingestion
	base := []extract.LoaderOption{}
	if in.Pattern != "" {
		base = append(base, extract.WithPattern(in.Pattern))
	}
	if in.Workers > 0 {
		base = append(base, extract.WithPoolSize(in.Workers))
	}
	return extract.NewLoader(dir, append(base, opts...)...)
}

// NewSearcher builds a searcher that attaches stored judgment metadata.
func (ws *Workspace) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	base := []search.Option{search.WithJudgments(ws.judgments)}
	return search.NewSearcher(ws.store, ws.provider.Embedder(), append(base, opts...)...)
}

// EnsureCollection creates the workspace collection, or recreates it when
// destructive is set.
func (ws *Workspace) EnsureCollection(ctx context.Context, destructive bool) error {
	return ingestion.EnsureCollection(ctx, ws.store, ws.collection, destructive)
}

// DropCollection deletes the workspace collection and forgets its ledger.
func (ws *Workspace) DropCollection(ctx context.Context) error {
	if err := ws.store.DeleteCollection(ctx, ws.collection.Name); err != nil {
		return err
	}
	_, err := ws.ledger.ClearCollection(ctx, ws.collection.Name)
	return err
}

// DescribeCollection reports the workspace collection's shape and size.
func (ws *Workspace) DescribeCollection(ctx context.Context) (*core.CollectionInfo, error) {
	return ws.store.DescribeCollection(ctx, ws.collection.Name)
}

// IsNotFound reports whether err means a collection or record is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, vectorstore.ErrCollectionNotFound) || errors.Is(err, storage.ErrNotFound)
}
