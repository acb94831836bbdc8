package verdict

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/verdict/ai"
	"github.com/poiesic/verdict/ai/mock"
	"github.com/poiesic/verdict/config"
	"github.com/poiesic/verdict/core"
	"github.com/poiesic/verdict/extract"
	"github.com/poiesic/verdict/ingestion"
	"github.com/poiesic/verdict/search"
	vsbadger "github.com/poiesic/verdict/vectorstore/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDims = 8

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Collection.Name = "test_judgments"
	cfg.Collection.Dimensions = testDims
	cfg.VectorStore.Type = config.BackendBadger
	cfg.VectorStore.Badger = config.BadgerConfig{InMemory: true}
	cfg.Metadata.Type = config.BackendBadger
	cfg.Metadata.Badger = config.BadgerConfig{InMemory: true}
	cfg.Ingestion.ChunkSize = 6
	cfg.Ingestion.Overlap = 2
	cfg.Ingestion.MinLength = 0
	cfg.Ingestion.BatchSize = 2
	return cfg
}

func openTestWorkspace(t *testing.T, cfg *config.Config) (*Workspace, *mock.MockProvider) {
	t.Helper()
	provider := mock.NewMockProviderWithServices(mock.NewMockEmbedderWithDimensions(testDims), mock.NewMockFormatter()).(*mock.MockProvider)
	ws, err := Open(context.Background(), cfg, WithProvider(provider))
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws, provider
}

func TestOpen(t *testing.T) {
	t.Run("in-memory backends", func(t *testing.T) {
		ws, _ := openTestWorkspace(t, testConfig())

		assert.NotNil(t, ws.VectorStore())
		assert.NotNil(t, ws.JudgmentRepository())
		assert.NotNil(t, ws.LedgerRepository())
		assert.NotNil(t, ws.Provider())
		assert.Equal(t, core.CollectionSpec{Name: "test_judgments", Dimensions: testDims, Distance: core.DistanceCosine}, ws.Collection())
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := testConfig()
		cfg.Collection.Dimensions = 0
		ws, err := Open(context.Background(), cfg)
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
		assert.Nil(t, ws)
	})

	t.Run("metadata path is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(file, []byte("test"), 0o644))

		cfg := testConfig()
		cfg.Metadata.Badger = config.BadgerConfig{Path: file}
		ws, err := Open(context.Background(), cfg, WithProvider(mock.NewMockProvider()))
		assert.Error(t, err)
		assert.Nil(t, ws)
	})

	t.Run("builds the openai provider", func(t *testing.T) {
		ws, err := Open(context.Background(), testConfig())
		require.NoError(t, err)
		defer ws.Close()
		assert.NotNil(t, ws.Provider().Embedder())
		assert.NotNil(t, ws.Provider().Formatter())
	})

	t.Run("injected vector store", func(t *testing.T) {
		store, err := vsbadger.Open("", true)
		require.NoError(t, err)

		ws, err := Open(context.Background(), testConfig(), WithProvider(mock.NewMockProvider()), WithVectorStore(store))
		require.NoError(t, err)
		defer ws.Close()
		assert.Same(t, store, ws.VectorStore())
	})
}

func TestOpen_SharedBadgerDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "verdict_db")
	cfg := testConfig()
	cfg.VectorStore.Badger = config.BadgerConfig{Path: dir}
	cfg.Metadata.Badger = config.BadgerConfig{Path: dir + "/"}

	ctx := context.Background()
	ws, err := Open(ctx, cfg, WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	require.NoError(t, ws.EnsureCollection(ctx, false))
	_, err = ws.JudgmentRepository().SaveJudgments(ctx, &core.Judgment{Source: "a.pdf"})
	require.NoError(t, err)
	require.NoError(t, ws.Close())

	ws, err = Open(ctx, cfg, WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	defer ws.Close()

	info, err := ws.DescribeCollection(ctx)
	require.NoError(t, err)
	assert.Equal(t, testDims, info.Dimensions)
	_, err = ws.JudgmentRepository().GetJudgment(ctx, "a.pdf")
	assert.NoError(t, err)
}

func TestWorkspace_Close(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)
	ws, err := Open(context.Background(), testConfig(), WithProvider(provider))
	require.NoError(t, err)

	assert.NoError(t, ws.Close())
	assert.True(t, provider.Closed())
	assert.NoError(t, ws.Close(), "second close is a no-op")
}

func TestWorkspace_CollectionLifecycle(t *testing.T) {
	ws, _ := openTestWorkspace(t, testConfig())
	ctx := context.Background()

	_, err := ws.DescribeCollection(ctx)
	assert.True(t, IsNotFound(err))

	require.NoError(t, ws.EnsureCollection(ctx, false))
	info, err := ws.DescribeCollection(ctx)
	require.NoError(t, err)
	assert.Zero(t, info.Count)

	require.NoError(t, ws.LedgerRepository().MarkIngested(ctx, &core.LedgerEntry{
		Collection: "test_judgments", Fingerprint: "f1", Source: "a.pdf",
	}))
	require.NoError(t, ws.DropCollection(ctx))

	_, err = ws.DescribeCollection(ctx)
	assert.True(t, IsNotFound(err))
	ingested, err := ws.LedgerRepository().IsIngested(ctx, "test_judgments", "f1")
	require.NoError(t, err)
	assert.False(t, ingested)
}

func TestWorkspace_PipelineConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Ingestion.MaxRetries = 5
	cfg.Ingestion.EmbedBatchSize = 4
	ws, _ := openTestWorkspace(t, cfg)

	pc := ws.PipelineConfig()
	assert.Equal(t, ws.Collection(), pc.Collection)
	assert.Equal(t, 2, pc.BatchSize)
	assert.Equal(t, 5, pc.MaxRetries)
	assert.Equal(t, 4, pc.EmbedBatchSize)
	assert.False(t, pc.Destructive)
}

func TestWorkspace_IngestAndSearch(t *testing.T) {
	ws, _ := openTestWorkspace(t, testConfig())
	ctx := context.Background()

	_, err := ws.ImportJudgments(ctx, []map[string]any{
		{"pdf_file_name": "rent.pdf", "caseName": "Landlord v Tenant", "caseType": "Civil"},
		{"pdf_file_name": "theft.pdf", "caseName": "Republic v Mensah", "caseType": "Criminal"},
	}, false)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rent.txt"),
		[]byte("the tenant failed to pay rent for six months and the landlord sued for arrears"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "theft.txt"),
		[]byte("the accused was convicted of stealing goods from the warehouse at night"), 0o644))

	loader, err := ws.NewLoader(dir, extract.WithPattern("*.txt"))
	require.NoError(t, err)
	loaded, err := loader.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Documents, 2)

	// Judgments are keyed by PDF name; point the text files at them.
	for _, d := range loaded.Documents {
		d.Source = strings.TrimSuffix(d.Source, ".txt") + ".pdf"
	}

	pc := ws.PipelineConfig()
	pc.SkipIngested = true
	pipeline, err := ws.NewPipeline(pc, ingestion.WithCaseType("civil"))
	require.NoError(t, err)

	report, err := pipeline.Run(ctx, loaded.Documents)
	require.NoError(t, err)
	assert.Equal(t, 1, report.DocumentsProcessed)
	assert.Equal(t, 1, report.DocumentsSkipped)
	assert.Positive(t, report.RecordsWritten)

	searcher, err := ws.NewSearcher(search.WithMinScore(-1))
	require.NoError(t, err)
	results, err := searcher.FindSimilar(ctx, ws.Collection().Name, "tenant rent arrears", 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.Equal(t, "rent.pdf", r.Source())
		require.NotNil(t, r.Judgment)
		assert.Equal(t, "Landlord v Tenant", r.Judgment.CaseName)
		assert.Equal(t, "civil", r.Record.Payload["case_type"])
	}

	// A second run skips the already ingested document.
	pipeline, err = ws.NewPipeline(pc, ingestion.WithCaseType("civil"))
	require.NoError(t, err)
	report, err = pipeline.Run(ctx, loaded.Documents)
	require.NoError(t, err)
	assert.Equal(t, 0, report.DocumentsProcessed)
	assert.Equal(t, 2, report.DocumentsSkipped)
}

func TestWorkspace_ImportJudgments(t *testing.T) {
	ctx := context.Background()
	records := []map[string]any{
		{"pdf_file_name": "a.pdf", "caseType": "Civil"},
		{"pdf_file_name": "b.pdf", "caseType": "Criminal"},
		{"caseName": "no source"},
	}

	t.Run("direct mapping", func(t *testing.T) {
		ws, provider := openTestWorkspace(t, testConfig())

		result, err := ws.ImportJudgments(ctx, records, false)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Formatted)
		assert.Equal(t, 2, result.Raw)
		assert.Equal(t, 2, result.Stored())
		assert.ErrorIs(t, result.Rejected["#3"], core.ErrInvalidJudgment)
		assert.Zero(t, provider.GetMockFormatter().CallCount())

		j, err := ws.JudgmentRepository().GetJudgment(ctx, "a.pdf")
		require.NoError(t, err)
		assert.False(t, j.Formatted)
		assert.Equal(t, "civil", j.CaseType)
	})

	t.Run("formatted with fallback", func(t *testing.T) {
		ws, provider := openTestWorkspace(t, testConfig())
		provider.GetMockFormatter().FormatJudgmentFunc = func(ctx context.Context, raw map[string]any) ai.FormatResult {
			j := ai.JudgmentFromRaw(raw)
			if j.Source == "b.pdf" {
				return ai.FormatResult{Kind: ai.Raw, Judgment: j, Err: ai.ErrMalformedResponse}
			}
			j.Formatted = true
			return ai.FormatResult{Kind: ai.Formatted, Judgment: j}
		}

		result, err := ws.ImportJudgments(ctx, records, true)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Formatted)
		assert.Equal(t, 1, result.Raw)
		assert.Len(t, result.Rejected, 1)
		assert.Equal(t, 3, provider.GetMockFormatter().CallCount())

		a, err := ws.JudgmentRepository().GetJudgment(ctx, "a.pdf")
		require.NoError(t, err)
		assert.True(t, a.Formatted)
		b, err := ws.JudgmentRepository().GetJudgment(ctx, "b.pdf")
		require.NoError(t, err)
		assert.False(t, b.Formatted)
	})

	t.Run("cancelled", func(t *testing.T) {
		ws, _ := openTestWorkspace(t, testConfig())
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := ws.ImportJudgments(cctx, records, false)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestReadClassifierFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name, contents string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
		return path
	}

	records, err := ReadClassifierFile(write("one.json", `{"pdf_file_name": "a.pdf"}`))
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"pdf_file_name": "a.pdf"}}, records)

	records, err = ReadClassifierFile(write("many.json", "\n[{\"name\": \"x\"}, {\"name\": \"y\"}]"))
	require.NoError(t, err)
	assert.Len(t, records, 2)

	_, err = ReadClassifierFile(write("scalar.json", `"just a string"`))
	assert.ErrorIs(t, err, ErrUnexpectedJSON)

	_, err = ReadClassifierFile(write("mixed.json", `[{"name": "x"}, 3]`))
	assert.ErrorIs(t, err, ErrUnexpectedJSON)

	_, err = ReadClassifierFile(write("empty.json", "  "))
	assert.ErrorIs(t, err, ErrUnexpectedJSON)

	_, err = ReadClassifierFile(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
