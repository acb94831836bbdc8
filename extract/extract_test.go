package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/poiesic/verdict/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRunner is a test double for CommandRunner. It returns the contents
// registered for the file argument.
type mockRunner struct {
	mu      sync.Mutex
	outputs map[string]string
	err     error
	calls   [][]string
}

func (m *mockRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]string{name}, args...))
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return []byte(m.outputs[filepath.Base(args[1])]), nil
}

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestPDFExtractor(t *testing.T) {
	runner := &mockRunner{outputs: map[string]string{
		"ca-2021-007.pdf": "IN THE COURT OF APPEAL   \n\fJudgment delivered   \n",
	}}
	e := NewPDFExtractorWithRunner(runner)

	doc, err := e.Extract(context.Background(), "/data/ca-2021-007.pdf")
	require.NoError(t, err)

	assert.Equal(t, "ca-2021-007.pdf", doc.Source)
	assert.Equal(t, "/data/ca-2021-007.pdf", doc.Path)
	assert.Equal(t, "IN THE COURT OF APPEAL\n\n\nJudgment delivered", doc.Text)
	assert.Equal(t, core.Fingerprint(doc.Text), doc.Fingerprint)
	assert.Equal(t, [][]string{{"pdftotext", "-layout", "/data/ca-2021-007.pdf", "-"}}, runner.calls)
}

func TestPDFExtractor_Errors(t *testing.T) {
	t.Run("tool failure", func(t *testing.T) {
		e := NewPDFExtractorWithRunner(&mockRunner{err: errors.New("exit status 1")})
		_, err := e.Extract(context.Background(), "/data/broken.pdf")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pdftotext failed for broken.pdf")
	})

	t.Run("scanned pdf without text", func(t *testing.T) {
		e := NewPDFExtractorWithRunner(&mockRunner{outputs: map[string]string{"scan.pdf": " \f \n"}})
		_, err := e.Extract(context.Background(), "/data/scan.pdf")
		assert.ErrorIs(t, err, ErrNoText)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		e := NewPDFExtractorWithRunner(&mockRunner{err: errors.New("signal: killed")})
		_, err := e.Extract(ctx, "/data/a.pdf")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestTextExtractor(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "judgment.txt", "\r\nThe appeal is allowed.\r\n")

	doc, err := TextExtractor{}.Extract(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "judgment.txt", doc.Source)
	assert.Equal(t, "The appeal is allowed.", doc.Text)

	_, err = TextExtractor{}.Extract(context.Background(), filepath.Join(dir, "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestByExtension(t *testing.T) {
	dir := t.TempDir()
	txt := writeFile(t, dir, "A.TXT", "plain")

	b := ByExtension{".txt": TextExtractor{}}
	doc, err := b.Extract(context.Background(), txt)
	require.NoError(t, err)
	assert.Equal(t, "plain", doc.Text)

	_, err = b.Extract(context.Background(), filepath.Join(dir, "a.docx"))
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}

func TestNewLoader_Validation(t *testing.T) {
	_, err := NewLoader("")
	assert.ErrorIs(t, err, ErrDirRequired)

	_, err = NewLoader(t.TempDir(), WithLimit(-1))
	assert.Error(t, err)
}

func TestLoader_Files(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.pdf", "")
	writeFile(t, dir, "a.pdf", "")
	writeFile(t, dir, "notes.txt", "")
	writeFile(t, dir, "2024/c.pdf", "")

	l, err := NewLoader(dir)
	require.NoError(t, err)
	files, err := l.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "2024/c.pdf"),
		filepath.Join(dir, "a.pdf"),
		filepath.Join(dir, "b.pdf"),
	}, files)

	l, err = NewLoader(dir, WithRecursive(false), WithLimit(1))
	require.NoError(t, err)
	files, err = l.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.pdf")}, files)

	l, err = NewLoader(dir, WithPattern("*.txt"))
	require.NoError(t, err)
	files, err = l.Files()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "notes.txt")}, files)

	l, err = NewLoader(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	_, err = l.Files()
	assert.Error(t, err)
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"c.pdf", "a.pdf", "empty.pdf", "b.pdf"} {
		writeFile(t, dir, name, "%PDF-1.4")
	}
	runner := &mockRunner{outputs: map[string]string{
		"a.pdf": "first judgment",
		"b.pdf": "second judgment",
		"c.pdf": "third judgment",
	}}

	l, err := NewLoader(dir,
		WithExtractor(ByExtension{".pdf": NewPDFExtractorWithRunner(runner)}),
		WithPoolSize(3))
	require.NoError(t, err)

	result, err := l.Load(context.Background())
	require.NoError(t, err)

	sources := make([]string, len(result.Documents))
	for i, d := range result.Documents {
		sources[i] = d.Source
	}
	assert.Equal(t, []string{"a.pdf", "b.pdf", "c.pdf"}, sources, "documents keep path order")
	assert.Equal(t, []string{filepath.Join(dir, "empty.pdf")}, result.FailedPaths())
	assert.ErrorIs(t, result.Failures[filepath.Join(dir, "empty.pdf")], ErrNoText)
	assert.Len(t, runner.calls, 4)
}

func TestLoader_NestedSources(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "judgment.txt", "top level")
	writeFile(t, dir, filepath.Join("appeal", "judgment.txt"), "appeal court")
	writeFile(t, dir, filepath.Join("high", "judgment.txt"), "high court")
	writeFile(t, dir, filepath.Join("high", "blank.txt"), "  \n ")

	l, err := NewLoader(dir, WithPattern("*.txt"))
	require.NoError(t, err)
	result, err := l.Load(context.Background())
	require.NoError(t, err)

	sources := make([]string, len(result.Documents))
	for i, d := range result.Documents {
		sources[i] = d.Source
	}
	assert.Equal(t, []string{"appeal/judgment.txt", "high/judgment.txt", "judgment.txt"}, sources)

	failures := result.FailuresBySource()
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures["high/blank.txt"], ErrNoText)
	assert.Equal(t, "judgment.txt", l.SourceName(filepath.Join(dir, "judgment.txt")))
}

func TestLoader_LoadCancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "text")

	l, err := NewLoader(dir, WithPattern("*.txt"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a\n\nb", cleanText("a  \r\n\r\nb\t"))
	assert.Equal(t, "", cleanText(" \f\n "))
	assert.False(t, strings.HasSuffix(cleanText("x\f"), "\n"))
}

// Integration test - only runs if pdftotext is available.
func TestPDFExtractor_Integration(t *testing.T) {
	if err := CheckPDFTool(); err != nil {
		t.Skip("pdftotext not available, skipping integration test")
	}
	_, err := NewPDFExtractor().Extract(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}
