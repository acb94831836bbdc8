package ingestion

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport_Summary(t *testing.T) {
	r := newReport("judgments")
	r.DocumentsTotal = 4
	r.DocumentsProcessed = 2
	r.DocumentsSkipped = 1
	r.fail("z.pdf", errors.New("no text"))
	r.fail("a.pdf", ErrNoChunks)
	r.addUpsert(UpsertResult{BatchesAttempted: 3, RecordsWritten: 45})
	r.Elapsed = 1500 * time.Millisecond

	s := r.Summary()

	assert.Contains(t, s, "Collection:  judgments")
	assert.Contains(t, s, "4 total, 2 processed, 1 skipped, 2 failed")
	assert.Contains(t, s, "45 written in 3 batch(es), 0 failed")
	assert.Contains(t, s, "1.5s")
	assert.Less(t, strings.Index(s, "a.pdf"), strings.Index(s, "z.pdf"), "failures are sorted")
	assert.NotContains(t, s, "Stopped")

	r.Error = "batch 2 failed"
	assert.Contains(t, r.Summary(), "Stopped:     batch 2 failed")
}

func TestReport_WriteJSON(t *testing.T) {
	r := newReport("judgments")
	r.DocumentsTotal = 1
	r.fail("a.pdf", ErrNoChunks)
	r.Elapsed = 2 * time.Second

	path := filepath.Join(t.TempDir(), "nested", "report.json")
	require.NoError(t, r.WriteJSON(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded struct {
		Collection     string            `json:"collection"`
		DocumentsTotal int               `json:"documents_total"`
		Failures       map[string]string `json:"failures"`
		ElapsedSeconds float64           `json:"elapsed_seconds"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "judgments", decoded.Collection)
	assert.Equal(t, 1, decoded.DocumentsTotal)
	assert.Equal(t, map[string]string{"a.pdf": ErrNoChunks.Error()}, decoded.Failures)
	assert.Equal(t, 2.0, decoded.ElapsedSeconds)
}
