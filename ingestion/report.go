package ingestion

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// Report summarizes a pipeline run. A run that stops on a fatal error still
// returns the report accumulated so far.
type Report struct {
	Collection         string            `json:"collection"`
	DocumentsTotal     int               `json:"documents_total"`
	DocumentsProcessed int               `json:"documents_processed"`
	DocumentsSkipped   int               `json:"documents_skipped"`
	DocumentsFailed    int               `json:"documents_failed"`
	ChunksEmbedded     int               `json:"chunks_embedded"`
	ChunksSkipped      int               `json:"chunks_skipped"`
	RecordsWritten     int               `json:"records_written"`
	BatchesAttempted   int               `json:"batches_attempted"`
	BatchesFailed      int               `json:"batches_failed"`
	Failures           map[string]string `json:"failures,omitempty"`
	Elapsed            time.Duration     `json:"-"`
	// Error is the fatal error that stopped the run, if any.
	Error string `json:"error,omitempty"`
}

func newReport(collection string) *Report {
	return &Report{Collection: collection, Failures: map[string]string{}}
}

func (r *Report) fail(source string, err error) {
	r.DocumentsFailed++
	r.Failures[source] = err.Error()
}

func (r *Report) addUpsert(res UpsertResult) {
	r.RecordsWritten += res.RecordsWritten
	r.BatchesAttempted += res.BatchesAttempted
	r.BatchesFailed += res.BatchesFailed
}

// Summary renders the report as a short human readable block.
func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Collection:  %s\n", r.Collection)
	fmt.Fprintf(&b, "Documents:   %d total, %d processed, %d skipped, %d failed\n",
		r.DocumentsTotal, r.DocumentsProcessed, r.DocumentsSkipped, r.DocumentsFailed)
	fmt.Fprintf(&b, "Chunks:      %d embedded, %d skipped\n", r.ChunksEmbedded, r.ChunksSkipped)
	fmt.Fprintf(&b, "Records:     %d written in %d batch(es), %d failed\n",
		r.RecordsWritten, r.BatchesAttempted, r.BatchesFailed)
	fmt.Fprintf(&b, "Elapsed:     %s\n", r.Elapsed.Round(time.Millisecond))

	if len(r.Failures) > 0 {
		b.WriteString("Failures:\n")
		sources := make([]string, 0, len(r.Failures))
		for s := range r.Failures {
			sources = append(sources, s)
		}
		slices.Sort(sources)
		for _, s := range sources {
			fmt.Fprintf(&b, "  %s: %s\n", s, r.Failures[s])
		}
	}
	if r.Error != "" {
		fmt.Fprintf(&b, "Stopped:     %s\n", r.Error)
	}
	return b.String()
}

// MarshalJSON adds the elapsed time in seconds.
func (r *Report) MarshalJSON() ([]byte, error) {
	type alias Report
	return json.Marshal(struct {
		*alias
		ElapsedSeconds float64 `json:"elapsed_seconds"`
	}{
		alias:          (*alias)(r),
		ElapsedSeconds: r.Elapsed.Seconds(),
	})
}

// WriteJSON writes the report to path, creating parent directories.
func (r *Report) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
