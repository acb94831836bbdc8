package storage

import (
	"context"

	"github.com/poiesic/verdict/core"
)

// JudgmentRepository stores structured judgment metadata keyed by source.
// Implementations must be thread-safe and support concurrent access.
type JudgmentRepository interface {
	// SaveJudgments inserts or replaces judgments by Source.
	// InsertedAt is preserved from an existing record or set on first save;
	// UpdatedAt is always refreshed.
	// Returns the judgments with timestamps populated.
	SaveJudgments(ctx context.Context, judgments ...*core.Judgment) ([]*core.Judgment, error)

	// GetJudgment retrieves a judgment by source file name.
	// Returns ErrNotFound if the judgment doesn't exist.
	GetJudgment(ctx context.Context, source string) (*core.Judgment, error)

	// FindByCaseType returns judgments whose CaseType contains caseType,
	// ignoring case, ordered by source.
	FindByCaseType(ctx context.Context, caseType string) ([]*core.Judgment, error)

	// ListJudgments returns every stored judgment ordered by source.
	ListJudgments(ctx context.Context) ([]*core.Judgment, error)

	// Close releases resources held by the repository.
	Close() error
}

// LedgerRepository records which documents each collection already holds.
// Implementations must be thread-safe and support concurrent access.
type LedgerRepository interface {
	// MarkIngested records a document as fully written to a collection.
	// Marking the same fingerprint twice overwrites the earlier entry.
	MarkIngested(ctx context.Context, entry *core.LedgerEntry) error

	// IsIngested reports whether the fingerprint is recorded for the collection.
	IsIngested(ctx context.Context, collection, fingerprint string) (bool, error)

	// ListIngested returns the entries recorded for a collection.
	ListIngested(ctx context.Context, collection string) ([]*core.LedgerEntry, error)

	// ClearCollection forgets every entry for a collection and returns how
	// many were removed.
	ClearCollection(ctx context.Context, collection string) (int, error)

	// Close releases resources held by the repository.
	Close() error
}
