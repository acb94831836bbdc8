package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/verdict/core"
	"github.com/poiesic/verdict/storage"
)

// LedgerRepository implements storage.LedgerRepository for BadgerDB.
type LedgerRepository struct {
	backend *Backend
}

var _ storage.LedgerRepository = (*LedgerRepository)(nil)

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(backend *Backend) (storage.LedgerRepository, error) {
	return &LedgerRepository{backend: backend}, nil
}

// Close releases resources. The backend is owned by the caller.
func (r *LedgerRepository) Close() error {
	return nil
}

// MarkIngested records the entry, stamping IngestedAt if unset.
func (r *LedgerRepository) MarkIngested(ctx context.Context, entry *core.LedgerEntry) error {
	if entry.IngestedAt.IsZero() {
		entry.IngestedAt = time.Now().UTC()
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeLedgerKey(entry.Collection, entry.Fingerprint)
		if err := tx.Set(key, storage.MarshalLedgerEntry(entry)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// IsIngested reports whether the fingerprint is recorded for the collection.
func (r *LedgerRepository) IsIngested(ctx context.Context, collection, fingerprint string) (bool, error) {
	_, err := r.backend.Get(makeLedgerKey(collection, fingerprint))
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListIngested returns the entries recorded for a collection in key order.
func (r *LedgerRepository) ListIngested(ctx context.Context, collection string) ([]*core.LedgerEntry, error) {
	var out []*core.LedgerEntry
	err := r.backend.Scan(makeLedgerCollectionPrefix(collection), func(_, value []byte) error {
		entry, err := storage.UnmarshalLedgerEntry(value)
		if err != nil {
			return err
		}
		out = append(out, entry)
		return nil
	})
	return out, err
}

// ClearCollection removes every entry for the collection.
func (r *LedgerRepository) ClearCollection(ctx context.Context, collection string) (int, error) {
	prefix := makeLedgerCollectionPrefix(collection)
	count, err := r.backend.CountPrefix(prefix)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}
	if err := r.backend.DeletePrefix(prefix); err != nil {
		return 0, err
	}
	return count, nil
}
