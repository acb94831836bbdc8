package badger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/verdict/core"
	"github.com/poiesic/verdict/storage"
)

// JudgmentRepository implements storage.JudgmentRepository for BadgerDB.
type JudgmentRepository struct {
	backend *Backend
}

var _ storage.JudgmentRepository = (*JudgmentRepository)(nil)

// NewJudgmentRepository creates a new JudgmentRepository.
func NewJudgmentRepository(backend *Backend) (storage.JudgmentRepository, error) {
	return &JudgmentRepository{
		backend: backend,
	}, nil
}

// Close releases resources. The backend is owned by the caller.
func (r *JudgmentRepository) Close() error {
	return nil
}

// SaveJudgments inserts or replaces judgments by source.
func (r *JudgmentRepository) SaveJudgments(ctx context.Context, judgments ...*core.Judgment) ([]*core.Judgment, error) {
	for _, j := range judgments {
		if err := core.ValidateJudgment(j); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, j := range judgments {
			key := makeJudgmentKey(j.Source)

			existing, err := readJudgment(tx, key)
			if err != nil {
				return err
			}
			switch {
			case existing != nil:
				j.InsertedAt = existing.InsertedAt
			case j.InsertedAt.IsZero():
				j.InsertedAt = now
			}
			j.UpdatedAt = now

			if err := tx.Set(key, storage.MarshalJudgment(j)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	return judgments, nil
}

// GetJudgment retrieves a judgment by source.
func (r *JudgmentRepository) GetJudgment(ctx context.Context, source string) (*core.Judgment, error) {
	var judgment *core.Judgment
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		judgment, err = readJudgment(tx, makeJudgmentKey(source))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if judgment == nil {
		return nil, storage.ErrNotFound
	}
	return judgment, nil
}

// FindByCaseType scans all judgments for a case-insensitive match.
func (r *JudgmentRepository) FindByCaseType(ctx context.Context, caseType string) ([]*core.Judgment, error) {
	needle := strings.ToLower(caseType)
	return r.scan(func(j *core.Judgment) bool {
		return strings.Contains(strings.ToLower(j.CaseType), needle)
	})
}

// ListJudgments returns every judgment ordered by source.
func (r *JudgmentRepository) ListJudgments(ctx context.Context) ([]*core.Judgment, error) {
	return r.scan(func(*core.Judgment) bool { return true })
}

func (r *JudgmentRepository) scan(keep func(*core.Judgment) bool) ([]*core.Judgment, error) {
	var out []*core.Judgment
	err := r.backend.Scan([]byte(judgmentPrefix), func(_, value []byte) error {
		j, err := storage.UnmarshalJudgment(value)
		if err != nil {
			return err
		}
		if keep(j) {
			out = append(out, j)
		}
		return nil
	})
	return out, err
}

// readJudgment returns nil without error when the key is absent.
func readJudgment(tx *badger.Txn, key []byte) (*core.Judgment, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var judgment *core.Judgment
	err = item.Value(func(val []byte) error {
		var err error
		judgment, err = storage.UnmarshalJudgment(val)
		return err
	})
	return judgment, err
}
