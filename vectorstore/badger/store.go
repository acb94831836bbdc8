// Package badger implements vectorstore.Store on an embedded BadgerDB.
//
// Records are scanned in full for every search, so the store suits local
// corpora and tests rather than production volumes.
package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/verdict/core"
	"github.com/poiesic/verdict/storage"
	storagebadger "github.com/poiesic/verdict/storage/badger"
	"github.com/poiesic/verdict/vectorstore"
)

const (
	collectionPrefix = "vcol:"
	pointPrefix      = "vpt:"
)

func makeCollectionKey(name string) []byte {
	return []byte(collectionPrefix + name)
}

// makePointPrefix length-prefixes the name so one collection's prefix
// never covers another's.
// Format: prefix:len:name:
func makePointPrefix(name string) []byte {
	return []byte(pointPrefix + strconv.Itoa(len(name)) + ":" + name + ":")
}

func makePointKey(collection, id string) []byte {
	return append(makePointPrefix(collection), id...)
}

// Store implements vectorstore.Store on a shared storage backend.
type Store struct {
	backend *storagebadger.Backend
	owned   bool
	logger  *slog.Logger
}

var _ vectorstore.Store = (*Store)(nil)

// New returns a store over an existing backend. Close leaves the backend open.
func New(backend *storagebadger.Backend) *Store {
	return &Store{
		backend: backend,
		logger:  slog.Default().With("component", "badger-vectorstore"),
	}
}

// Open opens a dedicated backend at path (in memory when inMemory is set)
// and returns a store that closes it on Close.
func Open(path string, inMemory bool) (*Store, error) {
	backend, err := storagebadger.OpenBackend(path, inMemory)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", vectorstore.ErrStoreUnavailable, err)
	}
	s := New(backend)
	s.owned = true
	return s, nil
}

// Close closes the backend if the store opened it.
func (s *Store) Close() error {
	if s.owned {
		return s.backend.Close()
	}
	return nil
}

// CollectionExists reports whether the collection spec is stored.
func (s *Store) CollectionExists(ctx context.Context, name string) (bool, error) {
	_, err := s.readSpec(name)
	if errors.Is(err, vectorstore.ErrCollectionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateCollection stores the collection spec.
func (s *Store) CreateCollection(ctx context.Context, spec core.CollectionSpec) error {
	if spec.Distance == "" {
		spec.Distance = core.DistanceCosine
	}
	if err := core.ValidateCollectionSpec(spec); err != nil {
		return vectorstore.Permanent(err)
	}

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeCollectionKey(spec.Name)
		if _, err := tx.Get(key); err == nil {
			return vectorstore.ErrCollectionExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := tx.Set(key, storage.MarshalCollectionSpec(spec)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return classify(err)
	}

	s.logger.Debug("created collection", "name", spec.Name, "dimensions", spec.Dimensions, "distance", spec.Distance)
	return nil
}

// DeleteCollection removes the spec and every point of the collection.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	if err := s.backend.DeletePrefix(makePointPrefix(name)); err != nil {
		return classify(err)
	}
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeCollectionKey(name)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	return classify(err)
}

// DescribeCollection returns the stored spec and the point count.
func (s *Store) DescribeCollection(ctx context.Context, name string) (*core.CollectionInfo, error) {
	spec, err := s.readSpec(name)
	if err != nil {
		return nil, err
	}
	count, err := s.backend.CountPrefix(makePointPrefix(name))
	if err != nil {
		return nil, classify(err)
	}
	return &core.CollectionInfo{CollectionSpec: spec, Count: uint64(count)}, nil
}

// Upsert writes all records in one transaction.
func (s *Store) Upsert(ctx context.Context, collection string, records []*core.VectorRecord) error {
	spec, err := s.readSpec(collection)
	if err != nil {
		return err
	}

	values := make([][]byte, len(records))
	for i, r := range records {
		if err := core.ValidateVectorRecord(r); err != nil {
			return vectorstore.Permanent(err)
		}
		if len(r.Vector) != spec.Dimensions {
			return vectorstore.Permanent(fmt.Errorf("%w: record %s has %d dimensions, collection %s expects %d",
				vectorstore.ErrDimensionMismatch, r.ID, len(r.Vector), collection, spec.Dimensions))
		}
		values[i], err = storage.MarshalVectorRecord(r)
		if err != nil {
			return vectorstore.Permanent(err)
		}
	}

	err = s.backend.WithTx(func(tx *badger.Txn) error {
		for i, r := range records {
			if err := tx.Set(makePointKey(collection, r.ID), values[i]); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	return classify(err)
}

// Search scores every record in the collection against vector.
func (s *Store) Search(ctx context.Context, collection string, vector []float32, limit int, minScore float32) ([]*core.ScoredRecord, error) {
	spec, err := s.readSpec(collection)
	if err != nil {
		return nil, err
	}
	if len(vector) != spec.Dimensions {
		return nil, vectorstore.Permanent(fmt.Errorf("%w: query has %d dimensions, collection %s expects %d",
			vectorstore.ErrDimensionMismatch, len(vector), collection, spec.Dimensions))
	}
	if limit <= 0 {
		return nil, nil
	}

	var results []*core.ScoredRecord
	err = s.backend.Scan(makePointPrefix(collection), func(_, value []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		record, err := storage.UnmarshalVectorRecord(value)
		if err != nil {
			return err
		}
		score := similarity(spec.Distance, vector, record.Vector)
		if score >= minScore {
			results = append(results, &core.ScoredRecord{
				ID:      record.ID,
				Score:   score,
				Payload: record.Payload,
			})
		}
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	// Sort by similarity descending
	slices.SortFunc(results, func(a, b *core.ScoredRecord) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *Store) readSpec(name string) (core.CollectionSpec, error) {
	data, err := s.backend.Get(makeCollectionKey(name))
	if errors.Is(err, storage.ErrNotFound) {
		return core.CollectionSpec{}, vectorstore.Permanent(fmt.Errorf("%w: %s", vectorstore.ErrCollectionNotFound, name))
	}
	if err != nil {
		return core.CollectionSpec{}, classify(err)
	}
	spec, err := storage.UnmarshalCollectionSpec(data)
	if err != nil {
		return core.CollectionSpec{}, vectorstore.Permanent(err)
	}
	return spec, nil
}

// classify marks transaction conflicts retryable and everything else permanent.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, vectorstore.ErrTransient), errors.Is(err, vectorstore.ErrPermanent):
		return err
	case errors.Is(err, badger.ErrConflict):
		return vectorstore.Transient(err)
	case errors.Is(err, storage.ErrStorageClosed):
		return vectorstore.Permanent(fmt.Errorf("%w: %w", vectorstore.ErrStoreUnavailable, err))
	default:
		return vectorstore.Permanent(err)
	}
}

// similarity scores b against a so that higher is always closer.
// Euclidean distance d is mapped to 1/(1+d).
func similarity(distance core.Distance, a, b []float32) float32 {
	switch distance {
	case core.DistanceDot:
		return dotProduct(a, b)
	case core.DistanceEuclid:
		var sum float64
		for i := range min(len(a), len(b)) {
			d := float64(a[i] - b[i])
			sum += d * d
		}
		return float32(1 / (1 + math.Sqrt(sum)))
	default:
		na, nb := norm(a), norm(b)
		if na == 0 || nb == 0 {
			return 0
		}
		return dotProduct(a, b) / (na * nb)
	}
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	for i := range min(len(a), len(b)) {
		sum += a[i] * b[i]
	}
	return sum
}

func norm(v []float32) float32 {
	return float32(math.Sqrt(float64(dotProduct(v, v))))
}
