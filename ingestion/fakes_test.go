package ingestion

import (
	"context"
	"sync"
	"time"

	"github.com/poiesic/verdict/core"
	"github.com/poiesic/verdict/vectorstore"
)

// fakeStore implements vectorstore.Store in memory and records every
// Upsert call. upsertFunc, when set, decides the outcome of each call
// given its 1-based call number.
type fakeStore struct {
	mu          sync.Mutex
	collections map[string]core.CollectionSpec
	points      map[string][]*core.VectorRecord
	calls       [][]*core.VectorRecord
	upsertFunc  func(call int, records []*core.VectorRecord) error
	existsErr   error
	deletes     int
	creates     int
}

var _ vectorstore.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		collections: map[string]core.CollectionSpec{},
		points:      map[string][]*core.VectorRecord{},
	}
}

func (s *fakeStore) CollectionExists(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.existsErr != nil {
		return false, s.existsErr
	}
	_, ok := s.collections[name]
	return ok, nil
}

func (s *fakeStore) CreateCollection(ctx context.Context, spec core.CollectionSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[spec.Name]; ok {
		return vectorstore.Permanent(vectorstore.ErrCollectionExists)
	}
	s.creates++
	s.collections[spec.Name] = spec
	return nil
}

func (s *fakeStore) DeleteCollection(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	delete(s.collections, name)
	delete(s.points, name)
	return nil
}

func (s *fakeStore) DescribeCollection(ctx context.Context, name string) (*core.CollectionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	spec, ok := s.collections[name]
	if !ok {
		return nil, vectorstore.Permanent(vectorstore.ErrCollectionNotFound)
	}
	return &core.CollectionInfo{CollectionSpec: spec, Count: uint64(len(s.points[name]))}, nil
}

func (s *fakeStore) Upsert(ctx context.Context, collection string, records []*core.VectorRecord) error {
	s.mu.Lock()
	s.calls = append(s.calls, records)
	call := len(s.calls)
	fn := s.upsertFunc
	s.mu.Unlock()

	if fn != nil {
		if err := fn(call, records); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.points[collection] = append(s.points[collection], records...)
	return nil
}

func (s *fakeStore) Search(ctx context.Context, collection string, vector []float32, limit int, minScore float32) ([]*core.ScoredRecord, error) {
	return nil, nil
}

func (s *fakeStore) Close() error { return nil }

func (s *fakeStore) stored(collection string) []*core.VectorRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.points[collection]
}

func (s *fakeStore) callSizes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	sizes := make([]int, len(s.calls))
	for i, c := range s.calls {
		sizes[i] = len(c)
	}
	return sizes
}

// recordingSleep records backoff waits without sleeping.
type recordingSleep struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (r *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.waits = append(r.waits, d)
	r.mu.Unlock()
	return ctx.Err()
}

// eventLog collects monitor events.
type eventLog struct {
	mu     sync.Mutex
	events []BatchEvent
}

func (l *eventLog) OnBatch(ev BatchEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

// states returns the state sequence of one batch.
func (l *eventLog) states(batch int) []BatchState {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []BatchState
	for _, ev := range l.events {
		if ev.Batch == batch {
			out = append(out, ev.State)
		}
	}
	return out
}

func makeRecords(n, dims int) []*core.VectorRecord {
	records := make([]*core.VectorRecord, n)
	for i := range records {
		v := make([]float32, dims)
		v[i%dims] = 1
		records[i] = core.NewVectorRecord(&core.Chunk{Text: "chunk", Source: "doc.pdf", Index: i}, v)
	}
	return records
}
