package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/poiesic/verdict/ai"
	"github.com/poiesic/verdict/core"
	"github.com/poiesic/verdict/storage"
	"github.com/poiesic/verdict/vectorstore"
)

// DefaultVerbatimBoost is added to the score of a passage containing every
// significant query word.
const DefaultVerbatimBoost = 0.3

// Result is one ranked passage.
type Result struct {
	Record   *core.ScoredRecord
	Score    float32 // similarity plus any verbatim boost
	Verbatim bool

	// Judgment is the stored metadata of the passage's source, when a
	// judgment repository is attached and holds it.
	Judgment *core.Judgment
}

// Source returns the file the passage came from.
func (r *Result) Source() string {
	return r.Record.Source()
}

// Text returns the passage text.
func (r *Result) Text() string {
	return r.Record.Text()
}

// Searcher ranks passages of a vector collection against a text query.
type Searcher struct {
	store         vectorstore.Store
	embedder      ai.Embedder
	judgments     storage.JudgmentRepository
	minScore      float32
	verbatimBoost float32
	logger        *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMinScore drops hits scoring below min before boosting.
// Default is 0.
func WithMinScore(min float32) Option {
	return func(s *Searcher) error {
		s.minScore = min
		return nil
	}
}

// WithVerbatimBoost sets the boost for passages containing every query word.
// Zero disables boosting; the Verbatim flag is still reported.
func WithVerbatimBoost(boost float32) Option {
	return func(s *Searcher) error {
		if boost < 0 {
			return fmt.Errorf("verbatim boost must not be negative, got %v", boost)
		}
		s.verbatimBoost = boost
		return nil
	}
}

// WithJudgments attaches stored judgment metadata to each result.
func WithJudgments(repo storage.JudgmentRepository) Option {
	return func(s *Searcher) error {
		s.judgments = repo
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(store vectorstore.Store, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		store:         store,
		embedder:      embedder,
		verbatimBoost: DefaultVerbatimBoost,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// FindSimilar returns up to limit passages of collection similar to the
// query, best first.
func (s *Searcher) FindSimilar(ctx context.Context, collection, query string, limit int) ([]*Result, error) {
	return s.FindSimilarWithMonitor(ctx, collection, query, limit, nil)
}

// FindSimilarWithMonitor is FindSimilar with callbacks at each stage.
func (s *Searcher) FindSimilarWithMonitor(ctx context.Context, collection, query string, limit int, monitor SearchMonitor) ([]*Result, error) {
	if collection == "" {
		return nil, ErrCollectionRequired
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if limit <= 0 {
		return []*Result{}, nil
	}

	monitor.Start(collection, query)

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, fmt.Errorf("embed query: %w", err)
	}
	monitor.AfterEmbedding(len(embedding))

	hits, err := s.store.Search(ctx, collection, embedding, limit, s.minScore)
	if err != nil {
		s.logger.Error("error querying for similar records", "collection", collection, "err", err)
		return nil, err
	}
	monitor.AfterVectorSearch(hits)

	results := make([]*Result, 0, len(hits))
	for _, hit := range hits {
		r := &Result{Record: hit, Score: hit.Score}
		if containsAllQueryWords(hit.Text(), query) {
			r.Verbatim = true
			r.Score += s.verbatimBoost
			monitor.VerbatimHit(r)
		}
		results = append(results, r)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	s.attachJudgments(ctx, results)
	monitor.Finish(results)

	return results, nil
}

// attachJudgments looks up each distinct source once. Lookup failures are
// logged and leave Judgment nil.
func (s *Searcher) attachJudgments(ctx context.Context, results []*Result) {
	if s.judgments == nil {
		return
	}
	cache := make(map[string]*core.Judgment)
	for _, r := range results {
		source := r.Source()
		if source == "" {
			continue
		}
		j, seen := cache[source]
		if !seen {
			var err error
			j, err = s.judgments.GetJudgment(ctx, source)
			if err != nil {
				if !errors.Is(err, storage.ErrNotFound) {
					s.logger.Warn("failed to load judgment", "source", source, "err", err)
				}
				j = nil
			}
			cache[source] = j
		}
		r.Judgment = j
	}
}
