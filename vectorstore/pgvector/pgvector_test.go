package pgvector

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/poiesic/verdict/core"
	"github.com/poiesic/verdict/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
		sentinel  error
	}{
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true, nil},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true, nil},
		{"connection exception", &pgconn.PgError{Code: "08006"}, true, vectorstore.ErrStoreUnavailable},
		{"too many connections", &pgconn.PgError{Code: "53300"}, true, vectorstore.ErrStoreUnavailable},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, true, vectorstore.ErrStoreUnavailable},
		{"deadline", fmt.Errorf("exec: %w", context.DeadlineExceeded), true, nil},
		{"wrong dimensions", &pgconn.PgError{Code: "22000", Message: "expected 1536 dimensions, not 384"}, false, vectorstore.ErrDimensionMismatch},
		{"syntax error", &pgconn.PgError{Code: "42601"}, false, nil},
		{"auth failure", &pgconn.PgError{Code: "28P01"}, false, nil},
		{"cancelled", context.Canceled, false, nil},
		{"plain", errors.New("boom"), false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify(tt.err)
			assert.Equal(t, tt.transient, vectorstore.IsTransient(err))
			if !tt.transient {
				assert.ErrorIs(t, err, vectorstore.ErrPermanent)
			}
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			}
		})
	}
	assert.NoError(t, classify(nil))
}

func TestTableName(t *testing.T) {
	assert.Equal(t, `"vc_judgments"`, tableName("judgments"))
	assert.Equal(t, `"vc_a""b"`, tableName(`a"b`))
}

func TestDistanceOperator(t *testing.T) {
	op, _ := distanceOperator(core.DistanceCosine)
	assert.Equal(t, "<=>", op)
	op, _ = distanceOperator(core.DistanceDot)
	assert.Equal(t, "<#>", op)
	op, _ = distanceOperator(core.DistanceEuclid)
	assert.Equal(t, "<->", op)
	assert.Equal(t, "vector_cosine_ops", opClass("vector", ""))
}

func TestIndexStatement(t *testing.T) {
	testCases := []struct {
		name   string
		spec   core.CollectionSpec
		want   string
		column string
		param  string
	}{
		{
			name:   "small embeddings index the column",
			spec:   core.CollectionSpec{Name: "j", Dimensions: 1536, Distance: core.DistanceCosine},
			want:   `CREATE INDEX ON "vc_j" USING hnsw (embedding vector_cosine_ops)`,
			column: "embedding",
			param:  "$1",
		},
		{
			name:   "limit of the vector index",
			spec:   core.CollectionSpec{Name: "j", Dimensions: 2000, Distance: core.DistanceEuclid},
			want:   `CREATE INDEX ON "vc_j" USING hnsw (embedding vector_l2_ops)`,
			column: "embedding",
			param:  "$1",
		},
		{
			name:   "large embeddings index a halfvec cast",
			spec:   core.CollectionSpec{Name: "j", Dimensions: 3072, Distance: core.DistanceCosine},
			want:   `CREATE INDEX ON "vc_j" USING hnsw ((embedding::halfvec(3072)) halfvec_cosine_ops)`,
			column: "embedding::halfvec(3072)",
			param:  "$1::halfvec(3072)",
		},
		{
			name:   "dot product on halfvec",
			spec:   core.CollectionSpec{Name: "j", Dimensions: 4000, Distance: core.DistanceDot},
			want:   `CREATE INDEX ON "vc_j" USING hnsw ((embedding::halfvec(4000)) halfvec_ip_ops)`,
			column: "embedding::halfvec(4000)",
			param:  "$1::halfvec(4000)",
		},
		{
			name:   "too wide to index",
			spec:   core.CollectionSpec{Name: "j", Dimensions: 4096, Distance: core.DistanceCosine},
			want:   "",
			column: "embedding",
			param:  "$1",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, indexStatement(tableName(tc.spec.Name), tc.spec))
			column, param := orderOperands(tc.spec.Dimensions)
			assert.Equal(t, tc.column, column)
			assert.Equal(t, tc.param, param)
		})
	}
}

func TestNormalizePayload(t *testing.T) {
	out := normalizePayload(map[string]any{
		"chunk_index": float64(3),
		"ratio":       0.5,
		"judges":      []any{"A", "B"},
		"text":        "x",
		"reported":    true,
		"missing":     nil,
	})
	assert.Equal(t, core.Metadata{
		"chunk_index": int64(3),
		"ratio":       0.5,
		"judges":      []string{"A", "B"},
		"text":        "x",
		"reported":    true,
	}, out)
}

// Integration test; set VERDICT_TEST_PG_DSN to a database with pgvector.
func TestStore_Integration(t *testing.T) {
	dsn := os.Getenv("VERDICT_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("VERDICT_TEST_PG_DSN not set")
	}
	ctx := context.Background()

	s, err := New(ctx, Config{DSN: dsn, Timeout: 10 * time.Second})
	require.NoError(t, err)
	defer s.Close()

	name := fmt.Sprintf("test_%d", time.Now().UnixNano())
	spec := core.CollectionSpec{Name: name, Dimensions: 3, Distance: core.DistanceCosine}
	require.NoError(t, s.CreateCollection(ctx, spec))
	defer s.DeleteCollection(ctx, name)

	err = s.CreateCollection(ctx, spec)
	assert.ErrorIs(t, err, vectorstore.ErrCollectionExists)

	records := []*core.VectorRecord{
		core.NewVectorRecord(&core.Chunk{Text: "near", Source: "a.pdf"}, []float32{1, 0, 0}),
		core.NewVectorRecord(&core.Chunk{Text: "far", Source: "b.pdf"}, []float32{0, 1, 0}),
	}
	require.NoError(t, s.Upsert(ctx, name, records))

	info, err := s.DescribeCollection(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), info.Count)

	hits, err := s.Search(ctx, name, []float32{1, 0, 0}, 5, 0.5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "near", hits[0].Text())

	err = s.Upsert(ctx, name, []*core.VectorRecord{
		core.NewVectorRecord(&core.Chunk{Text: "bad", Source: "c.pdf"}, []float32{1, 0}),
	})
	assert.ErrorIs(t, err, vectorstore.ErrDimensionMismatch)
}
