package mongo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/poiesic/verdict/core"
	"github.com/poiesic/verdict/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// These tests need a running MongoDB; set VERDICT_TEST_MONGO_URI to run them.
func setupDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("VERDICT_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("VERDICT_TEST_MONGO_URI not set")
	}

	ctx := context.Background()
	client, err := Connect(ctx, Config{URI: uri, Timeout: 5 * time.Second})
	require.NoError(t, err)

	db := client.Database(fmt.Sprintf("verdict_test_%d", time.Now().UnixNano()))
	t.Cleanup(func() {
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect(context.Background(), Config{
		URI:     "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=200",
		Timeout: 500 * time.Millisecond,
	})
	assert.ErrorIs(t, err, storage.ErrUnavailable)
}

func TestJudgmentRepository(t *testing.T) {
	db := setupDatabase(t)
	ctx := context.Background()

	repo, err := NewJudgmentRepository(ctx, db)
	require.NoError(t, err)

	_, err = repo.SaveJudgments(ctx,
		&core.Judgment{Source: "a.pdf", CaseType: "Civil Appeal", Judges: []string{"X"}},
		&core.Judgment{Source: "b.pdf", CaseType: "Criminal"},
	)
	require.NoError(t, err)

	got, err := repo.GetJudgment(ctx, "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, []string{"X"}, got.Judges)

	civil, err := repo.FindByCaseType(ctx, "CIVIL")
	require.NoError(t, err)
	require.Len(t, civil, 1)
	assert.Equal(t, "a.pdf", civil[0].Source)

	_, err = repo.GetJudgment(ctx, "missing.pdf")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	all, err := repo.ListJudgments(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestLedgerRepository(t *testing.T) {
	db := setupDatabase(t)
	ctx := context.Background()

	ledger, err := NewLedgerRepository(ctx, db)
	require.NoError(t, err)

	entry := &core.LedgerEntry{Collection: "judgments", Fingerprint: "f1", Source: "a.pdf", Records: 3}
	require.NoError(t, ledger.MarkIngested(ctx, entry))
	require.NoError(t, ledger.MarkIngested(ctx, entry))

	ok, err := ledger.IsIngested(ctx, "judgments", "f1")
	require.NoError(t, err)
	assert.True(t, ok)

	entries, err := ledger.ListIngested(ctx, "judgments")
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	removed, err := ledger.ClearCollection(ctx, "judgments")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}
