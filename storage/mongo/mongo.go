// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package mongo implements the storage repositories on MongoDB.
//
// Judgments are stored one document per source in the "judgments"
// collection; ledger entries in "ingestion_ledger" keyed by collection and
// fingerprint.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/poiesic/verdict/core"
	"github.com/poiesic/verdict/storage"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	judgmentsCollection = "judgments"
	ledgerCollection    = "ingestion_ledger"
	defaultTimeout      = 10 * time.Second
)

// Config holds MongoDB connection settings.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect opens a client and verifies the server is reachable.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI).SetTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("%w: %w", storage.ErrUnavailable, err)
	}
	return client, nil
}

// JudgmentRepository implements storage.JudgmentRepository for MongoDB.
type JudgmentRepository struct {
	coll   *mongo.Collection
	logger *slog.Logger
}

var _ storage.JudgmentRepository = (*JudgmentRepository)(nil)

// NewJudgmentRepository returns a repository over db's judgments collection
// and ensures the unique source index exists.
func NewJudgmentRepository(ctx context.Context, db *mongo.Database) (storage.JudgmentRepository, error) {
	coll := db.Collection(judgmentsCollection)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "source", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("create judgment index: %w", err)
	}
	return &JudgmentRepository{
		coll:   coll,
		logger: slog.Default().With("component", "mongo-judgments"),
	}, nil
}

// Close is a no-op; the client is owned by the caller.
func (r *JudgmentRepository) Close() error {
	return nil
}

// SaveJudgments upserts each judgment by source.
func (r *JudgmentRepository) SaveJudgments(ctx context.Context, judgments ...*core.Judgment) ([]*core.Judgment, error) {
	for _, j := range judgments {
		if err := core.ValidateJudgment(j); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	for _, j := range judgments {
		var existing core.Judgment
		err := r.coll.FindOne(ctx, bson.M{"source": j.Source}).Decode(&existing)
		switch {
		case err == nil:
			j.InsertedAt = existing.InsertedAt
		case errors.Is(err, mongo.ErrNoDocuments):
			if j.InsertedAt.IsZero() {
				j.InsertedAt = now
			}
		default:
			return nil, err
		}
		j.UpdatedAt = now

		_, err = r.coll.ReplaceOne(ctx, bson.M{"source": j.Source}, j, options.Replace().SetUpsert(true))
		if err != nil {
			return nil, fmt.Errorf("save judgment %s: %w", j.Source, err)
		}
		r.logger.Debug("saved judgment", "source", j.Source, "formatted", j.Formatted)
	}
	return judgments, nil
}

// GetJudgment retrieves a judgment by source.
func (r *JudgmentRepository) GetJudgment(ctx context.Context, source string) (*core.Judgment, error) {
	var j core.Judgment
	err := r.coll.FindOne(ctx, bson.M{"source": source}).Decode(&j)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// FindByCaseType matches case_type with a case-insensitive regex.
func (r *JudgmentRepository) FindByCaseType(ctx context.Context, caseType string) ([]*core.Judgment, error) {
	filter := bson.M{"case_type": bson.Regex{Pattern: regexp.QuoteMeta(caseType), Options: "i"}}
	return r.find(ctx, filter)
}

// ListJudgments returns every judgment ordered by source.
func (r *JudgmentRepository) ListJudgments(ctx context.Context) ([]*core.Judgment, error) {
	return r.find(ctx, bson.M{})
}

func (r *JudgmentRepository) find(ctx context.Context, filter bson.M) ([]*core.Judgment, error) {
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "source", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var out []*core.Judgment
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ledgerDoc is the stored form of a core.LedgerEntry.
type ledgerDoc struct {
	Collection  string    `bson:"collection"`
	Fingerprint string    `bson:"fingerprint"`
	Source      string    `bson:"source"`
	Records     int       `bson:"records"`
	IngestedAt  time.Time `bson:"ingested_at"`
}

// LedgerRepository implements storage.LedgerRepository for MongoDB.
type LedgerRepository struct {
	coll *mongo.Collection
}

var _ storage.LedgerRepository = (*LedgerRepository)(nil)

// NewLedgerRepository returns a repository over db's ledger collection.
func NewLedgerRepository(ctx context.Context, db *mongo.Database) (storage.LedgerRepository, error) {
	coll := db.Collection(ledgerCollection)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "collection", Value: 1}, {Key: "fingerprint", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("create ledger index: %w", err)
	}
	return &LedgerRepository{coll: coll}, nil
}

// Close is a no-op; the client is owned by the caller.
func (r *LedgerRepository) Close() error {
	return nil
}

// MarkIngested upserts the entry by collection and fingerprint.
func (r *LedgerRepository) MarkIngested(ctx context.Context, entry *core.LedgerEntry) error {
	if entry.IngestedAt.IsZero() {
		entry.IngestedAt = time.Now().UTC()
	}
	doc := ledgerDoc{
		Collection:  entry.Collection,
		Fingerprint: entry.Fingerprint,
		Source:      entry.Source,
		Records:     entry.Records,
		IngestedAt:  entry.IngestedAt,
	}
	filter := bson.M{"collection": entry.Collection, "fingerprint": entry.Fingerprint}
	_, err := r.coll.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	return err
}

// IsIngested reports whether the fingerprint is recorded for the collection.
func (r *LedgerRepository) IsIngested(ctx context.Context, collection, fingerprint string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"collection": collection, "fingerprint": fingerprint})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListIngested returns the entries for a collection ordered by fingerprint.
func (r *LedgerRepository) ListIngested(ctx context.Context, collection string) ([]*core.LedgerEntry, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"collection": collection},
		options.Find().SetSort(bson.D{{Key: "fingerprint", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []ledgerDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*core.LedgerEntry, 0, len(docs))
	for _, d := range docs {
		out = append(out, &core.LedgerEntry{
			Collection:  d.Collection,
			Fingerprint: d.Fingerprint,
			Source:      d.Source,
			Records:     d.Records,
			IngestedAt:  d.IngestedAt,
		})
	}
	return out, nil
}

// ClearCollection deletes every entry for the collection.
func (r *LedgerRepository) ClearCollection(ctx context.Context, collection string) (int, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"collection": collection})
	if err != nil {
		return 0, err
	}
	return int(res.DeletedCount), nil
}
