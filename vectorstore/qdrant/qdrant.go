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

// Package qdrant implements vectorstore.Store on Qdrant's gRPC API.
package qdrant

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/verdict/core"
	"github.com/poiesic/verdict/vectorstore"
	"github.com/qdrant/go-client/qdrant"
)

const (
	defaultPort    = 6334
	defaultTimeout = 60 * time.Second
)

// Config holds Qdrant connection settings.
type Config struct {
	Host   string
	Port   int
	APIKey string
	UseTLS bool

	// Timeout bounds each request. Default: 60s.
	Timeout time.Duration
}

// Store implements vectorstore.Store against a Qdrant server.
type Store struct {
	client  *qdrant.Client
	timeout time.Duration
	logger  *slog.Logger
}

var _ vectorstore.Store = (*Store)(nil)

// New connects to Qdrant. The gRPC connection is established lazily, so an
// unreachable server surfaces on the first request.
func New(cfg Config) (*Store, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", vectorstore.ErrStoreUnavailable, err)
	}

	return &Store{
		client:  client,
		timeout: cfg.Timeout,
		logger:  slog.Default().With("component", "qdrant", "host", cfg.Host, "port", cfg.Port),
	}, nil
}

// Close closes the gRPC connection.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// CollectionExists reports whether the collection exists.
func (s *Store) CollectionExists(ctx context.Context, name string) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return false, classify(err)
	}
	return exists, nil
}

// CreateCollection creates a single-vector collection.
func (s *Store) CreateCollection(ctx context.Context, spec core.CollectionSpec) error {
	if spec.Distance == "" {
		spec.Distance = core.DistanceCosine
	}
	if err := core.ValidateCollectionSpec(spec); err != nil {
		return vectorstore.Permanent(err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: spec.Name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(spec.Dimensions),
			Distance: toDistance(spec.Distance),
		}),
	})
	if err != nil {
		return classify(err)
	}

	s.logger.Info("created collection", "name", spec.Name, "dimensions", spec.Dimensions, "distance", spec.Distance)
	return nil
}

// DeleteCollection drops the collection.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.client.DeleteCollection(ctx, name); err != nil {
		return classify(err)
	}
	s.logger.Info("deleted collection", "name", name)
	return nil
}

// DescribeCollection reads vector parameters and the point count.
func (s *Store) DescribeCollection(ctx context.Context, name string) (*core.CollectionInfo, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	info, err := s.client.GetCollectionInfo(ctx, name)
	if err != nil {
		return nil, classify(err)
	}

	params := info.GetConfig().GetParams().GetVectorsConfig().GetParams()
	return &core.CollectionInfo{
		CollectionSpec: core.CollectionSpec{
			Name:       name,
			Dimensions: int(params.GetSize()),
			Distance:   fromDistance(params.GetDistance()),
		},
		Count: info.GetPointsCount(),
	}, nil
}

// Upsert sends all records in one request and waits for the write to be applied.
func (s *Store) Upsert(ctx context.Context, collection string, records []*core.VectorRecord) error {
	points := make([]*qdrant.PointStruct, 0, len(records))
	for _, r := range records {
		if err := core.ValidateVectorRecord(r); err != nil {
			return vectorstore.Permanent(err)
		}
		payload, err := toPayload(r.Payload)
		if err != nil {
			return vectorstore.Permanent(err)
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(r.ID),
			Vectors: qdrant.NewVectors(r.Vector...),
			Payload: payload,
		})
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	return classify(err)
}

// Search runs a nearest-neighbour query with payloads.
func (s *Store) Search(ctx context.Context, collection string, vector []float32, limit int, minScore float32) ([]*core.ScoredRecord, error) {
	if limit <= 0 {
		return nil, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		ScoreThreshold: qdrant.PtrOf(minScore),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, classify(err)
	}

	results := make([]*core.ScoredRecord, 0, len(points))
	for _, p := range points {
		results = append(results, &core.ScoredRecord{
			ID:      pointID(p.GetId()),
			Score:   p.GetScore(),
			Payload: fromPayload(p.GetPayload()),
		})
	}
	return results, nil
}

func pointID(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if u := id.GetUuid(); u != "" {
		return u
	}
	return fmt.Sprint(id.GetNum())
}

func toDistance(d core.Distance) qdrant.Distance {
	switch d {
	case core.DistanceDot:
		return qdrant.Distance_Dot
	case core.DistanceEuclid:
		return qdrant.Distance_Euclid
	default:
		return qdrant.Distance_Cosine
	}
}

func fromDistance(d qdrant.Distance) core.Distance {
	switch d {
	case qdrant.Distance_Dot:
		return core.DistanceDot
	case qdrant.Distance_Euclid:
		return core.DistanceEuclid
	case qdrant.Distance_Cosine:
		return core.DistanceCosine
	default:
		return core.Distance(d.String())
	}
}
