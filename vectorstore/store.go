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

package vectorstore

import (
	"context"

	"github.com/poiesic/verdict/core"
)

// Store is a vector database holding named collections of records.
// Implementations must be safe for concurrent use and must classify
// returned errors with ErrTransient or ErrPermanent.
type Store interface {
	// CollectionExists reports whether the named collection exists.
	CollectionExists(ctx context.Context, name string) (bool, error)

	// CreateCollection creates a collection. Returns ErrCollectionExists
	// if it already exists.
	CreateCollection(ctx context.Context, spec core.CollectionSpec) error

	// DeleteCollection drops a collection and all its records.
	// Deleting a missing collection is not an error.
	DeleteCollection(ctx context.Context, name string) error

	// DescribeCollection returns the collection's shape and record count.
	// Returns ErrCollectionNotFound if it does not exist.
	DescribeCollection(ctx context.Context, name string) (*core.CollectionInfo, error)

	// Upsert writes records as one request. Records with an existing ID
	// are replaced. A vector whose length differs from the collection's
	// dimensionality fails with ErrDimensionMismatch.
	Upsert(ctx context.Context, collection string, records []*core.VectorRecord) error

	// Search returns up to limit records scoring at least minScore,
	// best first.
	Search(ctx context.Context, collection string, vector []float32, limit int, minScore float32) ([]*core.ScoredRecord, error)

	// Close releases the client connection.
	Close() error
}
