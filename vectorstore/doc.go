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

// Package vectorstore defines the contract between the ingestion pipeline
// and a vector database.
//
// # Backends
//
//   - vectorstore/qdrant: Qdrant over gRPC
//   - vectorstore/pgvector: PostgreSQL with the pgvector extension
//   - vectorstore/badger: embedded BadgerDB with brute-force search, used
//     for local runs and tests
//
// # Error Classification
//
// Every backend classifies its failures before returning them. Errors the
// caller may retry wrap ErrTransient; errors that will fail again wrap
// ErrPermanent:
//
//	if errors.Is(err, vectorstore.ErrTransient) {
//	    // back off and retry
//	}
//
// An error wrapping neither is treated as permanent by the ingestion
// pipeline.
package vectorstore
