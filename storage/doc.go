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

// Package storage provides the document storage layer for verdict.
//
// Two repositories live here. JudgmentRepository holds structured judgment
// metadata keyed by source file name. LedgerRepository records which
// documents have been fully written to which vector collection, so a re-run
// can skip them.
//
// # Constructor Return Type Pattern
//
// Public constructors in the backend packages return the interfaces defined
// here:
//
//	judgments, err := badger.NewJudgmentRepository(backend)  // storage.JudgmentRepository
//	judgments, err := mongo.NewJudgmentRepository(ctx, db)    // storage.JudgmentRepository
//
// # Backends
//
//   - storage/badger: embedded BadgerDB, values encoded with mus-go
//   - storage/mongo: MongoDB collections through the v2 driver
//
// # Serialization
//
// MarshalJudgment, MarshalLedgerEntry, MarshalVectorRecord and
// MarshalCollectionSpec produce a compact, versioned mus encoding used by
// every BadgerDB-backed store in the module, including the embedded vector
// store.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
