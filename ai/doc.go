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

// Package ai provides abstractions for the AI services used by verdict.
//
// This package defines interfaces for text embeddings and judgment metadata
// formatting. The ingestion pipeline and the CLI depend on these interfaces
// rather than on a concrete model client.
//
// # Interfaces
//
//   - Embedder: Generates vector embeddings from text
//   - Formatter: Maps raw classifier output onto the judgment schema
//   - AIProvider: Aggregates AI services for convenient initialization
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// INTERFACE types. Test utility constructors (mock.NewMockEmbedder,
// mock.NewMockFormatter) return CONCRETE types so tests can inject behavior
// and check call counts.
//
// # Formatting Results
//
// Formatter.FormatJudgment returns a FormatResult whose Kind is Formatted or
// Raw. A Raw result carries a direct mapping of the input (JudgmentFromRaw)
// and the error that prevented formatting, so callers always know which kind
// of record they are storing.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithHost("http://localhost:11434"))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "breach of contract")
//	result := provider.Formatter().FormatJudgment(ctx, raw)
package ai
