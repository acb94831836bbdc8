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

// Package search finds judgment passages similar to a free-text query.
//
// The Searcher embeds the query with the same model used at ingestion time,
// asks the vector store for the nearest records in a collection, and ranks
// them. A passage that contains every significant query word gets an
// optional verbatim boost; when a judgment repository is attached, each
// hit carries the stored metadata of its source judgment.
package search
