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

// Package chunking splits document text into overlapping windows.
//
// A window of size S with overlap O starts every S-O units, so consecutive
// windows share O units of context. Units are whitespace-separated words by
// default or characters when UnitChars is selected:
//
//	windows, err := chunking.ChunkText(text, 200, 50)
//	windows, err := chunking.ChunkText(text, 4000, 200, chunking.WithUnit(chunking.UnitChars))
//
// Windows whose text is shorter than the minimum viable length (100
// characters unless overridden with WithMinLength) are dropped.
//
// Chunker binds the parameters once and turns documents into core.Chunk
// values carrying document metadata.
package chunking
