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

package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrInvalidRecord indicates a VectorRecord failed validation.
	ErrInvalidRecord = errors.New("invalid vector record")

	// ErrInvalidCollection indicates a CollectionSpec failed validation.
	ErrInvalidCollection = errors.New("invalid collection spec")

	// ErrInvalidJudgment indicates a Judgment failed validation.
	ErrInvalidJudgment = errors.New("invalid judgment")

	// ErrEmptyText indicates chunk text is empty.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrEmptyID indicates a record has no identifier.
	ErrEmptyID = errors.New("id cannot be empty")

	// ErrEmptyVector indicates a record has no embedding.
	ErrEmptyVector = errors.New("vector cannot be empty")

	// ErrEmptyName indicates a collection has no name.
	ErrEmptyName = errors.New("name cannot be empty")

	// ErrEmptySource indicates a judgment or chunk has no source.
	ErrEmptySource = errors.New("source cannot be empty")

	// ErrInvalidDimensions indicates a non-positive dimensionality.
	ErrInvalidDimensions = errors.New("dimensions must be positive")

	// ErrInvalidDistance indicates an unknown distance metric.
	ErrInvalidDistance = errors.New("invalid distance")

	// ErrUnsupportedValue indicates a metadata value of an unsupported type.
	ErrUnsupportedValue = errors.New("unsupported metadata value")
)
