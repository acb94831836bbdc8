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

import (
	"fmt"
	"strings"
)

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - Source must not be empty
//   - Index must not be negative
//   - Metadata values must be of a supported type
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyText)
	}

	if chunk.Source == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptySource)
	}

	if chunk.Index < 0 {
		return fmt.Errorf("%w: negative index %d", ErrInvalidChunk, chunk.Index)
	}

	if err := ValidateMetadata(chunk.Metadata); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, err)
	}

	return nil
}

// ValidateVectorRecord validates a VectorRecord before it is written.
//
// NOT validated:
//   - Vector length (checked against the collection by the pipeline)
func ValidateVectorRecord(record *VectorRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}

	if record.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyID)
	}

	if len(record.Vector) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyVector)
	}

	if err := ValidateMetadata(record.Payload); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	return nil
}

// ValidateCollectionSpec validates a CollectionSpec.
func ValidateCollectionSpec(spec CollectionSpec) error {
	if spec.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCollection, ErrEmptyName)
	}

	if spec.Dimensions <= 0 {
		return fmt.Errorf("%w: %w: %d", ErrInvalidCollection, ErrInvalidDimensions, spec.Dimensions)
	}

	if _, err := ParseDistance(string(spec.Distance)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCollection, err)
	}

	return nil
}

// ValidateJudgment validates judgment metadata before it is stored.
func ValidateJudgment(j *Judgment) error {
	if j == nil {
		return fmt.Errorf("%w: judgment is nil", ErrInvalidJudgment)
	}

	if j.Source == "" {
		return fmt.Errorf("%w: %w", ErrInvalidJudgment, ErrEmptySource)
	}

	return nil
}

// ValidateMetadata checks that every value has a supported type.
func ValidateMetadata(m Metadata) error {
	for k, v := range m {
		switch v.(type) {
		case string, int64, float64, bool, []string:
		default:
			return fmt.Errorf("%w: key %q has type %T", ErrUnsupportedValue, k, v)
		}
	}
	return nil
}

// ParseDistance converts a configuration string to a Distance.
// An empty string selects cosine.
func ParseDistance(s string) (Distance, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cosine":
		return DistanceCosine, nil
	case "dot":
		return DistanceDot, nil
	case "euclid", "euclidean":
		return DistanceEuclid, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDistance, s)
	}
}
