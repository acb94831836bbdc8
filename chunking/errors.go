package chunking

import "errors"

var (
	// ErrInvalidSize indicates a non-positive window size.
	ErrInvalidSize = errors.New("chunk size must be positive")

	// ErrInvalidOverlap indicates an overlap outside [0, size).
	ErrInvalidOverlap = errors.New("overlap must be non-negative and smaller than chunk size")

	// ErrInvalidUnit indicates an unknown chunking unit.
	ErrInvalidUnit = errors.New("invalid chunk unit")
)
