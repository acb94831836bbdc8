package vectorstore

import (
	"errors"
	"fmt"
)

var (
	// ErrTransient marks failures that may succeed on retry: timeouts,
	// connection resets, rate limits, temporary unavailability.
	ErrTransient = errors.New("transient vector store error")

	// ErrPermanent marks failures that will not succeed on retry:
	// malformed records, authentication, schema conflicts.
	ErrPermanent = errors.New("permanent vector store error")

	// ErrStoreUnavailable indicates the store could not be reached.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrCollectionNotFound indicates the named collection does not exist.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrCollectionExists indicates a create for a collection that exists.
	ErrCollectionExists = errors.New("collection already exists")

	// ErrDimensionMismatch indicates a vector or collection whose
	// dimensionality differs from the expected one.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Transient wraps err as retryable. Returns nil for a nil err.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// Permanent wraps err as non-retryable. Returns nil for a nil err.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// IsTransient reports whether err is marked retryable.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
