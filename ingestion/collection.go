package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/verdict/core"
	"github.com/poiesic/verdict/vectorstore"
)

// EnsureCollection makes the collection described by spec available.
//
// With destructive set, an existing collection is deleted and recreated
// empty. Otherwise the collection is created only if absent, and an existing
// collection must match spec's dimensionality and distance. No retries are
// made here; an unreachable store surfaces as vectorstore.ErrStoreUnavailable.
func EnsureCollection(ctx context.Context, store vectorstore.Store, spec core.CollectionSpec, destructive bool) error {
	if store == nil {
		return ErrStoreRequired
	}
	if spec.Dimensions <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidDimensions, spec.Dimensions)
	}
	if spec.Distance == "" {
		spec.Distance = core.DistanceCosine
	}

	logger := slog.Default().With("component", "collection", "collection", spec.Name)

	exists, err := store.CollectionExists(ctx, spec.Name)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", spec.Name, err)
	}

	if exists && destructive {
		logger.Info("dropping collection for refresh")
		if err := store.DeleteCollection(ctx, spec.Name); err != nil {
			return fmt.Errorf("delete collection %s: %w", spec.Name, err)
		}
		exists = false
	}

	if exists {
		return verifyCollection(ctx, store, spec)
	}

	if err := store.CreateCollection(ctx, spec); err != nil {
		if !destructive && errors.Is(err, vectorstore.ErrCollectionExists) {
			// Created concurrently; hold it to the same spec.
			return verifyCollection(ctx, store, spec)
		}
		return fmt.Errorf("create collection %s: %w", spec.Name, err)
	}
	logger.Info("created collection", "dimensions", spec.Dimensions, "distance", spec.Distance)
	return nil
}

func verifyCollection(ctx context.Context, store vectorstore.Store, spec core.CollectionSpec) error {
	info, err := store.DescribeCollection(ctx, spec.Name)
	if err != nil {
		return fmt.Errorf("describe collection %s: %w", spec.Name, err)
	}
	if !info.Matches(spec) {
		return fmt.Errorf("%w: collection %s has %d dimensions (%s), expected %d (%s)",
			vectorstore.ErrDimensionMismatch, spec.Name,
			info.Dimensions, info.Distance, spec.Dimensions, spec.Distance)
	}
	return nil
}
