package qdrant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/poiesic/verdict/vectorstore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// classify maps gRPC status codes onto the transient/permanent taxonomy.
// An expired per-request deadline is transient; a cancelled caller context
// is permanent so the retry loop stops.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return vectorstore.Permanent(err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return vectorstore.Transient(err)
	}

	st, ok := status.FromError(err)
	if !ok {
		return vectorstore.Permanent(err)
	}

	switch st.Code() {
	case codes.Unavailable:
		return vectorstore.Transient(fmt.Errorf("%w: %w", vectorstore.ErrStoreUnavailable, err))
	case codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return vectorstore.Transient(err)
	case codes.NotFound:
		return vectorstore.Permanent(fmt.Errorf("%w: %w", vectorstore.ErrCollectionNotFound, err))
	case codes.AlreadyExists:
		return vectorstore.Permanent(fmt.Errorf("%w: %w", vectorstore.ErrCollectionExists, err))
	case codes.InvalidArgument:
		if isDimensionError(st.Message()) {
			return vectorstore.Permanent(fmt.Errorf("%w: %w", vectorstore.ErrDimensionMismatch, err))
		}
		return vectorstore.Permanent(err)
	default:
		return vectorstore.Permanent(err)
	}
}

// isDimensionError recognises Qdrant's wrong-vector-size message.
func isDimensionError(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "dimension") || strings.Contains(msg, "vector size")
}
