package pgvector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/poiesic/verdict/vectorstore"
)

// classify maps PostgreSQL failures onto the transient/permanent taxonomy.
//
// Transient: connection failures, timeouts, serialization failures,
// deadlocks, insufficient resources and admin shutdown.
// Permanent: everything else, including syntax and constraint errors.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return vectorstore.Permanent(err)
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return vectorstore.Transient(err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "40001", pgErr.Code == "40P01":
			return vectorstore.Transient(err)
		case strings.HasPrefix(pgErr.Code, "08"), strings.HasPrefix(pgErr.Code, "53"), pgErr.Code == "57P01":
			return vectorstore.Transient(fmt.Errorf("%w: %w", vectorstore.ErrStoreUnavailable, err))
		case pgErr.Code == "22000" && strings.Contains(pgErr.Message, "dimensions"):
			return vectorstore.Permanent(fmt.Errorf("%w: %w", vectorstore.ErrDimensionMismatch, err))
		default:
			return vectorstore.Permanent(err)
		}
	}

	var connErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connErr) || errors.As(err, &netErr) || pgconn.SafeToRetry(err) {
		return vectorstore.Transient(fmt.Errorf("%w: %w", vectorstore.ErrStoreUnavailable, err))
	}

	return vectorstore.Permanent(err)
}
