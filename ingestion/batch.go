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

package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/verdict/core"
	"github.com/poiesic/verdict/vectorstore"
)

const (
	DefaultBatchSize  = 20
	DefaultMaxRetries = 3
	DefaultRetryUnit  = time.Second
)

// BatchOptions controls UpsertBatched.
type BatchOptions struct {
	// BatchSize is the maximum number of records per store call.
	BatchSize int
	// MaxRetries is the number of retries after the first attempt of a
	// batch. A batch is attempted at most MaxRetries+1 times.
	MaxRetries int
	// RetryUnit scales the backoff: retry k waits RetryUnit * 2^k.
	RetryUnit time.Duration
	// Monitor observes batch state transitions. Optional.
	Monitor UpsertMonitor
	// Logger defaults to slog.Default().
	Logger *slog.Logger

	sleep sleepFunc
}

// DefaultBatchOptions returns BatchSize 20, MaxRetries 3 and RetryUnit 1s.
func DefaultBatchOptions() BatchOptions {
	return BatchOptions{
		BatchSize:  DefaultBatchSize,
		MaxRetries: DefaultMaxRetries,
		RetryUnit:  DefaultRetryUnit,
	}
}

// Validate checks the numeric options.
func (o BatchOptions) Validate() error {
	if o.BatchSize < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidBatchSize, o.BatchSize)
	}
	if o.MaxRetries < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxRetries, o.MaxRetries)
	}
	if o.RetryUnit < 0 {
		return fmt.Errorf("%w: got %s", ErrInvalidRetryUnit, o.RetryUnit)
	}
	return nil
}

// UpsertResult summarizes one UpsertBatched call.
type UpsertResult struct {
	BatchesAttempted int
	RecordsWritten   int
	BatchesFailed    int
	// Attempts holds the number of store calls made for each attempted batch.
	Attempts []int
}

// Add accumulates other into r.
func (r *UpsertResult) Add(other UpsertResult) {
	r.BatchesAttempted += other.BatchesAttempted
	r.RecordsWritten += other.RecordsWritten
	r.BatchesFailed += other.BatchesFailed
	r.Attempts = append(r.Attempts, other.Attempts...)
}

// BatchError reports the batch that stopped an UpsertBatched call.
type BatchError struct {
	// Batch is the 1-based batch number.
	Batch    int
	Attempts int
	Err      error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch %d failed after %d attempt(s): %v", e.Batch, e.Attempts, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// UpsertBatched writes records to collection in consecutive batches of at
// most opts.BatchSize, strictly in order and one at a time.
//
// Errors wrapping vectorstore.ErrTransient are retried with exponential
// backoff; any other error fails the batch on its first attempt. The first
// failed batch stops the call with a *BatchError. Batches written before it
// stay in the store.
func UpsertBatched(ctx context.Context, store vectorstore.Store, collection string, records []*core.VectorRecord, opts BatchOptions) (UpsertResult, error) {
	var result UpsertResult

	if store == nil {
		return result, ErrStoreRequired
	}
	if err := opts.Validate(); err != nil {
		return result, err
	}
	if len(records) == 0 {
		return result, nil
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "upsert", "collection", collection)

	monitor := opts.Monitor
	if monitor == nil {
		monitor = noopMonitor{}
	}

	batches := (len(records) + opts.BatchSize - 1) / opts.BatchSize
	for b := 0; b < batches; b++ {
		start := b * opts.BatchSize
		end := min(start+opts.BatchSize, len(records))
		batch := records[start:end]

		ev := BatchEvent{
			Collection: collection,
			Batch:      b + 1,
			Batches:    batches,
			Size:       len(batch),
			State:      Pending,
		}
		monitor.OnBatch(ev)

		policy := retryPolicy{
			maxRetries: opts.MaxRetries,
			unit:       opts.RetryUnit,
			retryable:  vectorstore.IsTransient,
			sleep:      opts.sleep,
			onRetry: func(attempt int, wait time.Duration, err error) {
				logger.Warn("batch failed, will retry",
					"batch", b+1, "attempt", attempt, "max_attempts", opts.MaxRetries+1,
					"wait", wait, "err", err)
				retry := ev
				retry.State, retry.Attempt, retry.Wait, retry.Err = RetryWait, attempt, wait, err
				monitor.OnBatch(retry)
			},
		}

		attempts, err := policy.run(ctx, func(attempt int) error {
			sending := ev
			sending.State, sending.Attempt = Sending, attempt
			monitor.OnBatch(sending)
			return store.Upsert(ctx, collection, batch)
		})

		if attempts > 0 {
			result.BatchesAttempted++
			result.Attempts = append(result.Attempts, attempts)
		}

		if err != nil {
			if attempts > 0 {
				result.BatchesFailed++
			}
			failed := ev
			failed.State, failed.Attempt, failed.Err = Failed, attempts, err
			monitor.OnBatch(failed)

			logger.Error("batch failed",
				"batch", b+1, "batches", batches, "attempts", attempts,
				"transient", vectorstore.IsTransient(err), "err", err)

			// Cancellation during backoff or before sending is returned as is.
			if ctxErr := ctx.Err(); ctxErr != nil && err == ctxErr {
				return result, err
			}
			return result, &BatchError{Batch: b + 1, Attempts: attempts, Err: err}
		}

		result.RecordsWritten += len(batch)
		acked := ev
		acked.State, acked.Attempt = Acked, attempts
		monitor.OnBatch(acked)

		logger.Info("batch written", "batch", b+1, "batches", batches, "records", len(batch), "attempts", attempts)
	}

	return result, nil
}
