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
	"time"
)

// sleepFunc waits for d or until ctx is done.
type sleepFunc func(ctx context.Context, d time.Duration) error

// sleepContext sleeps with context awareness.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// backoff returns the wait before retry number retry (starting at 1):
// unit * 2^retry.
func backoff(unit time.Duration, retry int) time.Duration {
	delay := unit
	for i := 0; i < retry; i++ {
		delay *= 2
	}
	return delay
}

// retryPolicy runs op until it succeeds, returns a non-retryable error, or
// has been attempted maxRetries+1 times.
type retryPolicy struct {
	maxRetries int
	unit       time.Duration
	retryable  func(error) bool
	sleep      sleepFunc
	// onRetry is called before each backoff sleep.
	onRetry func(attempt int, wait time.Duration, err error)
}

// run returns the number of attempts made and the last error.
func (p retryPolicy) run(ctx context.Context, op func(attempt int) error) (int, error) {
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	attempt := 0
	for attempt < p.maxRetries+1 {
		if err := ctx.Err(); err != nil {
			return attempt, err
		}

		attempt++
		lastErr = op(attempt)
		if lastErr == nil {
			return attempt, nil
		}
		if !p.retryable(lastErr) || attempt == p.maxRetries+1 {
			break
		}

		wait := backoff(p.unit, attempt)
		if p.onRetry != nil {
			p.onRetry(attempt, wait, lastErr)
		}
		if err := sleep(ctx, wait); err != nil {
			return attempt, err
		}
	}
	return attempt, lastErr
}
