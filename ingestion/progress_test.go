package ingestion

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker_Basic(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 100, 10)

	tracker.Start()
	tracker.Increment(25)
	tracker.Increment(25)
	tracker.Increment(50)

	assert.Greater(t, tracker.Elapsed(), time.Duration(0))
	assert.Contains(t, buf.String(), "100/100 records")
	assert.Contains(t, buf.String(), "100.0%")
}

func TestProgressTracker_NotStarted(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 10, 1)

	tracker.Increment(5)
	tracker.OnBatch(BatchEvent{State: Acked, Size: 5})
	tracker.Finish()

	assert.Zero(t, tracker.Current())
	assert.Zero(t, tracker.Elapsed())
	assert.Empty(t, buf.String())
}

func TestProgressTracker_CapsAtTotal(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 10, 1)
	tracker.Start()

	tracker.Increment(15)
	assert.Equal(t, 10, tracker.Current())

	tracker.AddTotal(10)
	tracker.Increment(5)
	assert.Equal(t, 15, tracker.Current())
}

func TestProgressTracker_OnBatch(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 45, 1)
	tracker.Start()

	tracker.OnBatch(BatchEvent{Collection: "judgments", Batch: 1, Batches: 3, Size: 20, State: Sending, Attempt: 1})
	assert.Zero(t, tracker.Current(), "only acknowledged batches count")

	tracker.OnBatch(BatchEvent{Collection: "judgments", Batch: 1, Batches: 3, Size: 20, State: Acked, Attempt: 1})
	tracker.OnBatch(BatchEvent{Collection: "judgments", Batch: 2, Batches: 3, Size: 20, State: RetryWait, Attempt: 1, Wait: 2 * time.Second, Err: errors.New("timeout")})
	tracker.OnBatch(BatchEvent{Collection: "judgments", Batch: 2, Batches: 3, Size: 20, State: Failed, Attempt: 4})
	tracker.Finish()

	out := buf.String()
	assert.Equal(t, 20, tracker.Current())
	assert.Contains(t, out, "20/45 records")
	assert.Contains(t, out, "batch 2/3 of judgments: attempt 1 failed, retrying in 2s")
	assert.Contains(t, out, "batch 2/3 of judgments: failed after 4 attempt(s)")
}

func TestBatchState(t *testing.T) {
	assert.Equal(t, "PENDING", Pending.String())
	assert.Equal(t, "RETRY_WAIT", RetryWait.String())
	assert.Equal(t, "BatchState(9)", BatchState(9).String())
	assert.True(t, Acked.Terminal())
	assert.True(t, Failed.Terminal())
	assert.False(t, Sending.Terminal())
}

func TestMonitors(t *testing.T) {
	var a, b []BatchState
	ms := Monitors{
		MonitorFunc(func(ev BatchEvent) { a = append(a, ev.State) }),
		nil,
		MonitorFunc(func(ev BatchEvent) { b = append(b, ev.State) }),
	}
	ms.OnBatch(BatchEvent{State: Sending})
	assert.Equal(t, []BatchState{Sending}, a)
	assert.Equal(t, []BatchState{Sending}, b)
}
