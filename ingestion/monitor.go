package ingestion

import (
	"fmt"
	"time"
)

// BatchState is the lifecycle state of one batch in UpsertBatched.
//
//	Pending -> Sending -> {Acked, RetryWait, Failed}
//	RetryWait -> Sending
type BatchState int

const (
	Pending BatchState = iota
	Sending
	RetryWait
	Acked
	Failed
)

func (s BatchState) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Sending:
		return "SENDING"
	case RetryWait:
		return "RETRY_WAIT"
	case Acked:
		return "ACKED"
	case Failed:
		return "FAILED"
	default:
		return fmt.Sprintf("BatchState(%d)", int(s))
	}
}

// Terminal reports whether no further transition follows.
func (s BatchState) Terminal() bool {
	return s == Acked || s == Failed
}

// BatchEvent describes a state transition of one batch.
type BatchEvent struct {
	Collection string
	// Batch is the 1-based batch number within the call.
	Batch int
	// Batches is the number of batches in the call.
	Batches int
	// Size is the number of records in the batch.
	Size    int
	State   BatchState
	Attempt int
	// Wait is the backoff about to be slept. Set for RetryWait only.
	Wait time.Duration
	Err  error
}

// UpsertMonitor observes batch transitions. Calls are made synchronously
// from the upsert loop, so implementations should return quickly.
type UpsertMonitor interface {
	OnBatch(ev BatchEvent)
}

// MonitorFunc adapts a function to UpsertMonitor.
type MonitorFunc func(ev BatchEvent)

// OnBatch calls f.
func (f MonitorFunc) OnBatch(ev BatchEvent) { f(ev) }

// Monitors fans events out to several monitors in order.
type Monitors []UpsertMonitor

// OnBatch forwards ev to every monitor.
func (ms Monitors) OnBatch(ev BatchEvent) {
	for _, m := range ms {
		if m != nil {
			m.OnBatch(ev)
		}
	}
}

type noopMonitor struct{}

func (noopMonitor) OnBatch(BatchEvent) {}
