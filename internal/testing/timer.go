package testing

import (
	"fmt"
	"slices"
	"sync"
	"time"
)

// Journal records named events in order. It is safe for concurrent use.
type Journal struct {
	mu      sync.Mutex
	entries []string
}

// Add appends an entry.
func (j *Journal) Add(format string, args ...any) {
	if j == nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, fmt.Sprintf(format, args...))
}

// Entries returns a copy of the recorded entries.
func (j *Journal) Entries() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return slices.Clone(j.entries)
}

// RecordingTimer implements backoff.Timer without waiting: every Start fires
// at once and the requested duration is recorded. Use one timer per goroutine.
type RecordingTimer struct {
	Journal *Journal

	mu    sync.Mutex
	waits []time.Duration
	c     chan time.Time
}

// NewRecordingTimer creates a timer that also writes "sleep <d>" to journal, if non-nil.
func NewRecordingTimer(journal *Journal) *RecordingTimer {
	return &RecordingTimer{
		Journal: journal,
		c:       make(chan time.Time, 1),
	}
}

// Start records d and fires immediately.
func (t *RecordingTimer) Start(d time.Duration) {
	t.mu.Lock()
	t.waits = append(t.waits, d)
	t.mu.Unlock()
	t.Journal.Add("sleep %v", d)

	select {
	case t.c <- time.Now():
	default:
	}
}

// Stop implements backoff.Timer.
func (t *RecordingTimer) Stop() {}

// C implements backoff.Timer.
func (t *RecordingTimer) C() <-chan time.Time {
	return t.c
}

// Waits returns the durations passed to Start, in order.
func (t *RecordingTimer) Waits() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.waits)
}
