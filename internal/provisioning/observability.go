package provisioning

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/go-logr/logr"
)

// Observer receives structured events during provisioning.
type Observer interface {
	// Event emits a structured event
	Event(event Event)

	// WithFields returns a new Observer with additional context fields
	WithFields(fields map[string]string) Observer
}

// Event represents a structured provisioning event.
type Event struct {
	Type      EventType         // Type of event
	Phase     string            // Phase name (e.g., "kernel-change", "power-cycle")
	Message   string            // Human-readable message
	Resource  string            // Resource name/ID if applicable
	Timestamp time.Time         // When the event occurred
	Fields    map[string]string // Additional contextual fields
	Err       error             // Cause, for failure events
}

// EventType represents the type of provisioning event.
type EventType string

const (
	// EventPhaseStarted indicates a provisioning phase has started.
	EventPhaseStarted EventType = "phase.started"
	// EventPhaseCompleted indicates a provisioning phase completed successfully.
	EventPhaseCompleted EventType = "phase.completed"
	// EventPhaseFailed indicates a provisioning phase failed.
	EventPhaseFailed EventType = "phase.failed"
	// EventPhaseSkipped indicates a phase that does not apply to the node's backend.
	EventPhaseSkipped EventType = "phase.skipped"

	// EventConflictRetry indicates a mutation was rejected as busy and will be retried.
	EventConflictRetry EventType = "retry.conflict"
	// EventDialRetry indicates a remote host was not reachable yet and the connection will be retried.
	EventDialRetry EventType = "retry.dial"
	// EventSettleWait indicates a deliberate wait for physical state to converge.
	EventSettleWait EventType = "settle.wait"

	// EventKernelSelected records the kernel chosen for a node.
	EventKernelSelected EventType = "kernel.selected"
)

// LogrObserver implements Observer on top of a logr.Logger.
type LogrObserver struct {
	log           logr.Logger
	contextFields map[string]string
}

// NewLogrObserver creates an observer writing to log.
func NewLogrObserver(log logr.Logger) *LogrObserver {
	return &LogrObserver{
		log:           log,
		contextFields: make(map[string]string),
	}
}

// Event implements Observer.
func (o *LogrObserver) Event(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	fields := maps.Clone(o.contextFields)
	if fields == nil {
		fields = make(map[string]string)
	}
	maps.Copy(fields, event.Fields)

	kv := []any{"event", string(event.Type)}
	if event.Phase != "" {
		kv = append(kv, "phase", event.Phase)
	}
	if event.Resource != "" {
		kv = append(kv, "resource", event.Resource)
	}
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		kv = append(kv, k, fields[k])
	}

	if event.Type == EventPhaseFailed {
		o.log.Error(event.Err, event.Message, kv...)
		return
	}
	if event.Type == EventConflictRetry || event.Type == EventDialRetry {
		o.log.V(1).Info(event.Message, kv...)
		return
	}
	o.log.Info(event.Message, kv...)
}

// WithFields implements Observer.
func (o *LogrObserver) WithFields(fields map[string]string) Observer {
	newFields := maps.Clone(o.contextFields)
	if newFields == nil {
		newFields = make(map[string]string)
	}
	maps.Copy(newFields, fields)

	return &LogrObserver{
		log:           o.log,
		contextFields: newFields,
	}
}

// NopObserver discards all events.
type NopObserver struct{}

// Event implements Observer.
func (NopObserver) Event(Event) {}

// WithFields implements Observer.
func (n NopObserver) WithFields(map[string]string) Observer { return n }

// Helper functions for common events

// LogPhaseStart logs a phase start event.
func LogPhaseStart(observer Observer, phase string) {
	observer.Event(Event{
		Type:    EventPhaseStarted,
		Phase:   phase,
		Message: "starting",
	})
}

// LogPhaseComplete logs a phase completion event.
func LogPhaseComplete(observer Observer, phase string, duration time.Duration) {
	observer.Event(Event{
		Type:    EventPhaseCompleted,
		Phase:   phase,
		Message: fmt.Sprintf("completed in %v", duration.Round(time.Millisecond)),
	})
}

// LogPhaseFailed logs a phase failure event.
func LogPhaseFailed(observer Observer, phase string, err error) {
	observer.Event(Event{
		Type:    EventPhaseFailed,
		Phase:   phase,
		Message: "failed",
		Err:     err,
	})
}

// LogPhaseSkipped logs a phase that was not run.
func LogPhaseSkipped(observer Observer, phase, reason string) {
	observer.Event(Event{
		Type:    EventPhaseSkipped,
		Phase:   phase,
		Message: reason,
	})
}

// LogConflictRetry logs a busy-resource rejection that is about to be retried.
func LogConflictRetry(observer Observer, operation string, wait time.Duration, err error) {
	observer.Event(Event{
		Type:    EventConflictRetry,
		Message: fmt.Sprintf("%s rejected, resource busy; retrying in %v", operation, wait),
		Fields: map[string]string{
			"operation": operation,
			"cause":     err.Error(),
		},
	})
}

// LogSettleWait logs a fixed settle delay.
func LogSettleWait(observer Observer, resource string, wait time.Duration) {
	observer.Event(Event{
		Type:     EventSettleWait,
		Resource: resource,
		Message:  fmt.Sprintf("waiting %v for state to settle", wait),
	})
}
