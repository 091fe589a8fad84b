package provisioning

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoMatchingKernel is returned when no available kernel matches the required prefix.
var ErrNoMatchingKernel = errors.New("no matching kernel")

// ConflictError reports that the provider rejected a mutation because another
// one is already pending on the same resource. It is the only retryable error.
type ConflictError struct {
	Op       string
	Resource string
	Err      error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s on %s: resource busy: %v", e.Op, e.Resource, e.Err)
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

// IsConflict reports whether err is, or wraps, a *ConflictError.
func IsConflict(err error) bool {
	var conflict *ConflictError
	return errors.As(err, &conflict)
}

// ProviderUnavailableError wraps transport and authentication failures
// talking to the provider. These are never retried.
type ProviderUnavailableError struct {
	Op  string
	Err error
}

func (e *ProviderUnavailableError) Error() string {
	return fmt.Sprintf("provider unavailable during %s: %v", e.Op, e.Err)
}

func (e *ProviderUnavailableError) Unwrap() error {
	return e.Err
}

// CommandExecutionError reports a remote command that failed. Output and exit
// status are kept for diagnostics.
type CommandExecutionError struct {
	Address    string
	Command    string
	ExitStatus int
	Output     string
	Err        error
}

func (e *CommandExecutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "command failed on %s with exit status %d: %s", e.Address, e.ExitStatus, e.Command)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		fmt.Fprintf(&b, "\nOutput: %s", out)
	}
	return b.String()
}

func (e *CommandExecutionError) Unwrap() error {
	return e.Err
}

// PhaseError attaches the node and the failing step to an error.
type PhaseError struct {
	NodeID string
	Phase  string
	Err    error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("node %s: %s: %v", e.NodeID, e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// FailedPhase returns the phase name recorded on err, or "" if err carries none.
func FailedPhase(err error) string {
	var pe *PhaseError
	if errors.As(err, &pe) {
		return pe.Phase
	}
	return ""
}
