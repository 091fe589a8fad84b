package provisioning

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConflictError(t *testing.T) {
	t.Parallel()
	cause := errors.New("Droplet already has a pending event.")
	err := &ConflictError{Op: "change-kernel", Resource: "droplet 42", Err: cause}

	assert.Equal(t, "change-kernel on droplet 42: resource busy: Droplet already has a pending event.", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestIsConflict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
		{name: "conflict", err: &ConflictError{Op: "shutdown"}, want: true},
		{name: "wrapped conflict", err: fmt.Errorf("shutting down: %w", &ConflictError{Op: "shutdown"}), want: true},
		{name: "provider unavailable", err: &ProviderUnavailableError{Op: "shutdown", Err: errors.New("401")}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsConflict(tt.err))
		})
	}
}

func TestCommandExecutionError(t *testing.T) {
	t.Parallel()

	t.Run("with output", func(t *testing.T) {
		t.Parallel()
		err := &CommandExecutionError{
			Address:    "192.0.2.10",
			Command:    "yum install -y kernel",
			ExitStatus: 1,
			Output:     "No package kernel available.\n",
		}
		assert.Equal(t, "command failed on 192.0.2.10 with exit status 1: yum install -y kernel\nOutput: No package kernel available.", err.Error())
	})

	t.Run("with cause", func(t *testing.T) {
		t.Parallel()
		cause := errors.New("session closed")
		err := &CommandExecutionError{Address: "host", Command: "true", ExitStatus: -1, Err: cause}
		assert.Contains(t, err.Error(), "session closed")
		assert.ErrorIs(t, err, cause)
	})
}

func TestPhaseError(t *testing.T) {
	t.Parallel()
	cause := &CommandExecutionError{Address: "host", Command: "false", ExitStatus: 1}
	err := fmt.Errorf("provisioning failed: %w", &PhaseError{NodeID: "42", Phase: "install-kernel", Err: cause})

	assert.Equal(t, "install-kernel", FailedPhase(err))
	var cmdErr *CommandExecutionError
	assert.ErrorAs(t, err, &cmdErr)
	assert.Contains(t, err.Error(), "node 42: install-kernel")
	assert.Empty(t, FailedPhase(errors.New("plain")))
}
