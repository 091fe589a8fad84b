package provisioning

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/nodeprov/internal/util/retry"
)

type firingTimer struct {
	c chan time.Time
}

func (t *firingTimer) Start(time.Duration) {
	select {
	case t.c <- time.Now():
	default:
	}
}

func (t *firingTimer) Stop()               {}
func (t *firingTimer) C() <-chan time.Time { return t.c }

func testPolicy(maxAttempts int) retry.Policy {
	return retry.Policy{
		Interval:    time.Second,
		MaxAttempts: maxAttempts,
		Timer:       &firingTimer{c: make(chan time.Time, 1)},
	}
}

func TestMutate_RetriesConflicts(t *testing.T) {
	t.Parallel()
	obs := &MockObserver{}
	m := NewMetrics(nil)
	calls := 0

	err := Mutate(context.Background(), testPolicy(0), obs, m, "change-kernel", func(context.Context) error {
		calls++
		if calls <= 2 {
			return &ConflictError{Op: "change-kernel", Resource: "droplet", Err: errors.New("pending")}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, obs.events, 2)
	assert.Equal(t, float64(2), testutil.ToFloat64(m.conflictRetries.WithLabelValues("change-kernel")))
}

func TestMutate_OtherErrorsAbort(t *testing.T) {
	t.Parallel()
	calls := 0
	unavailable := &ProviderUnavailableError{Op: "shutdown", Err: errors.New("connection refused")}

	err := Mutate(context.Background(), testPolicy(0), nil, nil, "shutdown", func(context.Context) error {
		calls++
		return unavailable
	})

	require.ErrorIs(t, err, unavailable)
	assert.Equal(t, 1, calls)
}

func TestMutate_Exhausted(t *testing.T) {
	t.Parallel()

	err := Mutate(context.Background(), testPolicy(3), NopObserver{}, nil, "power-on", func(context.Context) error {
		return &ConflictError{Op: "power-on"}
	})

	require.ErrorIs(t, err, retry.ErrExhausted)
	assert.True(t, IsConflict(err))
}

func TestMutate_PassesDeadlineToMutation(t *testing.T) {
	t.Parallel()
	policy := testPolicy(0)
	policy.Deadline = time.Minute
	var hasDeadline bool

	err := Mutate(context.Background(), policy, nil, nil, "power-off", func(ctx context.Context) error {
		_, hasDeadline = ctx.Deadline()
		return nil
	})

	require.NoError(t, err)
	assert.True(t, hasDeadline)
}
