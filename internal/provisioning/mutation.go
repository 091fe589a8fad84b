package provisioning

import (
	"context"
	"time"

	"github.com/imamik/nodeprov/internal/util/retry"
)

// Mutate runs a provider mutation under policy, retrying while the provider
// reports a conflict. Each retry is reported to observer and metrics.
func Mutate(ctx context.Context, policy retry.Policy, observer Observer, metrics *Metrics, operation string, fn func(context.Context) error) error {
	if observer == nil {
		observer = NopObserver{}
	}
	p := policy.WithNotify(func(err error, wait time.Duration) {
		metrics.RecordConflictRetry(operation)
		LogConflictRetry(observer, operation, wait, err)
	})
	return p.Do(ctx, fn, IsConflict)
}
