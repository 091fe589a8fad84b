package power

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/imamik/nodeprov/internal/provisioning"
	"github.com/imamik/nodeprov/internal/util/retry"
)

// DefaultSettleDelay is the wait between an acknowledged shutdown and the
// power-on request. Powering on sooner is rejected or ignored by the provider.
const DefaultSettleDelay = 30 * time.Second

// Client is the part of the provider API needed to power-cycle a node.
type Client interface {
	Shutdown(ctx context.Context, h *provisioning.Handle) error
	PowerOn(ctx context.Context, h *provisioning.Handle) error
}

// Controller shuts a node down and powers it back on.
type Controller struct {
	client   Client
	policy   retry.Policy
	settle   time.Duration
	timer    backoff.Timer
	observer provisioning.Observer
	metrics  *provisioning.Metrics
}

// Option configures a Controller.
type Option func(*Controller)

// WithSettleDelay overrides DefaultSettleDelay.
func WithSettleDelay(d time.Duration) Option {
	return func(c *Controller) {
		c.settle = d
	}
}

// WithTimer sets the timer used for the settle delay.
// By default the retry policy's timer is used.
func WithTimer(t backoff.Timer) Option {
	return func(c *Controller) {
		c.timer = t
	}
}

// WithObserver sets the event observer.
func WithObserver(o provisioning.Observer) Option {
	return func(c *Controller) {
		c.observer = o
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *provisioning.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// NewController creates a Controller whose mutations are retried under policy.
func NewController(client Client, policy retry.Policy, opts ...Option) *Controller {
	c := &Controller{
		client:   client,
		policy:   policy,
		settle:   DefaultSettleDelay,
		timer:    policy.Timer,
		observer: provisioning.NopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cycle shuts the node down, waits for it to settle, then powers it on.
// Any non-conflict failure aborts the cycle; a node left off is not powered
// back on.
func (c *Controller) Cycle(ctx context.Context, h *provisioning.Handle) error {
	err := provisioning.Mutate(ctx, c.policy, c.observer, c.metrics, "shutdown", func(ctx context.Context) error {
		return c.client.Shutdown(ctx, h)
	})
	if err != nil {
		return fmt.Errorf("failed to shut down %s: %w", h.ID, err)
	}

	provisioning.LogSettleWait(c.observer, h.ID, c.settle)
	if err := retry.Sleep(ctx, c.settle, c.timer); err != nil {
		return fmt.Errorf("interrupted waiting for %s to power off: %w", h.ID, err)
	}

	err = provisioning.Mutate(ctx, c.policy, c.observer, c.metrics, "power-on", func(ctx context.Context) error {
		return c.client.PowerOn(ctx, h)
	})
	if err != nil {
		return fmt.Errorf("failed to power on %s: %w", h.ID, err)
	}
	return nil
}
