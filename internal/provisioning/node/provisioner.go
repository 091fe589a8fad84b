package node

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/imamik/nodeprov/internal/provisioning"
	"github.com/imamik/nodeprov/internal/provisioning/kernel"
	"github.com/imamik/nodeprov/internal/provisioning/power"
	"github.com/imamik/nodeprov/internal/util/retry"
)

// Backend selects how nodes are brought up.
type Backend string

const (
	// BackendDynamic provisions nodes through the cloud provider API.
	BackendDynamic Backend = "dynamic"
	// BackendStatic targets pre-built nodes (for example Vagrant boxes);
	// only the standard install runs.
	BackendStatic Backend = "static"
)

// Valid reports whether b is a known backend.
func (b Backend) Valid() bool {
	return b == BackendDynamic || b == BackendStatic
}

// Phase names, in execution order.
const (
	PhaseResolveNode   = "resolve-node"
	PhaseSelectKernel  = "select-kernel"
	PhaseChangeKernel  = "change-kernel"
	PhaseInstallKernel = "install-kernel"
	PhasePowerCycle    = "power-cycle"
	PhaseInstall       = "install"
)

// Phases lists every phase in execution order.
var Phases = []string{
	PhaseResolveNode,
	PhaseSelectKernel,
	PhaseChangeKernel,
	PhaseInstallKernel,
	PhasePowerCycle,
	PhaseInstall,
}

// Profile describes the provider image family a node runs.
type Profile struct {
	// KernelPrefix selects candidate kernels by name.
	KernelPrefix string
	// DistributionTag is the package distribution suffix, e.g. "fc20".
	DistributionTag string
	// Architecture is the package architecture, e.g. "x86_64".
	Architecture string
	Ordering     kernel.Ordering
}

// DefaultProfile returns the Fedora 20 profile.
func DefaultProfile() Profile {
	return Profile{
		KernelPrefix:    "Fedora 20 x64",
		DistributionTag: "fc20",
		Architecture:    "x86_64",
		Ordering:        kernel.OrderingNumeric,
	}
}

// Request is the input to one provisioning run.
type Request struct {
	Node          provisioning.Node
	PackageSource provisioning.PackageSource
	// Distribution selects the standard install plan. Empty uses Node.Distribution.
	Distribution string
	Credentials  provisioning.Credentials
}

// Provisioner runs provisioning requests. It holds no per-run state and is
// safe for concurrent use as long as its collaborators are.
type Provisioner struct {
	cloud   provisioning.CloudClient
	runner  provisioning.CommandRunner
	planner provisioning.InstallPlanner
	policy  retry.Policy
	profile Profile
	backend Backend

	settle      time.Duration
	settleTimer backoff.Timer
	observer    provisioning.Observer
	metrics     *provisioning.Metrics
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithBackend sets the backend. The default is BackendDynamic.
func WithBackend(b Backend) Option {
	return func(p *Provisioner) {
		p.backend = b
	}
}

// WithProfile overrides DefaultProfile.
func WithProfile(profile Profile) Option {
	return func(p *Provisioner) {
		p.profile = profile
	}
}

// WithSettleDelay overrides the wait between shutdown and power-on.
func WithSettleDelay(d time.Duration) Option {
	return func(p *Provisioner) {
		p.settle = d
	}
}

// WithSettleTimer sets the timer used for the settle delay.
func WithSettleTimer(t backoff.Timer) Option {
	return func(p *Provisioner) {
		p.settleTimer = t
	}
}

// WithObserver sets the event observer.
func WithObserver(o provisioning.Observer) Option {
	return func(p *Provisioner) {
		p.observer = o
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *provisioning.Metrics) Option {
	return func(p *Provisioner) {
		p.metrics = m
	}
}

// New creates a Provisioner. cloud may be nil when the backend is static.
func New(cloud provisioning.CloudClient, runner provisioning.CommandRunner, planner provisioning.InstallPlanner, policy retry.Policy, opts ...Option) *Provisioner {
	p := &Provisioner{
		cloud:    cloud,
		runner:   runner,
		planner:  planner,
		policy:   policy,
		profile:  DefaultProfile(),
		backend:  BackendDynamic,
		settle:   power.DefaultSettleDelay,
		observer: provisioning.NopObserver{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.settleTimer == nil {
		p.settleTimer = p.policy.Timer
	}
	return p
}

// Provision brings one node to a provisioned state and returns its address.
func (p *Provisioner) Provision(ctx context.Context, req Request) (address string, err error) {
	if req.Node.Address == "" {
		return "", fmt.Errorf("node %s: address is required", req.Node.ID)
	}
	if p.backend == BackendDynamic && p.cloud == nil {
		return "", errors.New("dynamic backend requires a cloud client")
	}

	defer func() { p.metrics.RecordRun(err) }()

	distribution := req.Distribution
	if distribution == "" {
		distribution = req.Node.Distribution
	}
	r := &run{
		p:        p,
		req:      req,
		observer: p.observer.WithFields(map[string]string{"node": req.Node.ID}),
	}

	if p.backend == BackendStatic {
		for _, phase := range Phases[:len(Phases)-1] {
			provisioning.LogPhaseSkipped(r.observer, phase, "static backend")
		}
	} else if err := r.switchKernel(ctx); err != nil {
		return "", err
	}

	err = r.phase(ctx, PhaseInstall, func(ctx context.Context) error {
		plan, err := p.planner.StandardInstallCommands(req.PackageSource, distribution)
		if err != nil {
			return err
		}
		return p.runner.Run(ctx, req.Node.Address, req.Credentials, plan)
	})
	if err != nil {
		return "", err
	}
	return req.Node.Address, nil
}

// run carries the state of one Provision call.
type run struct {
	p        *Provisioner
	req      Request
	observer provisioning.Observer

	handle *provisioning.Handle
	kernel provisioning.Kernel
}

func (r *run) switchKernel(ctx context.Context) error {
	p := r.p

	err := r.phase(ctx, PhaseResolveNode, func(ctx context.Context) error {
		h, err := p.cloud.GetNode(ctx, r.req.Node.ID)
		if err != nil {
			return err
		}
		r.handle = h
		return nil
	})
	if err != nil {
		return err
	}

	err = r.phase(ctx, PhaseSelectKernel, func(ctx context.Context) error {
		kernels, err := p.cloud.AvailableKernels(ctx, r.handle)
		if err != nil {
			return err
		}
		k, err := kernel.NewSelector(p.profile.Ordering).SelectLatest(kernels, p.profile.KernelPrefix)
		if err != nil {
			return err
		}
		r.kernel = k
		r.observer.Event(provisioning.Event{
			Type:     provisioning.EventKernelSelected,
			Phase:    PhaseSelectKernel,
			Resource: r.handle.ID,
			Message:  "selected kernel",
			Fields:   map[string]string{"kernel": k.Version, "kernelID": k.ID},
		})
		return nil
	})
	if err != nil {
		return err
	}

	err = r.phase(ctx, PhaseChangeKernel, func(ctx context.Context) error {
		return provisioning.Mutate(ctx, p.policy, r.observer, p.metrics, PhaseChangeKernel, func(ctx context.Context) error {
			return p.cloud.ChangeKernel(ctx, r.handle, r.kernel.ID)
		})
	})
	if err != nil {
		return err
	}

	err = r.phase(ctx, PhaseInstallKernel, func(ctx context.Context) error {
		version, release, err := kernel.ParseRelease(r.kernel.Version)
		if err != nil {
			return err
		}
		plan, err := p.planner.KernelInstallCommands(version, release, p.profile.DistributionTag, p.profile.Architecture)
		if err != nil {
			return err
		}
		return p.runner.Run(ctx, r.req.Node.Address, r.req.Credentials, plan)
	})
	if err != nil {
		return err
	}

	return r.phase(ctx, PhasePowerCycle, func(ctx context.Context) error {
		c := power.NewController(p.cloud, p.policy,
			power.WithSettleDelay(p.settle),
			power.WithTimer(p.settleTimer),
			power.WithObserver(r.observer),
			power.WithMetrics(p.metrics),
		)
		return c.Cycle(ctx, r.handle)
	})
}

// phase runs fn as the named phase, reporting its start, outcome and duration.
func (r *run) phase(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	provisioning.LogPhaseStart(r.observer, name)

	err := fn(ctx)
	elapsed := time.Since(start)
	r.p.metrics.RecordPhase(name, elapsed, err)

	if err != nil {
		provisioning.LogPhaseFailed(r.observer, name, err)
		return &provisioning.PhaseError{NodeID: r.req.Node.ID, Phase: name, Err: err}
	}
	provisioning.LogPhaseComplete(r.observer, name, elapsed)
	return nil
}
