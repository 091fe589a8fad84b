package node_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/imamik/nodeprov/internal/provisioning"
	"github.com/imamik/nodeprov/internal/provisioning/kernel"
	"github.com/imamik/nodeprov/internal/provisioning/node"
	provtest "github.com/imamik/nodeprov/internal/testing"
	"github.com/imamik/nodeprov/internal/util/retry"
)

// stubPlanner renders plans that encode their inputs, so tests can assert on them.
type stubPlanner struct {
	kernelErr error
}

func (s stubPlanner) KernelInstallCommands(version, release, distribution, architecture string) (provisioning.Plan, error) {
	if s.kernelErr != nil {
		return nil, s.kernelErr
	}
	return provisioning.Plan{fmt.Sprintf("install-kernel %s %s %s %s", version, release, distribution, architecture)}, nil
}

func (stubPlanner) StandardInstallCommands(source provisioning.PackageSource, distribution string) (provisioning.Plan, error) {
	return provisioning.Plan{"install-node " + distribution + " " + source.Version, "start-node"}, nil
}

var (
	kernelPlan   = provisioning.Plan{"install-kernel 3.19.1 200 fc20 x86_64"}
	standardPlan = provisioning.Plan{"install-node fedora-20 1.0.0", "start-node"}
)

type fixture struct {
	journal *provtest.Journal
	timer   *provtest.RecordingTimer
	cloud   *provtest.MockCloudClient
	runner  *provtest.MockCommandRunner
	handle  *provisioning.Handle
	req     node.Request
}

func newFixture() *fixture {
	journal := &provtest.Journal{}
	return &fixture{
		journal: journal,
		timer:   provtest.NewRecordingTimer(journal),
		cloud:   &provtest.MockCloudClient{Journal: journal},
		runner:  &provtest.MockCommandRunner{Journal: journal},
		handle:  &provisioning.Handle{ID: "3797602", Name: "node-1", Status: "active"},
		req: node.Request{
			Node: provisioning.Node{
				ID:           "3797602",
				Address:      "203.0.113.10",
				Distribution: "fedora-20",
			},
			PackageSource: provisioning.PackageSource{Version: "1.0.0"},
			Credentials:   provisioning.Credentials{User: "root", Port: 22},
		},
	}
}

func (f *fixture) provisioner(opts ...node.Option) *node.Provisioner {
	policy := retry.Policy{Interval: time.Second, MaxAttempts: 600, Timer: f.timer}
	return node.New(f.cloud, f.runner, stubPlanner{}, policy, opts...)
}

var fedoraKernels = []provisioning.Kernel{
	{ID: "1", Name: "Fedora 20 x64 3.19.1-200.fc20.x86_64", Version: "3.19.1-200.fc20.x86_64"},
	{ID: "2", Name: "Fedora 20 x64 3.17.0-100.fc20.x86_64", Version: "3.17.0-100.fc20.x86_64"},
}

func TestProvision_HappyPath(t *testing.T) {
	t.Parallel()
	f := newFixture()

	f.cloud.On("GetNode", mock.Anything, "3797602").Return(f.handle, nil)
	f.cloud.On("AvailableKernels", mock.Anything, f.handle).Return(fedoraKernels, nil)
	f.cloud.On("ChangeKernel", mock.Anything, f.handle, "1").Return(nil).Once()
	f.cloud.On("Shutdown", mock.Anything, f.handle).Return(nil).Once()
	f.cloud.On("PowerOn", mock.Anything, f.handle).Return(nil).Once()
	f.runner.On("Run", mock.Anything, "203.0.113.10", f.req.Credentials, kernelPlan).Return(nil).Once()
	f.runner.On("Run", mock.Anything, "203.0.113.10", f.req.Credentials, standardPlan).Return(nil).Once()

	address, err := f.provisioner().Provision(context.Background(), f.req)

	require.NoError(t, err)
	assert.Equal(t, "203.0.113.10", address)
	assert.Equal(t, []string{
		"get-node 3797602",
		"available-kernels 3797602",
		"change-kernel 3797602 1",
		"run 203.0.113.10 1 commands",
		"shutdown 3797602",
		"sleep 30s",
		"power-on 3797602",
		"run 203.0.113.10 2 commands",
	}, f.journal.Entries())
	f.cloud.AssertExpectations(t)
	f.runner.AssertExpectations(t)
}

func TestProvision_ChangeKernelConflicts(t *testing.T) {
	t.Parallel()
	f := newFixture()

	f.cloud.On("GetNode", mock.Anything, "3797602").Return(f.handle, nil)
	f.cloud.On("AvailableKernels", mock.Anything, f.handle).Return(fedoraKernels, nil)
	f.cloud.On("ChangeKernel", mock.Anything, f.handle, "1").Return(provtest.Conflict("change-kernel")).Twice()
	f.cloud.On("ChangeKernel", mock.Anything, f.handle, "1").Return(nil).Once()
	f.cloud.On("Shutdown", mock.Anything, f.handle).Return(nil)
	f.cloud.On("PowerOn", mock.Anything, f.handle).Return(nil)
	f.runner.On("Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := f.provisioner().Provision(context.Background(), f.req)

	require.NoError(t, err)
	f.cloud.AssertNumberOfCalls(t, "ChangeKernel", 3)
	assert.Equal(t, []time.Duration{time.Second, time.Second, 30 * time.Second}, f.timer.Waits())
	assert.Equal(t, []string{
		"change-kernel 3797602 1",
		"sleep 1s",
		"change-kernel 3797602 1",
		"sleep 1s",
		"change-kernel 3797602 1",
		"run 203.0.113.10 1 commands",
	}, f.journal.Entries()[2:8])
}

func TestProvision_KernelInstallFails(t *testing.T) {
	t.Parallel()
	f := newFixture()
	cmdErr := &provisioning.CommandExecutionError{
		Address:    "203.0.113.10",
		Command:    "install-kernel 3.19.1 200 fc20 x86_64",
		ExitStatus: 1,
	}

	f.cloud.On("GetNode", mock.Anything, "3797602").Return(f.handle, nil)
	f.cloud.On("AvailableKernels", mock.Anything, f.handle).Return(fedoraKernels, nil)
	f.cloud.On("ChangeKernel", mock.Anything, f.handle, "1").Return(nil)
	f.runner.On("Run", mock.Anything, "203.0.113.10", f.req.Credentials, kernelPlan).Return(cmdErr)

	address, err := f.provisioner().Provision(context.Background(), f.req)

	require.Error(t, err)
	assert.Empty(t, address)
	var got *provisioning.CommandExecutionError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, "install-kernel 3.19.1 200 fc20 x86_64", got.Command)
	assert.Equal(t, node.PhaseInstallKernel, provisioning.FailedPhase(err))
	f.cloud.AssertNotCalled(t, "Shutdown", mock.Anything, mock.Anything)
	f.cloud.AssertNotCalled(t, "PowerOn", mock.Anything, mock.Anything)
	f.runner.AssertNumberOfCalls(t, "Run", 1)
}

func TestProvision_NoMatchingKernel(t *testing.T) {
	t.Parallel()

	for name, kernels := range map[string][]provisioning.Kernel{
		"empty":     {},
		"no prefix": {{ID: "9", Name: "Ubuntu 14.04 x64 3.13.0", Version: "3.13.0-24-generic"}},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			f := newFixture()

			f.cloud.On("GetNode", mock.Anything, "3797602").Return(f.handle, nil)
			f.cloud.On("AvailableKernels", mock.Anything, f.handle).Return(kernels, nil)

			_, err := f.provisioner().Provision(context.Background(), f.req)

			require.ErrorIs(t, err, provisioning.ErrNoMatchingKernel)
			assert.Equal(t, node.PhaseSelectKernel, provisioning.FailedPhase(err))
			f.cloud.AssertNotCalled(t, "ChangeKernel", mock.Anything, mock.Anything, mock.Anything)
			f.cloud.AssertNotCalled(t, "Shutdown", mock.Anything, mock.Anything)
			f.cloud.AssertNotCalled(t, "PowerOn", mock.Anything, mock.Anything)
			f.runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestProvision_ProviderUnavailable(t *testing.T) {
	t.Parallel()
	f := newFixture()
	unavailable := &provisioning.ProviderUnavailableError{Op: "get-node", Err: errors.New("401 Unauthorized")}

	f.cloud.On("GetNode", mock.Anything, "3797602").Return(nil, unavailable)

	_, err := f.provisioner().Provision(context.Background(), f.req)

	require.ErrorIs(t, err, unavailable)
	assert.Equal(t, node.PhaseResolveNode, provisioning.FailedPhase(err))
	assert.Equal(t, []string{"get-node 3797602"}, f.journal.Entries())
}

func TestProvision_ChangeKernelExhausted(t *testing.T) {
	t.Parallel()
	f := newFixture()

	f.cloud.On("GetNode", mock.Anything, "3797602").Return(f.handle, nil)
	f.cloud.On("AvailableKernels", mock.Anything, f.handle).Return(fedoraKernels, nil)
	f.cloud.On("ChangeKernel", mock.Anything, f.handle, "1").Return(provtest.Conflict("change-kernel"))

	policy := retry.Policy{Interval: time.Second, MaxAttempts: 5, Timer: f.timer}
	_, err := node.New(f.cloud, f.runner, stubPlanner{}, policy).Provision(context.Background(), f.req)

	require.ErrorIs(t, err, retry.ErrExhausted)
	assert.Equal(t, node.PhaseChangeKernel, provisioning.FailedPhase(err))
	f.cloud.AssertNumberOfCalls(t, "ChangeKernel", 5)
	f.runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProvision_MalformedKernelVersion(t *testing.T) {
	t.Parallel()
	f := newFixture()
	kernels := []provisioning.Kernel{{ID: "5", Name: "Fedora 20 x64 custom", Version: "3.19.1"}}

	f.cloud.On("GetNode", mock.Anything, "3797602").Return(f.handle, nil)
	f.cloud.On("AvailableKernels", mock.Anything, f.handle).Return(kernels, nil)
	f.cloud.On("ChangeKernel", mock.Anything, f.handle, "5").Return(nil)

	_, err := f.provisioner().Provision(context.Background(), f.req)

	require.ErrorIs(t, err, kernel.ErrMalformedVersion)
	assert.Equal(t, node.PhaseInstallKernel, provisioning.FailedPhase(err))
}

func TestProvision_StaticBackend(t *testing.T) {
	t.Parallel()
	f := newFixture()

	f.runner.On("Run", mock.Anything, "203.0.113.10", f.req.Credentials, standardPlan).Return(nil).Once()

	p := node.New(nil, f.runner, stubPlanner{}, retry.Policy{Timer: f.timer}, node.WithBackend(node.BackendStatic))
	address, err := p.Provision(context.Background(), f.req)

	require.NoError(t, err)
	assert.Equal(t, "203.0.113.10", address)
	assert.Equal(t, []string{"run 203.0.113.10 2 commands"}, f.journal.Entries())
}

func TestProvision_RequestDistributionOverridesNode(t *testing.T) {
	t.Parallel()
	f := newFixture()
	f.req.Distribution = "centos-7"

	f.runner.On("Run", mock.Anything, "203.0.113.10", f.req.Credentials,
		provisioning.Plan{"install-node centos-7 1.0.0", "start-node"}).Return(nil).Once()

	p := node.New(nil, f.runner, stubPlanner{}, retry.Policy{Timer: f.timer}, node.WithBackend(node.BackendStatic))
	_, err := p.Provision(context.Background(), f.req)

	require.NoError(t, err)
	f.runner.AssertExpectations(t)
}

func TestProvision_Profile(t *testing.T) {
	t.Parallel()
	f := newFixture()
	kernels := []provisioning.Kernel{
		{ID: "f21", Name: "Fedora 21 x64 3.18.3-201.fc21.x86_64", Version: "3.18.3-201.fc21.x86_64"},
		{ID: "f20", Name: "Fedora 20 x64 3.19.1-200.fc20.x86_64", Version: "3.19.1-200.fc20.x86_64"},
	}

	f.cloud.On("GetNode", mock.Anything, "3797602").Return(f.handle, nil)
	f.cloud.On("AvailableKernels", mock.Anything, f.handle).Return(kernels, nil)
	f.cloud.On("ChangeKernel", mock.Anything, f.handle, "f21").Return(nil)
	f.cloud.On("Shutdown", mock.Anything, f.handle).Return(nil)
	f.cloud.On("PowerOn", mock.Anything, f.handle).Return(nil)
	f.runner.On("Run", mock.Anything, mock.Anything, mock.Anything,
		provisioning.Plan{"install-kernel 3.18.3 201 fc21 x86_64"}).Return(nil).Once()
	f.runner.On("Run", mock.Anything, mock.Anything, mock.Anything, standardPlan).Return(nil).Once()

	profile := node.Profile{KernelPrefix: "Fedora 21 x64", DistributionTag: "fc21", Architecture: "x86_64"}
	_, err := f.provisioner(node.WithProfile(profile), node.WithSettleDelay(10*time.Second)).Provision(context.Background(), f.req)

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{10 * time.Second}, f.timer.Waits())
	f.runner.AssertExpectations(t)
}

func TestProvision_Validation(t *testing.T) {
	t.Parallel()
	f := newFixture()

	f.req.Node.Address = ""
	_, err := f.provisioner().Provision(context.Background(), f.req)
	require.Error(t, err)

	f.req.Node.Address = "203.0.113.10"
	_, err = node.New(nil, f.runner, stubPlanner{}, retry.Policy{}).Provision(context.Background(), f.req)
	require.Error(t, err)
	assert.Empty(t, f.journal.Entries())
}

func TestProvision_ReportsPhases(t *testing.T) {
	t.Parallel()
	f := newFixture()
	obs := &recordingObserver{}

	f.runner.On("Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	p := node.New(nil, f.runner, stubPlanner{}, retry.Policy{}, node.WithBackend(node.BackendStatic), node.WithObserver(obs))
	_, err := p.Provision(context.Background(), f.req)
	require.NoError(t, err)

	var skipped, started []string
	for _, e := range obs.events {
		switch e.Type {
		case provisioning.EventPhaseSkipped:
			skipped = append(skipped, e.Phase)
		case provisioning.EventPhaseStarted:
			started = append(started, e.Phase)
		}
	}
	assert.Equal(t, node.Phases[:5], skipped)
	assert.Equal(t, []string{node.PhaseInstall}, started)
	assert.Equal(t, "3797602", obs.fields["node"])
}

func TestBackend_Valid(t *testing.T) {
	t.Parallel()
	assert.True(t, node.BackendDynamic.Valid())
	assert.True(t, node.BackendStatic.Valid())
	assert.False(t, node.Backend("vagrant").Valid())
}

type recordingObserver struct {
	events []provisioning.Event
	fields map[string]string
}

func (r *recordingObserver) Event(e provisioning.Event) { r.events = append(r.events, e) }

func (r *recordingObserver) WithFields(fields map[string]string) provisioning.Observer {
	r.fields = fields
	return r
}
