package testing

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/imamik/nodeprov/internal/provisioning"
)

// MockCloudClient is a testify mock of provisioning.CloudClient.
// Every call is also written to Journal when one is set.
type MockCloudClient struct {
	mock.Mock
	Journal *Journal
}

// GetNode implements provisioning.CloudClient.
func (m *MockCloudClient) GetNode(ctx context.Context, id string) (*provisioning.Handle, error) {
	m.Journal.Add("get-node %s", id)
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provisioning.Handle), args.Error(1)
}

// AvailableKernels implements provisioning.CloudClient.
func (m *MockCloudClient) AvailableKernels(ctx context.Context, h *provisioning.Handle) ([]provisioning.Kernel, error) {
	m.Journal.Add("available-kernels %s", h.ID)
	args := m.Called(ctx, h)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provisioning.Kernel), args.Error(1)
}

// ChangeKernel implements provisioning.CloudClient.
func (m *MockCloudClient) ChangeKernel(ctx context.Context, h *provisioning.Handle, kernelID string) error {
	m.Journal.Add("change-kernel %s %s", h.ID, kernelID)
	return m.Called(ctx, h, kernelID).Error(0)
}

// Shutdown implements provisioning.CloudClient.
func (m *MockCloudClient) Shutdown(ctx context.Context, h *provisioning.Handle) error {
	m.Journal.Add("shutdown %s", h.ID)
	return m.Called(ctx, h).Error(0)
}

// PowerOn implements provisioning.CloudClient.
func (m *MockCloudClient) PowerOn(ctx context.Context, h *provisioning.Handle) error {
	m.Journal.Add("power-on %s", h.ID)
	return m.Called(ctx, h).Error(0)
}

// MockCommandRunner is a testify mock of provisioning.CommandRunner.
type MockCommandRunner struct {
	mock.Mock
	Journal *Journal
}

// Run implements provisioning.CommandRunner.
func (m *MockCommandRunner) Run(ctx context.Context, address string, creds provisioning.Credentials, commands provisioning.Plan) error {
	m.Journal.Add("run %s %d commands", address, len(commands))
	return m.Called(ctx, address, creds, commands).Error(0)
}

// Conflict returns a *provisioning.ConflictError for op, as a provider adapter would.
func Conflict(op string) error {
	return &provisioning.ConflictError{
		Op:       op,
		Resource: "droplet",
		Err:      errPending,
	}
}

type pendingError struct{}

func (pendingError) Error() string { return "Droplet already has a pending event." }

var errPending error = pendingError{}
