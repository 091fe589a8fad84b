package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/imamik/nodeprov/internal/provisioning"
	provtest "github.com/imamik/nodeprov/internal/testing"
)

func TestKernels(t *testing.T) {
	d := stubDeps(t, testConfig("dynamic"))
	cloud := &provtest.MockCloudClient{}
	h := &provisioning.Handle{ID: "1"}
	cloud.On("GetNode", mock.Anything, "1").Return(h, nil)
	cloud.On("AvailableKernels", mock.Anything, h).Return(fedoraKernels, nil)
	d.provider = cloud

	require.NoError(t, Kernels(context.Background(), "nodeprov.yaml", "1"))

	out := d.out.String()
	assert.Contains(t, out, "* 7002")
	assert.Contains(t, out, "7001")
	assert.NotContains(t, out, "Ubuntu")
	assert.Contains(t, out, "2 of 3 available kernel(s) match")
	cloud.AssertNotCalled(t, "ChangeKernel", mock.Anything, mock.Anything, mock.Anything)
}

func TestKernels_NoMatch(t *testing.T) {
	cfg := testConfig("dynamic")
	cfg.Provider.KernelPrefix = "Fedora 21 x64"
	d := stubDeps(t, cfg)
	cloud := &provtest.MockCloudClient{}
	h := &provisioning.Handle{ID: "1"}
	cloud.On("GetNode", mock.Anything, "1").Return(h, nil)
	cloud.On("AvailableKernels", mock.Anything, h).Return(fedoraKernels, nil)
	d.provider = cloud

	err := Kernels(context.Background(), "nodeprov.yaml", "1")

	require.ErrorIs(t, err, provisioning.ErrNoMatchingKernel)
	assert.Contains(t, d.out.String(), "no kernel matches")
}

func TestKernels_UnknownNode(t *testing.T) {
	stubDeps(t, testConfig("dynamic"))

	err := Kernels(context.Background(), "nodeprov.yaml", "42")
	require.EqualError(t, err, "unknown node(s): 42")
}

func TestKernels_ProviderError(t *testing.T) {
	d := stubDeps(t, testConfig("dynamic"))
	cloud := &provtest.MockCloudClient{}
	cloud.On("GetNode", mock.Anything, "1").Return(nil, &provisioning.ProviderUnavailableError{Op: "get-node", Err: assert.AnError})
	d.provider = cloud

	err := Kernels(context.Background(), "nodeprov.yaml", "1")

	var unavailable *provisioning.ProviderUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Contains(t, err.Error(), "failed to resolve node 1")
}
