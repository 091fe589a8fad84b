package provisioning

import "context"

// CloudClient is the subset of a cloud provider API the orchestrator needs.
// Mutating calls return a *ConflictError when another mutation is already
// pending on the same resource.
type CloudClient interface {
	// GetNode resolves the provider-side handle for a node identifier.
	GetNode(ctx context.Context, id string) (*Handle, error)
	// AvailableKernels lists the kernels the node may be switched to.
	AvailableKernels(ctx context.Context, h *Handle) ([]Kernel, error)
	ChangeKernel(ctx context.Context, h *Handle, kernelID string) error
	Shutdown(ctx context.Context, h *Handle) error
	PowerOn(ctx context.Context, h *Handle) error
}

// CommandRunner executes commands on a remote host in order, stopping at the
// first failure. A non-zero exit surfaces as a *CommandExecutionError.
type CommandRunner interface {
	Run(ctx context.Context, address string, creds Credentials, commands Plan) error
}

// InstallPlanner produces the command sequences run on a node.
type InstallPlanner interface {
	KernelInstallCommands(version, release, distribution, architecture string) (Plan, error)
	StandardInstallCommands(source PackageSource, distribution string) (Plan, error)
}
