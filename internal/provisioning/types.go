package provisioning

// Node identifies a target machine for one provisioning run.
type Node struct {
	// ID is the provider-assigned identifier (droplet ID, server ID).
	ID string `mapstructure:"id" yaml:"id"`
	// Address is the network address used for remote commands.
	Address string `mapstructure:"address" yaml:"address"`
	// Distribution is the operating system tag, e.g. "fedora-20".
	Distribution string `mapstructure:"distribution" yaml:"distribution"`
}

// Kernel is a provider-supported kernel a node can boot.
type Kernel struct {
	ID      string
	Name    string
	Version string
}

// Handle is the provider-side reference to a node, resolved at the start of a run.
type Handle struct {
	ID       string
	Name     string
	Status   string
	KernelID string
}

// PackageSource selects which build of the node software gets installed.
type PackageSource struct {
	// Version pins a package version; empty installs the latest.
	Version string `mapstructure:"version" yaml:"version"`
	// Branch installs from a development branch repository instead of a release.
	Branch string `mapstructure:"branch" yaml:"branch"`
	// BuildServer is the base URL of the build server hosting branch repositories.
	BuildServer string `mapstructure:"buildServer" yaml:"buildServer"`
}

// Credentials authenticate the remote command channel.
type Credentials struct {
	User       string
	Port       int
	PrivateKey []byte
}

// Plan is the ordered list of shell commands to run on a node.
type Plan []string
