package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/imamik/nodeprov/internal/provisioning"
	"github.com/imamik/nodeprov/internal/provisioning/kernel"
	"github.com/imamik/nodeprov/internal/provisioning/node"
	"github.com/imamik/nodeprov/internal/util/retry"
)

// Provider names.
const (
	ProviderDigitalOcean = "digitalocean"
	ProviderHCloud       = "hcloud"
)

// Config is the complete run configuration.
type Config struct {
	Backend     string              `mapstructure:"backend" yaml:"backend"`
	Provider    ProviderConfig      `mapstructure:"provider" yaml:"provider"`
	Timing      TimingConfig        `mapstructure:"timing" yaml:"timing"`
	SSH         SSHConfig           `mapstructure:"ssh" yaml:"ssh"`
	Install     InstallConfig       `mapstructure:"install" yaml:"install"`
	Concurrency int                 `mapstructure:"concurrency" yaml:"concurrency"`
	Nodes       []provisioning.Node `mapstructure:"nodes" yaml:"nodes"`
	Report      ReportConfig        `mapstructure:"report" yaml:"report"`
	Metrics     MetricsConfig       `mapstructure:"metrics" yaml:"metrics"`

	// Secrets, environment only.
	DigitalOceanToken string `mapstructure:"-" yaml:"-"`
	HCloudToken       string `mapstructure:"-" yaml:"-"`
	S3AccessKey       string `mapstructure:"-" yaml:"-"`
	S3SecretKey       string `mapstructure:"-" yaml:"-"`
}

// ProviderConfig selects the cloud provider and how kernels are matched on it.
type ProviderConfig struct {
	Name            string `mapstructure:"name" yaml:"name"`
	KernelPrefix    string `mapstructure:"kernelPrefix" yaml:"kernelPrefix"`
	DistributionTag string `mapstructure:"distributionTag" yaml:"distributionTag"`
	Architecture    string `mapstructure:"architecture" yaml:"architecture"`
	KernelOrdering  string `mapstructure:"kernelOrdering" yaml:"kernelOrdering"`
	Region          string `mapstructure:"region" yaml:"region"`
	SSHKeyName      string `mapstructure:"sshKeyName" yaml:"sshKeyName"`
}

// TimingConfig holds retry and settle timings.
type TimingConfig struct {
	RetryInterval    time.Duration `mapstructure:"retryInterval" yaml:"retryInterval"`
	RetryMaxAttempts int           `mapstructure:"retryMaxAttempts" yaml:"retryMaxAttempts"`
	RetryDeadline    time.Duration `mapstructure:"retryDeadline" yaml:"retryDeadline"`
	SettleDelay      time.Duration `mapstructure:"settleDelay" yaml:"settleDelay"`
}

// SSHConfig holds the credentials used for remote commands.
type SSHConfig struct {
	User           string `mapstructure:"user" yaml:"user"`
	Port           int    `mapstructure:"port" yaml:"port"`
	PrivateKeyPath string `mapstructure:"privateKeyPath" yaml:"privateKeyPath"`
}

// InstallConfig selects what gets installed on the nodes.
type InstallConfig struct {
	Distribution  string                     `mapstructure:"distribution" yaml:"distribution"`
	PackageSource provisioning.PackageSource `mapstructure:"packageSource" yaml:"packageSource"`
}

// ReportConfig configures run report uploads. Uploads are disabled when Bucket is empty.
type ReportConfig struct {
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
	Region    string `mapstructure:"region" yaml:"region"`
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	Prefix    string `mapstructure:"prefix" yaml:"prefix"`
	PathStyle bool   `mapstructure:"pathStyle" yaml:"pathStyle"`
}

// Enabled reports whether a report should be uploaded.
func (r ReportConfig) Enabled() bool {
	return r.Bucket != ""
}

// MetricsConfig configures the Prometheus endpoint. Disabled when Address is empty.
type MetricsConfig struct {
	Address string `mapstructure:"address" yaml:"address"`
}

// RetryPolicy returns the retry policy for provider mutations.
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		Interval:    c.Timing.RetryInterval,
		MaxAttempts: c.Timing.RetryMaxAttempts,
		Deadline:    c.Timing.RetryDeadline,
	}
}

// Profile returns the kernel matching profile.
func (c *Config) Profile() node.Profile {
	return node.Profile{
		KernelPrefix:    c.Provider.KernelPrefix,
		DistributionTag: c.Provider.DistributionTag,
		Architecture:    c.Provider.Architecture,
		Ordering:        kernel.Ordering(c.Provider.KernelOrdering),
	}
}

// ProviderToken returns the API token for the configured provider.
func (c *Config) ProviderToken() string {
	switch c.Provider.Name {
	case ProviderHCloud:
		return c.HCloudToken
	default:
		return c.DigitalOceanToken
	}
}

// SelectNodes returns the configured nodes matching ids, in config order.
// An empty ids returns every node.
func (c *Config) SelectNodes(ids []string) ([]provisioning.Node, error) {
	if len(ids) == 0 {
		return c.Nodes, nil
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var out []provisioning.Node
	for _, n := range c.Nodes {
		if wanted[n.ID] {
			out = append(out, n)
			delete(wanted, n.ID)
		}
	}
	if len(wanted) > 0 {
		missing := make([]string, 0, len(wanted))
		for _, id := range ids {
			if wanted[id] {
				missing = append(missing, id)
			}
		}
		return nil, fmt.Errorf("unknown node(s): %s", strings.Join(missing, ", "))
	}
	return out, nil
}

// Credentials reads the SSH private key and returns the remote credentials.
func (c *Config) Credentials() (provisioning.Credentials, error) {
	path, err := expandHome(c.SSH.PrivateKeyPath)
	if err != nil {
		return provisioning.Credentials{}, err
	}
	// #nosec G304
	key, err := os.ReadFile(path)
	if err != nil {
		return provisioning.Credentials{}, fmt.Errorf("failed to read ssh private key: %w", err)
	}
	return provisioning.Credentials{
		User:       c.SSH.User,
		Port:       c.SSH.Port,
		PrivateKey: key,
	}, nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
