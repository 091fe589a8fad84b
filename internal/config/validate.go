package config

import (
	"fmt"
	"net"
	"slices"

	"github.com/imamik/nodeprov/internal/installplan"
	"github.com/imamik/nodeprov/internal/provisioning/kernel"
	"github.com/imamik/nodeprov/internal/provisioning/node"
)

// Validate checks the configuration for errors and returns the first one found.
func (c *Config) Validate() error {
	if !node.Backend(c.Backend).Valid() {
		return fmt.Errorf("backend %q is invalid (expected %s or %s)", c.Backend, node.BackendDynamic, node.BackendStatic)
	}

	if err := c.validateProvider(); err != nil {
		return fmt.Errorf("provider validation failed: %w", err)
	}

	if err := c.validateTiming(); err != nil {
		return fmt.Errorf("timing validation failed: %w", err)
	}

	if c.SSH.Port < 1 || c.SSH.Port > 65535 {
		return fmt.Errorf("ssh.port %d is out of range", c.SSH.Port)
	}

	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}

	if err := c.validateNodes(); err != nil {
		return fmt.Errorf("node validation failed: %w", err)
	}

	if c.Report.Enabled() && c.Report.Endpoint == "" {
		return fmt.Errorf("report.endpoint is required when report.bucket is set")
	}

	return nil
}

func (c *Config) validateProvider() error {
	switch c.Provider.Name {
	case ProviderDigitalOcean, ProviderHCloud:
	default:
		return fmt.Errorf("provider %q is not supported (expected %s or %s)", c.Provider.Name, ProviderDigitalOcean, ProviderHCloud)
	}
	if c.Provider.Name == ProviderHCloud && c.Backend == string(node.BackendDynamic) {
		return fmt.Errorf("provider %s cannot change kernels; use backend %s", ProviderHCloud, node.BackendStatic)
	}
	if !kernel.Ordering(c.Provider.KernelOrdering).Valid() {
		return fmt.Errorf("kernelOrdering %q is invalid (expected %s or %s)", c.Provider.KernelOrdering, kernel.OrderingNumeric, kernel.OrderingLexical)
	}
	return nil
}

func (c *Config) validateTiming() error {
	if c.Timing.RetryInterval < 0 {
		return fmt.Errorf("retryInterval must not be negative")
	}
	if c.Timing.RetryMaxAttempts < 0 {
		return fmt.Errorf("retryMaxAttempts must not be negative (0 means unbounded)")
	}
	if c.Timing.RetryDeadline < 0 {
		return fmt.Errorf("retryDeadline must not be negative")
	}
	if c.Timing.SettleDelay < 0 {
		return fmt.Errorf("settleDelay must not be negative")
	}
	return nil
}

func (c *Config) validateNodes() error {
	if len(c.Nodes) == 0 {
		return fmt.Errorf("at least one node is required")
	}

	supported := installplan.Distributions()
	seen := make(map[string]bool, len(c.Nodes))
	for i, n := range c.Nodes {
		if n.ID == "" {
			return fmt.Errorf("nodes[%d]: id is required", i)
		}
		if seen[n.ID] {
			return fmt.Errorf("nodes[%d]: duplicate id %q", i, n.ID)
		}
		seen[n.ID] = true

		if n.Address == "" {
			return fmt.Errorf("node %s: address is required", n.ID)
		}
		if net.ParseIP(n.Address) == nil {
			if _, _, err := net.SplitHostPort(n.Address); err == nil {
				return fmt.Errorf("node %s: address must not include a port, use ssh.port", n.ID)
			}
		}
		if !slices.Contains(supported, n.Distribution) {
			return fmt.Errorf("node %s: distribution %q is not supported", n.ID, n.Distribution)
		}
	}
	return nil
}
