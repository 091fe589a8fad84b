package config

import (
	"fmt"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"

	"github.com/imamik/nodeprov/internal/provisioning/kernel"
	"github.com/imamik/nodeprov/internal/provisioning/node"
	"github.com/imamik/nodeprov/internal/provisioning/power"
	"github.com/imamik/nodeprov/internal/util/retry"
)

// Defaults applied when a field is omitted.
const (
	DefaultBackend        = string(node.BackendDynamic)
	DefaultProvider       = ProviderDigitalOcean
	DefaultDistribution   = "fedora-20"
	DefaultConcurrency    = 4
	DefaultSSHUser        = "root"
	DefaultSSHPort        = 22
	DefaultPrivateKeyPath = "~/.ssh/id_rsa"
	DefaultReportPrefix   = "runs"
)

// LoadFile reads, decodes, completes and validates the configuration at path.
func LoadFile(path string) (*Config, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, applies defaults and environment
// overrides, and validates the result.
func Parse(data []byte) (*Config, error) {
	var rawConfig map[string]interface{}
	if err := yaml.Unmarshal(data, &rawConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
		ErrorUnused: true,
		Result:      &cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(rawConfig); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.applyDefaults(rawConfig)
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults(rawConfig map[string]interface{}) {
	if c.Backend == "" {
		c.Backend = DefaultBackend
	}

	profile := node.DefaultProfile()
	if c.Provider.Name == "" {
		c.Provider.Name = DefaultProvider
	}
	if c.Provider.KernelPrefix == "" {
		c.Provider.KernelPrefix = profile.KernelPrefix
	}
	if c.Provider.DistributionTag == "" {
		c.Provider.DistributionTag = profile.DistributionTag
	}
	if c.Provider.Architecture == "" {
		c.Provider.Architecture = profile.Architecture
	}
	if c.Provider.KernelOrdering == "" {
		c.Provider.KernelOrdering = string(kernel.OrderingNumeric)
	}

	if c.Timing.RetryInterval == 0 {
		c.Timing.RetryInterval = retry.DefaultInterval
	}
	// Zero is a meaningful value (unbounded), so only default when omitted.
	if !isSet(rawConfig, "timing", "retryMaxAttempts") {
		c.Timing.RetryMaxAttempts = retry.DefaultMaxAttempts
	}
	if !isSet(rawConfig, "timing", "settleDelay") {
		c.Timing.SettleDelay = power.DefaultSettleDelay
	}

	if c.SSH.User == "" {
		c.SSH.User = DefaultSSHUser
	}
	if c.SSH.Port == 0 {
		c.SSH.Port = DefaultSSHPort
	}
	if c.SSH.PrivateKeyPath == "" {
		c.SSH.PrivateKeyPath = DefaultPrivateKeyPath
	}

	if c.Install.Distribution == "" {
		c.Install.Distribution = DefaultDistribution
	}
	for i := range c.Nodes {
		if c.Nodes[i].Distribution == "" {
			c.Nodes[i].Distribution = c.Install.Distribution
		}
	}

	if c.Concurrency == 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.Report.Prefix == "" {
		c.Report.Prefix = DefaultReportPrefix
	}
}

// isSet reports whether the nested key was present in the raw YAML.
func isSet(rawConfig map[string]interface{}, section, key string) bool {
	sectionMap, ok := rawConfig[section].(map[string]interface{})
	if !ok {
		return false
	}
	_, set := sectionMap[key]
	return set
}
