package config

import (
	"os"
	"strconv"
	"time"
)

// Environment variables read by the loader.
const (
	EnvDigitalOceanToken = "DIGITALOCEAN_TOKEN"
	EnvHCloudToken       = "HCLOUD_TOKEN"
	EnvS3AccessKey       = "S3_ACCESS_KEY"
	EnvS3SecretKey       = "S3_SECRET_KEY"
	EnvRetryInterval     = "NODEPROV_RETRY_INTERVAL"
	EnvRetryMaxAttempts  = "NODEPROV_RETRY_MAX_ATTEMPTS"
	EnvRetryDeadline     = "NODEPROV_RETRY_DEADLINE"
	EnvSettleDelay       = "NODEPROV_SETTLE_DELAY"
)

// applyEnv reads secrets and lets the environment override timings.
// Unparseable timing values are ignored.
func (c *Config) applyEnv() {
	c.DigitalOceanToken = os.Getenv(EnvDigitalOceanToken)
	c.HCloudToken = os.Getenv(EnvHCloudToken)
	c.S3AccessKey = os.Getenv(EnvS3AccessKey)
	c.S3SecretKey = os.Getenv(EnvS3SecretKey)

	c.Timing.RetryInterval = parseDuration(EnvRetryInterval, c.Timing.RetryInterval)
	c.Timing.RetryMaxAttempts = parseInt(EnvRetryMaxAttempts, c.Timing.RetryMaxAttempts)
	c.Timing.RetryDeadline = parseDuration(EnvRetryDeadline, c.Timing.RetryDeadline)
	c.Timing.SettleDelay = parseDuration(EnvSettleDelay, c.Timing.SettleDelay)
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
