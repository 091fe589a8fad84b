// Package config loads the nodeprov run configuration.
//
// A [Config] is read from YAML, decoded into typed sections, completed with
// defaults and environment overrides, and validated before any provider or
// SSH call is made. Secrets are only taken from the environment.
package config
