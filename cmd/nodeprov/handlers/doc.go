// Package handlers implements the business logic behind the CLI commands.
//
// Handlers load configuration, build the provider, SSH and report clients,
// and run the provisioning packages. Client construction goes through
// package-level factory variables so tests can substitute fakes.
package handlers
