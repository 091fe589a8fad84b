// Package provisioning provides shared types and interfaces for node provisioning.
//
// The provisioning domain is organized into focused subpackages:
//   - kernel/ - kernel selection and version parsing
//   - power/ - shutdown / settle / power-on cycling
//   - node/ - the per-node provisioning sequence
//
// This root package holds the data model, the collaborator interfaces the
// subpackages depend on, the error taxonomy, and observability helpers.
package provisioning
