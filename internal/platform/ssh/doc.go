// Package ssh runs command plans on remote nodes over SSH.
//
// A node that has just been powered on may not accept connections yet, so
// dialing is retried under a retry.Policy. Commands run in order, one
// session each, and the first non-zero exit stops the plan with a
// *provisioning.CommandExecutionError carrying the command, exit status and
// combined output.
//
// Security: host key verification is disabled by default because nodes are
// freshly created. Use WithHostKeyCallback for persistent hosts.
package ssh
