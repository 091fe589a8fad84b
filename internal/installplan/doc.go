// Package installplan renders the shell commands run on a node: the kernel
// package install that matches a provider kernel, and the standard install
// of the node software from release or branch repositories.
//
// Values that come from configuration or the provider are shell-quoted, so
// a plan can be run verbatim over a remote session.
package installplan
