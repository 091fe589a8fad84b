// Package node runs the full provisioning sequence for a single node:
// resolve it at the provider, switch it to the newest matching kernel,
// install that kernel's packages, power-cycle it, then install the node
// software.
//
// Every step is a barrier. A failure stops the run and is returned wrapped
// in a *provisioning.PhaseError; nothing already applied is rolled back.
// Nodes on the static backend are pre-built and only get the final
// install step.
package node
