// Package hcloud drives Hetzner Cloud servers through the power-cycle
// sequence. It covers lookup, graceful shutdown and power-on; Hetzner has
// no provider-managed kernels, so kernel selection does not apply here.
package hcloud
