// Package power cycles a node off and on again through a provider API that
// acknowledges a shutdown before the machine is actually off.
package power
