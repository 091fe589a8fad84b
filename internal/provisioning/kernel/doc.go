// Package kernel picks the kernel a node is switched to and parses kernel
// version strings such as "3.19.1-200.fc20.x86_64".
package kernel
