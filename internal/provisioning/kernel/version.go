package kernel

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedVersion is returned when a kernel version has no release token.
var ErrMalformedVersion = errors.New("malformed kernel version")

// ParseRelease splits a provider kernel version into the upstream version and
// the package release, discarding the trailing distribution and architecture.
//
//	ParseRelease("3.19.1-200.fc20.x86_64") // "3.19.1", "200"
func ParseRelease(version string) (string, string, error) {
	head := version
	parts := strings.Split(version, ".")
	if len(parts) >= 3 {
		head = strings.Join(parts[:len(parts)-2], ".")
	}

	upstream, release, ok := strings.Cut(head, "-")
	if !ok || upstream == "" || release == "" {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedVersion, version)
	}
	return upstream, release, nil
}
