package kernel

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/imamik/nodeprov/internal/provisioning"
)

// Ordering controls how version components are compared.
type Ordering string

const (
	// OrderingNumeric compares components as integers, so 3.10 > 3.9.
	OrderingNumeric Ordering = "numeric"
	// OrderingLexical compares components as strings, so "10" < "9".
	// This reproduces the historical selection behaviour.
	OrderingLexical Ordering = "lexical"
)

// Valid reports whether o is a known ordering.
func (o Ordering) Valid() bool {
	return o == OrderingNumeric || o == OrderingLexical
}

// Selector picks the newest kernel among those whose name has a given prefix.
type Selector struct {
	Ordering Ordering
}

// NewSelector returns a selector using ordering, defaulting to numeric.
func NewSelector(ordering Ordering) *Selector {
	if ordering == "" {
		ordering = OrderingNumeric
	}
	return &Selector{Ordering: ordering}
}

// SelectLatest returns the highest-versioned kernel whose name starts with prefix.
// Kernels with equal versions keep the provider's order; the first one listed wins.
func (s *Selector) SelectLatest(kernels []provisioning.Kernel, prefix string) (provisioning.Kernel, error) {
	var candidates []provisioning.Kernel
	for _, k := range kernels {
		if strings.HasPrefix(k.Name, prefix) {
			candidates = append(candidates, k)
		}
	}
	if len(candidates) == 0 {
		return provisioning.Kernel{}, fmt.Errorf("%w: prefix %q among %d kernels", provisioning.ErrNoMatchingKernel, prefix, len(kernels))
	}

	compare := s.compareComponents
	slices.SortStableFunc(candidates, func(a, b provisioning.Kernel) int {
		// descending
		return compare(NumericComponents(b.Version), NumericComponents(a.Version))
	})
	return candidates[0], nil
}

// SelectLatest is a convenience wrapper using numeric ordering.
func SelectLatest(kernels []provisioning.Kernel, prefix string) (provisioning.Kernel, error) {
	return NewSelector(OrderingNumeric).SelectLatest(kernels, prefix)
}

// NumericComponents returns the dot-separated components of the version
// text before the first "-".
//
//	NumericComponents("3.19.1-200.fc20.x86_64") == []string{"3", "19", "1"}
func NumericComponents(version string) []string {
	numeric, _, _ := strings.Cut(version, "-")
	if numeric == "" {
		return nil
	}
	return strings.Split(numeric, ".")
}

func (s *Selector) compareComponents(a, b []string) int {
	if s.Ordering == OrderingLexical {
		return slices.Compare(a, b)
	}
	return slices.CompareFunc(a, b, compareNumeric)
}

// compareNumeric orders integers numerically. A component that is not an
// integer sorts after any integer, and two such components compare as strings.
func compareNumeric(a, b string) int {
	ai, aErr := strconv.Atoi(a)
	bi, bErr := strconv.Atoi(b)
	switch {
	case aErr == nil && bErr == nil:
		return cmp.Compare(ai, bi)
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}
