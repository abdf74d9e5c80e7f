package model

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ErrInvalidCriteria is returned for filter criteria that could never match anything.
var ErrInvalidCriteria = errors.New("invalid filter criteria")

var callNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// FilterCriteria selects pending extrinsics. SubnetID 0 matches any subnet.
type FilterCriteria struct {
	SubnetID      uint16
	CallFunctions map[string]struct{}
}

// NewFilterCriteria validates and normalizes call function names. Blank entries
// are dropped and duplicates collapse; an empty result or a name that is not a
// snake_case identifier is rejected with ErrInvalidCriteria.
func NewFilterCriteria(subnetID uint16, callFunctions []string) (FilterCriteria, error) {
	set := make(map[string]struct{}, len(callFunctions))
	for _, name := range callFunctions {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if !callNamePattern.MatchString(name) {
			return FilterCriteria{}, fmt.Errorf("%w: malformed call function %q", ErrInvalidCriteria, name)
		}
		set[name] = struct{}{}
	}
	if len(set) == 0 {
		return FilterCriteria{}, fmt.Errorf("%w: no call functions", ErrInvalidCriteria)
	}
	return FilterCriteria{SubnetID: subnetID, CallFunctions: set}, nil
}

// Validate reports whether c can be used for filtering.
func (c FilterCriteria) Validate() error {
	if len(c.CallFunctions) == 0 {
		return fmt.Errorf("%w: no call functions", ErrInvalidCriteria)
	}
	return nil
}

// AllowsFunction reports whether the call function is in the allow-list.
func (c FilterCriteria) AllowsFunction(name string) bool {
	_, ok := c.CallFunctions[name]
	return ok
}

// Functions returns the allow-list sorted by name.
func (c FilterCriteria) Functions() []string {
	out := make([]string, 0, len(c.CallFunctions))
	for name := range c.CallFunctions {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// AnySubnet reports whether the subnet filter is the wildcard.
func (c FilterCriteria) AnySubnet() bool {
	return c.SubnetID == 0
}
