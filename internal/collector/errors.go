package collector

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrFinalized is returned by Finalize after the first call: ownership
// of the result was already transferred and is not cached.
var ErrFinalized = errors.New("collector already finalized")

// IncompleteError reports that validation at finalize time found keys
// not covered by every expected replica.
type IncompleteError struct {
	// MissingKeys maps a replica name to the requested key indices that
	// replica never reported.
	MissingKeys map[string][]int
}

func (e *IncompleteError) Error() string {
	names := make([]string, 0, len(e.MissingKeys))
	for name := range e.MissingKeys {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		keys := e.MissingKeys[name]
		if len(keys) > 4 {
			parts = append(parts, fmt.Sprintf("%s missing %d keys (first %v)", name, len(keys), keys[:4]))
		} else {
			parts = append(parts, fmt.Sprintf("%s missing keys %v", name, keys))
		}
	}
	return "incomplete results: " + strings.Join(parts, "; ")
}
