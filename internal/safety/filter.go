// Package safety provides exposure filtering, mutation confirmation and audit
// logging for catalog operations served to remote callers.
package safety

import (
	"path/filepath"

	"github.com/jamesprial/gqlops/internal/catalog"
)

// Filter controls which operations are exposed using an allowlist and a
// denylist of glob patterns (as understood by filepath.Match), e.g.
// "query_*" or "mutation_send*".
//
// Rules:
//   - If both lists are empty (or nil), every operation is allowed.
//   - Denylist always takes priority over the allowlist.
//   - If a non-empty allowlist is present, a name must match at least one
//     allowlist pattern to be permitted.
type Filter struct {
	allowlist []string
	denylist  []string
}

// NewFilter constructs a Filter from the provided allowlist and denylist
// pattern slices. Either or both may be nil or empty.
func NewFilter(allowlist, denylist []string) *Filter {
	return &Filter{
		allowlist: allowlist,
		denylist:  denylist,
	}
}

// IsAllowed reports whether name is permitted. A nil Filter allows
// everything.
func (f *Filter) IsAllowed(name string) bool {
	if f == nil {
		return true
	}
	for _, pattern := range f.denylist {
		if matchGlob(pattern, name) {
			return false
		}
	}
	if len(f.allowlist) == 0 {
		return true
	}
	for _, pattern := range f.allowlist {
		if matchGlob(pattern, name) {
			return true
		}
	}
	return false
}

// Select returns the operations whose names are allowed, preserving order.
func (f *Filter) Select(ops []catalog.Operation) []catalog.Operation {
	out := make([]catalog.Operation, 0, len(ops))
	for _, op := range ops {
		if f.IsAllowed(op.Name) {
			out = append(out, op)
		}
	}
	return out
}

// matchGlob returns true when name matches the given glob pattern.
// filepath.Match errors (malformed patterns) are treated as non-matching.
func matchGlob(pattern, name string) bool {
	matched, err := filepath.Match(pattern, name)
	if err != nil {
		return false
	}
	return matched
}
