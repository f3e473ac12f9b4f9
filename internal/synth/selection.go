// Package synth builds one executable GraphQL operation per root query and
// mutation field of a schema.
package synth

import (
	"strings"

	"github.com/jamesprial/gqlops/internal/schema"
	"github.com/vektah/gqlparser/v2/ast"
)

// typenameField is selected when nothing else can be: on a type already
// visited on the current path, or when the depth budget leaves no fields.
const typenameField = "__typename"

// visited is the set of object type names on the current recursion path.
// It is never mutated after creation; with returns an extended copy so
// sibling branches do not observe each other's visits.
type visited map[string]struct{}

func (v visited) with(name string) visited {
	next := make(visited, len(v)+1)
	for k := range v {
		next[k] = struct{}{}
	}
	next[name] = struct{}{}
	return next
}

// Selection returns the selection-set body for a field of type t. The
// boolean is false when the unwrapped type is not an object, in which case
// the field takes no braces. depth is the number of further object levels
// that may be expanded below this one.
func Selection(s *ast.Schema, t *ast.Type, depth int) (string, bool) {
	return selection(s, t, depth, visited{})
}

func selection(s *ast.Schema, t *ast.Type, depth int, seen visited) (string, bool) {
	named := schema.Unwrap(s, t)
	if !schema.IsObject(named) {
		return "", false
	}
	if _, ok := seen[named.Name]; ok {
		return typenameField, true
	}
	seen = seen.with(named.Name)

	var fields []string
	for _, f := range named.Fields {
		if isMetaField(f.Name) {
			continue
		}
		ft := schema.Unwrap(s, f.Type)
		switch {
		case schema.IsLeaf(ft):
			fields = append(fields, f.Name)
		case depth > 0:
			if sub, ok := selection(s, f.Type, depth-1, seen); ok && sub != "" {
				fields = append(fields, f.Name+" { "+sub+" }")
			}
		}
	}

	if len(fields) == 0 {
		return typenameField, true
	}
	return strings.Join(fields, " "), true
}

// isMetaField reports whether name is an introspection meta field such as
// __schema or __type.
func isMetaField(name string) bool {
	return strings.HasPrefix(name, "__")
}
