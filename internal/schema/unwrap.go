package schema

import "github.com/vektah/gqlparser/v2/ast"

// Unwrap strips list and non-null wrapping from t and returns the named
// type it refers to, or nil when s does not define that name.
func Unwrap(s *ast.Schema, t *ast.Type) *ast.Definition {
	if t == nil {
		return nil
	}
	for t.Elem != nil {
		t = t.Elem
	}
	return s.Types[t.NamedType]
}

// IsLeaf reports whether def is a scalar or enum, i.e. a type selected by
// name without a sub-selection.
func IsLeaf(def *ast.Definition) bool {
	return def != nil && (def.Kind == ast.Scalar || def.Kind == ast.Enum)
}

// IsObject reports whether def is an object type.
func IsObject(def *ast.Definition) bool {
	return def != nil && def.Kind == ast.Object
}

// IsRequired reports whether an argument must be supplied: its type is
// non-null and it declares no default.
func IsRequired(arg *ast.ArgumentDefinition) bool {
	return arg.Type != nil && arg.Type.NonNull && arg.DefaultValue == nil
}
