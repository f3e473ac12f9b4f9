package synth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jamesprial/gqlops/internal/schema"
	"github.com/vektah/gqlparser/v2/ast"
)

// DefaultDepth is the recursion depth used when none is configured.
const DefaultDepth = 1

// Kind is the GraphQL operation type of a synthesized operation.
type Kind string

const (
	KindQuery    Kind = "query"
	KindMutation Kind = "mutation"
)

// Operation is one synthesized operation for a root field. It is created
// once per field by Operations and not modified afterwards.
type Operation struct {
	Kind  Kind
	Field string
	// Variables holds "$name: Type" declarations for required arguments,
	// in declared argument order.
	Variables []string
	// Arguments holds the matching "name: $name" bindings.
	Arguments []string
	// Selection is the body inside the field's braces. It is empty when
	// HasSelection is false.
	Selection    string
	HasSelection bool
}

// Name returns the operation name, "<kind>_<field>".
func (o Operation) Name() string {
	return string(o.Kind) + "_" + o.Field
}

// String renders the operation as a single-line GraphQL definition.
func (o Operation) String() string {
	var b strings.Builder
	b.WriteString(string(o.Kind))
	b.WriteByte(' ')
	b.WriteString(o.Name())
	if len(o.Variables) > 0 {
		b.WriteString("(" + strings.Join(o.Variables, ", ") + ")")
	}
	b.WriteString(" { ")
	b.WriteString(o.Field)
	if len(o.Arguments) > 0 {
		b.WriteString("(" + strings.Join(o.Arguments, ", ") + ")")
	}
	if o.HasSelection {
		b.WriteString(" { " + o.Selection + " }")
	}
	b.WriteString(" }")
	return b.String()
}

// Operations synthesizes one operation per root field: query fields first,
// then mutation fields, each in declared order. A missing root is skipped.
// depth bounds how many object levels below each root field are expanded.
func Operations(s *ast.Schema, depth int) ([]Operation, error) {
	if s == nil {
		return nil, errors.New("synth: nil schema")
	}
	if depth < 0 {
		return nil, fmt.Errorf("synth: depth must be >= 0, got %d", depth)
	}

	roots := []struct {
		kind Kind
		def  *ast.Definition
	}{
		{KindQuery, s.Query},
		{KindMutation, s.Mutation},
	}

	var ops []Operation
	for _, root := range roots {
		if root.def == nil {
			continue
		}
		for _, f := range root.def.Fields {
			if isMetaField(f.Name) {
				continue
			}
			ops = append(ops, assemble(s, root.kind, f, depth))
		}
	}
	return ops, nil
}

func assemble(s *ast.Schema, kind Kind, f *ast.FieldDefinition, depth int) Operation {
	op := Operation{Kind: kind, Field: f.Name}
	for _, arg := range f.Arguments {
		if !schema.IsRequired(arg) {
			continue
		}
		op.Variables = append(op.Variables, "$"+arg.Name+": "+arg.Type.String())
		op.Arguments = append(op.Arguments, arg.Name+": $"+arg.Name)
	}
	op.Selection, op.HasSelection = Selection(s, f.Type, depth)
	return op
}

// Generate returns the rendered text of every operation Operations builds.
func Generate(s *ast.Schema, depth int) ([]string, error) {
	ops, err := Operations(s, depth)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(ops))
	for i, op := range ops {
		out[i] = op.String()
	}
	return out, nil
}

// Render joins operation definitions with a blank line between each and a
// trailing newline.
func Render(ops []string) string {
	return strings.Join(ops, "\n\n") + "\n"
}

// WriteFile writes Render(ops) to path, creating parent directories.
func WriteFile(path string, ops []string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("synth: create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(Render(ops)), 0o644); err != nil {
		return fmt.Errorf("synth: write %s: %w", path, err)
	}
	return nil
}
