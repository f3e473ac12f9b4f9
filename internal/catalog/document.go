package catalog

import (
	"context"
	"fmt"
	"os"

	"github.com/jamesprial/gqlops/internal/graphql"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// DocumentSurface exposes every named operation in a GraphQL document as a
// Method. Calling a method sends the whole document with operationName set.
type DocumentSurface struct {
	source  string
	methods []Method
}

var _ Surface = (*DocumentSurface)(nil)

// ParseDocument parses src, an operation document such as the one written
// by the synthesizer. Anonymous operations cannot be selected by name and
// are skipped.
func ParseDocument(name, src string) (*DocumentSurface, error) {
	doc, err := parser.ParseQuery(&ast.Source{Name: name, Input: src})
	if err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", name, err)
	}

	d := &DocumentSurface{source: src}
	for _, op := range doc.Operations {
		if op.Name == "" {
			continue
		}
		d.methods = append(d.methods, Method{
			Name:   op.Name,
			Params: variableParams(op.VariableDefinitions),
			Call:   d.caller(op.Name),
		})
	}
	return d, nil
}

// LoadDocumentFile reads and parses the operation document at path.
func LoadDocumentFile(path string) (*DocumentSurface, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return ParseDocument(path, string(data))
}

// Methods implements Surface.
func (d *DocumentSurface) Methods() []Method { return d.methods }

func (d *DocumentSurface) caller(opName string) CallFunc {
	return func(ctx context.Context, sess graphql.Session, args map[string]any) (any, error) {
		data, err := sess.Execute(ctx, graphql.Request{
			Query:         d.source,
			OperationName: opName,
			Variables:     args,
		})
		if err != nil {
			return nil, err
		}
		return &graphql.Result{OperationName: opName, Data: data}, nil
	}
}

// variableParams maps variable definitions to parameters. A nullable
// variable, or one with a default, is optional.
func variableParams(defs ast.VariableDefinitionList) []Param {
	params := make([]Param, 0, len(defs))
	for _, v := range defs {
		params = append(params, Param{
			Name:       v.Variable,
			Type:       TypeOf(v.Type),
			HasDefault: v.DefaultValue != nil || !v.Type.NonNull,
		})
	}
	return params
}

// TypeOf maps a GraphQL type reference to a TypeExpr. Built-in scalars map
// to primitives, lists to an opaque "list[T]", and a nullable reference to
// Optional.
func TypeOf(t *ast.Type) TypeExpr {
	var inner TypeExpr
	if t.Elem != nil {
		inner = Opaque{Text: "list[" + TypeOf(t.Elem).String() + "]"}
	} else {
		inner = namedScalar(t.NamedType)
	}
	if t.NonNull {
		return inner
	}
	return Optional{Elem: inner}
}

func namedScalar(name string) TypeExpr {
	switch name {
	case "Boolean":
		return Bool
	case "Int":
		return Int
	case "Float":
		return Float
	case "String", "ID":
		return Str
	default:
		return Named{Name: name}
	}
}
