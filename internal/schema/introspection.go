// Package schema loads a GraphQL type graph, either by introspecting a live
// endpoint or by parsing SDL, into a gqlparser *ast.Schema.
package schema

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jamesprial/gqlops/internal/graphql"
	"github.com/vektah/gqlparser/v2/ast"
)

// ErrSchemaLoad is returned when the schema cannot be fetched or decoded.
// Synthesis aborts before emitting any operation.
var ErrSchemaLoad = errors.New("schema load failed")

// IntrospectionQuery is the standard GraphQL introspection query with a
// TypeRef fragment seven levels deep, enough for [[T!]!]! style wrapping.
const IntrospectionQuery = `
query IntrospectionQuery {
  __schema {
    queryType { name }
    mutationType { name }
    subscriptionType { name }
    types {
      ...FullType
    }
  }
}

fragment FullType on __Type {
  kind
  name
  description
  fields(includeDeprecated: true) {
    name
    description
    args {
      ...InputValue
    }
    type {
      ...TypeRef
    }
  }
  inputFields {
    ...InputValue
  }
  interfaces {
    ...TypeRef
  }
  enumValues(includeDeprecated: true) {
    name
    description
  }
  possibleTypes {
    ...TypeRef
  }
}

fragment InputValue on __InputValue {
  name
  description
  type { ...TypeRef }
  defaultValue
}

fragment TypeRef on __Type {
  kind
  name
  ofType {
    kind
    name
    ofType {
      kind
      name
      ofType {
        kind
        name
        ofType {
          kind
          name
          ofType {
            kind
            name
            ofType {
              kind
              name
            }
          }
        }
      }
    }
  }
}
`

// introspectionData is the "data" member of an introspection response.
type introspectionData struct {
	Schema struct {
		QueryType        *namedRef  `json:"queryType"`
		MutationType     *namedRef  `json:"mutationType"`
		SubscriptionType *namedRef  `json:"subscriptionType"`
		Types            []fullType `json:"types"`
	} `json:"__schema"`
}

type namedRef struct {
	Name string `json:"name"`
}

type fullType struct {
	Kind          string       `json:"kind"`
	Name          string       `json:"name"`
	Description   *string      `json:"description"`
	Fields        []field      `json:"fields"`
	InputFields   []inputValue `json:"inputFields"`
	Interfaces    []typeRef    `json:"interfaces"`
	EnumValues    []enumValue  `json:"enumValues"`
	PossibleTypes []typeRef    `json:"possibleTypes"`
}

type field struct {
	Name        string       `json:"name"`
	Description *string      `json:"description"`
	Args        []inputValue `json:"args"`
	Type        typeRef      `json:"type"`
}

type inputValue struct {
	Name         string  `json:"name"`
	Description  *string `json:"description"`
	Type         typeRef `json:"type"`
	DefaultValue *string `json:"defaultValue"`
}

type enumValue struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type typeRef struct {
	Kind   string   `json:"kind"`
	Name   *string  `json:"name"`
	OfType *typeRef `json:"ofType"`
}

// Fetch sends IntrospectionQuery through client and converts the answer into
// a schema. Transport failures and error payloads are reported as
// ErrSchemaLoad.
func Fetch(ctx context.Context, client graphql.Client) (*ast.Schema, error) {
	data, err := client.Execute(ctx, graphql.Request{
		Query:         IntrospectionQuery,
		OperationName: "IntrospectionQuery",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: introspection request: %v", ErrSchemaLoad, err)
	}
	return FromIntrospection(data)
}

// FromIntrospection converts the "data" member of an introspection response
// ({"__schema": {...}}) into a schema. Types whose names start with "__" are
// dropped. Field and argument order is preserved.
func FromIntrospection(data []byte) (*ast.Schema, error) {
	var resp introspectionData
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode introspection: %v", ErrSchemaLoad, err)
	}
	if len(resp.Schema.Types) == 0 {
		return nil, fmt.Errorf("%w: introspection returned no types", ErrSchemaLoad)
	}

	s := &ast.Schema{
		Types:         make(map[string]*ast.Definition, len(resp.Schema.Types)),
		Directives:    map[string]*ast.DirectiveDefinition{},
		PossibleTypes: map[string][]*ast.Definition{},
		Implements:    map[string][]*ast.Definition{},
	}

	for _, ft := range resp.Schema.Types {
		if ft.Name == "" || strings.HasPrefix(ft.Name, "__") {
			continue
		}
		def, err := convertType(ft)
		if err != nil {
			return nil, fmt.Errorf("%w: type %s: %v", ErrSchemaLoad, ft.Name, err)
		}
		s.Types[def.Name] = def
	}

	for _, def := range s.Types {
		for _, iface := range def.Interfaces {
			if target, ok := s.Types[iface]; ok {
				s.AddImplements(def.Name, target)
				s.AddPossibleType(iface, def)
			}
		}
		if def.Kind == ast.Union {
			for _, member := range def.Types {
				if target, ok := s.Types[member]; ok {
					s.AddPossibleType(def.Name, target)
				}
			}
		}
	}

	var err error
	if s.Query, err = lookupRoot(s, resp.Schema.QueryType); err != nil {
		return nil, err
	}
	if s.Mutation, err = lookupRoot(s, resp.Schema.MutationType); err != nil {
		return nil, err
	}
	if s.Subscription, err = lookupRoot(s, resp.Schema.SubscriptionType); err != nil {
		return nil, err
	}
	return s, nil
}

// lookupRoot resolves a root operation type by name. A nil ref means the
// schema has no such root.
func lookupRoot(s *ast.Schema, ref *namedRef) (*ast.Definition, error) {
	if ref == nil || ref.Name == "" {
		return nil, nil
	}
	def, ok := s.Types[ref.Name]
	if !ok {
		return nil, fmt.Errorf("%w: root type %q not found", ErrSchemaLoad, ref.Name)
	}
	return def, nil
}

func convertType(ft fullType) (*ast.Definition, error) {
	def := &ast.Definition{
		Kind:        ast.DefinitionKind(ft.Kind),
		Name:        ft.Name,
		Description: deref(ft.Description),
	}

	for _, f := range ft.Fields {
		t, err := convertRef(f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		args, err := convertArgs(f.Args)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		def.Fields = append(def.Fields, &ast.FieldDefinition{
			Name:        f.Name,
			Description: deref(f.Description),
			Arguments:   args,
			Type:        t,
		})
	}

	for _, in := range ft.InputFields {
		t, err := convertRef(in.Type)
		if err != nil {
			return nil, fmt.Errorf("input field %s: %w", in.Name, err)
		}
		def.Fields = append(def.Fields, &ast.FieldDefinition{
			Name:         in.Name,
			Description:  deref(in.Description),
			Type:         t,
			DefaultValue: rawValue(in.DefaultValue),
		})
	}

	for _, ev := range ft.EnumValues {
		def.EnumValues = append(def.EnumValues, &ast.EnumValueDefinition{
			Name:        ev.Name,
			Description: deref(ev.Description),
		})
	}
	for _, iface := range ft.Interfaces {
		if iface.Name != nil {
			def.Interfaces = append(def.Interfaces, *iface.Name)
		}
	}
	if def.Kind == ast.Union {
		for _, pt := range ft.PossibleTypes {
			if pt.Name != nil {
				def.Types = append(def.Types, *pt.Name)
			}
		}
	}
	return def, nil
}

func convertArgs(in []inputValue) (ast.ArgumentDefinitionList, error) {
	var out ast.ArgumentDefinitionList
	for _, a := range in {
		t, err := convertRef(a.Type)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", a.Name, err)
		}
		out = append(out, &ast.ArgumentDefinition{
			Name:         a.Name,
			Description:  deref(a.Description),
			Type:         t,
			DefaultValue: rawValue(a.DefaultValue),
		})
	}
	return out, nil
}

// convertRef turns a nested introspection TypeRef into an *ast.Type.
func convertRef(ref typeRef) (*ast.Type, error) {
	switch ref.Kind {
	case "NON_NULL":
		if ref.OfType == nil {
			return nil, errors.New("NON_NULL without ofType")
		}
		inner, err := convertRef(*ref.OfType)
		if err != nil {
			return nil, err
		}
		if inner.NonNull {
			return nil, errors.New("NON_NULL wrapping NON_NULL")
		}
		inner.NonNull = true
		return inner, nil
	case "LIST":
		if ref.OfType == nil {
			return nil, errors.New("LIST without ofType")
		}
		inner, err := convertRef(*ref.OfType)
		if err != nil {
			return nil, err
		}
		return &ast.Type{Elem: inner}, nil
	default:
		if ref.Name == nil || *ref.Name == "" {
			return nil, fmt.Errorf("%s type reference without a name", ref.Kind)
		}
		return &ast.Type{NamedType: *ref.Name}, nil
	}
}

// rawValue keeps an introspected default as an opaque value. Only its
// presence matters to the synthesizer.
func rawValue(s *string) *ast.Value {
	if s == nil {
		return nil
	}
	return &ast.Value{Raw: *s, Kind: ast.StringValue}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
