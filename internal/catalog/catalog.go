// Package catalog describes the operations a client exposes so they can be
// listed, rendered as forms and invoked by name.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/jamesprial/gqlops/internal/graphql"
)

// ErrUnknownOperation is returned when a name is not in the catalog.
var ErrUnknownOperation = errors.New("unknown operation")

// privatePrefix marks methods that are never exposed as operations.
const privatePrefix = "_"

// CallFunc invokes one operation over an open session with already coerced
// arguments.
type CallFunc func(ctx context.Context, sess graphql.Session, args map[string]any) (any, error)

// Param is a declared parameter of a Method.
type Param struct {
	Name string
	Type TypeExpr
	// HasDefault marks the parameter optional.
	HasDefault bool
	// Variadic parameters collect leftovers and are not exposed.
	Variadic bool
}

// Method is one callable on a client surface. A Method without Call is not
// invocable and is ignored by Discover.
type Method struct {
	Name   string
	Params []Param
	Call   CallFunc
}

// Surface is anything that exposes Methods: a document-backed client or a
// hand-registered MethodSet.
type Surface interface {
	Methods() []Method
}

// MethodSet is a Surface built from an explicit list of methods.
type MethodSet []Method

// Methods implements Surface.
func (m MethodSet) Methods() []Method { return m }

// Operation is the catalog description of one invocable method.
type Operation struct {
	Name      string           `json:"name"`
	Kind      string           `json:"kind"`
	KindLabel string           `json:"kind_label"`
	Theme     string           `json:"theme"`
	Params    []OperationParam `json:"params"`
}

// Catalog is an immutable, name-sorted set of operations. It is safe for
// concurrent use.
type Catalog struct {
	names []string
	ops   map[string]Operation
	calls map[string]CallFunc
}

// Discover builds a Catalog from every surface. Methods whose names start
// with "_" or that have no Call are skipped, as are variadic parameters. A
// name exposed by two surfaces is an error.
func Discover(surfaces ...Surface) (*Catalog, error) {
	c := &Catalog{
		ops:   make(map[string]Operation),
		calls: make(map[string]CallFunc),
	}

	for _, s := range surfaces {
		for _, m := range s.Methods() {
			if strings.HasPrefix(m.Name, privatePrefix) || m.Call == nil {
				continue
			}
			if _, dup := c.ops[m.Name]; dup {
				return nil, fmt.Errorf("catalog: duplicate operation %q", m.Name)
			}

			var params []OperationParam
			for _, p := range m.Params {
				if p.Variadic {
					continue
				}
				params = append(params, buildParam(p.Name, p.Type, !p.HasDefault))
			}

			kind, label, theme := classify(m.Name)
			c.ops[m.Name] = Operation{
				Name:      m.Name,
				Kind:      kind,
				KindLabel: label,
				Theme:     theme,
				Params:    params,
			}
			c.calls[m.Name] = m.Call
			c.names = append(c.names, m.Name)
		}
	}

	sort.Strings(c.names)
	return c, nil
}

// classify derives kind, label and theme from an operation name prefix.
func classify(name string) (kind, label, theme string) {
	switch {
	case strings.HasPrefix(name, "query_"):
		return "query", "Query", "blue"
	case strings.HasPrefix(name, "mutation_"):
		return "mutation", "Mutation", "rose"
	default:
		return "operation", "Operation", "indigo"
	}
}

// Len returns the number of operations.
func (c *Catalog) Len() int { return len(c.names) }

// Names returns the operation names in sorted order.
func (c *Catalog) Names() []string { return slices.Clone(c.names) }

// List returns every operation sorted by name.
func (c *Catalog) List() []Operation {
	out := make([]Operation, 0, len(c.names))
	for _, name := range c.names {
		out = append(out, c.ops[name].clone())
	}
	return out
}

// Get returns the named operation or an error wrapping ErrUnknownOperation.
func (c *Catalog) Get(name string) (Operation, error) {
	op, ok := c.ops[name]
	if !ok {
		return Operation{}, fmt.Errorf("%w: %s", ErrUnknownOperation, name)
	}
	return op.clone(), nil
}

// Call invokes the named operation over sess.
func (c *Catalog) Call(ctx context.Context, sess graphql.Session, name string, args map[string]any) (any, error) {
	call, ok := c.calls[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, name)
	}
	return call(ctx, sess, args)
}

func (o Operation) clone() Operation {
	o.Params = slices.Clone(o.Params)
	return o
}
