package catalog

import "strings"

// Base is the primitive a parameter type reduces to, used to pick an input
// widget and a coercion.
type Base int

const (
	BaseNone Base = iota
	BaseBool
	BaseInt
	BaseFloat
	BaseString
)

// TypeExpr describes a parameter's declared type. It is one of Named,
// Optional, Union, None or Opaque.
type TypeExpr interface {
	String() string
	typeExpr()
}

// Named is a plain named type.
type Named struct {
	Name string
	Base Base
}

// Optional is a value of Elem or nothing.
type Optional struct {
	Elem TypeExpr
}

// Union is a value of any of its Members. A None member makes it nullable.
type Union struct {
	Members []TypeExpr
}

// None is the null type.
type None struct{}

// Opaque is a type the catalog does not interpret; Text is shown as-is.
type Opaque struct {
	Text string
}

func (Named) typeExpr()    {}
func (Optional) typeExpr() {}
func (Union) typeExpr()    {}
func (None) typeExpr()     {}
func (Opaque) typeExpr()   {}

func (n Named) String() string    { return n.Name }
func (o Optional) String() string { return o.Elem.String() + " | None" }
func (None) String() string       { return "None" }
func (o Opaque) String() string   { return o.Text }

func (u Union) String() string {
	parts := make([]string, len(u.Members))
	for i, m := range u.Members {
		parts[i] = m.String()
	}
	return strings.Join(parts, " | ")
}

// Primitive named types.
var (
	Bool  = Named{Name: "bool", Base: BaseBool}
	Int   = Named{Name: "int", Base: BaseInt}
	Float = Named{Name: "float", Base: BaseFloat}
	Str   = Named{Name: "str", Base: BaseString}
)

// normalize reduces t to its primitive base and display name. An
// optional-of-T shape becomes "<T> | None" only when exactly one non-null
// alternative exists; any other union is left as its opaque rendering with
// no base.
func normalize(t TypeExpr) (Base, string) {
	switch v := t.(type) {
	case nil:
		return BaseNone, "any"
	case Named:
		return v.Base, v.Name
	case Optional:
		return normalizeUnion(Union{Members: []TypeExpr{v.Elem, None{}}})
	case Union:
		return normalizeUnion(v)
	case None:
		return BaseNone, v.String()
	case Opaque:
		return BaseNone, v.Text
	default:
		return BaseNone, t.String()
	}
}

func normalizeUnion(u Union) (Base, string) {
	alts, nullable := flatten(u)
	if len(alts) == 1 {
		base, name := normalize(alts[0])
		if nullable {
			name += " | None"
		}
		return base, name
	}
	return BaseNone, u.String()
}

// flatten expands nested unions and optionals into their non-null
// alternatives and reports whether None was among them.
func flatten(u Union) ([]TypeExpr, bool) {
	var alts []TypeExpr
	nullable := false
	for _, m := range u.Members {
		switch v := m.(type) {
		case None:
			nullable = true
		case Optional:
			nullable = true
			inner, _ := flatten(Union{Members: []TypeExpr{v.Elem}})
			alts = append(alts, inner...)
		case Union:
			inner, n := flatten(v)
			alts = append(alts, inner...)
			nullable = nullable || n
		default:
			alts = append(alts, m)
		}
	}
	return alts, nullable
}
