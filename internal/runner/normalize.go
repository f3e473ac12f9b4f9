package runner

// Dumper is implemented by results that can render themselves as plain
// maps, slices and scalars.
type Dumper interface {
	Dump() (any, error)
}

// Mapper is implemented by results that convert to a map.
type Mapper interface {
	Map() map[string]any
}

// Normalize converts an operation result into a value safe for generic
// serialization. Dumper is preferred over Mapper; anything else is returned
// unchanged.
func Normalize(v any) (any, error) {
	switch x := v.(type) {
	case Dumper:
		return x.Dump()
	case Mapper:
		return x.Map(), nil
	default:
		return v, nil
	}
}
