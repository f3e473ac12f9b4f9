package runner

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/url"
	"strconv"
	"strings"

	"github.com/jamesprial/gqlops/internal/catalog"
)

// ErrMissingValue is matched by errors.Is for every MissingValueError.
var ErrMissingValue = errors.New("missing required value")

// MissingValueError reports a required parameter with no usable input.
type MissingValueError struct {
	Param string
}

func (e *MissingValueError) Error() string { return e.Param + " is required" }

// Is makes errors.Is(err, ErrMissingValue) report true.
func (e *MissingValueError) Is(target error) bool { return target == ErrMissingValue }

// truthy lists the checkbox values read as true, compared case-insensitively.
var truthy = map[string]bool{
	"true": true,
	"1":    true,
	"on":   true,
	"yes":  true,
}

// BuildArgs turns raw form values into call arguments for op, visiting
// parameters in declared order. An absent optional parameter is omitted; an
// absent required one fails with a MissingValueError. Values that fail
// structured or numeric coercion are passed through as trimmed strings.
func BuildArgs(op catalog.Operation, form map[string]any) (map[string]any, error) {
	args := make(map[string]any, len(op.Params))
	for _, p := range op.Params {
		raw, present := form[p.Name]
		if raw == nil {
			present = false
		}

		if p.InputType == catalog.WidgetCheckbox {
			if !present {
				if p.Required {
					return nil, &MissingValueError{Param: p.Name}
				}
				continue
			}
			args[p.Name] = truthy[strings.ToLower(stringify(raw))]
			continue
		}

		var text string
		if present {
			text = strings.TrimSpace(stringify(raw))
		}
		if text == "" {
			if p.Required {
				return nil, &MissingValueError{Param: p.Name}
			}
			continue
		}
		args[p.Name] = CoerceValue(text, p.TypeName)
	}
	return args, nil
}

// CoerceValue converts trimmed text to the value a parameter of typeName
// expects. Text starting with "{" or "[" is decoded as JSON with numbers kept
// as json.Number so wide integers survive; int and float type names are
// parsed as numbers, and an int wider than 64 bits becomes a *big.Int. Any
// failure returns text unchanged.
func CoerceValue(text, typeName string) any {
	if strings.HasPrefix(text, "{") || strings.HasPrefix(text, "[") {
		v, err := decodeJSON(text)
		if err != nil {
			return text
		}
		return v
	}

	switch {
	case strings.HasPrefix(typeName, "int"):
		if n, err := strconv.Atoi(text); err == nil {
			return n
		}
		if n, ok := new(big.Int).SetString(text, 10); ok {
			return n
		}
	case strings.HasPrefix(typeName, "float"):
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return f
		}
	}
	return text
}

// decodeJSON decodes exactly one JSON value from text.
func decodeJSON(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after JSON value")
	}
	return v, nil
}

// FormValues flattens submitted form data to the first value per key.
func FormValues(v url.Values) map[string]any {
	out := make(map[string]any, len(v))
	for k, vals := range v {
		if len(vals) > 0 {
			out[k] = vals[0]
		}
	}
	return out
}

// stringify renders a raw input value as text. Structured values that did
// not arrive as text are re-encoded as JSON so they survive coercion.
func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case fmt.Stringer:
		return x.String()
	case map[string]any, []any:
		data, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(data)
	default:
		return fmt.Sprint(x)
	}
}
