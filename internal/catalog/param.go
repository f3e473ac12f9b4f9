package catalog

import "strings"

// Widget is the input control a presentation layer should render for a
// parameter.
type Widget string

const (
	WidgetCheckbox Widget = "checkbox"
	WidgetNumber   Widget = "number"
	WidgetTextarea Widget = "textarea"
	WidgetText     Widget = "text"
)

// structuredPlaceholder is shown for parameters that usually carry encoded
// payloads.
const structuredPlaceholder = "json or string"

// payloadTokens mark a parameter name as carrying a transaction or payload.
var payloadTokens = []string{"tx", "raw", "payload", "data"}

// OperationParam describes one parameter of a catalog operation.
type OperationParam struct {
	Name        string `json:"name"`
	Required    bool   `json:"required"`
	TypeName    string `json:"type_name"`
	InputType   Widget `json:"input_type"`
	Placeholder string `json:"placeholder"`
}

// buildParam infers the normalized type name and widget for a parameter.
func buildParam(name string, t TypeExpr, required bool) OperationParam {
	base, typeName := normalize(t)
	p := OperationParam{
		Name:     name,
		Required: required,
		TypeName: typeName,
	}

	lower := strings.ToLower(name)
	switch {
	case base == BaseBool:
		p.InputType = WidgetCheckbox
	case base == BaseInt || base == BaseFloat:
		p.InputType = WidgetNumber
		p.Placeholder = typeName
	case containsAny(lower, payloadTokens):
		p.InputType = WidgetTextarea
		p.Placeholder = structuredPlaceholder
	default:
		p.InputType = WidgetText
		p.Placeholder = typeName
	}
	return p
}

func containsAny(s string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}
