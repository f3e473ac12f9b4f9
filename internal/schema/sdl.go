package schema

import (
	"fmt"
	"os"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

// LoadSDL parses and validates an SDL document. name is used in error
// positions.
func LoadSDL(name, sdl string) (*ast.Schema, error) {
	s, err := gqlparser.LoadSchema(&ast.Source{Name: name, Input: sdl})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSchemaLoad, name, err)
	}
	return s, nil
}

// LoadSDLFile reads path and parses it with LoadSDL.
func LoadSDLFile(path string) (*ast.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaLoad, err)
	}
	return LoadSDL(path, string(data))
}
