// Package graphql provides the GraphQL HTTP transport used to fetch schemas
// and execute catalog operations.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// GraphQLError represents a single error returned in a GraphQL response.
type GraphQLError struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

// Request is a single GraphQL request. OperationName selects one operation
// when Query holds a document with several.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// Client defines the interface for executing GraphQL requests. Execute
// returns the raw JSON of the response "data" member.
type Client interface {
	Execute(ctx context.Context, req Request) ([]byte, error)
}

// Session is a Client bound to one scoped connection. Close releases it.
type Session interface {
	Client
	io.Closer
}

// Connector opens Sessions. Each Session is used for a single operation and
// closed before the operation returns.
type Connector interface {
	Connect(ctx context.Context) (Session, error)
}

// Result is the outcome of executing one named operation.
type Result struct {
	OperationName string
	Data          json.RawMessage
}

// Dump decodes Data into plain maps, slices and scalars. An empty or null
// payload yields nil.
func (r *Result) Dump() (any, error) {
	trimmed := bytes.TrimSpace(r.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return nil, fmt.Errorf("graphql: decode %s result: %w", r.OperationName, err)
	}
	return v, nil
}
