// Package tools provides shared types and helpers for registering MCP tools
// on an MCP server instance: the list_operations tool and one tool per
// catalog operation.
package tools

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Registration pairs an MCP tool definition with its handler function.
type Registration struct {
	Tool    mcp.Tool
	Handler server.ToolHandlerFunc
}

// RegisterAll adds every Registration to s and returns the registered tool
// names in order. A later registration with an already used name replaces
// the earlier one on the server and is reported once.
func RegisterAll(s *server.MCPServer, registrations []Registration) []string {
	names := make([]string, 0, len(registrations))
	seen := make(map[string]struct{}, len(registrations))
	for _, r := range registrations {
		s.AddTool(r.Tool, r.Handler)
		if _, dup := seen[r.Tool.Name]; dup {
			continue
		}
		seen[r.Tool.Name] = struct{}{}
		names = append(names, r.Tool.Name)
	}
	return names
}
