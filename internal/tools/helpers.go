// Package tools provides shared helper utilities for MCP tool handlers.
package tools

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jamesprial/gqlops/internal/safety"
	"github.com/mark3labs/mcp-go/mcp"
)

// ConfirmationParam is the tool argument carrying a confirmation token.
const ConfirmationParam = "confirmation_token"

// JSONResult marshals v to indented JSON and returns an mcp.CallToolResult.
func JSONResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("error marshaling result: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}

// ErrorResult returns an mcp.CallToolResult that describes an error condition.
func ErrorResult(msg string) *mcp.CallToolResult {
	return mcp.NewToolResultText(fmt.Sprintf("error: %s", msg))
}

// LogAudit logs an operation invocation to the audit logger, silently
// ignoring a nil logger.
func LogAudit(audit *safety.AuditLogger, requestID, toolName, kind string, params map[string]any, result string, start time.Time) {
	if audit == nil {
		return
	}
	_ = audit.Log(safety.AuditEntry{
		Timestamp: start,
		RequestID: requestID,
		Tool:      toolName,
		Kind:      kind,
		Params:    params,
		Result:    result,
		Duration:  time.Since(start),
	})
}

// ConfirmPrompt issues a confirmation token for toolName and returns the
// prompt telling the caller how to proceed.
func ConfirmPrompt(confirm *safety.ConfirmationTracker, toolName, summary string) *mcp.CallToolResult {
	token := confirm.RequestConfirmation(toolName, summary)
	return mcp.NewToolResultText(fmt.Sprintf(
		"Confirmation required for %s.\n\n%s\n\nTo proceed, call %s again with %s=%q.",
		toolName, summary, toolName, ConfirmationParam, token,
	))
}
