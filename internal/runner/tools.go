package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jamesprial/gqlops/internal/catalog"
	"github.com/jamesprial/gqlops/internal/safety"
	"github.com/jamesprial/gqlops/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const listToolName = "list_operations"

// OperationTools returns the list_operations tool plus one tool per
// operation the filter allows. Operations guarded by confirm require a
// confirmation round trip before they run.
func OperationTools(
	r *Runner,
	filter *safety.Filter,
	confirm *safety.ConfirmationTracker,
	audit *safety.AuditLogger,
) []tools.Registration {
	ops := filter.Select(r.Catalog().List())

	regs := make([]tools.Registration, 0, len(ops)+1)
	regs = append(regs, toolListOperations(ops, audit))
	for _, op := range ops {
		regs = append(regs, toolOperation(r, op, confirm, audit))
	}
	return regs
}

func toolListOperations(ops []catalog.Operation, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(listToolName,
		mcp.WithDescription("List the GraphQL operations available to call, with their parameters."),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		tools.LogAudit(audit, uuid.NewString(), listToolName, "", nil, "ok", start)
		return tools.JSONResult(ops), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolOperation(r *Runner, op catalog.Operation, confirm *safety.ConfirmationTracker, audit *safety.AuditLogger) tools.Registration {
	guarded := confirm.NeedsConfirmation(op.Name)

	tool := mcp.NewTool(op.Name, toolOptions(op, guarded)...)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		requestID := uuid.NewString()

		form := make(map[string]any)
		for k, v := range req.GetArguments() {
			if k == tools.ConfirmationParam {
				continue
			}
			form[k] = v
		}

		if guarded {
			token := req.GetString(tools.ConfirmationParam, "")
			if !confirm.Confirm(token, op.Name) {
				return tools.ConfirmPrompt(confirm, op.Name, confirmSummary(op, form)), nil
			}
		}

		result, err := r.Run(ctx, op.Name, form)
		if err != nil {
			tools.LogAudit(audit, requestID, op.Name, op.Kind, form, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, requestID, op.Name, op.Kind, form, "ok", start)
		return tools.JSONResult(map[string]any{
			"title":   op.Name,
			"ok":      true,
			"payload": result,
		}), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

// toolOptions maps each parameter's widget to the matching MCP argument
// kind.
func toolOptions(op catalog.Operation, guarded bool) []mcp.ToolOption {
	desc := fmt.Sprintf("Run the GraphQL %s %s.", op.Kind, op.Name)
	if guarded {
		desc += " Requires confirmation."
	}

	opts := []mcp.ToolOption{
		mcp.WithDescription(desc),
		mcp.WithReadOnlyHintAnnotation(op.Kind == "query"),
		mcp.WithDestructiveHintAnnotation(op.Kind == "mutation"),
	}
	for _, p := range op.Params {
		propOpts := []mcp.PropertyOption{mcp.Description(paramDescription(p))}
		if p.Required {
			propOpts = append(propOpts, mcp.Required())
		}
		switch p.InputType {
		case catalog.WidgetCheckbox:
			opts = append(opts, mcp.WithBoolean(p.Name, propOpts...))
		case catalog.WidgetNumber:
			opts = append(opts, mcp.WithNumber(p.Name, propOpts...))
		default:
			opts = append(opts, mcp.WithString(p.Name, propOpts...))
		}
	}
	if guarded {
		opts = append(opts, mcp.WithString(tools.ConfirmationParam,
			mcp.Description("Confirmation token returned by a prior call to this tool"),
		))
	}
	return opts
}

func paramDescription(p catalog.OperationParam) string {
	if p.Placeholder != "" && p.Placeholder != p.TypeName {
		return fmt.Sprintf("%s (%s)", p.TypeName, p.Placeholder)
	}
	return p.TypeName
}

func confirmSummary(op catalog.Operation, form map[string]any) string {
	names := make([]string, 0, len(op.Params))
	for _, p := range op.Params {
		if _, ok := form[p.Name]; ok {
			names = append(names, p.Name)
		}
	}
	if len(names) == 0 {
		return fmt.Sprintf("This will run %s %s with no arguments.", op.Kind, op.Name)
	}
	return fmt.Sprintf("This will run %s %s with %s.", op.Kind, op.Name, strings.Join(names, ", "))
}
