package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/jamesprial/gqlops/internal/catalog"
	"github.com/jamesprial/gqlops/internal/safety"
	"github.com/urfave/cli/v3"
)

// ErrNoOperationName is returned when run is called without an operation.
var ErrNoOperationName = errors.New("operation name is required")

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List the operations in the configured document",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print the catalog as JSON",
			},
		},
		Action: runList,
	}
}

func runList(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	r, err := newRunner(cfg, logger)
	if err != nil {
		return err
	}
	ops := safety.NewFilter(cfg.Operations.Allowlist, cfg.Operations.Denylist).Select(r.Catalog().List())

	w := cmd.Root().Writer
	if cmd.Bool("json") {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(ops)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tPARAMS")
	for _, op := range ops {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", op.Name, op.Kind, formatParams(op.Params))
	}
	return tw.Flush()
}

func formatParams(params []catalog.OperationParam) string {
	if len(params) == 0 {
		return "-"
	}
	parts := make([]string, len(params))
	for i, p := range params {
		suffix := ""
		if !p.Required {
			suffix = "?"
		}
		parts[i] = fmt.Sprintf("%s%s: %s", p.Name, suffix, p.TypeName)
	}
	return strings.Join(parts, ", ")
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Invoke one operation and print its result",
		ArgsUsage: "NAME",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "arg",
				Aliases: []string{"a"},
				Usage:   "operation argument as key=value (repeatable)",
			},
		},
		Action: runRun,
	}
}

func runRun(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() < 1 {
		return ErrNoOperationName
	}
	name := cmd.Args().Get(0)

	form, err := parseArgs(cmd.StringSlice("arg"))
	if err != nil {
		return err
	}

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if !safety.NewFilter(cfg.Operations.Allowlist, cfg.Operations.Denylist).IsAllowed(name) {
		return fmt.Errorf("%w: %s", catalog.ErrUnknownOperation, name)
	}

	r, err := newRunner(cfg, logger)
	if err != nil {
		return err
	}
	payload, err := r.Run(ctx, name, form)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.Root().Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{"title": name, "ok": true, "payload": payload})
}

// parseArgs splits key=value pairs. A later pair for the same key wins.
func parseArgs(pairs []string) (map[string]any, error) {
	form := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --arg %q: want key=value", pair)
		}
		form[k] = v
	}
	return form, nil
}
