package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jamesprial/gqlops/internal/config"
	"github.com/jamesprial/gqlops/internal/graphql"
	"github.com/jamesprial/gqlops/internal/schema"
	"github.com/jamesprial/gqlops/internal/synth"
	"github.com/urfave/cli/v3"
	"github.com/vektah/gqlparser/v2/ast"
	"go.uber.org/zap"
)

// ErrSchemaSource is returned when both --url and --schema are given.
var ErrSchemaSource = errors.New("use either --url or --schema, not both")

func genCommand() *cli.Command {
	return &cli.Command{
		Name:    "gen",
		Aliases: []string{"generate"},
		Usage:   "Synthesize one operation per root field and write a .graphql document",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "url",
				Usage: "GraphQL endpoint to introspect (default: the configured endpoint)",
			},
			&cli.StringFlag{
				Name:    "schema",
				Aliases: []string{"s"},
				Usage:   "SDL schema file to read instead of introspecting",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "output document path (default: generate.out)",
			},
			&cli.IntFlag{
				Name:  "depth",
				Usage: "nested object levels to expand (default: generate.depth)",
				Value: -1,
			},
		},
		Action: runGen,
	}
}

func runGen(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	out := cfg.Generate.Out
	if v := cmd.String("out"); v != "" {
		out = v
	}
	depth := cfg.Generate.Depth
	if v := cmd.Int("depth"); v >= 0 {
		depth = int(v)
	}

	s, source, err := loadSchema(ctx, cmd, cfg)
	if err != nil {
		return err
	}

	ops, err := synth.Generate(s, depth)
	if err != nil {
		return err
	}
	if err := synth.WriteFile(out, ops); err != nil {
		return err
	}

	logger.Info("operations generated",
		zap.String("source", source),
		zap.String("out", out),
		zap.Int("depth", depth),
		zap.Int("operations", len(ops)))
	fmt.Fprintf(cmd.Root().Writer, "wrote %d ops to %s\n", len(ops), out)
	return nil
}

// loadSchema reads --schema when given, otherwise introspects --url or the
// configured endpoint.
func loadSchema(ctx context.Context, cmd *cli.Command, cfg *config.Config) (*ast.Schema, string, error) {
	sdlPath, endpoint := cmd.String("schema"), cmd.String("url")
	if sdlPath != "" && endpoint != "" {
		return nil, "", ErrSchemaSource
	}
	if sdlPath != "" {
		s, err := schema.LoadSDLFile(sdlPath)
		return s, sdlPath, err
	}

	if endpoint == "" {
		settings, err := config.ResolveSettings(cfg.GraphQL)
		if err != nil {
			return nil, "", err
		}
		endpoint = settings.URL
	}

	client, err := graphql.NewHTTPClient(endpoint, cfg.GraphQL)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = client.Close() }()

	s, err := schema.Fetch(ctx, client)
	return s, endpoint, err
}
