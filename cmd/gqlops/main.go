// Command gqlops synthesizes GraphQL operations from a schema and serves them
// as a callable catalog.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jamesprial/gqlops/internal/catalog"
	"github.com/jamesprial/gqlops/internal/config"
	"github.com/jamesprial/gqlops/internal/graphql"
	"github.com/jamesprial/gqlops/internal/runner"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultConfigPath = "gqlops.yaml"

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "gqlops",
		Usage: "Generate and run GraphQL operations from an introspected schema",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML config file",
				Value:   defaultConfigPath,
				Sources: cli.EnvVars("GQLOPS_CONFIG_PATH"),
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "dotenv file loaded before reading the environment",
				Value: ".env",
			},
		},
		Commands: []*cli.Command{
			genCommand(),
			listCommand(),
			runCommand(),
			serveCommand(),
		},
	}
}

// loadConfig reads the config file named by --config, falling back to
// defaults when it cannot be read, then applies dotenv and environment
// overrides.
func loadConfig(cmd *cli.Command) (*config.Config, []string) {
	var notes []string

	if err := config.LoadDotEnv(cmd.String("env-file")); err != nil {
		notes = append(notes, err.Error())
	}

	path := cmd.String("config")
	cfg, err := config.LoadConfig(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			notes = append(notes, fmt.Sprintf("could not load config from %q (%v), using defaults", path, err))
		}
		cfg = config.DefaultConfig()
	}

	config.ApplyEnvOverrides(cfg)
	return cfg, notes
}

// newLogger builds the process logger. Development mode logs to the console
// at debug level unless a level is configured.
func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.OutputPaths = []string{"stderr"}
	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}
	return zcfg.Build()
}

// setup loads configuration and builds the logger every command shares.
func setup(cmd *cli.Command) (*config.Config, *zap.Logger, error) {
	cfg, notes := loadConfig(cmd)
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	for _, n := range notes {
		logger.Warn(n)
	}
	return cfg, logger, nil
}

// newRunner loads the operation document and wires it to the configured
// endpoint.
func newRunner(cfg *config.Config, logger *zap.Logger) (*runner.Runner, error) {
	doc, err := catalog.LoadDocumentFile(cfg.Operations.Document)
	if err != nil {
		return nil, err
	}
	c, err := catalog.Discover(doc)
	if err != nil {
		return nil, err
	}

	settings, err := config.ResolveSettings(cfg.GraphQL)
	if err != nil {
		return nil, err
	}
	connector, err := graphql.NewHTTPConnector(settings, cfg.GraphQL)
	if err != nil {
		return nil, err
	}

	logger.Debug("catalog loaded",
		zap.String("document", cfg.Operations.Document),
		zap.Int("operations", c.Len()),
		zap.String("endpoint", connector.Endpoint()))
	return runner.New(c, connector, logger), nil
}
