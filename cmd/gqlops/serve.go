package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jamesprial/gqlops/internal/auth"
	"github.com/jamesprial/gqlops/internal/config"
	"github.com/jamesprial/gqlops/internal/httpapi"
	"github.com/jamesprial/gqlops/internal/runner"
	"github.com/jamesprial/gqlops/internal/safety"
	"github.com/jamesprial/gqlops/internal/tools"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

const version = "0.1.0"

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the catalog over MCP and a JSON HTTP API",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "listen port (default: server.port)",
			},
		},
		Action: runServe,
	}
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if p := cmd.Int("port"); p > 0 {
		cfg.Server.Port = int(p)
	}

	tokenBefore := cfg.Server.AuthToken
	token, err := config.EnsureAuthToken(cfg)
	if err != nil {
		logger.Warn("could not generate auth token, running without authentication", zap.Error(err))
	} else if tokenBefore == "" {
		logger.Info("generated auth token (set GQLOPS_AUTH_TOKEN to persist)", zap.String("token", token))
	}

	var auditLogger *safety.AuditLogger
	if cfg.Audit.Enabled {
		f, err := os.OpenFile(cfg.Audit.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			logger.Warn("could not open audit log, audit logging disabled",
				zap.String("path", cfg.Audit.LogPath), zap.Error(err))
		} else {
			auditLogger = safety.NewAuditLogger(f)
			defer f.Close()
		}
	}

	r, err := newRunner(cfg, logger)
	if err != nil {
		return err
	}

	filter := safety.NewFilter(cfg.Operations.Allowlist, cfg.Operations.Denylist)
	var confirm *safety.ConfirmationTracker
	if cfg.Operations.ConfirmMutations {
		confirm = safety.NewConfirmationTracker(safety.MutationNames(r.Catalog().List()))
	}

	mcpServer := server.NewMCPServer(
		"gqlops",
		version,
		server.WithToolCapabilities(false),
	)
	registrations := runner.OperationTools(r, filter, confirm, auditLogger)
	toolNames := tools.RegisterAll(mcpServer, registrations)

	router := mux.NewRouter()
	router.Handle(cfg.Server.MCPPath, server.NewStreamableHTTPServer(mcpServer))
	httpapi.NewHandler(r, filter, auditLogger, logger).Register(router)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           auth.NewAuthMiddleware(cfg.Server.AuthToken, "/health")(router),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("gqlops listening",
			zap.String("addr", addr),
			zap.String("mcp_path", cfg.Server.MCPPath),
			zap.Strings("tools", toolNames))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
	return nil
}
