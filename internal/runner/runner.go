// Package runner invokes catalog operations from loosely typed input.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/jamesprial/gqlops/internal/catalog"
	"github.com/jamesprial/gqlops/internal/graphql"
	"go.uber.org/zap"
)

// Runner resolves operations by name, coerces their input and executes
// them over a session that lives only for that call. It holds no mutable
// state and is safe for concurrent use.
type Runner struct {
	catalog   *catalog.Catalog
	connector graphql.Connector
	logger    *zap.Logger
}

// New returns a Runner. A nil logger discards log output.
func New(c *catalog.Catalog, connector graphql.Connector, logger *zap.Logger) *Runner {
	if c == nil {
		panic("catalog must not be nil")
	}
	if connector == nil {
		panic("connector must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{catalog: c, connector: connector, logger: logger}
}

// Catalog returns the catalog operations are resolved from.
func (r *Runner) Catalog() *catalog.Catalog { return r.catalog }

// Run executes the named operation with raw form values and returns the
// normalized result. Unknown names and missing required values fail before
// any connection is opened. Errors are never retried.
func (r *Runner) Run(ctx context.Context, name string, form map[string]any) (any, error) {
	op, err := r.catalog.Get(name)
	if err != nil {
		return nil, err
	}

	args, err := BuildArgs(op, form)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	sess, err := r.connector.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("runner: %s: %w", name, err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			r.logger.Warn("closing session", zap.String("operation", name), zap.Error(cerr))
		}
	}()

	result, err := r.catalog.Call(ctx, sess, name, args)
	if err != nil {
		r.logger.Warn("operation failed",
			zap.String("operation", name),
			zap.String("kind", op.Kind),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return nil, err
	}

	r.logger.Info("operation completed",
		zap.String("operation", name),
		zap.String("kind", op.Kind),
		zap.Int("args", len(args)),
		zap.Duration("duration", time.Since(start)))

	return Normalize(result)
}
