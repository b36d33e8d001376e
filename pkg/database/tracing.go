package database

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/utafrali/storefront/pkg/database"

// TracingHook is a go-redis hook that opens a client span per command or
// pipeline and warns about commands slower than a threshold.
type TracingHook struct {
	slow   time.Duration
	logger *slog.Logger
}

var _ redis.Hook = (*TracingHook)(nil)

// NewTracingHook returns a hook that logs commands taking at least slow to
// logger. A zero slow or nil logger turns the warning off.
func NewTracingHook(slow time.Duration, logger *slog.Logger) *TracingHook {
	return &TracingHook{slow: slow, logger: logger}
}

// DialHook implements redis.Hook.
func (h *TracingHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

// ProcessHook implements redis.Hook.
func (h *TracingHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		ctx, end := h.start(ctx, cmd.Name(), statement(cmd))
		err := next(ctx, cmd)
		end(err)
		return err
	}
}

// ProcessPipelineHook implements redis.Hook.
func (h *TracingHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		names := make([]string, 0, len(cmds))
		for _, cmd := range cmds {
			names = append(names, cmd.Name())
		}
		ctx, end := h.start(ctx, "pipeline", strings.Join(names, " "))
		err := next(ctx, cmds)
		end(err)
		return err
	}
}

// start opens the span for one operation. redis.Nil is a miss, not a
// failure, and leaves the span status unset.
func (h *TracingHook) start(ctx context.Context, operation, stmt string) (context.Context, func(error)) {
	begun := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "redis."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "redis"),
			attribute.String("db.operation", operation),
			attribute.String("db.statement", stmt),
		),
	)

	return ctx, func(err error) {
		if errors.Is(err, redis.Nil) {
			err = nil
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		elapsed := time.Since(begun)
		if h.slow <= 0 || h.logger == nil || elapsed < h.slow {
			return
		}
		attrs := []any{
			slog.String("operation", operation),
			slog.String("statement", stmt),
			slog.Duration("duration", elapsed),
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		h.logger.WarnContext(ctx, "slow redis command", attrs...)
	}
}

// statement renders the command name and key. Values are left out so
// selections never reach span attributes or logs.
func statement(cmd redis.Cmder) string {
	args := cmd.Args()
	if len(args) < 2 {
		return cmd.Name()
	}
	if key, ok := args[1].(string); ok {
		return cmd.Name() + " " + key
	}
	return cmd.Name()
}
