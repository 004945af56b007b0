package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/diviso/diviso/internal/apperr"
	"github.com/diviso/diviso/internal/metrics"
)

// LoggingInterceptor logs every RPC call and records its metrics. It is the
// outermost interceptor: handler errors are mapped to Connect codes here, so
// services return plain apperr errors.
type LoggingInterceptor struct {
	logger *slog.Logger
}

// NewLoggingInterceptor creates the interceptor. A nil logger uses slog.Default.
func NewLoggingInterceptor(logger *slog.Logger) *LoggingInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingInterceptor{logger: logger}
}

var _ connect.Interceptor = (*LoggingInterceptor)(nil)

func (i *LoggingInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		err = i.finish(ctx, req.Spec().Procedure, start, err)
		return resp, err
	}
}

func (i *LoggingInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (i *LoggingInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		start := time.Now()
		err := next(ctx, conn)
		return i.finish(ctx, conn.Spec().Procedure, start, err)
	}
}

func (i *LoggingInterceptor) finish(ctx context.Context, procedure string, start time.Time, err error) error {
	elapsed := time.Since(start)
	userID := GetUserID(ctx) // empty if pre-auth

	code := "ok"
	switch {
	case err == nil:
		i.logger.Info("RPC ok",
			"procedure", procedure,
			"user_id", userID,
			"duration_ms", elapsed.Milliseconds(),
		)
	default:
		cause := err
		err = apperr.ToConnect(err)
		var connectErr *connect.Error
		errors.As(err, &connectErr)
		code = connectErr.Code().String()
		if connectErr.Code() == connect.CodeInternal {
			// The cause is logged, never returned.
			i.logger.Error("RPC error",
				"procedure", procedure,
				"code", code,
				"error", cause,
				"user_id", userID,
				"duration_ms", elapsed.Milliseconds(),
			)
		} else {
			i.logger.Warn("RPC error",
				"procedure", procedure,
				"code", code,
				"error", connectErr.Message(),
				"user_id", userID,
				"duration_ms", elapsed.Milliseconds(),
			)
		}
	}

	metrics.RPCRequests.WithLabelValues(procedure, code).Inc()
	metrics.RPCDuration.WithLabelValues(procedure).Observe(elapsed.Seconds())
	return err
}
