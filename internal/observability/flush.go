package observability

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// FlushTelemetry drains telemetry before exit: the global tracer provider is shut down when
// an SDK provider is installed, then logs are synced. Prometheus is pull-based.
func FlushTelemetry(ctx context.Context, logger *zap.Logger) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("flush telemetry: %w", err)
	}

	var errs []error
	if tp, ok := otel.GetTracerProvider().(shutdowner); ok {
		if err := tp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush traces: %w", err))
		}
	}
	if logger != nil {
		if err := logger.Sync(); err != nil && !syncUnsupported(err) {
			errs = append(errs, fmt.Errorf("flush logs: %w", err))
		}
	}
	return errors.Join(errs...)
}

// syncUnsupported matches the error fsync returns for terminals and pipes on stderr.
func syncUnsupported(err error) bool {
	return errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY)
}
