package userinfo

import (
	"context"

	"go.uber.org/zap"
)

// Telemetry records widget and search events (renders, skipped rows, stale updates, reruns).
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

// TelemetryFunc adapts a function to Telemetry.
type TelemetryFunc func(ctx context.Context, event string, payload map[string]any)

// Record calls f.
func (f TelemetryFunc) Record(ctx context.Context, event string, payload map[string]any) {
	f(ctx, event, payload)
}

// LogTelemetry writes events as debug entries on logger.
func LogTelemetry(logger *zap.Logger) Telemetry {
	if logger == nil {
		return noopTelemetry{}
	}
	return TelemetryFunc(func(_ context.Context, event string, payload map[string]any) {
		logger.Debug("telemetry", zap.String("event", event), zap.Any("payload", payload))
	})
}

// NormalizeTelemetry returns t, or a recorder that discards events when t is nil.
func NormalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}
