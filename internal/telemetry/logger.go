package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/posthog/posthog-go"
)

var _ posthog.Logger = logger{}

// logger forwards posthog client messages to slog at debug level, tagged
// with component=telemetry. Delivery problems never reach the user unless
// debug logging is enabled.
type logger struct{}

func (logger) Debugf(format string, args ...any) { logf(slog.LevelDebug, format, args...) }
func (logger) Logf(format string, args ...any)   { logf(slog.LevelDebug, format, args...) }
func (logger) Warnf(format string, args ...any)  { logf(slog.LevelDebug, format, args...) }
func (logger) Errorf(format string, args ...any) { logf(slog.LevelDebug, format, args...) }

func logf(level slog.Level, format string, args ...any) {
	slog.Log(context.Background(), level, fmt.Sprintf(format, args...), "component", "telemetry")
}
