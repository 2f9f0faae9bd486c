// Package telemetry reports anonymous usage events to PostHog. It is off
// unless a project key is configured, and DO_NOT_TRACK or
// PTREE_TELEMETRY_DISABLED turn it off regardless.
package telemetry

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/posthog/posthog-go"

	"github.com/juanibiapina/ptree/internal/config"
	"github.com/juanibiapina/ptree/internal/version"
)

const defaultEndpoint = "https://eu.i.posthog.com"

var client posthog.Client

// environment is attached to every event.
func environment() posthog.Properties {
	return posthog.NewProperties().
		Set("goos", runtime.GOOS).
		Set("goarch", runtime.GOARCH).
		Set("term", os.Getenv("TERM")).
		Set("shell", filepath.Base(os.Getenv("SHELL"))).
		Set("version", version.Version)
}

// Init starts the PostHog client.
func Init(cfg config.TelemetryConfig) {
	if cfg.Key == "" || optedOut() {
		return
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	c, err := posthog.NewWithConfig(cfg.Key, posthog.Config{
		Endpoint: endpoint,
		Logger:   logger{},
	})
	if err != nil {
		slog.Debug("Telemetry disabled", "error", err)
		return
	}
	client = c
	distinctId = getDistinctId()
}

// Enabled reports whether events are being collected.
func Enabled() bool {
	return client != nil
}

func optedOut() bool {
	for _, name := range []string{"PTREE_TELEMETRY_DISABLED", "DO_NOT_TRACK"} {
		if v, _ := strconv.ParseBool(os.Getenv(name)); v {
			return true
		}
	}
	return false
}

func capture(event string, props posthog.Properties) {
	if client == nil {
		return
	}
	if props == nil {
		props = posthog.NewProperties()
	}
	err := client.Enqueue(posthog.Capture{
		DistinctId: distinctId,
		Event:      event,
		Properties: props.Merge(environment()),
	})
	if err != nil {
		slog.Debug("Failed to enqueue telemetry event", "event", event, "error", err)
	}
}

// Flush delivers queued events and shuts the client down.
func Flush() {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		slog.Debug("Failed to flush telemetry events", "error", err)
	}
	client = nil
}
