package telemetry

import (
	"time"

	"github.com/posthog/posthog-go"
)

// timer measures one command or session.
type timer struct {
	name  string
	start time.Time
}

func (t *timer) begin(name string) {
	t.name, t.start = name, time.Now()
}

func (t *timer) elapsedMs() int64 {
	return time.Since(t.start).Milliseconds()
}

var (
	cliTimer timer
	tuiTimer timer
)

func CLICommandStart(commandName string) {
	cliTimer.begin(commandName)
}

func CLICommandEnd() {
	if cliTimer.name == "" {
		return
	}
	capture("cli:command_run", posthog.NewProperties().
		Set("command_name", cliTimer.name).
		Set("duration_ms", cliTimer.elapsedMs()))
}

func TUISessionStart() {
	tuiTimer.begin("tui")
	capture("tui:session_start", nil)
}

func TUISessionEnd() {
	capture("tui:session_end", posthog.NewProperties().Set("duration_ms", tuiTimer.elapsedMs()))
}

func TUIActionExecute(actionName string) {
	capture("tui:action_execute", posthog.NewProperties().Set("action_name", actionName))
}

func MCPToolCall(toolName string) {
	capture("mcp:tool_call", posthog.NewProperties().Set("tool_name", toolName))
}

// DispatchRun records the size of a signal batch, never the PIDs in it.
func DispatchRun(operation string, signaled, failed, reconciled int) {
	capture("dispatch:run", posthog.NewProperties().
		Set("operation", operation).
		Set("signaled", signaled).
		Set("failed", failed).
		Set("reconciled", reconciled))
}
