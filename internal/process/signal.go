package process

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Sender delivers a signal to exactly one process.
type Sender interface {
	Signal(pid int, sig unix.Signal) error
}

// UnixSender sends signals with kill(2).
type UnixSender struct{}

// Signal refuses pid <= 0: kill(2) treats those as process group or
// broadcast targets.
func (UnixSender) Signal(pid int, sig unix.Signal) error {
	if pid <= 0 {
		return fmt.Errorf("refusing to signal pid %d", pid)
	}
	return unix.Kill(pid, sig)
}

// SignalName returns the conventional name of sig, e.g. "SIGKILL".
func SignalName(sig unix.Signal) string {
	if name := unix.SignalName(sig); name != "" {
		return name
	}
	return fmt.Sprintf("signal %d", int(sig))
}
