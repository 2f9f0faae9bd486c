// Package process reads single process records from the kernel and delivers
// signals to individual processes. Nothing here is cached: every call goes
// back to the kernel.
package process

// State is the coarse scheduling state of a process.
type State int

const (
	StateOther State = iota
	StateRunning
	StateSleeping
	StateStopped
	StateZombie
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateSleeping:
		return "sleeping"
	case StateStopped:
		return "stopped"
	case StateZombie:
		return "zombie"
	default:
		return "other"
	}
}

// ParseState maps a kernel state code (the third field of /proc/<pid>/stat)
// to a State. Codes that are not exactly one character are malformed.
func ParseState(code string) (State, bool) {
	if len(code) != 1 {
		return StateOther, false
	}
	switch code[0] {
	case 'R':
		return StateRunning, true
	case 'S', 'D', 'I':
		return StateSleeping, true
	case 'T':
		return StateStopped, true
	case 'Z':
		return StateZombie, true
	default:
		return StateOther, true
	}
}

// Record is a point-in-time view of one process. It is never updated after
// it has been read.
type Record struct {
	PID   int
	PPID  int // 0 means no parent (kernel owned)
	State State
	Code  byte   // raw kernel state code, e.g. 'S' or 'Z'
	Name  string // command name, may contain spaces and parentheses
}

// IsZombie reports whether the process has exited but not been reaped.
func (r Record) IsZombie() bool {
	return r.State == StateZombie
}

// Source enumerates processes and resolves them to records.
type Source interface {
	// PIDs lists every process ID currently visible. The order is whatever
	// the kernel interface yields.
	PIDs() ([]int, error)
	// Lookup returns the record for pid. ok is false when the process does
	// not exist, cannot be read or its info has an unexpected format.
	Lookup(pid int) (rec Record, ok bool)
}
