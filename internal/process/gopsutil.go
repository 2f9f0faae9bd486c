package process

import (
	"fmt"

	gopsproc "github.com/shirou/gopsutil/v4/process"
)

// GopsutilSource reads records through gopsutil. It works on hosts without a
// Linux procfs and is selected with `source: gopsutil`.
type GopsutilSource struct{}

func (GopsutilSource) PIDs() ([]int, error) {
	raw, err := gopsproc.Pids()
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	pids := make([]int, 0, len(raw))
	for _, pid := range raw {
		if pid <= 0 {
			continue
		}
		pids = append(pids, int(pid))
	}
	return pids, nil
}

func (GopsutilSource) Lookup(pid int) (Record, bool) {
	if pid <= 0 {
		return Record{}, false
	}

	proc, err := gopsproc.NewProcess(int32(pid))
	if err != nil {
		return Record{}, false // Process gone
	}

	ppid, err := proc.Ppid()
	if err != nil {
		return Record{}, false
	}

	status, err := proc.Status()
	if err != nil || len(status) == 0 {
		return Record{}, false
	}

	code, ok := statusCodes[status[0]]
	if !ok {
		code = '?'
	}
	state, _ := ParseState(string(code))

	name, _ := proc.Name()

	return Record{
		PID:   pid,
		PPID:  int(ppid),
		State: state,
		Code:  code,
		Name:  name,
	}, true
}

// statusCodes maps gopsutil status names back to kernel state codes.
var statusCodes = map[string]byte{
	gopsproc.Running: 'R',
	gopsproc.Sleep:   'S',
	gopsproc.Blocked: 'D',
	gopsproc.Idle:    'I',
	gopsproc.Stop:    'T',
	gopsproc.Zombie:  'Z',
	gopsproc.Wait:    'W',
	gopsproc.Lock:    'L',
}

// Open returns the Source for kind ("procfs" or "gopsutil").
func Open(kind, procRoot string) (Source, error) {
	switch kind {
	case "", "procfs":
		return NewProcfsSource(procRoot)
	case "gopsutil":
		return GopsutilSource{}, nil
	default:
		return nil, fmt.Errorf("unknown process source: %q", kind)
	}
}
