package process

import (
	"fmt"

	"github.com/prometheus/procfs"
)

// DefaultProcRoot is where the kernel's process information filesystem is
// normally mounted.
const DefaultProcRoot = "/proc"

// ProcfsSource reads records from a procfs mount.
type ProcfsSource struct {
	root string
	fs   procfs.FS
}

// NewProcfsSource opens the procfs mounted at root.
func NewProcfsSource(root string) (*ProcfsSource, error) {
	if root == "" {
		root = DefaultProcRoot
	}
	fs, err := procfs.NewFS(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", root, err)
	}
	return &ProcfsSource{root: root, fs: fs}, nil
}

// PIDs lists the numeric entries of the procfs root.
func (s *ProcfsSource) PIDs() ([]int, error) {
	procs, err := s.fs.AllProcs()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.root, err)
	}

	pids := make([]int, 0, len(procs))
	for _, p := range procs {
		if p.PID <= 0 {
			continue
		}
		pids = append(pids, p.PID)
	}
	return pids, nil
}

// Lookup parses /proc/<pid>/stat. The command name sits between the first
// '(' and the last ')' and is taken as an opaque token, so names holding
// spaces or parentheses do not shift the state and parent fields.
func (s *ProcfsSource) Lookup(pid int) (Record, bool) {
	if pid <= 0 {
		return Record{}, false
	}

	p, err := s.fs.Proc(pid)
	if err != nil {
		return Record{}, false
	}

	stat, err := p.Stat()
	if err != nil {
		return Record{}, false
	}

	state, ok := ParseState(stat.State)
	if !ok {
		return Record{}, false
	}

	return Record{
		PID:   pid,
		PPID:  stat.PPID,
		State: state,
		Code:  stat.State[0],
		Name:  stat.Comm,
	}, true
}
