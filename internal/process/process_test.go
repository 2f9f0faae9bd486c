package process

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"

	gopsproc "github.com/shirou/gopsutil/v4/process"
	"golang.org/x/sys/unix"
)

// statLine renders a full /proc/<pid>/stat line (52 fields).
func statLine(pid int, comm string, state string, ppid int) string {
	rest := "1 1 0 -1 4194560 1000 0 0 0 10 5 0 0 20 0 1 0 12345 1000000 250 " +
		"18446744073709551615 1 1 0 0 0 0 0 0 0 0 0 0 17 3 0 0 0 0 0 0 0 0 0 0 0 0 0"
	return fmt.Sprintf("%d (%s) %s %d %s\n", pid, comm, state, ppid, rest)
}

// writeProc creates a fake procfs tree under dir.
func writeProc(t *testing.T, dir string, entries map[string]string) {
	t.Helper()
	for name, stat := range entries {
		pdir := filepath.Join(dir, name)
		if err := os.MkdirAll(pdir, 0755); err != nil {
			t.Fatalf("failed to create %s: %v", pdir, err)
		}
		if stat == "" {
			continue
		}
		if err := os.WriteFile(filepath.Join(pdir, "stat"), []byte(stat), 0644); err != nil {
			t.Fatalf("failed to write stat: %v", err)
		}
	}
}

func TestParseState(t *testing.T) {
	tests := []struct {
		code  string
		state State
		ok    bool
	}{
		{"R", StateRunning, true},
		{"S", StateSleeping, true},
		{"D", StateSleeping, true},
		{"I", StateSleeping, true},
		{"T", StateStopped, true},
		{"Z", StateZombie, true},
		{"t", StateOther, true},
		{"X", StateOther, true},
		{"", StateOther, false},
		{"RS", StateOther, false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			state, ok := ParseState(tt.code)
			if state != tt.state || ok != tt.ok {
				t.Errorf("ParseState(%q) = %v, %v; want %v, %v", tt.code, state, ok, tt.state, tt.ok)
			}
		})
	}
}

func TestGopsutilStatusCodes(t *testing.T) {
	tests := []struct {
		status   string
		code     byte
		expected State
	}{
		{gopsproc.Running, 'R', StateRunning},
		{gopsproc.Sleep, 'S', StateSleeping},
		{gopsproc.Blocked, 'D', StateSleeping},
		{gopsproc.Idle, 'I', StateSleeping},
		{gopsproc.Stop, 'T', StateStopped},
		{gopsproc.Zombie, 'Z', StateZombie},
	}

	for _, tt := range tests {
		code, ok := statusCodes[tt.status]
		if !ok {
			t.Errorf("status %q has no kernel code", tt.status)
			continue
		}
		if code != tt.code {
			t.Errorf("status %q maps to %q, expected %q", tt.status, code, tt.code)
		}
		if state, _ := ParseState(string(code)); state != tt.expected {
			t.Errorf("status %q parses to %v, expected %v", tt.status, state, tt.expected)
		}
	}
}

func TestProcfsSource_Lookup(t *testing.T) {
	dir := t.TempDir()
	writeProc(t, dir, map[string]string{
		"1":   statLine(1, "init", "S", 0),
		"42":  statLine(42, "my (weird) proc", "Z", 1),
		"43":  statLine(43, "with space", "T", 42),
		"50":  "garbage without parens\n",
		"51":  statLine(51, "bad", "RS", 1),
		"60":  "", // directory without a stat file
		"self": statLine(99, "self", "R", 1),
	})

	src, err := NewProcfsSource(dir)
	if err != nil {
		t.Fatalf("NewProcfsSource: %v", err)
	}

	t.Run("plain", func(t *testing.T) {
		rec, ok := src.Lookup(1)
		if !ok {
			t.Fatal("expected record for pid 1")
		}
		if rec.PPID != 0 || rec.State != StateSleeping || rec.Name != "init" {
			t.Errorf("unexpected record: %+v", rec)
		}
	})

	t.Run("command name with parens", func(t *testing.T) {
		rec, ok := src.Lookup(42)
		if !ok {
			t.Fatal("expected record for pid 42")
		}
		if rec.PPID != 1 || !rec.IsZombie() || rec.Code != 'Z' {
			t.Errorf("unexpected record: %+v", rec)
		}
		if rec.Name != "my (weird) proc" {
			t.Errorf("expected name %q, got %q", "my (weird) proc", rec.Name)
		}
	})

	t.Run("command name with space", func(t *testing.T) {
		rec, ok := src.Lookup(43)
		if !ok {
			t.Fatal("expected record for pid 43")
		}
		if rec.PPID != 42 || rec.State != StateStopped {
			t.Errorf("unexpected record: %+v", rec)
		}
	})

	absent := []int{0, -1, 50, 51, 60, 12345}
	for _, pid := range absent {
		t.Run("absent "+strconv.Itoa(pid), func(t *testing.T) {
			if rec, ok := src.Lookup(pid); ok {
				t.Errorf("expected pid %d to be absent, got %+v", pid, rec)
			}
		})
	}
}

func TestProcfsSource_PIDs(t *testing.T) {
	dir := t.TempDir()
	writeProc(t, dir, map[string]string{
		"1":    statLine(1, "init", "S", 0),
		"20":   statLine(20, "a", "S", 1),
		"300":  statLine(300, "b", "S", 20),
		"self": "",
		"net":  "",
	})
	if err := os.WriteFile(filepath.Join(dir, "uptime"), []byte("1.0 1.0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	src, err := NewProcfsSource(dir)
	if err != nil {
		t.Fatalf("NewProcfsSource: %v", err)
	}

	pids, err := src.PIDs()
	if err != nil {
		t.Fatalf("PIDs: %v", err)
	}
	sort.Ints(pids)
	if fmt.Sprint(pids) != "[1 20 300]" {
		t.Errorf("expected [1 20 300], got %v", pids)
	}
}

func TestProcfsSource_MissingRoot(t *testing.T) {
	_, err := NewProcfsSource(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("expected error for missing procfs root")
	}
	if !strings.Contains(err.Error(), "failed to open") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestOpen(t *testing.T) {
	if _, err := Open("gopsutil", ""); err != nil {
		t.Errorf("Open(gopsutil): %v", err)
	}
	if _, err := Open("procfs", t.TempDir()); err != nil {
		t.Errorf("Open(procfs): %v", err)
	}
	if _, err := Open("wmi", ""); err == nil {
		t.Error("expected error for unknown source")
	}
}

func TestUnixSender_RejectsNonPositivePID(t *testing.T) {
	for _, pid := range []int{0, -1} {
		if err := (UnixSender{}).Signal(pid, unix.SIGCONT); err == nil {
			t.Errorf("expected error signalling pid %d", pid)
		}
	}
}

func TestSignalName(t *testing.T) {
	if got := SignalName(unix.SIGKILL); got != "SIGKILL" {
		t.Errorf("expected SIGKILL, got %s", got)
	}
}

func TestFakeKernel_Signals(t *testing.T) {
	k := NewFakeKernel(
		Record{PID: 1, PPID: 0, State: StateSleeping},
		Record{PID: 2, PPID: 1, State: StateRunning},
		Record{PID: 3, PPID: 2, State: StateRunning},
		Record{PID: 4, PPID: 2, State: StateZombie},
	)

	if err := k.Signal(3, unix.SIGSTOP); err != nil {
		t.Fatalf("SIGSTOP: %v", err)
	}
	if r, _ := k.Lookup(3); r.State != StateStopped {
		t.Errorf("expected pid 3 stopped, got %v", r.State)
	}

	if err := k.Signal(3, unix.SIGCONT); err != nil {
		t.Fatalf("SIGCONT: %v", err)
	}
	if r, _ := k.Lookup(3); r.State != StateRunning {
		t.Errorf("expected pid 3 running, got %v", r.State)
	}

	if err := k.Signal(2, unix.SIGKILL); err != nil {
		t.Fatalf("SIGKILL: %v", err)
	}
	if _, ok := k.Lookup(2); ok {
		t.Error("expected pid 2 to be gone")
	}
	if r, _ := k.Lookup(3); r.PPID != 1 {
		t.Errorf("expected pid 3 reparented to 1, got %d", r.PPID)
	}

	if err := k.Signal(2, unix.SIGKILL); err != unix.ESRCH {
		t.Errorf("expected ESRCH for missing pid, got %v", err)
	}

	if len(k.SignalLog()) != 4 {
		t.Errorf("expected 4 logged signals, got %d", len(k.SignalLog()))
	}
}
