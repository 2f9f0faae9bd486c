package dispatch

import (
	"errors"
	"fmt"
	"sort"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/juanibiapina/ptree/internal/process"
	"github.com/juanibiapina/ptree/internal/tree"
)

// table builds:
//
//	1
//	└── 2
//	    ├── 3
//	    │   └── 5
//	    ├── 4 (zombie)
//	    └── 6 (stopped)
//	        └── 7 (zombie)
func table() *process.FakeKernel {
	return process.NewFakeKernel(
		process.Record{PID: 1, PPID: 0, State: process.StateSleeping},
		process.Record{PID: 2, PPID: 1, State: process.StateSleeping},
		process.Record{PID: 3, PPID: 2, State: process.StateRunning},
		process.Record{PID: 4, PPID: 2, State: process.StateZombie},
		process.Record{PID: 5, PPID: 3, State: process.StateSleeping},
		process.Record{PID: 6, PPID: 2, State: process.StateStopped},
		process.Record{PID: 7, PPID: 6, State: process.StateZombie},
	)
}

func newDispatcher(k *process.FakeKernel, opts ...Option) *Dispatcher {
	return New(tree.New(k), k, opts...)
}

func signalled(k *process.FakeKernel, sig unix.Signal) []int {
	var out []int
	for _, s := range k.SignalLog() {
		if s.Signal == sig {
			out = append(out, s.PID)
		}
	}
	return out
}

func sortedString(pids []int) string {
	cp := append([]int(nil), pids...)
	sort.Ints(cp)
	return fmt.Sprint(cp)
}

func TestStop(t *testing.T) {
	k := table()
	d := newDispatcher(k)

	report, err := d.Stop(2)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if got := sortedString(report.Signaled()); got != "[3 4 5 6 7]" {
		t.Errorf("expected [3 4 5 6 7] signalled, got %s", got)
	}
	for _, pid := range []int{3, 5, 6} {
		if r, _ := k.Lookup(pid); r.State != process.StateStopped {
			t.Errorf("expected pid %d stopped, got %v", pid, r.State)
		}
	}
	if r, _ := k.Lookup(2); r.State != process.StateSleeping {
		t.Error("expected root itself not to be signalled")
	}
}

func TestContinue_OnlyStoppedProcesses(t *testing.T) {
	k := table()
	d := newDispatcher(k)

	report, err := d.Continue(2)
	if err != nil {
		t.Fatalf("Continue: %v", err)
	}
	if got := sortedString(signalled(k, unix.SIGCONT)); got != "[6]" {
		t.Errorf("expected only pid 6 continued, got %s", got)
	}
	if got := sortedString(report.Skipped); got != "[3 4 5 7]" {
		t.Errorf("expected [3 4 5 7] skipped, got %s", got)
	}
	if r, _ := k.Lookup(6); r.State != process.StateRunning {
		t.Errorf("expected pid 6 running, got %v", r.State)
	}
}

func TestStopThenContinue(t *testing.T) {
	k := table()
	d := newDispatcher(k)

	if _, err := d.Stop(3); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if r, _ := k.Lookup(5); r.State != process.StateStopped {
		t.Fatalf("expected pid 5 stopped")
	}

	report, err := d.Continue(3)
	if err != nil {
		t.Fatalf("Continue: %v", err)
	}
	if fmt.Sprint(report.Signaled()) != "[5]" {
		t.Errorf("expected [5] continued, got %v", report.Signaled())
	}
	if r, _ := k.Lookup(5); r.State != process.StateRunning {
		t.Errorf("expected pid 5 running again, got %v", r.State)
	}
}

func TestKill_ReverseDiscoveryOrder(t *testing.T) {
	k := table()
	d := newDispatcher(k)

	report, err := d.Kill(2)
	if err != nil {
		t.Fatalf("Kill: %v", err)
	}

	// Discovery order is 3 4 5 6 7. Zombie 4 is still a child of 2 after
	// the first pass, so reconciliation signals it again.
	if got := fmt.Sprint(signalled(k, unix.SIGKILL)); got != "[7 6 5 4 3 4]" {
		t.Errorf("expected kill order [7 6 5 4 3 4], got %s", got)
	}
	if report.Reconciled() != 1 {
		t.Errorf("expected one reconciled kill, got %d", report.Reconciled())
	}
	if _, ok := k.Lookup(2); !ok {
		t.Error("expected root to survive")
	}
	for _, pid := range []int{3, 5, 6} {
		if _, ok := k.Lookup(pid); ok {
			t.Errorf("expected pid %d to be killed", pid)
		}
	}
}

func TestKill_Idempotent(t *testing.T) {
	k := process.NewFakeKernel(
		process.Record{PID: 1, PPID: 0, State: process.StateSleeping},
		process.Record{PID: 2, PPID: 1, State: process.StateSleeping},
		process.Record{PID: 3, PPID: 2, State: process.StateRunning},
		process.Record{PID: 4, PPID: 3, State: process.StateRunning},
	)
	d := newDispatcher(k)

	if _, err := d.Kill(2); err != nil {
		t.Fatalf("first Kill: %v", err)
	}
	before := len(k.SignalLog())

	report, err := d.Kill(2)
	if err != nil {
		t.Fatalf("second Kill: %v", err)
	}
	if len(report.Outcomes) != 0 || len(k.SignalLog()) != before {
		t.Errorf("expected second Kill to send nothing, got %+v", report.Outcomes)
	}
}

func TestKill_ReconcilesLateFork(t *testing.T) {
	k := process.NewFakeKernel(
		process.Record{PID: 1, PPID: 0, State: process.StateSleeping},
		process.Record{PID: 2, PPID: 1, State: process.StateSleeping},
		process.Record{PID: 3, PPID: 2, State: process.StateRunning},
	)
	forked := false
	k.OnSignal = func(k *process.FakeKernel, pid int, sig unix.Signal) {
		if sig == unix.SIGKILL && pid == 3 && !forked {
			forked = true
			k.Add(process.Record{PID: 50, PPID: 2, State: process.StateRunning})
		}
	}
	d := newDispatcher(k)

	report, err := d.Kill(2)
	if err != nil {
		t.Fatalf("Kill: %v", err)
	}
	if report.Reconciled() != 1 {
		t.Fatalf("expected one reconciled kill, got %d", report.Reconciled())
	}
	last := report.Outcomes[len(report.Outcomes)-1]
	if last.PID != 50 || last.Pass != PassReconcile {
		t.Errorf("expected late fork 50 killed in reconciliation, got %+v", last)
	}
	if _, ok := k.Lookup(50); ok {
		t.Error("expected pid 50 to be killed")
	}
}

func TestKill_SingleReconciliationPass(t *testing.T) {
	k := process.NewFakeKernel(
		process.Record{PID: 1, PPID: 0, State: process.StateSleeping},
		process.Record{PID: 2, PPID: 1, State: process.StateSleeping},
		process.Record{PID: 3, PPID: 2, State: process.StateRunning},
	)
	next := 100
	k.OnSignal = func(k *process.FakeKernel, pid int, sig unix.Signal) {
		// Every kill spawns a new child of the root.
		if sig == unix.SIGKILL && next < 110 {
			k.Add(process.Record{PID: next, PPID: 2, State: process.StateRunning})
			next++
		}
	}
	d := newDispatcher(k)

	report, err := d.Kill(2)
	if err != nil {
		t.Fatalf("Kill: %v", err)
	}
	if report.Reconciled() != 1 {
		t.Errorf("expected exactly one reconciled kill, got %d", report.Reconciled())
	}
	if _, ok := k.Lookup(101); !ok {
		t.Error("expected the fork made during reconciliation to survive")
	}
}

func TestKill_FailuresDoNotStopBatch(t *testing.T) {
	k := table()
	k.SignalErr[6] = unix.EPERM
	d := newDispatcher(k)

	report, err := d.Kill(2)
	if err != nil {
		t.Fatalf("Kill: %v", err)
	}

	failures := report.Failures()
	// pid 6 survives the first pass and fails again during reconciliation.
	if len(failures) != 2 {
		t.Fatalf("expected 2 failures, got %+v", failures)
	}
	for _, f := range failures {
		if f.PID != 6 || !errors.Is(f.Err, unix.EPERM) {
			t.Errorf("unexpected failure %+v", f)
		}
	}
	if _, ok := k.Lookup(3); ok {
		t.Error("expected pid 3 to be killed despite the earlier failure")
	}
}

func TestKill_OverflowWarning(t *testing.T) {
	k := table()

	report, err := newDispatcher(k, WithWarnThreshold(2)).Kill(2)
	if err != nil {
		t.Fatalf("Kill: %v", err)
	}
	if !report.Overflow {
		t.Error("expected overflow above threshold")
	}
	primary := 0
	for _, o := range report.Outcomes {
		if o.Pass == PassPrimary {
			primary++
		}
	}
	if primary != 5 {
		t.Errorf("expected every descendant to be signalled regardless of the threshold, got %d", primary)
	}

	report, err = newDispatcher(table(), WithWarnThreshold(0)).Kill(2)
	if err != nil {
		t.Fatalf("Kill: %v", err)
	}
	if report.Overflow {
		t.Error("expected threshold 0 to disable the warning")
	}
}

func TestKillZombieParents(t *testing.T) {
	k := process.NewFakeKernel(
		process.Record{PID: 1, PPID: 0, State: process.StateSleeping},
		process.Record{PID: 2, PPID: 1, State: process.StateSleeping},
		process.Record{PID: 3, PPID: 2, State: process.StateSleeping},
		process.Record{PID: 4, PPID: 3, State: process.StateZombie},
		process.Record{PID: 5, PPID: 3, State: process.StateZombie},
		process.Record{PID: 6, PPID: 2, State: process.StateZombie},
	)
	d := newDispatcher(k)

	report, err := d.KillZombieParents(2)
	if err != nil {
		t.Fatalf("KillZombieParents: %v", err)
	}

	// 3 is targeted once per zombie child and is already gone the second
	// time. 6's parent is the root itself.
	got := make([]string, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		got = append(got, fmt.Sprintf("%d<-%d", o.PID, o.Zombie))
	}
	if fmt.Sprint(got) != "[3<-4 3<-5 2<-6]" {
		t.Errorf("unexpected targets %v", got)
	}

	failures := report.Failures()
	if len(failures) != 1 || failures[0].PID != 3 || !errors.Is(failures[0].Err, unix.ESRCH) {
		t.Errorf("expected the repeated signal to 3 to fail with ESRCH, got %+v", failures)
	}
	if _, ok := k.Lookup(2); ok {
		t.Error("expected the root to be killed as the parent of zombie 6")
	}
}

func TestKillZombieParents_ZombieTarget(t *testing.T) {
	k := process.NewFakeKernel(
		process.Record{PID: 1, PPID: 0, State: process.StateSleeping},
		process.Record{PID: 2, PPID: 1, State: process.StateSleeping},
		process.Record{PID: 3, PPID: 2, State: process.StateZombie},
	)
	d := newDispatcher(k)

	report, err := d.KillZombieParents(3)
	if err != nil {
		t.Fatalf("KillZombieParents: %v", err)
	}
	if len(report.Outcomes) != 1 || report.Outcomes[0].PID != 2 || report.Outcomes[0].Zombie != 3 {
		t.Errorf("expected the parent of zombie 3 targeted, got %+v", report.Outcomes)
	}
	if fmt.Sprint(signalled(k, unix.SIGKILL)) != "[2]" {
		t.Errorf("expected a single SIGKILL to 2, got %v", k.SignalLog())
	}
}

func TestKillRoot(t *testing.T) {
	k := table()
	d := newDispatcher(k)

	if err := d.KillRoot(3); err != nil {
		t.Fatalf("KillRoot: %v", err)
	}
	if fmt.Sprint(signalled(k, unix.SIGKILL)) != "[3]" {
		t.Errorf("expected a single SIGKILL to 3, got %v", k.SignalLog())
	}
	if _, ok := k.Lookup(5); !ok {
		t.Error("expected descendants to be left alone")
	}

	if err := d.KillRoot(999); !errors.Is(err, unix.ESRCH) {
		t.Errorf("expected ESRCH, got %v", err)
	}
}

func TestScanFailure(t *testing.T) {
	k := table()
	k.ScanErr = errors.New("boom")
	d := newDispatcher(k)

	report, err := d.Kill(2)
	if !errors.Is(err, tree.ErrScan) {
		t.Errorf("expected ErrScan, got %v", err)
	}
	if report != nil {
		t.Errorf("expected no report after a failed first scan, got %+v", report)
	}
	if len(k.SignalLog()) != 0 {
		t.Error("expected no signals after a failed scan")
	}
}

func TestKill_ReconciliationScanFailureKeepsReport(t *testing.T) {
	k := table()
	k.OnSignal = func(k *process.FakeKernel, pid int, sig unix.Signal) {
		k.ScanErr = errors.New("boom")
	}
	d := newDispatcher(k)

	report, err := d.Kill(2)
	if !errors.Is(err, tree.ErrScan) {
		t.Fatalf("expected ErrScan from the second scan, got %v", err)
	}
	if report == nil || len(report.Signaled()) != len(signalled(k, unix.SIGKILL)) || len(report.Signaled()) == 0 {
		t.Fatalf("expected the first pass in the report, got %+v (log %v)", report, k.SignalLog())
	}
	if report.Reconciled() != 0 {
		t.Errorf("expected no reconciliation outcomes, got %d", report.Reconciled())
	}
}

func TestFailureReason(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{unix.ESRCH, "esrch"},
		{fmt.Errorf("wrapped: %w", unix.EPERM), "eperm"},
		{errors.New("other"), "other"},
	}
	for _, tt := range tests {
		if got := failureReason(tt.err); got != tt.expected {
			t.Errorf("failureReason(%v) = %s, expected %s", tt.err, got, tt.expected)
		}
	}
}
