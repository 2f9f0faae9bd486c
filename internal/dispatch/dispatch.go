// Package dispatch applies lifecycle signals to every descendant of a
// process. Targets are re-derived from the live table on every call, and a
// failure to signal one target never stops the batch.
package dispatch

import (
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sys/unix"

	"github.com/juanibiapina/ptree/internal/metrics"
	"github.com/juanibiapina/ptree/internal/process"
	"github.com/juanibiapina/ptree/internal/tree"
)

// DefaultWarnThreshold is the descendant count above which Kill reports
// that the tree is larger than expected.
const DefaultWarnThreshold = 1024

// Pass identifies which phase of an operation produced an outcome.
type Pass int

const (
	PassPrimary Pass = iota
	PassReconcile
)

// Outcome is the result of signalling one process.
type Outcome struct {
	PID    int
	Signal unix.Signal
	Pass   Pass
	// Zombie is set by KillZombieParents to the zombie whose parent was
	// targeted.
	Zombie int
	Err    error
}

// Report collects the outcomes of one batch in the order they happened.
type Report struct {
	Outcomes []Outcome
	// Skipped lists descendants that were not eligible (Continue only).
	Skipped []int
	// Overflow is set when Kill collected more descendants than the
	// configured warning threshold.
	Overflow bool
}

// Signaled returns the PIDs the kernel accepted a signal for.
func (r *Report) Signaled() []int {
	var out []int
	for _, o := range r.Outcomes {
		if o.Err == nil {
			out = append(out, o.PID)
		}
	}
	return out
}

// Failures returns the outcomes the kernel refused.
func (r *Report) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// Reconciled returns how many descendants the reconciliation pass of Kill
// found still in the tree.
func (r *Report) Reconciled() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Pass == PassReconcile {
			n++
		}
	}
	return n
}

// Dispatcher signals process subtrees.
type Dispatcher struct {
	tree          *tree.Engine
	sender        process.Sender
	warnThreshold int
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithWarnThreshold sets the Kill overflow warning threshold. 0 disables it.
func WithWarnThreshold(n int) Option {
	return func(d *Dispatcher) {
		d.warnThreshold = n
	}
}

// New creates a Dispatcher.
func New(engine *tree.Engine, sender process.Sender, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		tree:          engine,
		sender:        sender,
		warnThreshold: DefaultWarnThreshold,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) send(report *Report, o Outcome) {
	o.Err = d.sender.Signal(o.PID, o.Signal)
	name := process.SignalName(o.Signal)
	if o.Err != nil {
		slog.Warn("Signal failed", "pid", o.PID, "signal", name, "error", o.Err)
		metrics.ObserveSignal(name, failureReason(o.Err))
	} else {
		slog.Debug("Signal sent", "pid", o.PID, "signal", name)
		metrics.ObserveSignal(name, "")
	}
	report.Outcomes = append(report.Outcomes, o)
}

// Stop sends SIGSTOP to every descendant of p.
func (d *Dispatcher) Stop(p int) (*Report, error) {
	report := &Report{}
	targets, err := d.tree.Descendants(p)
	if err != nil {
		return nil, err
	}
	for _, pid := range targets {
		d.send(report, Outcome{PID: pid, Signal: unix.SIGSTOP})
	}
	return report, nil
}

// Continue sends SIGCONT to the descendants of p that were observed stopped.
// The others are listed in Report.Skipped.
func (d *Dispatcher) Continue(p int) (*Report, error) {
	report := &Report{}
	targets, err := d.tree.DescendantRecords(p)
	if err != nil {
		return nil, err
	}
	for _, rec := range targets {
		if rec.State != process.StateStopped {
			report.Skipped = append(report.Skipped, rec.PID)
			continue
		}
		d.send(report, Outcome{PID: rec.PID, Signal: unix.SIGCONT})
	}
	return report, nil
}

// Kill terminates every descendant of p.
//
// Like the other operations it returns a nil Report when the first scan
// fails. A failed second scan returns the first pass's Report with the error.
//
// Descendants are collected first and signalled in reverse discovery order,
// so leaves tend to go before their parents. The tree is then scanned once
// more and anything still in it (late forks, entries missed by the first
// scan) is killed too. The second scan is not repeated.
func (d *Dispatcher) Kill(p int) (*Report, error) {
	report := &Report{}

	collected, err := d.tree.Descendants(p)
	if err != nil {
		return nil, err
	}
	if d.warnThreshold > 0 && len(collected) > d.warnThreshold {
		report.Overflow = true
		slog.Warn("More descendants than expected", "pid", p, "count", len(collected), "threshold", d.warnThreshold)
	}

	for i := len(collected) - 1; i >= 0; i-- {
		d.send(report, Outcome{PID: collected[i], Signal: unix.SIGKILL})
	}

	remaining, err := d.tree.Descendants(p)
	if err != nil {
		return report, fmt.Errorf("reconciliation scan: %w", err)
	}
	for _, pid := range remaining {
		d.send(report, Outcome{PID: pid, Signal: unix.SIGKILL, Pass: PassReconcile})
	}
	if n := len(remaining); n > 0 {
		slog.Info("Reconciliation pass killed missed descendants", "pid", p, "count", n)
		metrics.AddReconciled(n)
	}

	return report, nil
}

// KillZombieParents sends SIGKILL to the parent of every zombie in p's tree.
// Like ZombieDescendantCount the candidate set includes p, so a zombie p has
// its own parent killed. The parent is taken from the zombie's record as-is:
// it is neither required to be inside p's tree nor checked for liveness, and
// a parent with several zombie children is signalled once per child.
func (d *Dispatcher) KillZombieParents(p int) (*Report, error) {
	report := &Report{}
	if p <= 0 {
		return report, nil
	}
	snap, err := d.tree.Snapshot()
	if err != nil {
		return nil, err
	}
	for _, rec := range snap.Records() {
		if !rec.IsZombie() || rec.PPID == 0 || !d.tree.IsDescendant(p, rec.PID) {
			continue
		}
		d.send(report, Outcome{PID: rec.PPID, Signal: unix.SIGKILL, Zombie: rec.PID})
	}
	return report, nil
}

// KillRoot sends a single SIGKILL to root. No tree logic is involved.
func (d *Dispatcher) KillRoot(root int) error {
	report := &Report{}
	d.send(report, Outcome{PID: root, Signal: unix.SIGKILL})
	return report.Outcomes[0].Err
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, unix.ESRCH):
		return "esrch"
	case errors.Is(err, unix.EPERM):
		return "eperm"
	default:
		return "other"
	}
}
