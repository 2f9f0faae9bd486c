package process

import (
	"sync"

	"golang.org/x/sys/unix"
)

// FakeKernel is an in-memory process table implementing Source and Sender
// for tests. Signals mutate the table the way Linux would: SIGSTOP stops,
// SIGCONT resumes, SIGKILL removes the process and reparents its children
// to Reaper.
type FakeKernel struct {
	mu      sync.Mutex
	order   []int
	records map[int]Record

	// Reaper adopts orphaned children. Defaults to 1.
	Reaper int
	// ScanErr makes PIDs fail.
	ScanErr error
	// SignalErr forces Signal to fail for specific PIDs.
	SignalErr map[int]error
	// OnSignal runs after a signal was applied. It may mutate the table
	// (e.g. to simulate a fork racing with a kill).
	OnSignal func(k *FakeKernel, pid int, sig unix.Signal)

	signalLog []SentSignal
}

// SentSignal is one entry of the FakeKernel signal log.
type SentSignal struct {
	PID    int
	Signal unix.Signal
}

// NewFakeKernel creates a table holding recs in the given order.
func NewFakeKernel(recs ...Record) *FakeKernel {
	k := &FakeKernel{
		records:   make(map[int]Record),
		Reaper:    1,
		SignalErr: make(map[int]error),
	}
	for _, r := range recs {
		k.Add(r)
	}
	return k
}

// Add inserts or replaces a record. New PIDs are appended to the listing order.
func (k *FakeKernel) Add(r Record) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if r.Code == 0 {
		r.Code = codeFor(r.State)
	}
	if _, ok := k.records[r.PID]; !ok {
		k.order = append(k.order, r.PID)
	}
	k.records[r.PID] = r
}

// Remove deletes pid from the table without reparenting.
func (k *FakeKernel) Remove(pid int) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.remove(pid)
}

func (k *FakeKernel) remove(pid int) {
	delete(k.records, pid)
	for i, p := range k.order {
		if p == pid {
			k.order = append(k.order[:i], k.order[i+1:]...)
			break
		}
	}
}

func (k *FakeKernel) PIDs() ([]int, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.ScanErr != nil {
		return nil, k.ScanErr
	}
	return append([]int(nil), k.order...), nil
}

func (k *FakeKernel) Lookup(pid int) (Record, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	r, ok := k.records[pid]
	return r, ok
}

func (k *FakeKernel) Signal(pid int, sig unix.Signal) error {
	k.mu.Lock()
	k.signalLog = append(k.signalLog, SentSignal{PID: pid, Signal: sig})
	if err := k.SignalErr[pid]; err != nil {
		k.mu.Unlock()
		return err
	}
	r, ok := k.records[pid]
	if !ok {
		k.mu.Unlock()
		return unix.ESRCH
	}

	// Zombies accept signals but nothing happens to them.
	if !r.IsZombie() {
		switch sig {
		case unix.SIGSTOP:
			r.State, r.Code = StateStopped, 'T'
			k.records[pid] = r
		case unix.SIGCONT:
			if r.State == StateStopped {
				r.State, r.Code = StateRunning, 'R'
				k.records[pid] = r
			}
		case unix.SIGKILL:
			k.remove(pid)
			for _, child := range k.order {
				c := k.records[child]
				if c.PPID == pid {
					c.PPID = k.Reaper
					k.records[child] = c
				}
			}
		}
	}
	hook := k.OnSignal
	k.mu.Unlock()

	if hook != nil {
		hook(k, pid, sig)
	}
	return nil
}

// SignalLog returns every signal delivered so far, in order.
func (k *FakeKernel) SignalLog() []SentSignal {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]SentSignal(nil), k.signalLog...)
}

func codeFor(s State) byte {
	switch s {
	case StateRunning:
		return 'R'
	case StateSleeping:
		return 'S'
	case StateStopped:
		return 'T'
	case StateZombie:
		return 'Z'
	default:
		return '?'
	}
}
