// Package tree derives ancestry and descent relations from a live process
// table. Nothing is materialized between calls: every query re-reads the
// kernel through its process.Source.
package tree

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/juanibiapina/ptree/internal/metrics"
	"github.com/juanibiapina/ptree/internal/process"
)

// DefaultMaxHops bounds the parent walk in IsDescendant.
const DefaultMaxHops = 1000

var (
	// ErrScan is returned when the process table cannot be listed at all.
	ErrScan = errors.New("cannot list processes")
	// ErrRootNotFound is returned by Check when the root cannot be observed.
	ErrRootNotFound = errors.New("root process does not exist or is inaccessible")
	// ErrNotInTree is returned by Check when the target is outside the tree.
	ErrNotInTree = errors.New("process does not belong to the tree")
)

// Engine answers tree queries against a process.Source.
type Engine struct {
	src     process.Source
	maxHops int
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxHops sets the parent walk limit. Values <= 0 keep the default.
func WithMaxHops(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxHops = n
		}
	}
}

// New creates an Engine reading from src.
func New(src process.Source, opts ...Option) *Engine {
	e := &Engine{src: src, maxHops: DefaultMaxHops}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Lookup resolves a single record. PIDs <= 0 are always absent.
func (e *Engine) Lookup(pid int) (process.Record, bool) {
	if pid <= 0 {
		return process.Record{}, false
	}
	return e.src.Lookup(pid)
}

// IsDescendant reports whether candidate is root or sits below root.
// The walk follows parent PIDs upward and gives up after maxHops steps,
// which also covers cyclic parent data produced by concurrent changes.
func (e *Engine) IsDescendant(root, candidate int) bool {
	if root <= 0 || candidate <= 0 {
		return false
	}
	if candidate == root {
		return true
	}

	rec, ok := e.src.Lookup(candidate)
	if !ok {
		return false
	}

	current := rec.PPID
	for hops := 0; current != 0 && hops < e.maxHops; hops++ {
		if current == root {
			return true
		}
		parent, ok := e.src.Lookup(current)
		if !ok {
			return false
		}
		current = parent.PPID
	}
	return false
}

// Check validates an invocation: root must be observable and target must be
// inside root's tree.
func (e *Engine) Check(root, target int) error {
	if _, ok := e.Lookup(root); !ok {
		return fmt.Errorf("%w: %d", ErrRootNotFound, root)
	}
	if !e.IsDescendant(root, target) {
		return fmt.Errorf("%w: process %d is not under %d", ErrNotInTree, target, root)
	}
	return nil
}

// Snapshot is one pass over the process table. Records are read one after
// another, so two records in the same snapshot may disagree with each other.
type Snapshot struct {
	order    []int
	records  map[int]process.Record
	children map[int][]int
}

// Snapshot lists the table and resolves every entry. Entries that vanish or
// cannot be read are skipped.
func (e *Engine) Snapshot() (*Snapshot, error) {
	start := time.Now()

	pids, err := e.src.PIDs()
	if err != nil {
		slog.Error("Failed to scan process table", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrScan, err)
	}

	s := &Snapshot{
		order:   make([]int, 0, len(pids)),
		records: make(map[int]process.Record, len(pids)),
	}
	for _, pid := range pids {
		rec, ok := e.src.Lookup(pid)
		if !ok {
			continue
		}
		if _, dup := s.records[pid]; dup {
			continue
		}
		s.order = append(s.order, pid)
		s.records[pid] = rec
	}

	metrics.ObserveScan(len(s.order), time.Since(start))
	return s, nil
}

// Len returns the number of records.
func (s *Snapshot) Len() int {
	return len(s.order)
}

// Get returns the record for pid if it was observed.
func (s *Snapshot) Get(pid int) (process.Record, bool) {
	r, ok := s.records[pid]
	return r, ok
}

// Records returns the records in discovery order.
func (s *Snapshot) Records() []process.Record {
	out := make([]process.Record, 0, len(s.order))
	for _, pid := range s.order {
		out = append(out, s.records[pid])
	}
	return out
}

// ChildrenOf returns the PIDs whose parent is pid, in discovery order.
// The parent index is built on first use.
func (s *Snapshot) ChildrenOf(pid int) []int {
	if s.children == nil {
		s.children = make(map[int][]int)
		for _, p := range s.order {
			ppid := s.records[p].PPID
			s.children[ppid] = append(s.children[ppid], p)
		}
	}
	return s.children[pid]
}
