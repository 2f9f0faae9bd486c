package tree

import "github.com/juanibiapina/ptree/internal/process"

// DirectChildren lists processes whose parent is p.
func (e *Engine) DirectChildren(p int) ([]int, error) {
	if p <= 0 {
		return nil, nil
	}
	snap, err := e.Snapshot()
	if err != nil {
		return nil, err
	}
	return pidsOf(filter(snap.Records(), func(r process.Record) bool {
		return r.PPID == p
	})), nil
}

// Siblings lists processes other than p sharing p's parent. An unobservable
// p has no siblings.
func (e *Engine) Siblings(p int) ([]int, error) {
	recs, err := e.siblings(p)
	if err != nil {
		return nil, err
	}
	return pidsOf(recs), nil
}

// ZombieSiblings is Siblings restricted to zombies.
func (e *Engine) ZombieSiblings(p int) ([]int, error) {
	recs, err := e.siblings(p)
	if err != nil {
		return nil, err
	}
	return pidsOf(filter(recs, process.Record.IsZombie)), nil
}

func (e *Engine) siblings(p int) ([]process.Record, error) {
	self, ok := e.Lookup(p)
	if !ok {
		return nil, nil
	}
	snap, err := e.Snapshot()
	if err != nil {
		return nil, err
	}
	return filter(snap.Records(), func(r process.Record) bool {
		return r.PID != p && r.PPID == self.PPID
	}), nil
}

// Descendants lists every process below p, excluding p itself, in
// discovery order.
func (e *Engine) Descendants(p int) ([]int, error) {
	recs, err := e.DescendantRecords(p)
	if err != nil {
		return nil, err
	}
	return pidsOf(recs), nil
}

// DescendantRecords is Descendants returning the records observed during
// the scan.
func (e *Engine) DescendantRecords(p int) ([]process.Record, error) {
	if p <= 0 {
		return nil, nil
	}
	snap, err := e.Snapshot()
	if err != nil {
		return nil, err
	}
	return e.descendantsIn(snap, p), nil
}

func (e *Engine) descendantsIn(snap *Snapshot, p int) []process.Record {
	return filter(snap.Records(), func(r process.Record) bool {
		return r.PID != p && e.IsDescendant(p, r.PID)
	})
}

// NonDirectDescendants lists descendants of p that are not its children.
func (e *Engine) NonDirectDescendants(p int) ([]int, error) {
	recs, err := e.DescendantRecords(p)
	if err != nil {
		return nil, err
	}
	return pidsOf(filter(recs, func(r process.Record) bool {
		return r.PPID != p
	})), nil
}

// ZombieDescendants lists zombie descendants of p. p itself is never listed.
func (e *Engine) ZombieDescendants(p int) ([]int, error) {
	recs, err := e.DescendantRecords(p)
	if err != nil {
		return nil, err
	}
	return pidsOf(filter(recs, process.Record.IsZombie)), nil
}

// ZombieDescendantCount counts zombies in p's tree. Unlike ZombieDescendants
// the candidate set includes p, so a zombie p counts itself. It returns -1
// with the error when the table cannot be scanned.
func (e *Engine) ZombieDescendantCount(p int) (int, error) {
	if p <= 0 {
		return 0, nil
	}
	snap, err := e.Snapshot()
	if err != nil {
		return -1, err
	}
	count := 0
	for _, r := range snap.Records() {
		if r.IsZombie() && e.IsDescendant(p, r.PID) {
			count++
		}
	}
	return count, nil
}

// Grandchildren lists the children of p's children. Both levels come from a
// single snapshot joined on parent PID.
func (e *Engine) Grandchildren(p int) ([]int, error) {
	if p <= 0 {
		return nil, nil
	}
	snap, err := e.Snapshot()
	if err != nil {
		return nil, err
	}
	var out []int
	for _, child := range snap.ChildrenOf(p) {
		if child == p {
			continue
		}
		out = append(out, snap.ChildrenOf(child)...)
	}
	return out, nil
}

func filter(recs []process.Record, keep func(process.Record) bool) []process.Record {
	var out []process.Record
	for _, r := range recs {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func pidsOf(recs []process.Record) []int {
	pids := make([]int, 0, len(recs))
	for _, r := range recs {
		pids = append(pids, r.PID)
	}
	return pids
}
