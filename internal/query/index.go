package query

import (
	"sort"

	"github.com/dgallion1/navflat/internal/menutree"
)

const (
	noParent   = -1
	unresolved = -2
)

// Index answers hierarchy questions over one flat sequence. It resolves
// every parent reference once at build time and is read-only afterwards,
// so it is safe for concurrent use.
type Index struct {
	records  []menutree.FlatRecord
	key      menutree.KeyField
	parent   []int   // index of each record's parent; noParent or unresolved
	children [][]int // direct children in sequence order
	firstKey map[string]int
}

type levelKey struct {
	level int
	key   string
}

// NewIndex resolves parent links for flat under key. Duplicate keys are
// allowed: a record's parent is the nearest preceding record carrying the
// parent key one level up, or failing that the first following one. When
// no record one level up has the key, the first record with it at any
// level is used, so hand-built sequences whose references loop are
// reported as cycles. References that match nothing are kept as broken
// links. AncestorChain and Validate report both.
func NewIndex(flat []menutree.FlatRecord, key menutree.KeyField) *Index {
	idx := &Index{
		records:  flat,
		key:      key,
		parent:   make([]int, len(flat)),
		children: make([][]int, len(flat)),
		firstKey: make(map[string]int, len(flat)),
	}

	candidates := make(map[levelKey][]int, len(flat))
	for i, r := range flat {
		k := r.Key(key)
		lk := levelKey{level: r.Level, key: k}
		candidates[lk] = append(candidates[lk], i)
		// An explicit id outranks a positional one that happens to match.
		if j, ok := idx.firstKey[k]; !ok || (flat[j].DerivedID && !r.DerivedID) {
			idx.firstKey[k] = i
		}
	}

	for i, r := range flat {
		if r.IsRoot() {
			idx.parent[i] = noParent
			continue
		}
		pk := r.ParentKey(key)
		p := resolveParent(candidates[levelKey{level: r.Level - 1, key: pk}], i)
		if p == unresolved {
			if first, ok := idx.firstKey[pk]; ok {
				p = first
			}
		}
		idx.parent[i] = p
		if p >= 0 {
			idx.children[p] = append(idx.children[p], i)
		}
	}
	// Parents that follow their child append it out of order.
	for p := range idx.children {
		if !sort.IntsAreSorted(idx.children[p]) {
			sort.Ints(idx.children[p])
		}
	}
	return idx
}

// resolveParent picks the candidate nearest before i, else the first after.
// cands is ascending and never contains i, which sits one level lower.
func resolveParent(cands []int, i int) int {
	if len(cands) == 0 {
		return unresolved
	}
	if n := sort.SearchInts(cands, i); n > 0 {
		return cands[n-1]
	}
	return cands[0]
}

// Records returns the indexed sequence. Callers must not modify it.
func (x *Index) Records() []menutree.FlatRecord {
	return x.records
}

// KeyField reports which field links records to parents.
func (x *Index) KeyField() menutree.KeyField {
	return x.key
}

// Len returns the number of records.
func (x *Index) Len() int {
	return len(x.records)
}

// Validate returns the first broken parent reference, or failing that the
// first parent chain that loops.
func (x *Index) Validate() error {
	for i, p := range x.parent {
		if p == unresolved {
			return x.brokenAt(i)
		}
	}

	const (
		unvisited = iota
		walking
		done
	)
	state := make([]uint8, len(x.records))
	for start := range x.records {
		var path []int
		i := start
		for i >= 0 && state[i] == unvisited {
			state[i] = walking
			path = append(path, i)
			i = x.parent[i]
		}
		if i >= 0 && state[i] == walking {
			_, err := x.chainFrom(i)
			return err
		}
		for _, j := range path {
			state[j] = done
		}
	}
	return nil
}

func (x *Index) brokenAt(i int) error {
	r := x.records[i]
	return &menutree.BrokenChainError{
		Label:     r.Label,
		Level:     r.Level,
		ParentKey: r.ParentKey(x.key),
		KeyField:  x.key,
	}
}

// Position returns the index of the first record describing the same entry
// as rec, or -1.
func (x *Index) Position(rec menutree.FlatRecord) int {
	// Fast path: the first record with rec's key is usually rec itself.
	if i, ok := x.firstKey[rec.Key(x.key)]; ok && x.records[i].Same(rec) {
		return i
	}
	for i := range x.records {
		if x.records[i].Same(rec) {
			return i
		}
	}
	return -1
}

// Lookup returns the first record whose key equals k. A record with an
// explicit id is preferred over an earlier one whose id was derived from
// its position.
func (x *Index) Lookup(k string) (menutree.FlatRecord, bool) {
	i, ok := x.firstKey[k]
	if !ok {
		return menutree.FlatRecord{}, false
	}
	return x.records[i], true
}

// AncestorChain returns the path from the root down to rec, rec last.
// A nil chain and nil error mean rec is not in the sequence.
func (x *Index) AncestorChain(rec menutree.FlatRecord) ([]menutree.FlatRecord, error) {
	start := x.Position(rec)
	if start < 0 {
		return nil, nil
	}
	return x.chainFrom(start)
}

func (x *Index) chainFrom(start int) ([]menutree.FlatRecord, error) {
	var rev []int
	hops := 0
	for i := start; ; {
		rev = append(rev, i)
		p := x.parent[i]
		if p == noParent {
			break
		}
		if p == unresolved {
			return nil, x.brokenAt(i)
		}
		hops++
		if hops > len(x.records) {
			return nil, x.cycleFrom(rev)
		}
		i = p
	}

	chain := make([]menutree.FlatRecord, len(rev))
	for j, i := range rev {
		chain[len(rev)-1-j] = x.records[i]
	}
	return chain, nil
}

// cycleFrom reports a walk that exceeded the hop bound. The path runs from
// the first repeated record back down to the walk's start.
func (x *Index) cycleFrom(walk []int) error {
	seen := make(map[int]bool, len(walk))
	var loop []int
	for _, i := range walk {
		loop = append(loop, i)
		if seen[i] {
			break
		}
		seen[i] = true
	}
	path := make([]string, len(loop))
	for j, i := range loop {
		path[len(loop)-1-j] = x.records[i].Label
	}
	r := x.records[walk[0]]
	return &menutree.CyclicStructureError{ID: r.ID, Label: r.Label, Path: path}
}

// Children returns the direct children of the first record keyed k.
func (x *Index) Children(k string) []menutree.FlatRecord {
	i, ok := x.firstKey[k]
	if !ok {
		return nil
	}
	return x.collect(x.children[i])
}

// Descendants returns everything below the first record keyed k in
// breadth-first order: all children, then all grandchildren, and so on.
func (x *Index) Descendants(k string) []menutree.FlatRecord {
	i, ok := x.firstKey[k]
	if !ok {
		return nil
	}

	var out []menutree.FlatRecord
	seen := map[int]bool{i: true}
	frontier := []int{i}
	for len(frontier) > 0 {
		var next []int
		for _, p := range frontier {
			for _, c := range x.children[p] {
				if seen[c] {
					continue
				}
				seen[c] = true
				out = append(out, x.records[c])
				next = append(next, c)
			}
		}
		frontier = next
	}
	return out
}

func (x *Index) collect(positions []int) []menutree.FlatRecord {
	if len(positions) == 0 {
		return nil
	}
	out := make([]menutree.FlatRecord, len(positions))
	for j, i := range positions {
		out[j] = x.records[i]
	}
	return out
}
