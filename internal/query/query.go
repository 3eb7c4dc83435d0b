package query

import (
	"sort"

	"github.com/dgallion1/navflat/internal/menutree"
)

// FindByPredicate returns every record satisfying pred, in sequence order.
// Nothing matching is a nil slice, not an error.
func FindByPredicate(flat []menutree.FlatRecord, pred Predicate) []menutree.FlatRecord {
	var out []menutree.FlatRecord
	for _, r := range flat {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}

// FindFirstByKey returns the first record, in sequence order, whose field
// equals value. Field is id, label, route, parentId, parentLabel, level or
// an attribute name. When several records share the value the earliest one
// always wins.
func FindFirstByKey(flat []menutree.FlatRecord, field, value string) (menutree.FlatRecord, bool) {
	for _, r := range flat {
		if v, ok := r.Field(field); ok && v == value {
			return r, true
		}
	}
	return menutree.FlatRecord{}, false
}

// AncestorChain returns the root-first path to rec, rec last. A nil chain
// with a nil error means rec is not in flat. A parent reference that
// resolves to nothing is a *menutree.BrokenChainError; references that loop
// stop after len(flat) hops with a *menutree.CyclicStructureError.
func AncestorChain(flat []menutree.FlatRecord, key menutree.KeyField, rec menutree.FlatRecord) ([]menutree.FlatRecord, error) {
	return NewIndex(flat, key).AncestorChain(rec)
}

// Descendants returns every record below the first one keyed ancestorKey,
// level by level. An unknown ancestor yields nil.
func Descendants(flat []menutree.FlatRecord, key menutree.KeyField, ancestorKey string) []menutree.FlatRecord {
	return NewIndex(flat, key).Descendants(ancestorKey)
}

// Children returns the direct children of the first record keyed parentKey.
func Children(flat []menutree.FlatRecord, key menutree.KeyField, parentKey string) []menutree.FlatRecord {
	return NewIndex(flat, key).Children(parentKey)
}

// HierarchyByRoute finds the first record with route and returns its
// ancestor chain. An unknown route yields nil, nil.
func HierarchyByRoute(flat []menutree.FlatRecord, key menutree.KeyField, route string) ([]menutree.FlatRecord, error) {
	rec, ok := FindFirstByKey(flat, "route", route)
	if !ok {
		return nil, nil
	}
	return AncestorChain(flat, key, rec)
}

// GroupByLevel partitions flat by level, keeping sequence order within each
// level. Levels without records are absent.
func GroupByLevel(flat []menutree.FlatRecord) map[int][]menutree.FlatRecord {
	groups := make(map[int][]menutree.FlatRecord)
	for _, r := range flat {
		groups[r.Level] = append(groups[r.Level], r)
	}
	return groups
}

// Levels returns the keys of groups in ascending order.
func Levels(groups map[int][]menutree.FlatRecord) []int {
	levels := make([]int, 0, len(groups))
	for l := range groups {
		levels = append(levels, l)
	}
	sort.Ints(levels)
	return levels
}

// CountByLevel returns how many records sit at each level.
func CountByLevel(flat []menutree.FlatRecord) map[int]int {
	counts := make(map[int]int)
	for _, r := range flat {
		counts[r.Level]++
	}
	return counts
}

// Depth returns the deepest level in flat, 0 when empty.
func Depth(flat []menutree.FlatRecord) int {
	depth := 0
	for _, r := range flat {
		depth = max(depth, r.Level)
	}
	return depth
}

// Labels returns the labels of a chain in order.
func Labels(chain []menutree.FlatRecord) []string {
	out := make([]string, len(chain))
	for i, r := range chain {
		out[i] = r.Label
	}
	return out
}

// Find runs FindByPredicate over the indexed records.
func (x *Index) Find(pred Predicate) []menutree.FlatRecord {
	return FindByPredicate(x.records, pred)
}

// FindFirst runs FindFirstByKey over the indexed records.
func (x *Index) FindFirst(field, value string) (menutree.FlatRecord, bool) {
	if field == x.key.String() {
		return x.Lookup(value)
	}
	return FindFirstByKey(x.records, field, value)
}

// HierarchyByRoute is the indexed form of the package function.
func (x *Index) HierarchyByRoute(route string) ([]menutree.FlatRecord, error) {
	rec, ok := x.FindFirst("route", route)
	if !ok {
		return nil, nil
	}
	return x.AncestorChain(rec)
}

// GroupByLevel runs GroupByLevel over the indexed records.
func (x *Index) GroupByLevel() map[int][]menutree.FlatRecord {
	return GroupByLevel(x.records)
}
