package flatten

import (
	"fmt"
	"maps"
	"strconv"

	"github.com/dgallion1/navflat/internal/menutree"
)

// Strategy selects the traversal used to produce the pre-order sequence.
// Every strategy yields the same records in the same order.
type Strategy int

const (
	// StrategyStack walks with an explicit stack of sibling frames.
	StrategyStack Strategy = iota
	// StrategyWorkList pops pending entries off a work list, pushing
	// children in reverse so the leftmost child comes out first.
	StrategyWorkList
	// StrategyRecursive descends with Go recursion.
	StrategyRecursive
)

func (s Strategy) String() string {
	switch s {
	case StrategyStack:
		return "stack"
	case StrategyWorkList:
		return "worklist"
	case StrategyRecursive:
		return "recursive"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// Strategies lists every traversal, default first.
var Strategies = []Strategy{StrategyStack, StrategyWorkList, StrategyRecursive}

// ParseStrategy maps a strategy name to its value. Empty means StrategyStack.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "", "stack":
		return StrategyStack, nil
	case "worklist":
		return StrategyWorkList, nil
	case "recursive":
		return StrategyRecursive, nil
	}
	return StrategyStack, fmt.Errorf("unknown strategy %q (want stack, worklist or recursive)", s)
}

// CycleHandler decides what a detected cycle does. Returning nil drops the
// offending branch and keeps going; returning an error aborts Flatten with it.
type CycleHandler func(*menutree.CyclicStructureError) error

// SkipCycles drops every cyclic branch and appends its error to report.
// report may be nil.
func SkipCycles(report *[]*menutree.CyclicStructureError) CycleHandler {
	return func(err *menutree.CyclicStructureError) error {
		if report != nil {
			*report = append(*report, err)
		}
		return nil
	}
}

// Config controls flattening.
type Config struct {
	KeyField menutree.KeyField // Which field parent references carry.
	Strategy Strategy
	OnCycle  CycleHandler // Nil fails on the first cycle.
}

// DefaultConfig returns id-keyed, stack-based flattening that fails on cycles.
func DefaultConfig() Config {
	return Config{
		KeyField: menutree.KeyID,
		Strategy: StrategyStack,
	}
}

// Flatten projects forest into pre-order FlatRecords. The forest is not
// modified; flattening the same forest twice yields identical output.
func Flatten(forest menutree.Forest, cfg Config) ([]menutree.FlatRecord, error) {
	e := &emitter{cfg: cfg}

	var err error
	switch cfg.Strategy {
	case StrategyStack:
		err = flattenStack(forest, e)
	case StrategyWorkList:
		err = flattenWorkList(forest, e)
	case StrategyRecursive:
		err = flattenRecursive(forest, e)
	default:
		return nil, fmt.Errorf("unknown strategy %v", cfg.Strategy)
	}
	if err != nil {
		return nil, err
	}
	return e.out, nil
}

// emitter owns the output and everything the strategies share: record
// projection, positional ids, and cycle reporting.
type emitter struct {
	cfg     Config
	out     []menutree.FlatRecord
	parents []int    // parents[i] is the index of out[i]'s parent, -1 for roots.
	pos     []string // pos[i] is out[i]'s dotted sibling path.
}

// emit appends n as a child of out[parent] (or as a root when parent < 0)
// at sibling index sib, and returns its index.
func (e *emitter) emit(n *menutree.TreeNode, parent, sib int) int {
	level := 1
	pos := strconv.Itoa(sib + 1)
	if parent >= 0 {
		level = e.out[parent].Level + 1
		pos = e.pos[parent] + "." + pos
	}

	rec := menutree.FlatRecord{
		ID:    n.ID,
		Label: n.Label,
		Route: n.Route,
		Level: level,
	}
	if len(n.Attributes) > 0 {
		rec.Attributes = maps.Clone(n.Attributes)
	}
	// Derived ids share the explicit id namespace; the index prefers
	// explicit ids when the two collide.
	if rec.ID == "" && e.cfg.KeyField == menutree.KeyID {
		rec.ID = pos
		rec.DerivedID = true
	}
	if parent >= 0 {
		p := e.out[parent]
		rec.ParentID = p.ID
		rec.ParentLabel = p.Label
	}

	e.out = append(e.out, rec)
	e.parents = append(e.parents, parent)
	e.pos = append(e.pos, pos)
	return len(e.out) - 1
}

// cycle reports n, found again below out[parent], to the configured handler.
func (e *emitter) cycle(n *menutree.TreeNode, parent int) error {
	var path []string
	for i := parent; i >= 0; i = e.parents[i] {
		path = append(path, e.out[i].Label)
	}
	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}
	path = append(path, n.Label)

	err := &menutree.CyclicStructureError{ID: n.ID, Label: n.Label, Path: path}
	if e.cfg.OnCycle == nil {
		return err
	}
	return e.cfg.OnCycle(err)
}
