package menutree

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCyclicStructure matches any *CyclicStructureError.
	ErrCyclicStructure = errors.New("cyclic structure")
	// ErrBrokenChain matches any *BrokenChainError.
	ErrBrokenChain = errors.New("broken parent chain")
)

// CyclicStructureError reports a node reachable from itself, or a parent
// walk longer than the sequence it runs over.
type CyclicStructureError struct {
	ID    string
	Label string
	Path  []string // Labels from the root down to the entry that closed the loop.
}

func (e *CyclicStructureError) Error() string {
	name := e.Label
	if e.ID != "" {
		name = fmt.Sprintf("%s (%s)", e.Label, e.ID)
	}
	if len(e.Path) == 0 {
		return fmt.Sprintf("cyclic structure at %q", name)
	}
	return fmt.Sprintf("cyclic structure at %q via %s", name, strings.Join(e.Path, " > "))
}

func (e *CyclicStructureError) Is(target error) bool {
	return target == ErrCyclicStructure
}

// BrokenChainError reports a parent reference that resolves to no record.
type BrokenChainError struct {
	Label     string // Record holding the dangling reference.
	Level     int
	ParentKey string
	KeyField  KeyField
}

func (e *BrokenChainError) Error() string {
	return fmt.Sprintf("broken parent chain: %q at level %d references parent %s=%q, which is not in the sequence",
		e.Label, e.Level, e.KeyField, e.ParentKey)
}

func (e *BrokenChainError) Is(target error) bool {
	return target == ErrBrokenChain
}
