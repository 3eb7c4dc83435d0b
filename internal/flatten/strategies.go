package flatten

import "github.com/dgallion1/navflat/internal/menutree"

// Each strategy tracks the entries on the current root-to-entry path.
// Meeting one of them again below itself is a cycle. An entry shared by two
// separate branches is not on the path twice and is simply emitted twice.

// flattenStack keeps one frame per open sibling list. The stack lives on the
// heap, so depth is bounded by memory rather than the goroutine stack.
func flattenStack(forest menutree.Forest, e *emitter) error {
	type frame struct {
		owner    *menutree.TreeNode // nil for the forest itself
		children []*menutree.TreeNode
		parent   int
		next     int
	}

	onPath := make(map[*menutree.TreeNode]bool)
	stack := []frame{{children: forest, parent: -1}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next >= len(top.children) {
			if top.owner != nil {
				delete(onPath, top.owner)
			}
			stack = stack[:len(stack)-1]
			continue
		}

		sib := top.next
		n := top.children[sib]
		parent := top.parent
		top.next++

		if n == nil {
			continue
		}
		if onPath[n] {
			if err := e.cycle(n, parent); err != nil {
				return err
			}
			continue
		}

		idx := e.emit(n, parent, sib)
		if len(n.Children) > 0 {
			onPath[n] = true
			stack = append(stack, frame{owner: n, children: n.Children, parent: idx})
		}
	}
	return nil
}

// flattenWorkList pops one pending entry at a time. Children go onto the
// list in reverse, behind an exit marker that takes their parent off the
// path once the whole subtree has been emitted.
func flattenWorkList(forest menutree.Forest, e *emitter) error {
	type item struct {
		node   *menutree.TreeNode
		parent int
		sib    int
		exit   bool
	}

	onPath := make(map[*menutree.TreeNode]bool)
	work := make([]item, 0, len(forest))
	for i := len(forest) - 1; i >= 0; i-- {
		work = append(work, item{node: forest[i], parent: -1, sib: i})
	}

	for len(work) > 0 {
		it := work[len(work)-1]
		work = work[:len(work)-1]

		if it.exit {
			delete(onPath, it.node)
			continue
		}
		n := it.node
		if n == nil {
			continue
		}
		if onPath[n] {
			if err := e.cycle(n, it.parent); err != nil {
				return err
			}
			continue
		}

		idx := e.emit(n, it.parent, it.sib)
		if len(n.Children) > 0 {
			onPath[n] = true
			work = append(work, item{node: n, exit: true})
			for i := len(n.Children) - 1; i >= 0; i-- {
				work = append(work, item{node: n.Children[i], parent: idx, sib: i})
			}
		}
	}
	return nil
}

// flattenRecursive is the plain depth-first descent. Go grows goroutine
// stacks on demand, so it copes with deep menus, but it is kept mainly to
// cross-check the iterative strategies.
func flattenRecursive(forest menutree.Forest, e *emitter) error {
	onPath := make(map[*menutree.TreeNode]bool)

	var walk func(nodes []*menutree.TreeNode, parent int) error
	walk = func(nodes []*menutree.TreeNode, parent int) error {
		for sib, n := range nodes {
			if n == nil {
				continue
			}
			if onPath[n] {
				if err := e.cycle(n, parent); err != nil {
					return err
				}
				continue
			}

			idx := e.emit(n, parent, sib)
			if len(n.Children) > 0 {
				onPath[n] = true
				if err := walk(n.Children, idx); err != nil {
					return err
				}
				delete(onPath, n)
			}
		}
		return nil
	}
	return walk(forest, -1)
}
