package menutree

import (
	"fmt"
	"math/rand/v2"
)

// GenerateConfig sizes a synthetic menu.
type GenerateConfig struct {
	Roots    int    // Level 1 entries.
	Children int    // Children per non-leaf entry.
	Depth    int    // Total levels including the roots.
	Seed     uint64 // Badge randomness; same seed, same forest.
}

// Generate builds a synthetic menu of Roots entries, each carrying a full
// subtree of the given fan-out down to Depth levels.
func Generate(cfg GenerateConfig) Forest {
	if cfg.Depth <= 0 {
		cfg.Depth = 1
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	type pending struct {
		node  *TreeNode
		level int
		path  string
	}

	forest := make(Forest, 0, cfg.Roots)
	var stack []pending
	for i := range cfg.Roots {
		n := &TreeNode{
			ID:    fmt.Sprintf("item-%d", i),
			Label: fmt.Sprintf("Item %d", i),
			Route: fmt.Sprintf("item-%d", i),
			Attributes: map[string]any{
				"icon":  "📦",
				"badge": rng.IntN(100),
			},
		}
		forest = append(forest, n)
		stack = append(stack, pending{node: n, level: 1, path: fmt.Sprint(i)})
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p.level >= cfg.Depth {
			continue
		}
		for i := range cfg.Children {
			path := fmt.Sprintf("%s-%d", p.path, i)
			c := &TreeNode{
				ID:         "child-" + path,
				Label:      fmt.Sprintf("Child %d-%d", p.level, i),
				Route:      "child-" + path,
				Attributes: map[string]any{"badge": rng.IntN(50)},
			}
			p.node.Children = append(p.node.Children, c)
			stack = append(stack, pending{node: c, level: p.level + 1, path: path})
		}
	}
	return forest
}

// Chain builds a single path of depth entries: one root, each entry the
// only child of the previous one.
func Chain(depth int) Forest {
	if depth <= 0 {
		return Forest{}
	}
	root := &TreeNode{ID: "n0", Label: "Node 0", Route: "n0"}
	cur := root
	for i := 1; i < depth; i++ {
		next := &TreeNode{
			ID:    fmt.Sprintf("n%d", i),
			Label: fmt.Sprintf("Node %d", i),
			Route: fmt.Sprintf("n%d", i),
		}
		cur.Children = []*TreeNode{next}
		cur = next
	}
	return Forest{root}
}

// Size counts the entries in a forest without recursion. Entries reachable
// twice are counted twice; a cyclic forest never terminates, so callers
// flatten first when the input is untrusted.
func Size(forest Forest) int {
	n := 0
	stack := append([]*TreeNode(nil), forest...)
	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if t == nil {
			continue
		}
		n++
		stack = append(stack, t.Children...)
	}
	return n
}
