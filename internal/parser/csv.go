package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/dgallion1/navflat/internal/menutree"
)

// CSVParser reads an adjacency list: a header row naming at least a label
// column, with optional id, parent_id and route columns. Any other column
// becomes an attribute. A row attaches to the first row carrying the id its
// parent_id names; rows with an empty parent_id are roots.
type CSVParser struct{}

type csvRow struct {
	line   int
	parent string
	node   *menutree.TreeNode
}

func (p *CSVParser) Parse(r io.Reader, filename string) (menutree.Forest, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	headers := make([]string, len(records[0]))
	col := map[string]int{}
	for i, h := range records[0] {
		h = strings.ToLower(strings.TrimSpace(h))
		headers[i] = h
		col[h] = i
	}
	if _, ok := col["label"]; !ok {
		return nil, errors.New(`csv header has no "label" column`)
	}

	cell := func(rec []string, name string) string {
		if i, ok := col[name]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	rows := make([]csvRow, 0, len(records)-1)
	byID := make(map[string]*menutree.TreeNode)
	for i, rec := range records[1:] {
		n := &menutree.TreeNode{
			ID:    cell(rec, "id"),
			Label: cell(rec, "label"),
			Route: cell(rec, "route"),
		}
		for j, h := range headers {
			switch h {
			case "id", "label", "route", "parent_id", "":
				continue
			}
			if j < len(rec) && rec[j] != "" {
				if n.Attributes == nil {
					n.Attributes = make(map[string]any)
				}
				n.Attributes[h] = rec[j]
			}
		}
		rows = append(rows, csvRow{line: i + 2, parent: cell(rec, "parent_id"), node: n})
		if n.ID != "" {
			if _, dup := byID[n.ID]; !dup {
				byID[n.ID] = n
			}
		}
	}

	var roots menutree.Forest
	for _, row := range rows {
		if row.parent == "" {
			roots = append(roots, row.node)
			continue
		}
		parent, ok := byID[row.parent]
		if !ok {
			return nil, fmt.Errorf("line %d: unknown parent_id %q", row.line, row.parent)
		}
		parent.Children = append(parent.Children, row.node)
	}

	if err := checkReachable(roots, rows); err != nil {
		return nil, err
	}
	return roots, nil
}

// checkReachable rejects rows whose parent links loop back on themselves,
// which leaves them detached from every root.
func checkReachable(roots menutree.Forest, rows []csvRow) error {
	seen := make(map[*menutree.TreeNode]bool, len(rows))
	stack := append([]*menutree.TreeNode(nil), roots...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[n] {
			continue
		}
		seen[n] = true
		stack = append(stack, n.Children...)
	}
	if len(seen) == len(rows) {
		return nil
	}

	parentOf := make(map[string]string, len(rows))
	labelOf := make(map[string]string, len(rows))
	for _, row := range rows {
		if id := row.node.ID; id != "" {
			if _, dup := parentOf[id]; !dup {
				parentOf[id] = row.parent
				labelOf[id] = row.node.Label
			}
		}
	}
	for _, row := range rows {
		if seen[row.node] {
			continue
		}
		// Walk parent ids until one repeats to report the loop.
		var path []string
		visited := map[string]bool{}
		for id := row.parent; id != "" && !visited[id]; id = parentOf[id] {
			visited[id] = true
			path = append(path, labelOf[id])
		}
		slices.Reverse(path)
		path = append(path, row.node.Label)
		return &menutree.CyclicStructureError{ID: row.node.ID, Label: row.node.Label, Path: path}
	}
	return nil
}
