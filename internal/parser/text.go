package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/navflat/internal/menutree"
)

// TextParser reads an indented outline: one entry per line, two spaces or a
// tab per level, "Label -> route" for navigable entries. Blank lines and
// lines starting with # are skipped.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (menutree.Forest, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var o outline
	depth := -1
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), " \t\r")
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		level, err := indentLevel(line[:len(line)-len(trimmed)])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if level > depth+1 {
			return nil, fmt.Errorf("line %d: indentation jumps from level %d to %d", lineNo, depth+1, level+1)
		}
		depth = level

		label, route := splitRoute(trimmed)
		o.add(level, &menutree.TreeNode{Label: label, Route: route})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return o.roots, nil
}

// indentLevel counts a tab or two spaces as one level.
func indentLevel(indent string) (int, error) {
	level, spaces := 0, 0
	for _, c := range indent {
		if c == '\t' {
			if spaces%2 != 0 {
				return 0, errors.New("tab after an odd number of spaces")
			}
			level++
			continue
		}
		spaces++
		if spaces%2 == 0 {
			level++
		}
	}
	if spaces%2 != 0 {
		return 0, fmt.Errorf("indentation of %d spaces is not a multiple of two", spaces)
	}
	return level, nil
}
