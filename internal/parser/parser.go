package parser

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/navflat/internal/menutree"
)

// ErrUnsupportedFormat is returned by ForFile for unknown extensions.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Parser converts a menu source document into a forest.
type Parser interface {
	Parse(r io.Reader, filename string) (menutree.Forest, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".json":     true,
	".yaml":     true,
	".yml":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".docx":     true,
	".pdf":      true,
	".csv":      true,
	".txt":      true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".json":
		return &JSONParser{}, nil
	case ".yaml", ".yml":
		return &YAMLParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	case ".pdf":
		return &PDFParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".txt":
		return &TextParser{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// ParseFile is ForFile followed by Parse.
func ParseFile(r io.Reader, filename string) (menutree.Forest, error) {
	p, err := ForFile(filename)
	if err != nil {
		return nil, err
	}
	forest, err := p.Parse(r, filename)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(filename), err)
	}
	return forest, nil
}

// splitRoute splits an outline entry of the form "Label -> route".
func splitRoute(s string) (label, route string) {
	label, route, ok := strings.Cut(s, "->")
	if !ok {
		return strings.TrimSpace(s), ""
	}
	return strings.TrimSpace(label), strings.TrimSpace(route)
}

// outline nests entries by heading level. A level deeper than the current
// one by more than a step attaches to the nearest shallower entry.
type outline struct {
	roots menutree.Forest
	stack []outlineEntry
}

type outlineEntry struct {
	node  *menutree.TreeNode
	level int
}

func (o *outline) add(level int, n *menutree.TreeNode) {
	for len(o.stack) > 0 && o.stack[len(o.stack)-1].level >= level {
		o.stack = o.stack[:len(o.stack)-1]
	}
	if len(o.stack) == 0 {
		o.roots = append(o.roots, n)
	} else {
		parent := o.stack[len(o.stack)-1].node
		parent.Children = append(parent.Children, n)
	}
	o.stack = append(o.stack, outlineEntry{node: n, level: level})
}
