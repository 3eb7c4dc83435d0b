package parser

import (
	"bytes"
	"io"
	"slices"
	"strings"

	"github.com/dgallion1/navflat/internal/menutree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser reads menus written as nested bullet lists. An item that is
// a link, [Label](route "id"), becomes a navigable entry; anything else is a
// route-less container labelled with the item's text.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (menutree.Forest, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	type frame struct {
		list ast.Node
		dst  *[]*menutree.TreeNode
	}
	var roots []*menutree.TreeNode
	var work []frame

	// Every top-level list contributes roots, in document order.
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if n.Kind() == ast.KindList {
			work = append(work, frame{list: n, dst: &roots})
		}
	}
	// First list on top of the stack.
	slices.Reverse(work)

	for len(work) > 0 {
		f := work[len(work)-1]
		work = work[:len(work)-1]

		var nested []frame
		for item := f.list.FirstChild(); item != nil; item = item.NextSibling() {
			if item.Kind() != ast.KindListItem {
				continue
			}
			node := &menutree.TreeNode{}
			for c := item.FirstChild(); c != nil; c = c.NextSibling() {
				switch c.Kind() {
				case ast.KindList:
					nested = append(nested, frame{list: c, dst: &node.Children})
				case ast.KindTextBlock, ast.KindParagraph:
					if node.Label == "" && node.Route == "" {
						fillFromInline(node, c, src)
					}
				}
			}
			*f.dst = append(*f.dst, node)
		}
		slices.Reverse(nested)
		work = append(work, nested...)
	}
	return menutree.Forest(roots), nil
}

// fillFromInline sets label, route and id from a list item's text block.
func fillFromInline(node *menutree.TreeNode, block ast.Node, src []byte) {
	first := block.FirstChild()
	for first != nil {
		if t, ok := first.(*ast.Text); ok && strings.TrimSpace(string(t.Segment.Value(src))) == "" {
			first = first.NextSibling()
			continue
		}
		break
	}
	if link, ok := first.(*ast.Link); ok {
		node.Label = inlineText(link, src)
		node.Route = string(link.Destination)
		node.ID = string(link.Title)
		return
	}
	node.Label = inlineText(block, src)
}

// inlineText concatenates the text of a node's inline children.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		default:
			buf.WriteString(inlineText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
