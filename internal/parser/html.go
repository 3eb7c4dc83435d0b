package parser

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dgallion1/navflat/internal/menutree"
	"golang.org/x/net/html"
)

// HTMLParser reads the first <nav> element (or <body> when there is none).
// Each top-level <ul>/<ol> contributes roots; an <li> takes its label from
// its direct <a> or its own text, its route from href and its id from id or
// data-id. Other data-* attributes become node attributes.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (menutree.Forest, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	container := doc.Find("nav").First()
	if container.Length() == 0 {
		container = doc.Find("body").First()
	}
	if container.Length() == 0 {
		return nil, nil
	}

	type frame struct {
		list *goquery.Selection
		dst  *[]*menutree.TreeNode
	}
	var roots []*menutree.TreeNode
	var work []frame
	container.Find("ul, ol").Not("li ul, li ol").Each(func(_ int, s *goquery.Selection) {
		work = append(work, frame{list: s, dst: &roots})
	})
	slices.Reverse(work)

	for len(work) > 0 {
		f := work[len(work)-1]
		work = work[:len(work)-1]

		var nested []frame
		f.list.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
			node := htmlNode(li)
			*f.dst = append(*f.dst, node)
			li.ChildrenFiltered("ul, ol").Each(func(_ int, sub *goquery.Selection) {
				nested = append(nested, frame{list: sub, dst: &node.Children})
			})
		})
		slices.Reverse(nested)
		work = append(work, nested...)
	}
	return menutree.Forest(roots), nil
}

func htmlNode(li *goquery.Selection) *menutree.TreeNode {
	node := &menutree.TreeNode{}
	if id, ok := li.Attr("id"); ok {
		node.ID = id
	} else if id, ok := li.Attr("data-id"); ok {
		node.ID = id
	}

	if a := li.ChildrenFiltered("a").First(); a.Length() > 0 {
		node.Label = collapseSpace(a.Text())
		node.Route, _ = a.Attr("href")
	} else {
		node.Label = ownText(li.Get(0))
	}

	for _, attr := range li.Get(0).Attr {
		name, ok := strings.CutPrefix(attr.Key, "data-")
		if !ok || name == "id" {
			continue
		}
		if node.Attributes == nil {
			node.Attributes = make(map[string]any)
		}
		node.Attributes[name] = attr.Val
	}
	return node
}

// ownText returns the text of n excluding nested lists.
func ownText(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case c.Type == html.TextNode:
				buf.WriteString(c.Data)
			case c.Type == html.ElementNode && (c.Data == "ul" || c.Data == "ol"):
				// Children, not label text.
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return collapseSpace(buf.String())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
