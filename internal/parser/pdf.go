package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/dgallion1/navflat/internal/menutree"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser reads the document's bookmark outline. Bookmark titles of the
// form "Label -> route" carry a route.
type PDFParser struct{}

func (p *PDFParser) Parse(r io.Reader, filename string) (menutree.Forest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse pdf: %w", err)
	}

	root := reader.Outline()
	if len(root.Child) == 0 {
		return nil, errors.New("pdf has no bookmark outline")
	}
	return outlineForest(root.Child), nil
}

func outlineForest(items []pdflib.Outline) menutree.Forest {
	type frame struct {
		src []pdflib.Outline
		dst *[]*menutree.TreeNode
	}
	var roots []*menutree.TreeNode
	work := []frame{{src: items, dst: &roots}}
	for len(work) > 0 {
		f := work[len(work)-1]
		work = work[:len(work)-1]
		for _, item := range f.src {
			label, route := splitRoute(item.Title)
			n := &menutree.TreeNode{Label: label, Route: route}
			*f.dst = append(*f.dst, n)
			if len(item.Child) > 0 {
				work = append(work, frame{src: item.Child, dst: &n.Children})
			}
		}
	}
	return menutree.Forest(roots)
}
