package parser

import (
	"errors"
	"fmt"
	"io"

	"github.com/dgallion1/navflat/internal/menutree"
	"gopkg.in/yaml.v3"
)

// YAMLParser reads the same shapes as JSONParser from YAML.
type YAMLParser struct{}

type yamlNode struct {
	ID         string         `yaml:"id"`
	Label      string         `yaml:"label"`
	Route      string         `yaml:"route"`
	Children   []*yamlNode    `yaml:"children"`
	Attributes map[string]any `yaml:",inline"`
}

func (p *YAMLParser) Parse(r io.Reader, filename string) (menutree.Forest, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty document")
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("empty document")
	}

	var items []*yamlNode
	top := doc.Content[0]
	switch top.Kind {
	case yaml.SequenceNode:
		if err := top.Decode(&items); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case yaml.MappingNode:
		var wrapper struct {
			Items *[]*yamlNode `yaml:"items"`
		}
		if err := top.Decode(&wrapper); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
		if wrapper.Items == nil {
			return nil, errors.New(`yaml mapping has no "items" sequence`)
		}
		items = *wrapper.Items
	default:
		return nil, fmt.Errorf("yaml menu must be a sequence or a mapping with items (line %d)", top.Line)
	}
	return yamlForest(items), nil
}

// yamlForest converts decoded nodes iteratively.
func yamlForest(items []*yamlNode) menutree.Forest {
	type frame struct {
		src []*yamlNode
		dst *[]*menutree.TreeNode
	}
	roots := make([]*menutree.TreeNode, 0, len(items))
	work := []frame{{src: items, dst: &roots}}
	for len(work) > 0 {
		f := work[len(work)-1]
		work = work[:len(work)-1]
		for _, y := range f.src {
			if y == nil {
				*f.dst = append(*f.dst, nil)
				continue
			}
			n := &menutree.TreeNode{ID: y.ID, Label: y.Label, Route: y.Route}
			if len(y.Attributes) > 0 {
				n.Attributes = y.Attributes
			}
			*f.dst = append(*f.dst, n)
			if len(y.Children) > 0 {
				work = append(work, frame{src: y.Children, dst: &n.Children})
			}
		}
	}
	return menutree.Forest(roots)
}
