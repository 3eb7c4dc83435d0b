package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dgallion1/navflat/internal/menutree"
)

// JSONParser reads a forest as a JSON array of nodes, or an object whose
// "items" member is that array.
type JSONParser struct{}

func (p *JSONParser) Parse(r io.Reader, filename string) (menutree.Forest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return DecodeForestJSON(data)
}

// DecodeForestJSON decodes either accepted JSON shape.
func DecodeForestJSON(data []byte) (menutree.Forest, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty document")
	}

	switch data[0] {
	case '[':
		var forest menutree.Forest
		if err := json.Unmarshal(data, &forest); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		return forest, nil
	case '{':
		var doc struct {
			Items *menutree.Forest `json:"items"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		if doc.Items == nil {
			return nil, errors.New(`json object has no "items" array`)
		}
		return *doc.Items, nil
	}
	return nil, errors.New("json menu must be an array or an object with items")
}
