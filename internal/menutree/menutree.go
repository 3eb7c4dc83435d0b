package menutree

import (
	"encoding/json"
	"fmt"
)

// TreeNode is one authored menu entry.
type TreeNode struct {
	ID         string         // Optional stable identifier.
	Label      string         // Display name.
	Route      string         // Navigable target (empty for pure containers).
	Attributes map[string]any // Extra scalar fields (icon, badge, ...), kept verbatim.
	Children   []*TreeNode    // Ordered submenu entries.
}

// Forest is an ordered collection of root menu entries.
type Forest []*TreeNode

// FlatRecord is a TreeNode projected into a flat sequence.
type FlatRecord struct {
	ID         string
	Label      string
	Route      string
	Attributes map[string]any

	Level       int    // 1 for roots.
	ParentID    string // Empty for roots.
	ParentLabel string // Empty for roots.
	DerivedID   bool   // ID was derived from the node's position.
}

// KeyField selects which field links a record to its parent.
type KeyField int

const (
	KeyID KeyField = iota
	KeyLabel
)

func (k KeyField) String() string {
	switch k {
	case KeyID:
		return "id"
	case KeyLabel:
		return "label"
	}
	return fmt.Sprintf("KeyField(%d)", int(k))
}

// ParseKeyField maps "id" or "label" to a KeyField. Empty means KeyID.
func ParseKeyField(s string) (KeyField, error) {
	switch s {
	case "", "id":
		return KeyID, nil
	case "label":
		return KeyLabel, nil
	}
	return KeyID, fmt.Errorf("unknown key field %q (want id or label)", s)
}

// IsRoot reports whether the record has no parent.
func (r FlatRecord) IsRoot() bool {
	return r.Level <= 1
}

// Key returns the record's identity under k.
func (r FlatRecord) Key(k KeyField) string {
	if k == KeyLabel {
		return r.Label
	}
	return r.ID
}

// ParentKey returns the parent's identity under k.
func (r FlatRecord) ParentKey(k KeyField) string {
	if k == KeyLabel {
		return r.ParentLabel
	}
	return r.ParentID
}

// Field returns the named field as text: id, label, route, parentId,
// parentLabel, level, or an attribute name.
func (r FlatRecord) Field(name string) (string, bool) {
	switch name {
	case "id":
		return r.ID, true
	case "label":
		return r.Label, true
	case "route":
		return r.Route, true
	case "parentId":
		return r.ParentID, !r.IsRoot()
	case "parentLabel":
		return r.ParentLabel, !r.IsRoot()
	case "level":
		return fmt.Sprint(r.Level), true
	}
	v, ok := r.Attributes[name]
	if !ok {
		return "", false
	}
	return fmt.Sprint(v), true
}

// Same reports whether two records describe the same entry at the same
// position. Attributes are not compared.
func (r FlatRecord) Same(o FlatRecord) bool {
	return r.ID == o.ID &&
		r.Label == o.Label &&
		r.Route == o.Route &&
		r.Level == o.Level &&
		r.ParentID == o.ParentID &&
		r.ParentLabel == o.ParentLabel
}

// reserved keys that never become attributes.
var reserved = map[string]bool{
	"id": true, "label": true, "route": true, "children": true,
	"level": true, "parentId": true, "parentLabel": true, "derivedId": true,
}

// UnmarshalJSON reads the flat object shape used by menu definitions:
// id, label, route and children are fields, every other key is an attribute.
func (n *TreeNode) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*n = TreeNode{}
	for k, v := range raw {
		var err error
		switch k {
		case "id":
			err = json.Unmarshal(v, &n.ID)
		case "label":
			err = json.Unmarshal(v, &n.Label)
		case "route":
			err = json.Unmarshal(v, &n.Route)
		case "children":
			err = json.Unmarshal(v, &n.Children)
		default:
			var val any
			err = json.Unmarshal(v, &val)
			if err == nil {
				if n.Attributes == nil {
					n.Attributes = make(map[string]any)
				}
				n.Attributes[k] = val
			}
		}
		if err != nil {
			return fmt.Errorf("field %q: %w", k, err)
		}
	}
	return nil
}

// MarshalJSON writes the node in the same flat object shape.
func (n TreeNode) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(n.Attributes)+4)
	for k, v := range n.Attributes {
		if !reserved[k] {
			out[k] = v
		}
	}
	if n.ID != "" {
		out["id"] = n.ID
	}
	out["label"] = n.Label
	if n.Route != "" {
		out["route"] = n.Route
	}
	if len(n.Children) > 0 {
		out["children"] = n.Children
	}
	return json.Marshal(out)
}

// MarshalJSON writes the record as one flat object with attributes inline.
func (r FlatRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Attributes)+6)
	for k, v := range r.Attributes {
		if !reserved[k] {
			out[k] = v
		}
	}
	if r.ID != "" {
		out["id"] = r.ID
	}
	out["label"] = r.Label
	if r.Route != "" {
		out["route"] = r.Route
	}
	out["level"] = r.Level
	if !r.IsRoot() {
		out["parentId"] = r.ParentID
		out["parentLabel"] = r.ParentLabel
	}
	if r.DerivedID {
		out["derivedId"] = true
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads a record written by MarshalJSON.
func (r *FlatRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = FlatRecord{}
	for k, v := range raw {
		switch k {
		case "id":
			r.ID, _ = v.(string)
		case "label":
			r.Label, _ = v.(string)
		case "route":
			r.Route, _ = v.(string)
		case "parentId":
			r.ParentID, _ = v.(string)
		case "parentLabel":
			r.ParentLabel, _ = v.(string)
		case "derivedId":
			r.DerivedID, _ = v.(bool)
		case "level":
			f, ok := v.(float64)
			if !ok {
				return fmt.Errorf("field \"level\": not a number")
			}
			r.Level = int(f)
		default:
			if r.Attributes == nil {
				r.Attributes = make(map[string]any)
			}
			r.Attributes[k] = v
		}
	}
	return nil
}
