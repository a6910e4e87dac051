package snapshot

import (
	"strings"

	"github.com/muurk/luxws/internal/units"
)

// NoParent is the parent index of a root item.
const NoParent = -1

// Item is one node of a Tree. Leaves carry a raw value; branches carry
// children.
type Item struct {
	// NodeID is the device's handle for the item, used to address it in
	// values replies.
	NodeID string
	// Name is the localized label shown by the device.
	Name string
	Def  units.FieldDefinition

	Raw    string
	HasRaw bool
	Value  units.Value

	Parent   int
	Children []int
}

// Decoder converts a raw device string for a field definition.
type Decoder interface {
	Decode(def units.FieldDefinition, raw string) (units.Value, error)
}

// Tree is an ordered forest of items stored in a single arena.
type Tree struct {
	items []Item
	roots []int
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{}
}

// Add appends an item under parent (NoParent for a root) and returns its
// index.
func (t *Tree) Add(parent int, nodeID, name string, def units.FieldDefinition) int {
	idx := len(t.items)
	t.items = append(t.items, Item{
		NodeID: nodeID,
		Name:   name,
		Def:    def,
		Parent: parent,
	})
	if parent == NoParent {
		t.roots = append(t.roots, idx)
	} else {
		t.items[parent].Children = append(t.items[parent].Children, idx)
	}
	return idx
}

// SetRaw stores a raw value and its decoded form, making the item a leaf.
func (t *Tree) SetRaw(idx int, raw string, v units.Value) {
	it := &t.items[idx]
	it.Raw = raw
	it.HasRaw = true
	it.Value = v
}

// Discard removes the item at idx together with everything added after it.
// It only succeeds for the most recently started subtree, which is how the
// parser drops a branch that ended up without children. It reports whether
// anything was removed.
func (t *Tree) Discard(idx int) bool {
	if idx < 0 || idx >= len(t.items) {
		return false
	}
	siblings := &t.roots
	if p := t.items[idx].Parent; p != NoParent {
		siblings = &t.items[p].Children
	}
	n := len(*siblings)
	if n == 0 || (*siblings)[n-1] != idx {
		return false
	}
	*siblings = (*siblings)[:n-1]
	t.items = t.items[:idx]
	return true
}

// Item returns the item at idx.
func (t *Tree) Item(idx int) Item {
	return t.items[idx]
}

// Roots returns the indices of the top-level items in device order.
func (t *Tree) Roots() []int {
	return t.roots
}

// Len returns the number of items.
func (t *Tree) Len() int {
	return len(t.items)
}

// IsLeaf reports whether the item carries a raw value.
func (t *Tree) IsLeaf(idx int) bool {
	return t.items[idx].HasRaw
}

// Path returns the indices from the root down to idx, inclusive.
func (t *Tree) Path(idx int) []int {
	var path []int
	for i := idx; i != NoParent; i = t.items[i].Parent {
		path = append(path, i)
	}
	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}
	return path
}

// Category joins the identifiers of the item's ancestors with ".". Root
// items have an empty category.
func (t *Tree) Category(idx int) string {
	path := t.Path(idx)
	ids := make([]string, 0, len(path)-1)
	for _, i := range path[:len(path)-1] {
		ids = append(ids, t.items[i].Def.ID)
	}
	return strings.Join(ids, ".")
}

// Leaves returns leaf indices depth-first, left to right.
func (t *Tree) Leaves() []int {
	var out []int
	var walk func(idx int)
	walk = func(idx int) {
		if t.items[idx].HasRaw {
			out = append(out, idx)
		}
		for _, c := range t.items[idx].Children {
			walk(c)
		}
	}
	for _, r := range t.roots {
		walk(r)
	}
	return out
}

// MergeResult counts what a merge did.
type MergeResult struct {
	Updated   int
	Unchanged int
	Failed    int
}

// Merge applies a node id to raw value map to the existing leaves. Ids
// without a matching leaf are ignored and the structure is never changed.
// A value that fails to decode leaves the item's previous value in place.
func (t *Tree) Merge(updates map[string]string, dec Decoder) (MergeResult, []error) {
	var (
		res  MergeResult
		errs []error
	)
	for i := range t.items {
		it := &t.items[i]
		if !it.HasRaw {
			continue
		}
		raw, ok := updates[it.NodeID]
		if !ok {
			continue
		}
		if raw == it.Raw {
			res.Unchanged++
			continue
		}
		v, err := dec.Decode(it.Def, raw)
		if err != nil {
			res.Failed++
			errs = append(errs, &MergeError{NodeID: it.NodeID, FieldID: it.Def.ID, Err: err})
			continue
		}
		it.Raw = raw
		it.Value = v
		res.Updated++
	}
	return res, errs
}

// MergeError reports a single value that could not be merged.
type MergeError struct {
	NodeID  string
	FieldID string
	Err     error
}

func (e *MergeError) Error() string {
	return "merge " + e.FieldID + " (" + e.NodeID + "): " + e.Err.Error()
}

func (e *MergeError) Unwrap() error {
	return e.Err
}
