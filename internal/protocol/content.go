package protocol

import (
	"errors"
	"fmt"

	"github.com/muurk/luxws/internal/snapshot"
	"github.com/muurk/luxws/internal/units"
)

// ErrUnknownField is the skip reason for items whose label has no
// definition.
var ErrUnknownField = errors.New("unknown field")

// Resolver maps a label and a raw value hint to a field definition.
type Resolver interface {
	Lookup(label, hint string) (units.FieldDefinition, bool)
}

// Skip describes an item left out of a content tree.
type Skip struct {
	NodeID string
	Label  string
	Raw    string
	Err    error
}

func (s Skip) String() string {
	return fmt.Sprintf("%s %q: %v", s.NodeID, s.Label, s.Err)
}

// ParseContent builds the item tree of a content reply. Sibling order is
// preserved. Skipped items are returned alongside the tree; they never fail
// the parse.
func ParseContent(body []byte, r Resolver, dec snapshot.Decoder) (*snapshot.Tree, []Skip, error) {
	root, err := parseDocument(body)
	if err != nil {
		return nil, nil, err
	}
	b := &contentBuilder{
		tree:     snapshot.NewTree(),
		resolver: r,
		decoder:  dec,
	}
	b.build(snapshot.NoParent, root.children)
	return b.tree, b.skipped, nil
}

type contentBuilder struct {
	tree     *snapshot.Tree
	resolver Resolver
	decoder  snapshot.Decoder
	skipped  []Skip
}

// build adds the populated items among nodes under parent and returns how
// many were kept.
func (b *contentBuilder) build(parent int, nodes []*node) int {
	kept := 0
	for _, n := range nodes {
		if !isItem(n) {
			continue
		}
		id, _ := n.attr("id")
		name := label(n)
		valueNode := n.child("value")
		raw := ""
		if valueNode != nil {
			raw = valueNode.textContent()
		}

		def, ok := b.resolver.Lookup(name, raw)
		if !ok {
			b.skip(id, name, raw, ErrUnknownField)
			continue
		}

		if valueNode != nil {
			v, err := b.decoder.Decode(def, raw)
			if err != nil {
				b.skip(id, name, raw, err)
				continue
			}
			idx := b.tree.Add(parent, id, name, def)
			b.tree.SetRaw(idx, raw, v)
			kept++
			continue
		}

		idx := b.tree.Add(parent, id, name, def)
		if b.build(idx, n.children) == 0 {
			b.tree.Discard(idx)
			continue
		}
		kept++
	}
	return kept
}

func (b *contentBuilder) skip(id, name, raw string, err error) {
	b.skipped = append(b.skipped, Skip{NodeID: id, Label: name, Raw: raw, Err: err})
}
