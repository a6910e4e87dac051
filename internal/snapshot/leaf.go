package snapshot

// Leaf is the flattened, serializable form of a leaf item. Exactly one of
// Textual and Numeric is set.
type Leaf struct {
	ID       string   `json:"id"`
	Category string   `json:"category"`
	Name     string   `json:"name"`
	Unit     string   `json:"unit"`
	Textual  *string  `json:"textual,omitempty"`
	Numeric  *float64 `json:"numeric,omitempty"`
}

// Flatten returns all leaves depth-first, left to right.
func (t *Tree) Flatten() []Leaf {
	idxs := t.Leaves()
	out := make([]Leaf, 0, len(idxs))
	for _, idx := range idxs {
		it := t.items[idx]
		l := Leaf{
			ID:       it.Def.ID,
			Category: t.Category(idx),
			Name:     it.Name,
			Unit:     it.Def.Kind.Marker(),
		}
		if it.Value.IsText() {
			s := it.Value.String()
			l.Textual = &s
		} else {
			f := it.Value.Float()
			l.Numeric = &f
		}
		out = append(out, l)
	}
	return out
}

// Topic returns the leaf's category and id joined with "/", suitable as a
// message topic suffix.
func (l Leaf) Topic() string {
	if l.Category == "" {
		return l.ID
	}
	return replaceDots(l.Category) + "/" + l.ID
}

// Key returns the leaf's fully qualified dotted identifier.
func (l Leaf) Key() string {
	if l.Category == "" {
		return l.ID
	}
	return l.Category + "." + l.ID
}

// Display formats the value with its unit for humans.
func (l Leaf) Display() string {
	switch {
	case l.Textual != nil:
		return *l.Textual
	case l.Numeric != nil:
		return formatNumber(*l.Numeric) + unitSuffix(l.Unit)
	default:
		return ""
	}
}
