package units

import (
	"fmt"
	"regexp"
)

// FieldDefinition maps a localized label to the identifier and value kind
// reported to consumers. Pattern disambiguates labels the controller uses
// for more than one field; it must match the whole raw value.
type FieldDefinition struct {
	Label   string
	ID      string
	Kind    Kind
	Pattern *regexp.Regexp
}

// IsCategory reports whether the definition names a group rather than a value.
func (d FieldDefinition) IsCategory() bool {
	return d.Kind == KindNone
}

// Matches reports whether the raw value fits the definition's pattern.
// Definitions without a pattern never match.
func (d FieldDefinition) Matches(raw string) bool {
	return d.Pattern != nil && d.Pattern.MatchString(raw)
}

func (d FieldDefinition) String() string {
	return fmt.Sprintf("%s(%q -> %s)", d.Kind, d.Label, d.ID)
}

// Registry resolves labels to field definitions. It is built once and
// read-only afterwards, so it is safe for concurrent use.
type Registry struct {
	fields map[string][]FieldDefinition
	size   int
}

// NewEmptyRegistry returns a registry without definitions.
func NewEmptyRegistry() *Registry {
	return &Registry{fields: make(map[string][]FieldDefinition)}
}

// AddCategory registers a group label.
func (r *Registry) AddCategory(label, id string) {
	r.add(FieldDefinition{Label: label, ID: id, Kind: KindNone})
}

// Add registers a value label without a disambiguation pattern.
func (r *Registry) Add(label, id string, kind Kind) {
	r.add(FieldDefinition{Label: label, ID: id, Kind: kind})
}

// AddMatching registers a value label that is selected when pattern matches
// the whole raw value.
func (r *Registry) AddMatching(label, id string, kind Kind, pattern string) error {
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return fmt.Errorf("invalid pattern for %q: %w", label, err)
	}
	r.add(FieldDefinition{Label: label, ID: id, Kind: kind, Pattern: re})
	return nil
}

func (r *Registry) add(def FieldDefinition) {
	r.fields[def.Label] = append(r.fields[def.Label], def)
	r.size++
}

// Lookup returns the definition for label. When several definitions share
// the label, the first one whose pattern matches hint wins; if none
// matches, the first registered one is returned. ok is false for unknown
// labels.
func (r *Registry) Lookup(label, hint string) (FieldDefinition, bool) {
	candidates := r.fields[label]
	switch len(candidates) {
	case 0:
		return FieldDefinition{}, false
	case 1:
		return candidates[0], true
	}
	for _, def := range candidates {
		if def.Matches(hint) {
			return def, true
		}
	}
	return candidates[0], true
}

// Candidates returns all definitions registered for label in registration order.
func (r *Registry) Candidates(label string) []FieldDefinition {
	return append([]FieldDefinition(nil), r.fields[label]...)
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	return r.size
}
