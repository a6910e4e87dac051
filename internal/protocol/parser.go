package protocol

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMalformed is returned when a reply is not well-formed XML.
var ErrMalformed = errors.New("malformed message")

// MessageKind identifies a reply by its root element.
type MessageKind int

const (
	KindUnknown MessageKind = iota
	KindNavigation
	KindContent
	KindValues
)

func (k MessageKind) String() string {
	switch k {
	case KindNavigation:
		return "navigation"
	case KindContent:
		return "content"
	case KindValues:
		return "values"
	default:
		return "unknown"
	}
}

var rootTags = []struct {
	prefix string
	kind   MessageKind
}{
	{"<Navigation", KindNavigation},
	{"<Content", KindContent},
	{"<values", KindValues},
}

// Classify inspects the opening tag of body. Leading whitespace and an XML
// declaration are ignored.
func Classify(body []byte) MessageKind {
	b := bytes.TrimLeft(body, " \t\r\n")
	if bytes.HasPrefix(b, []byte("<?xml")) {
		end := bytes.Index(b, []byte("?>"))
		if end < 0 {
			return KindUnknown
		}
		b = bytes.TrimLeft(b[end+2:], " \t\r\n")
	}
	for _, t := range rootTags {
		if bytes.HasPrefix(b, []byte(t.prefix)) {
			return t.kind
		}
	}
	return KindUnknown
}

// node is a minimal element tree. Character data is concatenated per
// element; its position relative to child elements is not kept.
type node struct {
	name     string
	attrs    []xml.Attr
	children []*node
	text     strings.Builder
}

func (n *node) attr(name string) (string, bool) {
	for _, a := range n.attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (n *node) child(name string) *node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// textContent returns the character data of n and all its descendants in
// document order.
func (n *node) textContent() string {
	if len(n.children) == 0 {
		return n.text.String()
	}
	var sb strings.Builder
	n.collect(&sb)
	return sb.String()
}

func (n *node) collect(sb *strings.Builder) {
	sb.WriteString(n.text.String())
	for _, c := range n.children {
		c.collect(sb)
	}
}

// find returns the first element named name in document order.
func (n *node) find(name string) *node {
	if n.name == name {
		return n
	}
	for _, c := range n.children {
		if f := c.find(name); f != nil {
			return f
		}
	}
	return nil
}

// parseDocument decodes body into an element tree and returns its root.
func parseDocument(body []byte) (*node, error) {
	d := xml.NewDecoder(bytes.NewReader(body))
	d.Strict = true
	d.Entity = xml.HTMLEntity
	// Replies are already text frames; any declared charset is taken as is.
	d.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	var (
		root  *node
		stack []*node
	)
	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{name: t.Name.Local, attrs: t.Copy().Attr}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("%w: multiple root elements", ErrMalformed)
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrMalformed)
	}
	return root, nil
}

// isItem reports whether n is an item the controller considers populated.
func isItem(n *node) bool {
	return n.name == "item" && len(n.children) > 0
}

// label returns the item's display name: the text of its name element, or
// of its first child element when there is none.
func label(n *node) string {
	if c := n.child("name"); c != nil {
		return strings.TrimSpace(c.textContent())
	}
	return strings.TrimSpace(n.children[0].textContent())
}
