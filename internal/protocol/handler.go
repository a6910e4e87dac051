package protocol

import (
	"errors"
	"fmt"

	"github.com/muurk/luxws/internal/snapshot"
)

// Message is a parsed controller reply.
type Message interface {
	Kind() MessageKind
}

// NavigationMessage answers a login.
type NavigationMessage struct {
	Address string
}

func (NavigationMessage) Kind() MessageKind { return KindNavigation }

// ContentMessage answers a data set selection.
type ContentMessage struct {
	Tree    *snapshot.Tree
	Skipped []Skip
}

func (ContentMessage) Kind() MessageKind { return KindContent }

// ValuesMessage answers a refresh.
type ValuesMessage struct {
	Updates map[string]string
}

func (ValuesMessage) Kind() MessageKind { return KindValues }

// UnknownMessage is any other reply. Such replies are ignored.
type UnknownMessage struct {
	Length int
}

func (UnknownMessage) Kind() MessageKind { return KindUnknown }

// Decode classifies body and parses it. A navigation reply without an
// address is returned as a NavigationMessage with an empty Address.
func Decode(body []byte, r Resolver, dec snapshot.Decoder) (Message, error) {
	switch kind := Classify(body); kind {
	case KindNavigation:
		addr, err := ParseNavigation(body)
		if err != nil && !errors.Is(err, ErrNoAddress) {
			return nil, fmt.Errorf("parse %s: %w", kind, err)
		}
		return NavigationMessage{Address: addr}, nil
	case KindContent:
		tree, skipped, err := ParseContent(body, r, dec)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", kind, err)
		}
		return ContentMessage{Tree: tree, Skipped: skipped}, nil
	case KindValues:
		updates, err := ParseValues(body)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", kind, err)
		}
		return ValuesMessage{Updates: updates}, nil
	default:
		return UnknownMessage{Length: len(body)}, nil
	}
}
