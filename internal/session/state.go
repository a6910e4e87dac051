package session

import "fmt"

// State is the protocol state of a session.
type State int

const (
	// StateNew has no connection; the next drive dials.
	StateNew State = iota
	// StateOpen is connected but not logged in.
	StateOpen
	// StateLoggedIn knows the data set address but has no content yet.
	StateLoggedIn
	// StateDataSelected has published a snapshot and refreshes it.
	StateDataSelected
	// StateError waits out the cooldown after repeated transport failures.
	StateError
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateOpen:
		return "OPEN"
	case StateLoggedIn:
		return "LOGGED_IN"
	case StateDataSelected:
		return "DATA_SELECTED"
	case StateError:
		return "ERROR"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
