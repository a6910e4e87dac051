package protocol

import "errors"

// ErrNoAddress is returned when a navigation reply names no data set.
var ErrNoAddress = errors.New("navigation reply carries no address")

// ParseNavigation returns the id of the first entry of the first
// Navigation element.
func ParseNavigation(body []byte) (string, error) {
	root, err := parseDocument(body)
	if err != nil {
		return "", err
	}
	nav := root.find("Navigation")
	if nav == nil || len(nav.children) == 0 {
		return "", ErrNoAddress
	}
	id, ok := nav.children[0].attr("id")
	if !ok || id == "" {
		return "", ErrNoAddress
	}
	return id, nil
}
