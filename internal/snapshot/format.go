package snapshot

import (
	"strconv"
	"strings"
)

func replaceDots(s string) string {
	return strings.ReplaceAll(s, ".", "/")
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// unitSuffix hides the markers that describe an encoding rather than a
// physical unit.
func unitSuffix(unit string) string {
	switch unit {
	case "", "mode", "text", "html", "integer", "boolean":
		return ""
	default:
		return " " + unit
	}
}
