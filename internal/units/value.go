package units

import "strconv"

// Value is a decoded field value: numeric xor textual.
type Value struct {
	number  float64
	text    string
	textual bool
}

// Number returns a numeric Value.
func Number(n float64) Value {
	return Value{number: n}
}

// Text returns a textual Value.
func Text(s string) Value {
	return Value{text: s, textual: true}
}

// IsText reports whether the value is textual.
func (v Value) IsText() bool { return v.textual }

// Float returns the numeric value; zero for textual values.
func (v Value) Float() float64 { return v.number }

// String returns the textual value, or the number formatted without
// trailing zeros.
func (v Value) String() string {
	if v.textual {
		return v.text
	}
	return strconv.FormatFloat(v.number, 'f', -1, 64)
}
