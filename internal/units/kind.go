package units

import "fmt"

// Kind is the value encoding of a field. The set is closed: every switch
// over Kind in this package is exhaustive.
type Kind int

const (
	// KindNone marks category definitions, which never carry a value.
	KindNone Kind = iota
	KindMode
	KindText
	KindHTML
	KindInteger
	KindPercent
	KindCelsius
	KindHertz
	KindKelvin
	KindHourMinute
	KindHourMinuteSecond
	KindHours
	KindBar
	KindBoolean
	KindLitresPerHour
	KindKiloWatt
	KindKiloWattHour
)

// Numeric reports whether values of this kind decode to a number.
func (k Kind) Numeric() bool {
	switch k {
	case KindText, KindHTML, KindNone:
		return false
	default:
		return true
	}
}

// Marker is the unit suffix the controller appends to raw values. It is
// also reported to consumers as the item's unit.
func (k Kind) Marker() string {
	switch k {
	case KindNone:
		return ""
	case KindMode:
		return "mode"
	case KindText:
		return "text"
	case KindHTML:
		return "html"
	case KindInteger:
		return "integer"
	case KindPercent:
		return "%"
	case KindCelsius:
		return "°C"
	case KindHertz:
		return "Hz"
	case KindKelvin:
		return "K"
	case KindHourMinute, KindHourMinuteSecond:
		return "s"
	case KindHours:
		return "h"
	case KindBar:
		return "bar"
	case KindBoolean:
		return "boolean"
	case KindLitresPerHour:
		return "l/h"
	case KindKiloWatt:
		return "kW"
	case KindKiloWattHour:
		return "kWh"
	default:
		return ""
	}
}

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindMode:
		return "mode"
	case KindText:
		return "text"
	case KindHTML:
		return "html"
	case KindInteger:
		return "integer"
	case KindPercent:
		return "percent"
	case KindCelsius:
		return "celsius"
	case KindHertz:
		return "hertz"
	case KindKelvin:
		return "kelvin"
	case KindHourMinute:
		return "hour_minute"
	case KindHourMinuteSecond:
		return "hour_minute_second"
	case KindHours:
		return "hours"
	case KindBar:
		return "bar"
	case KindBoolean:
		return "boolean"
	case KindLitresPerHour:
		return "litres_per_hour"
	case KindKiloWatt:
		return "kilowatt"
	case KindKiloWattHour:
		return "kilowatt_hour"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}
