package units

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/muurk/luxws/internal/locale"
)

// ErrUnparseable is returned when a raw value does not match its kind's
// encoding. It concerns a single item only.
var ErrUnparseable = errors.New("unparseable value")

const (
	// noFlow is what the controller shows for a stopped flow meter.
	noFlow = "---"

	defaultMode = 0
)

var markupTag = regexp.MustCompile(`<.*?>`)

// Convert decodes a raw device string according to kind. Boolean and mode
// values are matched against the localized literals from loc.
func Convert(kind Kind, raw string, loc locale.Lookup) (Value, error) {
	switch kind {
	case KindText:
		return Text(raw), nil
	case KindHTML:
		return Text(strings.TrimSpace(markupTag.ReplaceAllString(raw, ""))), nil
	case KindMode:
		return Number(float64(modeIndex(raw, loc))), nil
	case KindBoolean:
		on, _ := loc.Get(locale.KeyBinaryOn)
		if raw == on {
			return Number(1), nil
		}
		return Number(0), nil
	case KindHourMinute:
		return parseClock(kind, raw)
	case KindHourMinuteSecond:
		return parseDuration(kind, raw)
	case KindLitresPerHour:
		s := strip(kind, raw)
		if s == noFlow {
			return Number(0), nil
		}
		return parseInt(kind, raw, s)
	case KindInteger, KindPercent, KindHertz, KindHours:
		return parseInt(kind, raw, strip(kind, raw))
	case KindCelsius, KindKelvin, KindBar, KindKiloWatt, KindKiloWattHour:
		return parseFloat(kind, raw, strip(kind, raw))
	case KindNone:
		return Value{}, fmt.Errorf("%w: category fields carry no value", ErrUnparseable)
	default:
		return Value{}, fmt.Errorf("%w: unknown kind %s", ErrUnparseable, kind)
	}
}

func strip(kind Kind, raw string) string {
	return strings.TrimSpace(strings.ReplaceAll(raw, kind.Marker(), ""))
}

func parseInt(kind Kind, raw, s string) (Value, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return Value{}, unparseable(kind, raw)
	}
	return Number(float64(n)), nil
}

func parseFloat(kind Kind, raw, s string) (Value, error) {
	// Only plain decimal numbers; ParseFloat also takes hex, NaN and Inf.
	if strings.ContainsAny(s, "xXpP_") {
		return Value{}, unparseable(kind, raw)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, unparseable(kind, raw)
	}
	return Number(f), nil
}

// parseDuration reads an "h:m:s" counter into total seconds. Hours are not
// bounded to a day.
func parseDuration(kind Kind, raw string) (Value, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 3 {
		return Value{}, unparseable(kind, raw)
	}
	var total int
	for i, weight := range []int{3600, 60, 1} {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return Value{}, unparseable(kind, raw)
		}
		total += n * weight
	}
	return Number(float64(total)), nil
}

// parseClock reads a wall-clock time and returns the seconds since midnight.
func parseClock(kind Kind, raw string) (Value, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range []string{"15:04", "15:04:05"} {
		t, err := time.Parse(layout, s)
		if err == nil {
			return Number(float64(t.Hour()*3600 + t.Minute()*60 + t.Second())), nil
		}
	}
	return Value{}, unparseable(kind, raw)
}

func modeIndex(raw string, loc locale.Lookup) int {
	for i, mode := range locale.Modes(loc) {
		if mode == raw {
			return i
		}
	}
	return defaultMode
}

func unparseable(kind Kind, raw string) error {
	return fmt.Errorf("%w: %q is not a valid %s", ErrUnparseable, raw, kind)
}

// Converter decodes values for a fixed locale.
type Converter struct {
	Locale locale.Lookup
}

// Decode converts raw using the definition's kind.
func (c Converter) Decode(def FieldDefinition, raw string) (Value, error) {
	return Convert(def.Kind, raw, c.Locale)
}
