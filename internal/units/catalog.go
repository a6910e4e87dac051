package units

import (
	"regexp"

	"github.com/muurk/luxws/internal/locale"
	"github.com/muurk/luxws/internal/logging"
	"go.uber.org/zap"
)

// match selects how a catalogue entry builds its disambiguation pattern.
type match int

const (
	matchNone match = iota
	// matchMarker selects values ending in the kind's marker ("12.5 bar").
	matchMarker
	// matchBinary selects values equal to one of the boolean literals.
	matchBinary
)

type entry struct {
	key   string
	id    string
	kind  Kind
	match match
}

func category(key, id string) entry { return entry{key: key, id: id, kind: KindNone} }

// catalog lists every field of the controller's information menu, grouped
// as the device groups them. Order matters: for shared labels the first
// entry is the fallback.
var catalog = []entry{
	category("temperature", "temperature"),
	{"temperature.flow", "flow", KindCelsius, matchNone},
	{"temperature.return_flow", "return_flow", KindCelsius, matchNone},
	{"temperature.return_flow_target", "return_flow_target", KindCelsius, matchNone},
	{"temperature.hot_gas", "hot_gas", KindCelsius, matchNone},
	{"temperature.outdoor", "outdoor", KindCelsius, matchNone},
	{"temperature.outdoor_avg", "outdoor_avg", KindCelsius, matchNone},
	{"temperature.domestic_hot_water", "domestic_hot_water", KindCelsius, matchNone},
	{"temperature.domestic_hot_water_target", "domestic_hot_water_target", KindCelsius, matchNone},
	{"temperature.heat_source_inlet", "heat_source_inlet", KindCelsius, matchNone},
	{"temperature.heat_source_out", "heat_source_out", KindCelsius, matchNone},
	{"temperature.flow_max", "flow_max", KindCelsius, matchNone},
	{"temperature.suction_compressor", "suction_compressor", KindCelsius, matchNone},
	{"temperature.compressor_heating", "compressor_heating", KindCelsius, matchMarker},
	{"temperature.overheating", "overheating", KindKelvin, matchNone},

	category("input", "input"),
	{"input.defrost_brine_flow", "defrost_brine_flow", KindBoolean, matchNone},
	{"input.supplier_off_time", "supplier_off_time", KindBoolean, matchNone},
	{"input.high_pressure_pressostat", "high_pressure_pressostat", KindBoolean, matchBinary},
	{"input.motor_protection", "motor_protection", KindBoolean, matchNone},
	{"input.high_pressure_sensor", "high_pressure_sensor", KindBar, matchMarker},
	{"input.low_pressure_sensor", "low_pressure_sensor", KindBar, matchNone},
	{"input.pump_flow", "pump_flow", KindLitresPerHour, matchNone},

	category("output", "output"),
	{"output.domestic_hot_water_pump", "domestic_hot_water_pump", KindBoolean, matchNone},
	{"output.floor_heating_pump", "floor_heating_pump", KindBoolean, matchNone},
	{"output.heating_pump", "heating_pump", KindBoolean, matchBinary},
	{"output.ventilator_well_brine_pump", "ventilator_well_brine_pump", KindBoolean, matchBinary},
	{"output.compressor", "compressor", KindBoolean, matchNone},
	{"output.circulation_pump", "circulation_pump", KindBoolean, matchNone},
	{"output.additional_circulation_pump", "additional_circulation_pump", KindBoolean, matchNone},
	{"output.additional_heating_generator_1", "additional_heating_generator_1", KindBoolean, matchNone},
	{"output.additional_heating_generator_2", "additional_heating_generator_2", KindBoolean, matchNone},
	{"output.compressor_heating", "compressor_heating", KindBoolean, matchBinary},
	{"output.compressor_speed_target", "compressor_speed_target", KindHertz, matchNone},
	{"output.compressor_speed", "compressor_speed", KindHertz, matchNone},
	{"output.ventilator_well_brine_pump_power", "ventilator_well_brine_pump_power", KindPercent, matchMarker},
	{"output.heating_pump_power", "heating_pump_power", KindPercent, matchMarker},

	category("timing", "timing"),
	{"timing.heat_pump_up", "heat_pump_up", KindHourMinuteSecond, matchNone},
	{"timing.additional_heating_1_up", "additional_heating_1_up", KindHourMinuteSecond, matchNone},
	{"timing.additional_heating_2_up", "additional_heating_2_up", KindHourMinuteSecond, matchNone},
	{"timing.net_input_delay", "net_input_delay", KindHourMinuteSecond, matchNone},
	{"timing.off_time_switching_cycle", "off_time_switching_cycle", KindHourMinuteSecond, matchNone},
	{"timing.compressor_down", "compressor_down", KindHourMinuteSecond, matchNone},
	{"timing.heating_control_more", "heating_control_more", KindHourMinuteSecond, matchNone},
	{"timing.heating_control_less", "heating_control_less", KindHourMinuteSecond, matchNone},
	{"timing.thermal_disinfection_up", "thermal_disinfection_up", KindHourMinuteSecond, matchNone},
	{"timing.domestic_hot_water_blockade", "domestic_hot_water_blockade", KindHourMinuteSecond, matchNone},
	{"timing.release_additional_heating", "release_additional_heating", KindHourMinuteSecond, matchNone},
	{"timing.release_cooling", "release_cooling", KindHourMinuteSecond, matchNone},

	category("operating_time", "operating_time"),
	{"operating_time.compressor_operating_hours", "compressor_operating_hours", KindHours, matchNone},
	{"operating_time.compressor_impulses", "compressor_impulses", KindInteger, matchNone},
	{"operating_time.compressor_avg_runtime", "compressor_avg_runtime", KindHourMinute, matchNone},
	{"operating_time.additional_heating_1_operating_hours", "additional_heating_1_operating_hours", KindHours, matchNone},
	{"operating_time.additional_heating_2_operating_hours", "additional_heating_2_operating_hours", KindHours, matchNone},
	{"operating_time.heat_pump_operating_hours", "heat_pump_operating_hours", KindHours, matchNone},
	{"operating_time.heating_operating_hours", "heating_operating_hours", KindHours, matchNone},
	{"operating_time.dhw_operating_hours", "dhw_operating_hours", KindHours, matchNone},

	category("status", "status"),
	{"status.heat_pump_type", "heat_pump_type", KindText, matchNone},
	{"status.software_version", "software_version", KindText, matchNone},
	{"status.processor_version", "processor_version", KindText, matchNone},
	{"status.io_version", "io_version", KindHTML, matchNone},
	{"status.interface_version", "interface_version", KindHTML, matchNone},
	{"status.inverter_version", "inverter_version", KindText, matchNone},
	{"status.bivalence_level", "bivalence_level", KindInteger, matchNone},
	{"status.mode", "mode", KindMode, matchNone},
	{"status.heating_capacity", "heating_capacity", KindKiloWatt, matchNone},

	category("monitor", "monitor"),
	category("monitor.heat_quantity", "heat_quantity"),
	{"monitor.heat_quantity.heating", "heating", KindKiloWattHour, matchNone},
	{"monitor.heat_quantity.domestic_hot_water", "domestic_hot_water", KindKiloWattHour, matchNone},
	{"monitor.heat_quantity.total", "total", KindKiloWattHour, matchNone},
	category("monitor.energy_input", "energy_input"),
	{"monitor.energy_input.heating", "heating", KindKiloWattHour, matchNone},
	{"monitor.energy_input.domestic_hot_water", "domestic_hot_water", KindKiloWattHour, matchNone},
	{"monitor.energy_input.total", "total", KindKiloWattHour, matchNone},
}

// NewRegistry builds the registry for the controller's field catalogue,
// translating every label through loc. Entries whose key is missing from
// the table are skipped.
func NewRegistry(loc locale.Lookup) (*Registry, error) {
	r := NewEmptyRegistry()
	off, _ := loc.Get(locale.KeyBinaryOff)
	on, _ := loc.Get(locale.KeyBinaryOn)

	for _, e := range catalog {
		label, ok := loc.Get(e.key)
		if !ok || label == "" {
			logging.Debug("Locale has no label for field, skipping",
				zap.String("key", e.key),
			)
			continue
		}

		switch {
		case e.kind == KindNone:
			r.AddCategory(label, e.id)
		case e.match == matchMarker:
			if err := r.AddMatching(label, e.id, e.kind, ".*"+regexp.QuoteMeta(e.kind.Marker())); err != nil {
				return nil, err
			}
		case e.match == matchBinary:
			if err := r.AddMatching(label, e.id, e.kind, regexp.QuoteMeta(off)+"|"+regexp.QuoteMeta(on)); err != nil {
				return nil, err
			}
		default:
			r.Add(label, e.id, e.kind)
		}
	}

	logging.Debug("Field registry built",
		zap.Int("definitions", r.Len()),
	)
	return r, nil
}
