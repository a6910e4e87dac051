// Package units identifies controller fields and decodes their values.
//
// A Registry maps the localized label the controller shows for a field to a
// FieldDefinition: the stable identifier reported to consumers and the Kind
// that governs decoding. The controller reuses some labels for unrelated
// fields (a pressure switch and a pressure sensor can both be labelled
// "HD"), so a label may carry several definitions; the raw value decides
// between them.
//
// Convert turns a raw string such as "21.5°C", "45%" or "01:02:03" into a
// Value. Failures are reported as ErrUnparseable and concern only the one
// item being decoded.
package units
