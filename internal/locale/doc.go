// Package locale provides the translation tables used to recognise the
// controller's field labels.
//
// The controller reports every field by its localized display label (the
// same text its own web interface shows), so the label set depends on the
// language configured on the device. Tables are flat key/value YAML files
// embedded in the binary; a custom table can be loaded from disk for
// languages that are not bundled.
//
// Besides field labels, a table carries the two boolean literals
// (data.binary.0 / data.binary.1) and the ordered operating-mode list
// (data.mode.list, separated by ';').
package locale
