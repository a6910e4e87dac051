package locale

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Well-known keys used when decoding values rather than labels.
const (
	KeyBinaryOff = "data.binary.0"
	KeyBinaryOn  = "data.binary.1"
	KeyModeList  = "data.mode.list"

	// DefaultLanguage is used when no language is configured.
	DefaultLanguage = "de"

	modeSeparator = ";"
)

// ErrUnknownLanguage is returned by Load for a language without a bundled table.
var ErrUnknownLanguage = errors.New("unknown language")

//go:embed tables/*.yaml
var tables embed.FS

// Lookup resolves a translation key to its localized text.
type Lookup interface {
	Get(key string) (string, bool)
}

// Table is a flat translation table.
type Table map[string]string

// Get implements Lookup.
func (t Table) Get(key string) (string, bool) {
	v, ok := t[key]
	return v, ok
}

// Load returns the bundled table for a language tag such as "de" or "en-GB".
// Region subtags fall back to the base language.
func Load(language string) (Table, error) {
	if language == "" {
		language = DefaultLanguage
	}
	tag := strings.ToLower(language)
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		tag = tag[:i]
	}

	data, err := tables.ReadFile("tables/" + tag + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("%w: %s (available: %s)", ErrUnknownLanguage, language, strings.Join(Languages(), ", "))
	}
	return parse(data)
}

// LoadFile reads a table from a YAML file on disk.
func LoadFile(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read locale file: %w", err)
	}
	return parse(data)
}

// Languages lists the bundled language tags.
func Languages() []string {
	entries, err := tables.ReadDir("tables")
	if err != nil {
		return nil
	}
	langs := make([]string, 0, len(entries))
	for _, e := range entries {
		langs = append(langs, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(langs)
	return langs
}

func parse(data []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse locale table: %w", err)
	}
	if t == nil {
		t = Table{}
	}
	return t, nil
}

// Modes splits the operating-mode list into its trimmed entries.
// The position of an entry is the numeric mode value.
func Modes(l Lookup) []string {
	raw, ok := l.Get(KeyModeList)
	if !ok || raw == "" {
		return nil
	}
	parts := strings.Split(raw, modeSeparator)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
