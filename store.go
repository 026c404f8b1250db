// FILE: lixenwraith/reconf/store.go
package reconf

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"gopkg.in/ini.v1"
)

// maxInterpolationDepth bounds nested %(name)s references.
const maxInterpolationDepth = 10

// loadOptions keeps the parser close to the classic section/option dialect:
// quotes are part of the value, inline comments need leading whitespace and
// indented lines continue the previous value.
var loadOptions = ini.LoadOptions{
	PreserveSurroundedQuote:    true,
	SpaceBeforeInlineComment:   true,
	AllowPythonMultilineValues: true,
}

// Store is the merged section -> option -> value table built from all sources.
// A Store is never modified after Registry.Build returns it.
type Store struct {
	sections     map[string]map[string]string
	sectionOrder []string
	optionOrder  map[string][]string
	defaults     map[string]string
}

func newStore(defaults map[string]string) *Store {
	return &Store{
		sections:    make(map[string]map[string]string),
		optionOrder: make(map[string][]string),
		defaults:    maps.Clone(defaults),
	}
}

// merge parses one stream and overlays it on the store.
func (s *Store) merge(r io.Reader, label string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	if line, ok := optionBeforeHeader(data); ok {
		return fmt.Errorf("%w in '%s': %q", ErrMissingSectionHeader, label, line)
	}
	file, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		return fmt.Errorf("failed to parse configuration '%s': %w", label, err)
	}

	for _, section := range file.Sections() {
		name := section.Name()
		if name == ini.DefaultSection {
			for _, key := range section.Keys() {
				s.defaults[optionKey(key.Name())] = joinContinuations(key.Value())
			}
			continue
		}
		s.addSection(name)
		for _, key := range section.Keys() {
			s.set(name, key.Name(), joinContinuations(key.Value()))
		}
	}
	return nil
}

// joinContinuations strips the indentation the parser keeps on continuation lines.
func joinContinuations(value string) string {
	if !strings.Contains(value, "\n") {
		return value
	}
	lines := strings.Split(value, "\n")
	for i := 1; i < len(lines); i++ {
		lines[i] = strings.TrimLeft(lines[i], " \t\f")
	}
	return strings.Join(lines, "\n")
}

// optionBeforeHeader returns the first line that is neither blank nor a
// comment and appears before any section header.
func optionBeforeHeader(data []byte) (string, bool) {
	for line := range strings.Lines(string(data)) {
		line = strings.TrimSpace(line)
		switch {
		case line == "", line[0] == '#', line[0] == ';':
			continue
		case line[0] == '[':
			return "", false
		default:
			return line, true
		}
	}
	return "", false
}

func (s *Store) addSection(section string) {
	if _, exists := s.sections[section]; !exists {
		s.sections[section] = make(map[string]string)
		s.sectionOrder = append(s.sectionOrder, section)
	}
}

func (s *Store) set(section, option, value string) {
	s.addSection(section)
	option = optionKey(option)
	if _, exists := s.sections[section][option]; !exists {
		s.optionOrder[section] = append(s.optionOrder[section], option)
	}
	s.sections[section][option] = value
}

// optionKey normalizes option names, which are case-insensitive.
func optionKey(option string) string {
	return strings.ToLower(strings.TrimSpace(option))
}

// Sections returns section names in the order they were first seen.
func (s *Store) Sections() []string {
	return slices.Clone(s.sectionOrder)
}

// HasSection reports whether section exists.
func (s *Store) HasSection(section string) bool {
	_, exists := s.sections[section]
	return exists
}

// HasOption reports whether option resolves in section, including defaults.
func (s *Store) HasOption(section, option string) bool {
	values, exists := s.sections[section]
	if !exists {
		return false
	}
	option = optionKey(option)
	if _, ok := values[option]; ok {
		return true
	}
	_, ok := s.defaults[option]
	return ok
}

// Options returns the options set in section, without defaults.
func (s *Store) Options(section string) ([]string, error) {
	if !s.HasSection(section) {
		return nil, &SectionNotFoundError{Section: section}
	}
	return slices.Clone(s.optionOrder[section]), nil
}

// Defaults returns a copy of the defaults mapping.
func (s *Store) Defaults() map[string]string {
	return maps.Clone(s.defaults)
}

// Raw returns the value of option in section without substitution.
func (s *Store) Raw(section, option string) (string, error) {
	values, exists := s.sections[section]
	if !exists {
		return "", &SectionNotFoundError{Section: section}
	}
	key := optionKey(option)
	if value, ok := values[key]; ok {
		return value, nil
	}
	if value, ok := s.defaults[key]; ok {
		return value, nil
	}
	return "", &OptionNotFoundError{Section: section, Option: key}
}

// Get returns the value of option in section with %(name)s references
// replaced by other options of the section or defaults.
func (s *Store) Get(section, option string) (string, error) {
	raw, err := s.Raw(section, option)
	if err != nil {
		return "", err
	}
	return s.interpolate(section, optionKey(option), raw, 1)
}

// Items returns every option of section, defaults included, with substitution applied.
func (s *Store) Items(section string) (map[string]string, error) {
	if !s.HasSection(section) {
		return nil, &SectionNotFoundError{Section: section}
	}
	result := make(map[string]string, len(s.defaults)+len(s.sections[section]))
	for option := range s.defaults {
		value, err := s.Get(section, option)
		if err != nil {
			return nil, err
		}
		result[option] = value
	}
	for _, option := range s.optionOrder[section] {
		value, err := s.Get(section, option)
		if err != nil {
			return nil, err
		}
		result[option] = value
	}
	return result, nil
}

func (s *Store) interpolate(section, option, value string, depth int) (string, error) {
	if !strings.Contains(value, "%") {
		return value, nil
	}
	if depth > maxInterpolationDepth {
		return "", fmt.Errorf("%w: %s:%s exceeds depth %d", ErrInterpolation, section, option, maxInterpolationDepth)
	}

	var b strings.Builder
	rest := value
	for {
		i := strings.IndexByte(rest, '%')
		if i < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:i])
		rest = rest[i:]

		switch {
		case strings.HasPrefix(rest, "%%"):
			b.WriteByte('%')
			rest = rest[2:]
		case strings.HasPrefix(rest, "%("):
			end := strings.Index(rest, ")s")
			if end < 0 {
				return "", fmt.Errorf("%w: bad reference in %s:%s: %q", ErrInterpolation, section, option, value)
			}
			name := optionKey(rest[2:end])
			raw, err := s.Raw(section, name)
			if err != nil {
				return "", fmt.Errorf("%w: %s:%s references missing option %q", ErrInterpolation, section, option, name)
			}
			sub, err := s.interpolate(section, name, raw, depth+1)
			if err != nil {
				return "", err
			}
			b.WriteString(sub)
			rest = rest[end+2:]
		default:
			// A lone '%' is kept literally
			b.WriteByte('%')
			rest = rest[1:]
		}
	}
	return b.String(), nil
}

// Scan decodes the options of section, defaults included, into target.
func (s *Store) Scan(section string, target any) error {
	items, err := s.Items(section)
	if err != nil {
		return err
	}
	input := make(map[string]any, len(items))
	for k, v := range items {
		input[k] = v
	}
	if err := decodeInto(input, target); err != nil {
		return fmt.Errorf("failed to scan section %q into %T: %w", section, target, err)
	}
	return nil
}
