// File: lixenwraith/reconf/io.go
package reconf

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// WriteTo writes the store as configuration text, defaults first as a
// [DEFAULT] section. Values are written raw so the output reads back into an
// identical store.
func (s *Store) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	if len(s.defaults) > 0 {
		writeSection(&buf, "DEFAULT", sortedKeys(s.defaults), s.defaults)
	}
	for _, section := range s.sectionOrder {
		writeSection(&buf, section, s.optionOrder[section], s.sections[section])
	}
	return buf.WriteTo(w)
}

// EncodeTOML writes the store as TOML, one table per section, with
// substitution applied to every value.
func (s *Store) EncodeTOML(w io.Writer) error {
	nested := make(map[string]any, len(s.sections))
	for _, section := range s.sectionOrder {
		items, err := s.Items(section)
		if err != nil {
			return err
		}
		nested[section] = items
	}

	encoder := toml.NewEncoder(w)
	if err := encoder.Encode(nested); err != nil {
		return fmt.Errorf("failed to marshal configuration to TOML: %w", err)
	}
	return nil
}

// Save writes the store to path atomically.
func (s *Store) Save(path string) error {
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	return atomicWriteFile(path, buf.Bytes())
}

// atomicWriteFile performs atomic file write
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	tempPath := tempFile.Name()
	defer os.Remove(tempPath) // Clean up on any error

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}
