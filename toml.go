// FILE: lixenwraith/reconf/toml.go
package reconf

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// TOMLSource reads a TOML installation file. Each table becomes a section
// (nested tables are joined with '.'), top-level keys become defaults and
// arrays are rendered as literals readable by Literal fields.
type TOMLSource struct {
	path string
}

// NewTOMLSource creates a standard-ranked source for a TOML file.
func NewTOMLSource(path string) *TOMLSource {
	return &TOMLSource{path: path}
}

func (s *TOMLSource) Rank() Rank         { return RankStandard }
func (s *TOMLSource) Identity() Identity { return Identity{Kind: "toml", Name: s.path} }

func (s *TOMLSource) Materialize(fn StreamFunc) error {
	data, err := os.ReadFile(expandUser(s.path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	nested := make(map[string]any)
	if err := toml.Unmarshal(data, &nested); err != nil {
		return fmt.Errorf("failed to parse TOML config file '%s': %w", s.path, err)
	}

	tables := make(map[string]map[string]any)
	flattenMap(nested, "", tables)

	var buf bytes.Buffer
	if defaults, ok := tables["DEFAULT"]; ok {
		if err := writeTable(&buf, "DEFAULT", defaults); err != nil {
			return err
		}
	}
	for _, name := range sortedKeys(tables) {
		if name == "DEFAULT" {
			continue
		}
		if err := writeTable(&buf, name, tables[name]); err != nil {
			return err
		}
	}
	return fn(&buf, s.path)
}

func writeTable(buf *bytes.Buffer, name string, table map[string]any) error {
	values := make(map[string]string, len(table))
	for key, value := range table {
		text, err := tomlValueString(value)
		if err != nil {
			return fmt.Errorf("table %q key %q: %w", name, key, err)
		}
		values[key] = text
	}
	writeSection(buf, name, sortedKeys(values), values)
	return nil
}

// tomlValueString converts a decoded TOML value to its option text.
func tomlValueString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case time.Time:
		// Local values carry a marker location and no offset
		switch v.Location().String() {
		case "date-local":
			return v.Format(time.DateOnly), nil
		case "time-local":
			return v.Format("15:04:05.999999999"), nil
		case "datetime-local":
			return v.Format("2006-01-02T15:04:05.999999999"), nil
		}
		return v.Format(time.RFC3339Nano), nil
	default:
		// Arrays and inline tables
		data, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("unsupported TOML value of type %T: %w", value, err)
		}
		return string(data), nil
	}
}
