// File: lixenwraith/reconf/helper.go
package reconf

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// writeSection renders one section as configuration text. Embedded newlines
// become indented continuation lines.
func writeSection(buf *bytes.Buffer, section string, options []string, values map[string]string) {
	buf.WriteString("[" + section + "]\n")
	for _, option := range options {
		value := strings.ReplaceAll(values[option], "\n", "\n\t")
		buf.WriteString(option + " = " + value + "\n")
	}
	buf.WriteString("\n")
}

// sortedKeys returns the keys of m in lexical order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// expandUser replaces a leading "~" with the current user's home directory.
// The path is returned unchanged if the home directory is unknown.
func expandUser(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// flattenMap converts nested tables to dot-joined section names. Scalars
// directly under a table stay in that table.
func flattenMap(nested map[string]any, prefix string, out map[string]map[string]any) {
	for key, value := range nested {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		if sub, isMap := value.(map[string]any); isMap {
			flattenMap(sub, path, out)
			continue
		}

		table := prefix
		if table == "" {
			table = "DEFAULT"
		}
		if out[table] == nil {
			out[table] = make(map[string]any)
		}
		out[table][key] = value
	}
}

// isDigits reports whether s is a non-empty run of ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
