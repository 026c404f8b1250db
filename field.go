// FILE: lixenwraith/reconf/field.go
package reconf

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Field declares a typed setting at a section:option coordinate. A Field holds
// no value; it is a resolution rule shared by every Settings that uses it.
type Field struct {
	section string
	option  string
	name    string
	kind    string

	read     func(f *Field, st *Store) (any, error)
	coerce   func(f *Field, raw string) (any, error)
	fallback func(s *Settings) (any, error)

	delimiter  string
	separator  string
	convert    func(string) (any, error)
	typeCheck  TypeCheck
	makeDirs   bool
	expandUser bool
}

// FieldOption configures a Field.
type FieldOption func(*Field)

// TypeCheck validates the shape of a parsed literal.
type TypeCheck func(v any) error

// WithSection sets the section explicitly; the coordinate is then used as the
// option name verbatim, colons included.
func WithSection(section string) FieldOption {
	return func(f *Field) { f.section = section }
}

// WithName sets the name the field is read by. Defaults to the option name.
func WithName(name string) FieldOption {
	return func(f *Field) { f.name = name }
}

// WithFallback supplies a value computed from the owning Settings when the
// coordinate is absent. It is not consulted for malformed values.
func WithFallback(fn func(s *Settings) (any, error)) FieldOption {
	return func(f *Field) { f.fallback = fn }
}

// Delimiter sets the separator used by DelimitedList. Defaults to "\n".
func Delimiter(delim string) FieldOption {
	return func(f *Field) { f.delimiter = delim }
}

// Separator sets the prefix/suffix separator used by List and Dict. Defaults to ".".
func Separator(sep string) FieldOption {
	return func(f *Field) { f.separator = sep }
}

// Convert applies fn to every item of a DelimitedList, List or Dict.
func Convert(fn func(string) (any, error)) FieldOption {
	return func(f *Field) { f.convert = fn }
}

// WithTypeCheck validates the parsed value of a Literal or JSON field.
func WithTypeCheck(check TypeCheck) FieldOption {
	return func(f *Field) { f.typeCheck = check }
}

// MakeDirs makes a Directory field create its directory tree.
func MakeDirs() FieldOption {
	return func(f *Field) { f.makeDirs = true }
}

// NoExpandUser disables "~" expansion for Directory and File fields.
func NoExpandUser() FieldOption {
	return func(f *Field) { f.expandUser = false }
}

func newField(kind, coord string, coerce func(*Field, string) (any, error), opts []FieldOption) *Field {
	f := &Field{
		kind:       kind,
		read:       readScalar,
		coerce:     coerce,
		delimiter:  "\n",
		separator:  ".",
		expandUser: true,
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.section == "" {
		if section, option, ok := strings.Cut(coord, ":"); ok {
			f.section, f.option = section, option
		} else {
			f.option = coord
		}
	} else {
		f.option = coord
	}
	f.option = optionKey(f.option)

	if f.name == "" {
		f.name = f.option
	}
	return f
}

// Section returns the section the field reads from.
func (f *Field) Section() string { return f.section }

// Option returns the option (or option prefix for collections).
func (f *Field) Option() string { return f.option }

// Name returns the name the field is read by.
func (f *Field) Name() string { return f.name }

// Kind returns a short description of the field type.
func (f *Field) Kind() string { return f.kind }

func (f *Field) String() string {
	return fmt.Sprintf("%s(%s:%s)", f.kind, f.section, f.option)
}

func (f *Field) invalid(raw string, err error) error {
	return &CoercionError{Section: f.section, Option: f.option, Value: raw, Kind: f.kind, Err: err}
}

func readScalar(f *Field, st *Store) (any, error) {
	raw, err := st.Get(f.section, f.option)
	if err != nil {
		return nil, err
	}
	return f.coerce(f, raw)
}

// Text declares a string setting.
func Text(coord string, opts ...FieldOption) *Field {
	return newField("text", coord, func(_ *Field, raw string) (any, error) {
		return raw, nil
	}, opts)
}

// Integer declares an int setting.
func Integer(coord string, opts ...FieldOption) *Field {
	return newField("integer", coord, func(f *Field, raw string) (any, error) {
		i, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, f.invalid(raw, err)
		}
		return i, nil
	}, opts)
}

// Float declares a float64 setting.
func Float(coord string, opts ...FieldOption) *Field {
	return newField("float", coord, func(f *Field, raw string) (any, error) {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, f.invalid(raw, err)
		}
		return v, nil
	}, opts)
}

// Boolean declares a bool setting. See ParseBool for accepted tokens.
func Boolean(coord string, opts ...FieldOption) *Field {
	return newField("boolean", coord, func(f *Field, raw string) (any, error) {
		b, err := ParseBool(raw)
		if err != nil {
			return nil, f.invalid(raw, err)
		}
		return b, nil
	}, opts)
}

// Directory declares a directory path setting. With MakeDirs the directory
// tree is created; an existing directory is not an error.
func Directory(coord string, opts ...FieldOption) *Field {
	return newField("directory", coord, func(f *Field, raw string) (any, error) {
		path := raw
		if f.expandUser {
			path = expandUser(path)
		}
		if f.makeDirs {
			if err := os.MkdirAll(path, 0o777); err != nil {
				return nil, err
			}
		}
		return path, nil
	}, opts)
}

// File declares a file path setting. The file is not opened.
func File(coord string, opts ...FieldOption) *Field {
	return newField("file", coord, func(f *Field, raw string) (any, error) {
		if f.expandUser {
			return expandUser(raw), nil
		}
		return raw, nil
	}, opts)
}

// DelimitedList declares a list read from a single option. Without Convert the
// value is a []string, with Convert it is a []any.
func DelimitedList(coord string, opts ...FieldOption) *Field {
	return newField("delimited list", coord, func(f *Field, raw string) (any, error) {
		items := strings.Split(raw, f.delimiter)
		if f.convert == nil {
			return items, nil
		}
		values := make([]any, len(items))
		for i, item := range items {
			v, err := f.convert(item)
			if err != nil {
				return nil, f.invalid(item, err)
			}
			values[i] = v
		}
		return values, nil
	}, opts)
}

// Literal declares a setting holding a structured literal: numbers, quoted
// strings, booleans, lists and mappings, e.g. {'key': 1} or [1, 2].
func Literal(coord string, opts ...FieldOption) *Field {
	return newField("literal", coord, func(f *Field, raw string) (any, error) {
		v, err := ParseLiteral(raw)
		if err != nil {
			return nil, f.invalid(raw, err)
		}
		return f.check(raw, v)
	}, opts)
}

// LiteralDict is a Literal that must be a mapping.
func LiteralDict(coord string, opts ...FieldOption) *Field {
	return Literal(coord, append([]FieldOption{WithTypeCheck(IsDict)}, opts...)...)
}

// LiteralList is a Literal that must be a list.
func LiteralList(coord string, opts ...FieldOption) *Field {
	return Literal(coord, append([]FieldOption{WithTypeCheck(IsList)}, opts...)...)
}

// JSON declares a setting holding a JSON document.
func JSON(coord string, opts ...FieldOption) *Field {
	return newField("json", coord, func(f *Field, raw string) (any, error) {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, f.invalid(raw, err)
		}
		return f.check(raw, v)
	}, opts)
}

// JSONArray is a JSON field that must be an array.
func JSONArray(coord string, opts ...FieldOption) *Field {
	return JSON(coord, append([]FieldOption{WithTypeCheck(IsList)}, opts...)...)
}

// JSONDict is a JSON field that must be an object.
func JSONDict(coord string, opts ...FieldOption) *Field {
	return JSON(coord, append([]FieldOption{WithTypeCheck(IsDict)}, opts...)...)
}

func (f *Field) check(raw string, v any) (any, error) {
	if f.typeCheck == nil {
		return v, nil
	}
	if err := f.typeCheck(v); err != nil {
		return nil, f.invalid(raw, err)
	}
	return v, nil
}

// IsDict accepts mappings.
func IsDict(v any) error {
	if v != nil && reflect.TypeOf(v).Kind() == reflect.Map {
		return nil
	}
	return fmt.Errorf("expected a mapping, got %T", v)
}

// IsList accepts lists.
func IsList(v any) error {
	if v != nil && reflect.TypeOf(v).Kind() == reflect.Slice {
		return nil
	}
	return fmt.Errorf("expected a list, got %T", v)
}

// ParseBool accepts 1/yes/true/on and 0/no/false/off, ignoring case.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "yes", "true", "on":
		return true, nil
	case "0", "no", "false", "off":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", s)
}

// ParseLiteral parses a structured literal: numbers, quoted strings, True,
// False, None, and lists, tuples and mappings of those. Tuples such as
// (1, 2) become lists. Bare words are rejected at any depth so that only
// quoted text yields a string.
func ParseLiteral(text string) (any, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, errors.New("empty literal")
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(tuplesAsLists(trimmed)), &doc); err != nil {
		return nil, fmt.Errorf("malformed literal: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 {
		return nil, fmt.Errorf("malformed literal: %q", trimmed)
	}
	if err := checkLiteral(doc.Content[0]); err != nil {
		return nil, err
	}

	var v any
	if err := doc.Content[0].Decode(&v); err != nil {
		return nil, fmt.Errorf("malformed literal: %w", err)
	}
	return v, nil
}

// tuplesAsLists rewrites parentheses outside quoted strings as brackets.
func tuplesAsLists(text string) string {
	if !strings.ContainsRune(text, '(') {
		return text
	}
	out := []byte(text)
	var quote byte
	for i := 0; i < len(out); i++ {
		c := out[i]
		switch {
		case quote != 0:
			if c == '\\' && quote == '"' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '(':
			out[i] = '['
		case c == ')':
			out[i] = ']'
		}
	}
	return string(out)
}

// checkLiteral rejects unquoted strings and aliases, and rewrites None to null.
func checkLiteral(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Style&(yaml.SingleQuotedStyle|yaml.DoubleQuotedStyle) != 0 || n.ShortTag() != "!!str" {
			return nil
		}
		if n.Value == "None" {
			n.Tag, n.Value = "", "null"
			return nil
		}
		return fmt.Errorf("%q is not a literal", n.Value)
	case yaml.SequenceNode, yaml.MappingNode:
		for _, child := range n.Content {
			if err := checkLiteral(child); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported literal construct in line %d", n.Line)
	}
}

// AsInt converts collection and list items to int.
func AsInt(s string) (any, error) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	return i, nil
}

// AsFloat converts collection and list items to float64.
func AsFloat(s string) (any, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// AsBool converts collection and list items with ParseBool.
func AsBool(s string) (any, error) {
	b, err := ParseBool(s)
	if err != nil {
		return nil, err
	}
	return b, nil
}
