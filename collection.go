// FILE: lixenwraith/reconf/collection.go
package reconf

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// List declares a list assembled from options named prefix<sep><n>. Only
// purely numeric suffixes take part and values are ordered by their numeric
// value; options with any other suffix are ignored. The result is a []any.
func List(coord string, opts ...FieldOption) *Field {
	f := newField("list", coord, nil, opts)
	f.read = readList
	return f
}

// Dict declares a mapping assembled from options named prefix<sep><key>,
// keyed by suffix. The result is a map[string]any.
func Dict(coord string, opts ...FieldOption) *Field {
	f := newField("dict", coord, nil, opts)
	f.read = readDict
	return f
}

type member struct {
	option string
	suffix string
	raw    string
}

// members returns every option of the field's section matching the
// prefix and separator, in store order, with substitution applied.
func (f *Field) members(st *Store) ([]member, error) {
	options, err := st.Options(f.section)
	if err != nil {
		return nil, err
	}

	prefix := f.option + f.separator
	var found []member
	for _, option := range options {
		suffix, ok := strings.CutPrefix(option, prefix)
		if !ok || suffix == "" {
			continue
		}
		raw, err := st.Get(f.section, option)
		if err != nil {
			return nil, err
		}
		found = append(found, member{option: option, suffix: suffix, raw: raw})
	}

	if len(found) == 0 {
		return nil, &OptionNotFoundError{Section: f.section, Option: prefix + "*"}
	}
	return found, nil
}

// value applies the field's conversion to a member.
func (f *Field) value(m member) (any, error) {
	if f.convert == nil {
		return m.raw, nil
	}
	v, err := f.convert(m.raw)
	if err != nil {
		return nil, &CoercionError{Section: f.section, Option: m.option, Value: m.raw, Kind: f.kind, Err: err}
	}
	return v, nil
}

func readList(f *Field, st *Store) (any, error) {
	found, err := f.members(st)
	if err != nil {
		return nil, err
	}

	type indexed struct {
		n int
		m member
	}
	items := make([]indexed, 0, len(found))
	for _, m := range found {
		if !isDigits(m.suffix) {
			continue
		}
		n, err := strconv.Atoi(m.suffix)
		if err != nil {
			continue
		}
		items = append(items, indexed{n: n, m: m})
	}
	slices.SortStableFunc(items, func(a, b indexed) int {
		return cmp.Compare(a.n, b.n)
	})

	// Only numbered members are converted
	values := make([]any, len(items))
	for i, item := range items {
		if values[i], err = f.value(item.m); err != nil {
			return nil, err
		}
	}
	return values, nil
}

func readDict(f *Field, st *Store) (any, error) {
	found, err := f.members(st)
	if err != nil {
		return nil, err
	}

	values := make(map[string]any, len(found))
	for _, m := range found {
		v, err := f.value(m)
		if err != nil {
			return nil, err
		}
		values[m.suffix] = v
	}
	return values, nil
}
