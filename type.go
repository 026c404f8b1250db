// File: lixenwraith/reconf/type.go
package reconf

import (
	"fmt"
	"reflect"
)

// Value resolves the field called name and asserts its type.
func Value[T any](s *Settings, name string) (T, error) {
	var zero T
	v, err := s.Get(name)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("field %q holds %T, not %T", name, v, zero)
	}
	return t, nil
}

// String resolves a field and returns it as a string.
func (s *Settings) String(name string) (string, error) {
	v, err := s.Get(name)
	if err != nil {
		return "", err
	}
	switch val := v.(type) {
	case string:
		return val, nil
	case fmt.Stringer:
		return val.String(), nil
	case nil:
		return "", nil
	default:
		return fmt.Sprintf("%v", val), nil
	}
}

// Int resolves a field and returns it as an int. Any integer or float type is accepted.
func (s *Settings) Int(name string) (int, error) {
	v, err := s.Get(name)
	if err != nil {
		return 0, err
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return int(rv.Float()), nil
	}
	return 0, fmt.Errorf("field %q: cannot convert type %T to int", name, v)
}

// Float resolves a field and returns it as a float64.
func (s *Settings) Float(name string) (float64, error) {
	v, err := s.Get(name)
	if err != nil {
		return 0, err
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	}
	return 0, fmt.Errorf("field %q: cannot convert type %T to float64", name, v)
}

// Bool resolves a field and returns it as a bool.
func (s *Settings) Bool(name string) (bool, error) {
	v, err := s.Get(name)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("field %q: cannot convert type %T to bool", name, v)
	}
	return b, nil
}

// Strings resolves a list field and returns its items as strings.
func (s *Settings) Strings(name string) ([]string, error) {
	v, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	switch val := v.(type) {
	case []string:
		return val, nil
	case []any:
		out := make([]string, len(val))
		for i, item := range val {
			out[i] = fmt.Sprint(item)
		}
		return out, nil
	}
	return nil, fmt.Errorf("field %q: cannot convert type %T to []string", name, v)
}

// Slice resolves a list field and returns it as []any.
func (s *Settings) Slice(name string) ([]any, error) {
	v, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	switch val := v.(type) {
	case []any:
		return val, nil
	case []string:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = item
		}
		return out, nil
	}
	return nil, fmt.Errorf("field %q: cannot convert type %T to []any", name, v)
}

// Map resolves a mapping field and returns it as map[string]any.
func (s *Settings) Map(name string) (map[string]any, error) {
	return Value[map[string]any](s, name)
}
