package reconf

import (
	"errors"
	"fmt"
	"sync"
)

// Schema is a validated, ordered set of field declarations. Build it once and
// instantiate it as many times as needed with Registry.Settings.
type Schema struct {
	fields []*Field
	index  map[string]*Field
}

// NewSchema validates fields and builds the name lookup table.
// Field names must be unique and every field needs a section and an option.
func NewSchema(fields ...*Field) (*Schema, error) {
	s := &Schema{
		fields: make([]*Field, 0, len(fields)),
		index:  make(map[string]*Field, len(fields)),
	}
	for i, f := range fields {
		if f == nil {
			return nil, fmt.Errorf("%w: field %d is nil", ErrInvalidField, i)
		}
		if f.section == "" || f.option == "" {
			return nil, fmt.Errorf("%w: %s needs both a section and an option", ErrInvalidField, f)
		}
		if _, exists := s.index[f.name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateField, f.name)
		}
		s.fields = append(s.fields, f)
		s.index[f.name] = f
	}
	return s, nil
}

// Fields returns the declarations in order.
func (s *Schema) Fields() []*Field {
	return append([]*Field(nil), s.fields...)
}

// Field returns the declaration called name.
func (s *Schema) Field(name string) (*Field, bool) {
	f, ok := s.index[name]
	return f, ok
}

// Settings is a Schema bound to a Registry. Each field is resolved on first
// read and cached until the Registry invalidates.
type Settings struct {
	registry *Registry
	schema   *Schema
	mutex    sync.Mutex
	cache    map[string]any
}

// Settings instantiates schema against the registry.
func (r *Registry) Settings(schema *Schema) *Settings {
	s := &Settings{
		registry: r,
		schema:   schema,
		cache:    make(map[string]any),
	}
	r.track(s)
	return s
}

// NewSettings builds a Schema from fields and instantiates it.
func (r *Registry) NewSettings(fields ...*Field) (*Settings, error) {
	schema, err := NewSchema(fields...)
	if err != nil {
		return nil, err
	}
	return r.Settings(schema), nil
}

// Registry returns the registry the settings read from.
func (s *Settings) Registry() *Registry { return s.registry }

// Schema returns the field declarations of the settings.
func (s *Settings) Schema() *Schema { return s.schema }

// Get resolves the field called name. A cached value is returned as is;
// otherwise the merged store is read and the value coerced. When the
// coordinate is absent the field's fallback, if any, supplies the value.
// Failures are never cached.
func (s *Settings) Get(name string) (any, error) {
	f, ok := s.schema.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}

	s.mutex.Lock()
	value, cached := s.cache[name]
	s.mutex.Unlock()
	if cached {
		return value, nil
	}

	store, err := s.registry.Build()
	if err != nil {
		return nil, err
	}

	value, err = f.read(f, store)
	if err != nil {
		if f.fallback == nil || !IsAbsent(err) {
			return nil, err
		}
		// The fallback may read sibling fields, so no lock is held here
		if value, err = f.fallback(s); err != nil {
			return nil, fmt.Errorf("fallback for %s: %w", f, err)
		}
	}

	s.mutex.Lock()
	s.cache[name] = value
	s.mutex.Unlock()
	return value, nil
}

// Values resolves every field, returning name -> value.
func (s *Settings) Values() (map[string]any, error) {
	values := make(map[string]any, len(s.schema.fields))
	for _, f := range s.schema.fields {
		v, err := s.Get(f.name)
		if err != nil {
			return nil, err
		}
		values[f.name] = v
	}
	return values, nil
}

// Validate resolves every field and reports all failures at once.
func (s *Settings) Validate() error {
	var errs []error
	for _, f := range s.schema.fields {
		if _, err := s.Get(f.name); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.name, err))
		}
	}
	return errors.Join(errs...)
}

// Scan resolves every field and decodes the values into target, matching
// field names against `reconf` struct tags.
func (s *Settings) Scan(target any) error {
	values, err := s.Values()
	if err != nil {
		return err
	}
	if err := decodeInto(values, target); err != nil {
		return fmt.Errorf("failed to scan settings into %T: %w", target, err)
	}
	return nil
}

func (s *Settings) clear() {
	s.mutex.Lock()
	clear(s.cache)
	s.mutex.Unlock()
}

// MustSchema is like NewSchema but panics on error. It suits package-level
// schema declarations.
func MustSchema(fields ...*Field) *Schema {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}
