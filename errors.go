// FILE: lixenwraith/reconf/errors.go
package reconf

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure classes callers are expected to branch on.
var (
	ErrSourceNotFound       = errors.New("source not found")
	ErrSectionNotFound      = errors.New("section not found")
	ErrOptionNotFound       = errors.New("option not found")
	ErrCoercion             = errors.New("invalid value")
	ErrDuplicateField       = errors.New("duplicate field name")
	ErrInvalidField         = errors.New("invalid field declaration")
	ErrUnknownField         = errors.New("unknown field")
	ErrInterpolation        = errors.New("interpolation failed")
	ErrMissingSectionHeader = errors.New("option before first section header")
	ErrCLIParse             = errors.New("failed to parse command-line arguments")
)

// SectionNotFoundError reports a section absent from the merged store.
type SectionNotFoundError struct {
	Section string
}

func (e *SectionNotFoundError) Error() string {
	return fmt.Sprintf("section not found: %q", e.Section)
}

func (e *SectionNotFoundError) Is(target error) bool {
	return target == ErrSectionNotFound
}

// OptionNotFoundError reports an option absent from an existing section.
type OptionNotFoundError struct {
	Section string
	Option  string
}

func (e *OptionNotFoundError) Error() string {
	return fmt.Sprintf("option %q not found in section %q", e.Option, e.Section)
}

func (e *OptionNotFoundError) Is(target error) bool {
	return target == ErrOptionNotFound
}

// CoercionError reports a raw value that is present but cannot be converted
// to the field's type. It never triggers a fallback.
type CoercionError struct {
	Section string
	Option  string
	Value   string
	Kind    string
	Err     error
}

func (e *CoercionError) Error() string {
	msg := fmt.Sprintf("cannot convert %q to %s for %s:%s", e.Value, e.Kind, e.Section, e.Option)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CoercionError) Is(target error) bool {
	return target == ErrCoercion
}

func (e *CoercionError) Unwrap() error {
	return e.Err
}

// IsAbsent reports whether err means the requested coordinate does not exist,
// which is the only condition a fallback may recover from.
func IsAbsent(err error) bool {
	return errors.Is(err, ErrSectionNotFound) || errors.Is(err, ErrOptionNotFound)
}
