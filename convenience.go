// File: lixenwraith/reconf/convenience.go
package reconf

import (
	"fmt"
	"os"
	"strings"
)

// Quick creates a Registry wired the usual way for an application: the
// standard installation files, the files named by APP_CONFIG, and the
// "--section:option" overrides from os.Args.
// This is the recommended way to initialize configuration for most applications
func Quick(app string) (*Registry, error) {
	return NewBuilder().
		WithStandardFiles(DefaultDiscoveryOptions(app)).
		WithEnviron(EnvVarName(app)).
		WithArgs(os.Args[1:]).
		Build()
}

// MustQuick is like Quick but panics on error
func MustQuick(app string) *Registry {
	r, err := Quick(app)
	if err != nil {
		panic(fmt.Sprintf("config initialization failed: %v", err))
	}
	return r
}

// EnvVarName returns the environment variable Quick consults for app,
// e.g. "MYAPP_CONFIG" for "my-app".
func EnvVarName(app string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return -1
	}, app)
	return name + "_CONFIG"
}

// Required returns a validator that fails when any "section:option" is unset.
func Required(coords ...string) ValidatorFunc {
	return func(r *Registry) error {
		st, err := r.Build()
		if err != nil {
			return err
		}
		var missing []string
		for _, coord := range coords {
			section, option, _ := strings.Cut(coord, ":")
			if !st.HasOption(section, option) {
				missing = append(missing, coord)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
		}
		return nil
	}
}
