// File: lixenwraith/reconf/builder.go
package reconf

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
)

// ValidatorFunc defines the signature for a function that can validate a Registry.
// It receives the fully assembled *Registry and should return an error if validation fails.
type ValidatorFunc func(r *Registry) error

// Builder provides a fluent interface for assembling a Registry
type Builder struct {
	reg        *Registry
	sources    []Source
	args       []string
	defaults   map[string]string
	logger     *slog.Logger
	metrics    *Metrics
	validators []ValidatorFunc
}

// NewBuilder creates a new registry builder. Command-line overrides are read
// from os.Args[1:] unless WithArgs says otherwise.
func NewBuilder() *Builder {
	return &Builder{
		reg:        New(),
		args:       os.Args[1:],
		defaults:   make(map[string]string),
		validators: make([]ValidatorFunc, 0),
	}
}

// WithResource adds a packaged resource
func (b *Builder) WithResource(pkg string, fsys fs.FS, name string) *Builder {
	b.sources = append(b.sources, NewResourceSource(pkg, fsys, name))
	return b
}

// WithTestResource adds a packaged resource ranked above production sources
func (b *Builder) WithTestResource(pkg string, fsys fs.FS, name string) *Builder {
	b.sources = append(b.sources, NewTestResource(pkg, fsys, name))
	return b
}

// WithFile adds an installation file or path list
func (b *Builder) WithFile(path string) *Builder {
	b.sources = append(b.sources, NewFileSource(path))
	return b
}

// WithTOMLFile adds a TOML installation file
func (b *Builder) WithTOMLFile(path string) *Builder {
	b.sources = append(b.sources, NewTOMLSource(path))
	return b
}

// WithStandardFiles adds the discovered installation files for an application
func (b *Builder) WithStandardFiles(opts FileDiscoveryOptions) *Builder {
	b.sources = append(b.sources, NewFileSource(strings.Join(StandardPaths(opts), string(os.PathListSeparator))))
	return b
}

// WithEnviron adds the files listed in environment variable name
func (b *Builder) WithEnviron(name string) *Builder {
	b.sources = append(b.sources, NewEnvSource(name))
	return b
}

// WithTestString adds literal configuration text ranked above production sources
func (b *Builder) WithTestString(text string) *Builder {
	b.sources = append(b.sources, NewTestStringSource(text))
	return b
}

// WithSource adds any Source
func (b *Builder) WithSource(src Source) *Builder {
	b.sources = append(b.sources, src)
	return b
}

// WithArgs sets the command-line arguments scanned for overrides
func (b *Builder) WithArgs(args []string) *Builder {
	b.args = args
	return b
}

// WithDefault adds a substitution default
func (b *Builder) WithDefault(option, value string) *Builder {
	b.defaults[option] = value
	return b
}

// WithLogger sets the registry's debug logger
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithMetrics attaches Prometheus metrics
func (b *Builder) WithMetrics(m *Metrics) *Builder {
	b.metrics = m
	return b
}

// WithValidator adds a validation function that runs at the end of the build process
// Multiple validators can be added and are executed in the order they are added
func (b *Builder) WithValidator(fn ValidatorFunc) *Builder {
	if fn != nil {
		b.validators = append(b.validators, fn)
	}
	return b
}

// Build assembles the Registry, reads every source once so that I/O and
// parse errors surface here, and runs the validators.
func (b *Builder) Build() (*Registry, error) {
	r := b.reg
	if b.logger != nil {
		r.SetLogger(b.logger)
	}
	if b.metrics != nil {
		r.SetMetrics(b.metrics)
	}
	for option, value := range b.defaults {
		r.SetDefault(option, value)
	}
	for _, src := range b.sources {
		r.Add(src)
	}

	if len(b.args) > 0 {
		args, err := ParseArgs(b.args)
		if err != nil {
			return nil, err
		}
		if args.Len() > 0 {
			if _, err := r.AddArgs(b.args); err != nil {
				return nil, err
			}
		}
	}

	if _, err := r.Build(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	for _, validator := range b.validators {
		if err := validator(r); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}

	return r, nil
}

// MustBuild is like Build but panics on error
func (b *Builder) MustBuild() *Registry {
	r, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("config build failed: %v", err))
	}
	return r
}
