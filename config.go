// FILE: lixenwraith/reconf/config.go
package reconf

import (
	"cmp"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"
	"time"
	"weak"
)

// Registry owns the ranked set of sources, the cached merged store built from
// them, and the settings groups that read from that store.
type Registry struct {
	mutex    sync.Mutex
	sources  []Source
	store    *Store // nil when invalid
	defaults map[string]string
	groups   []weak.Pointer[Settings]
	logger   *slog.Logger
	metrics  *Metrics
}

// New creates an empty Registry. The defaults mapping starts with "tempdir".
func New() *Registry {
	return &Registry{
		defaults: map[string]string{"tempdir": os.TempDir()},
		logger:   slog.New(slog.DiscardHandler),
	}
}

// SetLogger sets the logger used for debug output. nil discards.
func (r *Registry) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r.mutex.Lock()
	r.logger = logger
	r.mutex.Unlock()
}

// SetMetrics attaches Prometheus metrics to the registry.
func (r *Registry) SetMetrics(m *Metrics) {
	r.mutex.Lock()
	r.metrics = m
	m.setSources(len(r.sources))
	r.mutex.Unlock()
}

// SetDefault adds a value to the defaults mapping consulted when an option is
// absent from a section, and invalidates the cache.
func (r *Registry) SetDefault(option, value string) {
	r.mutex.Lock()
	r.defaults[optionKey(option)] = value
	r.mutex.Unlock()
	r.Invalidate()
}

// Add registers src. If an equal source is already registered it is returned
// and nothing changes; otherwise src is inserted by rank, the cache is
// invalidated and src is returned.
func (r *Registry) Add(src Source) Source {
	r.mutex.Lock()
	id := src.Identity()
	for _, existing := range r.sources {
		if existing.Identity() == id {
			r.mutex.Unlock()
			return existing
		}
	}
	r.sources = append(r.sources, src)
	slices.SortStableFunc(r.sources, func(a, b Source) int {
		return cmp.Compare(a.Rank(), b.Rank())
	})
	r.metrics.setSources(len(r.sources))
	r.logger.Debug("source added", "source", id.String(), "rank", src.Rank().String())
	r.mutex.Unlock()

	r.Invalidate()
	return src
}

// AddFile registers a file source; path may list several files.
func (r *Registry) AddFile(path string) Source {
	return r.Add(NewFileSource(path))
}

// AddTOMLFile registers a TOML file source.
func (r *Registry) AddTOMLFile(path string) Source {
	return r.Add(NewTOMLSource(path))
}

// AddEnviron registers a source for the files named by environment variable name.
func (r *Registry) AddEnviron(name string) Source {
	return r.Add(NewEnvSource(name))
}

// AddResource registers a packaged resource.
func (r *Registry) AddResource(pkg string, fsys fs.FS, name string) Source {
	return r.Add(NewResourceSource(pkg, fsys, name))
}

// AddTestResource registers a packaged resource at test rank.
func (r *Registry) AddTestResource(pkg string, fsys fs.FS, name string) Source {
	return r.Add(NewTestResource(pkg, fsys, name))
}

// AddTestString registers literal configuration text at test rank.
func (r *Registry) AddTestString(text string) Source {
	return r.Add(NewTestStringSource(text))
}

// Remove unregisters the source equal to src.
func (r *Registry) Remove(src Source) error {
	r.mutex.Lock()
	id := src.Identity()
	index := slices.IndexFunc(r.sources, func(s Source) bool {
		return s.Identity() == id
	})
	if index < 0 {
		r.mutex.Unlock()
		return fmt.Errorf("%w: %s", ErrSourceNotFound, id)
	}
	r.sources = slices.Delete(r.sources, index, index+1)
	r.metrics.setSources(len(r.sources))
	r.logger.Debug("source removed", "source", id.String())
	r.mutex.Unlock()

	r.Invalidate()
	return nil
}

// Sources returns the registered sources in override order, lowest first.
func (r *Registry) Sources() []Source {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return slices.Clone(r.sources)
}

// Attach adds src and returns a function that removes it again. The returned
// function is meant to be deferred.
func (r *Registry) Attach(src Source) func() error {
	added := r.Add(src)
	return func() error {
		return r.Remove(added)
	}
}

// WithSource runs fn with src registered, removing src afterwards even if fn
// fails or panics.
func (r *Registry) WithSource(src Source, fn func() error) (err error) {
	release := r.Attach(src)
	defer func() {
		if rerr := release(); rerr != nil && err == nil {
			err = rerr
		}
	}()
	return fn()
}

// Build returns the merged store, reading every source if the cached store
// is no longer valid. A source error aborts the build and nothing is cached.
func (r *Registry) Build() (*Store, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.store != nil {
		r.metrics.cacheHit()
		return r.store, nil
	}

	start := time.Now()
	store := newStore(r.defaults)
	for _, src := range r.sources {
		err := src.Materialize(func(rd io.Reader, label string) error {
			r.logger.Debug("reading configuration", "source", src.Identity().String(), "label", label)
			return store.merge(rd, label)
		})
		if err != nil {
			r.metrics.observeBuild(start, err)
			r.logger.Debug("configuration build failed", "source", src.Identity().String(), "error", err)
			return nil, err
		}
	}
	r.metrics.observeBuild(start, nil)

	r.store = store
	return store, nil
}

// Invalidate drops the cached store and clears the value cache of every live
// settings group created by this registry.
func (r *Registry) Invalidate() {
	r.mutex.Lock()
	r.store = nil
	live := make([]*Settings, 0, len(r.groups))
	groups := r.groups[:0]
	for _, wp := range r.groups {
		if s := wp.Value(); s != nil {
			live = append(live, s)
			groups = append(groups, wp)
		}
	}
	clear(r.groups[len(groups):])
	r.groups = groups
	r.metrics.invalidated()
	r.logger.Debug("configuration invalidated", "settings", len(live))
	r.mutex.Unlock()

	for _, s := range live {
		s.clear()
	}
}

func (r *Registry) track(s *Settings) {
	r.mutex.Lock()
	r.groups = append(r.groups, weak.Make(s))
	r.mutex.Unlock()
}

// Debug returns a formatted string showing the sources in override order and
// the merged values.
func (r *Registry) Debug() string {
	var b strings.Builder
	b.WriteString("Configuration Debug Info:\n")
	b.WriteString("Sources (lowest precedence first):\n")
	for _, src := range r.Sources() {
		b.WriteString(fmt.Sprintf("  [%s] %s\n", src.Rank(), src.Identity()))
	}

	store, err := r.Build()
	if err != nil {
		b.WriteString(fmt.Sprintf("Build error: %v\n", err))
		return b.String()
	}

	b.WriteString("Defaults:\n")
	defaults := store.Defaults()
	for _, key := range slices.Sorted(maps.Keys(defaults)) {
		b.WriteString(fmt.Sprintf("  %s = %s\n", key, defaults[key]))
	}
	b.WriteString("Current values:\n")
	for _, section := range store.Sections() {
		b.WriteString(fmt.Sprintf("  [%s]\n", section))
		options, _ := store.Options(section)
		for _, option := range options {
			raw, _ := store.Raw(section, option)
			b.WriteString(fmt.Sprintf("    %s = %s\n", option, raw))
		}
	}
	return b.String()
}
