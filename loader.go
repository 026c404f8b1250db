// FILE: lixenwraith/reconf/loader.go
package reconf

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Rank is the override class of a Source. Sources of a higher rank shadow
// sources of a lower rank; within a rank, later additions shadow earlier ones.
type Rank int

const (
	// RankResource is packaged default configuration
	RankResource Rank = iota
	// RankStandard is installation files on disk
	RankStandard
	// RankEnviron is files named by an environment variable
	RankEnviron
	// RankArgs is command-line overrides
	RankArgs
	// RankTest is test-time overrides, always the highest
	RankTest
)

func (r Rank) String() string {
	switch r {
	case RankResource:
		return "resource"
	case RankStandard:
		return "standard"
	case RankEnviron:
		return "environ"
	case RankArgs:
		return "args"
	case RankTest:
		return "test"
	default:
		return fmt.Sprintf("rank(%d)", int(r))
	}
}

// Identity distinguishes sources: two sources are equal iff kind and name match.
type Identity struct {
	Kind string
	Name string
}

func (id Identity) String() string {
	return id.Kind + "(" + id.Name + ")"
}

// StreamFunc consumes one configuration stream. The reader is only valid for
// the duration of the call.
type StreamFunc func(r io.Reader, label string) error

// Source is one ranked origin of configuration text.
type Source interface {
	Rank() Rank
	Identity() Identity
	// Materialize calls fn for each stream of the source, in order. Every
	// stream is closed before the next one is opened and before Materialize
	// returns, whatever fn returns.
	Materialize(fn StreamFunc) error
}

// FileSource reads a path-list separated list of files. Missing files are skipped.
type FileSource struct {
	name string
}

// NewFileSource creates a source for one or more files joined with os.PathListSeparator.
func NewFileSource(path string) *FileSource {
	return &FileSource{name: path}
}

func (s *FileSource) Rank() Rank         { return RankStandard }
func (s *FileSource) Identity() Identity { return Identity{Kind: "file", Name: s.name} }

func (s *FileSource) Materialize(fn StreamFunc) error {
	for _, path := range filepath.SplitList(s.name) {
		if path == "" {
			continue
		}
		if err := readFile(expandUser(path), path, fn); err != nil {
			return err
		}
	}
	return nil
}

// EnvSource reads the files listed in an environment variable.
type EnvSource struct {
	name string
}

// NewEnvSource creates a source for the files named by the environment variable name.
func NewEnvSource(name string) *EnvSource {
	return &EnvSource{name: name}
}

func (s *EnvSource) Rank() Rank         { return RankEnviron }
func (s *EnvSource) Identity() Identity { return Identity{Kind: "environ", Name: s.name} }

func (s *EnvSource) Materialize(fn StreamFunc) error {
	for _, path := range filepath.SplitList(os.Getenv(s.name)) {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		if err := readFile(path, path, fn); err != nil {
			return err
		}
	}
	return nil
}

// readFile opens path and hands it to fn. A file that does not exist
// contributes nothing; every other error is returned as is.
func readFile(path, label string, fn StreamFunc) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	defer file.Close()

	return fn(file, label)
}

// ResourceSource reads a resource packaged with the application, typically
// from an embed.FS.
type ResourceSource struct {
	pkg  string
	fsys fs.FS
	name string
	rank Rank
}

// NewResourceSource creates a source for resource name inside fsys. pkg names
// the owning package and takes part in the source identity.
func NewResourceSource(pkg string, fsys fs.FS, name string) *ResourceSource {
	return &ResourceSource{pkg: pkg, fsys: fsys, name: name, rank: RankResource}
}

// NewTestResource is a ResourceSource that overrides every production source.
func NewTestResource(pkg string, fsys fs.FS, name string) *ResourceSource {
	return &ResourceSource{pkg: pkg, fsys: fsys, name: name, rank: RankTest}
}

func (s *ResourceSource) Rank() Rank { return s.rank }

func (s *ResourceSource) Identity() Identity {
	kind := "resource"
	if s.rank == RankTest {
		kind = "test-resource"
	}
	return Identity{Kind: kind, Name: s.pkg + string(os.PathListSeparator) + s.name}
}

func (s *ResourceSource) Materialize(fn StreamFunc) error {
	file, err := s.fsys.Open(s.name)
	if err != nil {
		return fmt.Errorf("failed to open resource '%s' of package '%s': %w", s.name, s.pkg, err)
	}
	defer file.Close()

	return fn(file, s.Identity().Name)
}

// TestStringSource treats its own name as configuration text.
type TestStringSource struct {
	text string
}

// NewTestStringSource creates a test-ranked source holding text.
func NewTestStringSource(text string) *TestStringSource {
	return &TestStringSource{text: text}
}

func (s *TestStringSource) Rank() Rank         { return RankTest }
func (s *TestStringSource) Identity() Identity { return Identity{Kind: "test-string", Name: s.text} }

func (s *TestStringSource) Materialize(fn StreamFunc) error {
	return fn(strings.NewReader(s.text), "<string>")
}
