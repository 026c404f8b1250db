// FILE: lixenwraith/reconf/config_test.go
package reconf

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig writes text to name under dir and returns the path
func writeConfig(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))
	return path
}

// TestRegistrySourceSet tests membership and ordering of the source set
func TestRegistrySourceSet(t *testing.T) {
	t.Run("AddIsIdempotent", func(t *testing.T) {
		r := New()
		first := r.AddFile("/etc/app.conf")
		second := r.AddFile("/etc/app.conf")

		assert.Same(t, first, second)
		assert.Len(t, r.Sources(), 1)
	})

	t.Run("SortedByRankThenInsertion", func(t *testing.T) {
		r := New()
		test := r.AddTestString("[s]\n")
		env := r.AddEnviron("APP_CONFIG")
		fileA := r.AddFile("a.conf")
		res := r.AddResource("app", nil, "app.ini")
		fileB := r.AddFile("b.conf")

		assert.Equal(t, []Source{res, fileA, fileB, env, test}, r.Sources())
	})

	t.Run("RemoveUnknown", func(t *testing.T) {
		r := New()
		r.AddFile("a.conf")

		err := r.Remove(NewFileSource("b.conf"))
		assert.ErrorIs(t, err, ErrSourceNotFound)
		assert.Len(t, r.Sources(), 1)
	})

	t.Run("RemoveByIdentity", func(t *testing.T) {
		r := New()
		r.AddFile("a.conf")

		require.NoError(t, r.Remove(NewFileSource("a.conf")))
		assert.Empty(t, r.Sources())
	})

	t.Run("IdentityIncludesKind", func(t *testing.T) {
		r := New()
		r.AddFile("a.conf")
		r.AddTOMLFile("a.conf")
		assert.Len(t, r.Sources(), 2)
	})
}

// TestRegistryBuild tests merging and cache coherence
func TestRegistryBuild(t *testing.T) {
	t.Run("HigherRankWins", func(t *testing.T) {
		dir := t.TempDir()
		r := New()
		r.AddTestString("[s]\ni = 4\n")
		r.AddFile(writeConfig(t, dir, "app.conf", "[s]\ni = 3\nj = 5\n"))

		st, err := r.Build()
		require.NoError(t, err)

		i, _ := st.Get("s", "i")
		j, _ := st.Get("s", "j")
		assert.Equal(t, "4", i)
		assert.Equal(t, "5", j)
	})

	t.Run("LaterSameRankWins", func(t *testing.T) {
		dir := t.TempDir()
		a := writeConfig(t, dir, "a.conf", "[s]\nv = a\n")
		b := writeConfig(t, dir, "b.conf", "[s]\nv = b\n")

		r := New()
		r.AddFile(a + string(os.PathListSeparator) + b)
		st, err := r.Build()
		require.NoError(t, err)
		v, _ := st.Get("s", "v")
		assert.Equal(t, "b", v)
	})

	t.Run("CachedUntilChanged", func(t *testing.T) {
		r := New()
		r.AddTestString("[s]\nv = 1\n")

		first, err := r.Build()
		require.NoError(t, err)
		second, err := r.Build()
		require.NoError(t, err)
		assert.Same(t, first, second)

		r.AddTestString("[s]\nv = 2\n")
		third, err := r.Build()
		require.NoError(t, err)
		assert.NotSame(t, first, third)
		v, _ := third.Get("s", "v")
		assert.Equal(t, "2", v)
	})

	t.Run("RemoveRebuilds", func(t *testing.T) {
		r := New()
		r.AddTestString("[s]\nv = 1\n")
		override := r.AddTestString("[s]\nv = 2\n")

		st, _ := r.Build()
		v, _ := st.Get("s", "v")
		assert.Equal(t, "2", v)

		require.NoError(t, r.Remove(override))
		st, _ = r.Build()
		v, _ = st.Get("s", "v")
		assert.Equal(t, "1", v)
	})

	t.Run("MissingFileIgnored", func(t *testing.T) {
		r := New()
		r.AddFile(filepath.Join(t.TempDir(), "absent.conf"))

		st, err := r.Build()
		require.NoError(t, err)
		assert.Empty(t, st.Sections())
	})

	t.Run("UnreadableFileFails", func(t *testing.T) {
		r := New()
		r.AddFile(t.TempDir())

		_, err := r.Build()
		require.Error(t, err)
		assert.False(t, errors.Is(err, os.ErrNotExist))

		// Failures are not cached
		_, err = r.Build()
		assert.Error(t, err)
	})

	t.Run("OptionBeforeHeader", func(t *testing.T) {
		r := New()
		r.AddTestString("i = 3\n[s]\nj = 1\n")

		_, err := r.Build()
		assert.ErrorIs(t, err, ErrMissingSectionHeader)
		assert.Contains(t, err.Error(), "i = 3")
	})

	t.Run("CommentsBeforeHeader", func(t *testing.T) {
		r := New()
		r.AddTestString("# leading comment\n; another\n\n[s]\nj = 1\n")

		st, err := r.Build()
		require.NoError(t, err)
		j, err := st.Get("s", "j")
		require.NoError(t, err)
		assert.Equal(t, "1", j)
		assert.Empty(t, st.Defaults()["i"])
	})

	t.Run("ParseErrorNamesSource", func(t *testing.T) {
		r := New()
		r.AddTestString("[unterminated\n")

		_, err := r.Build()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "<string>")
	})
}

// TestRegistryDefaults tests the substitution defaults
func TestRegistryDefaults(t *testing.T) {
	r := New()
	r.SetDefault("root", "/srv")
	r.AddTestString("[DEFAULT]\nname = app\n\n[paths]\ndata = %(root)s/%(name)s\ncache = %(tempdir)s/cache\n")

	st, err := r.Build()
	require.NoError(t, err)

	data, err := st.Get("paths", "data")
	require.NoError(t, err)
	assert.Equal(t, "/srv/app", data)

	cache, err := st.Get("paths", "cache")
	require.NoError(t, err)
	assert.Equal(t, os.TempDir()+"/cache", cache)
}

// TestScopedSource tests temporary registration
func TestScopedSource(t *testing.T) {
	t.Run("WithSource", func(t *testing.T) {
		r := New()
		r.AddTestString("[s]\nv = base\n")

		err := r.WithSource(NewTestStringSource("[s]\nv = scoped\n"), func() error {
			st, err := r.Build()
			require.NoError(t, err)
			v, _ := st.Get("s", "v")
			assert.Equal(t, "scoped", v)
			return nil
		})
		require.NoError(t, err)
		assert.Len(t, r.Sources(), 1)
	})

	t.Run("ReleasedOnError", func(t *testing.T) {
		r := New()
		boom := errors.New("boom")

		err := r.WithSource(NewTestStringSource("[s]\n"), func() error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, r.Sources())
	})

	t.Run("ReleasedOnPanic", func(t *testing.T) {
		r := New()
		assert.Panics(t, func() {
			_ = r.WithSource(NewTestStringSource("[s]\n"), func() error { panic("boom") })
		})
		assert.Empty(t, r.Sources())
	})

	t.Run("Attach", func(t *testing.T) {
		r := New()
		release := r.Attach(NewTestStringSource("[s]\n"))
		assert.Len(t, r.Sources(), 1)
		require.NoError(t, release())
		assert.Empty(t, r.Sources())
		assert.ErrorIs(t, release(), ErrSourceNotFound)
	})
}

// TestDebug tests the debug dump
func TestDebug(t *testing.T) {
	r := New()
	r.AddTestString("[server]\nhost = localhost\n")

	out := r.Debug()
	assert.Contains(t, out, "[test] test-string(")
	assert.Contains(t, out, "[server]")
	assert.Contains(t, out, "host = localhost")
	assert.Contains(t, out, "tempdir = ")
}
