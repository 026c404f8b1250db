// FILE: lixenwraith/reconf/dynamic_test.go
package reconf

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestInvalidation tests that settings follow changes to the source set
func TestInvalidation(t *testing.T) {
	t.Run("AddClearsSettings", func(t *testing.T) {
		r := New()
		r.AddTestString("[s]\ni = 1\n")
		s, err := r.NewSettings(Integer("s:i"))
		require.NoError(t, err)

		i, _ := s.Int("i")
		assert.Equal(t, 1, i)

		override := r.AddTestString("[s]\ni = 2\n")
		i, _ = s.Int("i")
		assert.Equal(t, 2, i)

		require.NoError(t, r.Remove(override))
		i, _ = s.Int("i")
		assert.Equal(t, 1, i)
	})

	t.Run("DuplicateAddKeepsCache", func(t *testing.T) {
		r := New()
		src := r.AddTestString("[s]\ni = 1\n")
		first, err := r.Build()
		require.NoError(t, err)

		r.Add(src)
		second, err := r.Build()
		require.NoError(t, err)
		assert.Same(t, first, second)
	})

	t.Run("FailedRemoveKeepsCache", func(t *testing.T) {
		r := New()
		r.AddTestString("[s]\n")
		first, _ := r.Build()

		assert.Error(t, r.Remove(NewFileSource("nope")))
		second, _ := r.Build()
		assert.Same(t, first, second)
	})

	t.Run("EverySettingsGroup", func(t *testing.T) {
		r := New()
		r.AddTestString("[s]\nv = old\n")
		schema := MustSchema(Text("s:v"))
		a := r.Settings(schema)
		b := r.Settings(schema)

		va, _ := a.String("v")
		vb, _ := b.String("v")
		assert.Equal(t, "old", va)
		assert.Equal(t, "old", vb)

		r.AddTestString("[s]\nv = new\n")
		va, _ = a.String("v")
		vb, _ = b.String("v")
		assert.Equal(t, "new", va)
		assert.Equal(t, "new", vb)
	})

	t.Run("SharedSchemaKeepsValuesApart", func(t *testing.T) {
		schema := MustSchema(Text("s:v"))
		r1, r2 := New(), New()
		r1.AddTestString("[s]\nv = one\n")
		r2.AddTestString("[s]\nv = two\n")

		v1, _ := r1.Settings(schema).String("v")
		v2, _ := r2.Settings(schema).String("v")
		assert.Equal(t, "one", v1)
		assert.Equal(t, "two", v2)
	})

	t.Run("FailuresNotCached", func(t *testing.T) {
		r := New()
		s, err := r.NewSettings(Integer("s:i"))
		require.NoError(t, err)

		_, err = s.Get("i")
		assert.ErrorIs(t, err, ErrSectionNotFound)

		r.AddTestString("[s]\ni = 5\n")
		i, err := s.Int("i")
		require.NoError(t, err)
		assert.Equal(t, 5, i)
	})

	t.Run("CollectedSettingsDropped", func(t *testing.T) {
		r := New()
		schema := MustSchema(Text("s:v"))
		for range 10 {
			r.Settings(schema)
		}
		runtime.GC()
		r.Invalidate()

		r.mutex.Lock()
		defer r.mutex.Unlock()
		assert.Less(t, len(r.groups), 10)
	})
}

// TestArgs tests command-line overrides
func TestArgs(t *testing.T) {
	t.Run("ParseArgs", func(t *testing.T) {
		src, err := ParseArgs([]string{
			"positional",
			"--server:port", "9090",
			"--server:host=example.com",
			"--verbose",
			"--flags:debug",
			"--",
			"--server:ignored=1",
		})
		require.NoError(t, err)
		assert.Equal(t, 3, src.Len())

		r := New()
		r.Add(src)
		st, err := r.Build()
		require.NoError(t, err)
		port, _ := st.Get("server", "port")
		host, _ := st.Get("server", "host")
		debug, _ := st.Get("flags", "debug")
		assert.Equal(t, "9090", port)
		assert.Equal(t, "example.com", host)
		assert.Equal(t, "true", debug)
		assert.False(t, st.HasOption("server", "ignored"))
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := ParseArgs([]string{"--:port=1"})
		assert.ErrorIs(t, err, ErrCLIParse)
		_, err = ParseArgs([]string{"--server:=1"})
		assert.ErrorIs(t, err, ErrCLIParse)
	})

	t.Run("AddArgsMerges", func(t *testing.T) {
		r := New()
		r.AddTestString("[s]\nkeep = test\n")
		s, err := r.NewSettings(Integer("s:i"))
		require.NoError(t, err)

		_, err = r.AddArgs([]string{"--s:i", "1"})
		require.NoError(t, err)
		i, _ := s.Int("i")
		assert.Equal(t, 1, i)

		src, err := r.AddArgs([]string{"--s:i=2"})
		require.NoError(t, err)
		assert.Equal(t, 1, src.Len())
		assert.Len(t, r.Sources(), 2)
		i, _ = s.Int("i")
		assert.Equal(t, 2, i)
	})

	t.Run("FlagSet", func(t *testing.T) {
		r := New()
		r.AddResource("app", mapFS("[args]\ni = 1\nname = base\n\n[s]\nseq.0 = a\n"), "app.ini")
		s, err := r.NewSettings(
			Integer("args:i"),
			Text("args:name"),
			List("s:seq"),
		)
		require.NoError(t, err)

		i, _ := s.Int("i")
		assert.Equal(t, 1, i)

		fs := s.FlagSet("app")
		assert.NotNil(t, fs.Lookup("args:i"))
		assert.NotNil(t, fs.Lookup("args:name"))
		assert.Nil(t, fs.Lookup("s:seq"))

		require.NoError(t, fs.Parse([]string{"--args:i", "9", "-args:name=cli", "rest"}))
		assert.Equal(t, []string{"rest"}, fs.Args())

		i, _ = s.Int("i")
		name, _ := s.String("name")
		assert.Equal(t, 9, i)
		assert.Equal(t, "cli", name)
	})
}
