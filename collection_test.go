// FILE: lixenwraith/reconf/collection_test.go
package reconf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollections(t *testing.T) {
	const text = `
[s]
seq-9 = z
seq-1 = b
seq-x = ignored
seq-0 = a
sequel = not a member
other = x

[ports]
port.http = 80
port.https = 443
port.10 = 10
port.2 = 2
`

	t.Run("List", func(t *testing.T) {
		s := settingsFor(t, text, List("s:seq", Separator("-")))
		v, err := s.Slice("seq")
		require.NoError(t, err)
		assert.Equal(t, []any{"a", "b", "z"}, v)
	})

	t.Run("Dict", func(t *testing.T) {
		s := settingsFor(t, text, Dict("s:seq", Separator("-")))
		v, err := s.Map("seq")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"0": "a", "1": "b", "9": "z", "x": "ignored"}, v)
	})

	t.Run("NumericOrder", func(t *testing.T) {
		s := settingsFor(t, text, List("ports:port", Convert(AsInt)))
		v, err := s.Slice("port")
		require.NoError(t, err)
		assert.Equal(t, []any{2, 10}, v)
	})

	t.Run("DictConvert", func(t *testing.T) {
		s := settingsFor(t, text, Dict("ports:port", Convert(AsInt)))
		v, err := s.Map("port")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"http": 80, "https": 443, "10": 10, "2": 2}, v)
	})

	t.Run("ConvertError", func(t *testing.T) {
		s := settingsFor(t, text, Dict("s:seq", Separator("-"), Convert(AsInt), WithFallback(func(*Settings) (any, error) {
			return map[string]any{}, nil
		})))
		_, err := s.Get("seq")
		assert.ErrorIs(t, err, ErrCoercion)
	})

	t.Run("NoMembers", func(t *testing.T) {
		s := settingsFor(t, text, List("s:absent"), Dict("s:other", WithName("dict")))
		_, err := s.Get("absent")
		assert.ErrorIs(t, err, ErrOptionNotFound)
		_, err = s.Get("dict")
		assert.ErrorIs(t, err, ErrOptionNotFound)
	})

	t.Run("NoMembersFallback", func(t *testing.T) {
		s := settingsFor(t, text, List("s:absent", WithFallback(func(*Settings) (any, error) {
			return []any{"default"}, nil
		})))
		v, err := s.Slice("absent")
		require.NoError(t, err)
		assert.Equal(t, []any{"default"}, v)
	})

	t.Run("MissingSection", func(t *testing.T) {
		s := settingsFor(t, text, List("nosuch:seq"))
		_, err := s.Get("seq")
		assert.ErrorIs(t, err, ErrSectionNotFound)
	})

	t.Run("ListConvertSkipsNonNumeric", func(t *testing.T) {
		s := settingsFor(t, "[s]\nseq-0 = 1\nseq-1 = 2\nseq-x = ignored\n",
			List("s:seq", Separator("-"), Convert(AsInt)),
			Dict("s:seq", Separator("-"), Convert(AsInt), WithName("dict")),
		)
		v, err := s.Slice("seq")
		require.NoError(t, err)
		assert.Equal(t, []any{1, 2}, v)

		_, err = s.Get("dict")
		assert.ErrorIs(t, err, ErrCoercion)
	})

	t.Run("OnlyNonNumeric", func(t *testing.T) {
		s := settingsFor(t, "[s]\nseq.x = 1\n", List("s:seq"))
		v, err := s.Slice("seq")
		require.NoError(t, err)
		assert.Empty(t, v)
	})
}
