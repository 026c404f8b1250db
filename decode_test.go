// FILE: lixenwraith/reconf/decode_test.go
package reconf

import (
	"net"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStoreScan tests decoding a section into a struct
func TestStoreScan(t *testing.T) {
	type Server struct {
		Host     string        `reconf:"host"`
		Port     int           `reconf:"port"`
		Debug    bool          `reconf:"debug"`
		Timeout  time.Duration `reconf:"timeout"`
		Started  time.Time     `reconf:"started"`
		IP       net.IP        `reconf:"ip"`
		Endpoint *url.URL      `reconf:"endpoint"`
		Tags     []string      `reconf:"tags"`
		Root     string        `reconf:"root"`
	}

	r := New()
	r.SetDefault("root", "/srv")
	r.AddTestString(`
[server]
host = localhost
port = 8080
debug = yes
timeout = 1m30s
started = 2024-01-02T03:04:05Z
ip = 192.168.1.1
endpoint = https://%(host)s:8443/api
tags = a,b,c
`)
	st, err := r.Build()
	require.NoError(t, err)

	var server Server
	require.NoError(t, st.Scan("server", &server))
	assert.Equal(t, "localhost", server.Host)
	assert.Equal(t, 8080, server.Port)
	assert.True(t, server.Debug)
	assert.Equal(t, 90*time.Second, server.Timeout)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), server.Started)
	assert.Equal(t, "192.168.1.1", server.IP.String())
	require.NotNil(t, server.Endpoint)
	assert.Equal(t, "localhost:8443", server.Endpoint.Host)
	assert.Equal(t, []string{"a", "b", "c"}, server.Tags)
	assert.Equal(t, "/srv", server.Root)

	t.Run("InvalidIP", func(t *testing.T) {
		r := New()
		r.AddTestString("[server]\nip = not-an-ip\n")
		st, err := r.Build()
		require.NoError(t, err)
		assert.Error(t, st.Scan("server", &server))
	})

	t.Run("NonPointer", func(t *testing.T) {
		assert.Error(t, st.Scan("server", server))
	})

	t.Run("MissingSection", func(t *testing.T) {
		assert.ErrorIs(t, st.Scan("nosuch", &server), ErrSectionNotFound)
	})
}

// TestSettingsScan tests decoding resolved settings into a struct
func TestSettingsScan(t *testing.T) {
	type Options struct {
		Workers int            `reconf:"workers"`
		Ratio   float64        `reconf:"ratio"`
		Hosts   []string       `reconf:"hosts"`
		Limits  map[string]any `reconf:"limits"`
		Mode    string         `reconf:"mode"`
	}

	r := New()
	r.AddTestString("[app]\nworkers = 4\nratio = 0.5\nhosts = a b\nlimit.cpu = 2\nlimit.mem = 512\n")
	s, err := r.NewSettings(
		Integer("app:workers"),
		Float("app:ratio"),
		DelimitedList("app:hosts", Delimiter(" ")),
		Dict("app:limit", WithName("limits"), Convert(AsInt)),
		Text("app:mode", WithFallback(func(*Settings) (any, error) { return "auto", nil })),
	)
	require.NoError(t, err)

	var opts Options
	require.NoError(t, s.Scan(&opts))
	assert.Equal(t, Options{
		Workers: 4,
		Ratio:   0.5,
		Hosts:   []string{"a", "b"},
		Limits:  map[string]any{"cpu": 2, "mem": 512},
		Mode:    "auto",
	}, opts)
}
