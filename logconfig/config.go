package logconfig

import (
	"fmt"

	"github.com/lixenwraith/reconf"
	"github.com/mitchellh/mapstructure"
)

// Config is the typed form of the dictionary returned by Build.
type Config struct {
	Version                int                  `mapstructure:"version"`
	Incremental            bool                 `mapstructure:"incremental"`
	DisableExistingLoggers bool                 `mapstructure:"disable_existing_loggers"`
	Formatters             map[string]Formatter `mapstructure:"formatters"`
	Filters                map[string]any       `mapstructure:"filters"`
	Handlers               map[string]Handler   `mapstructure:"handlers"`
	Loggers                map[string]Logger    `mapstructure:"loggers"`
	Root                   *Logger              `mapstructure:"root"`
	Extra                  map[string]any       `mapstructure:",remain"`
}

// Formatter selects the record layout. A format of "json" selects JSON
// output; anything else selects key=value text. DateFmt, when set, is a Go
// time layout applied to the record time.
type Formatter struct {
	Format  string  `mapstructure:"format"`
	DateFmt *string `mapstructure:"datefmt"`
}

// Handler describes one log destination.
type Handler struct {
	Class     string         `mapstructure:"class"`
	Level     string         `mapstructure:"level"`
	Formatter string         `mapstructure:"formatter"`
	Filters   []string       `mapstructure:"filters"`
	Stream    string         `mapstructure:"stream"`
	Filename  string         `mapstructure:"filename"`
	Mode      string         `mapstructure:"mode"`
	Extra     map[string]any `mapstructure:",remain"`
}

// Logger describes a named logger or the root logger.
type Logger struct {
	Level     string         `mapstructure:"level"`
	Handlers  []string       `mapstructure:"handlers"`
	Filters   []string       `mapstructure:"filters"`
	Propagate *bool          `mapstructure:"propagate"`
	Extra     map[string]any `mapstructure:",remain"`
}

// propagates reports whether records continue to the parent logger.
// Loggers propagate unless told otherwise.
func (l Logger) propagates() bool {
	return l.Propagate == nil || *l.Propagate
}

// Decode converts a dictionary produced by Build into a Config.
func Decode(dict map[string]any) (*Config, error) {
	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("decoder creation failed: %w", err)
	}
	if err := decoder.Decode(dict); err != nil {
		return nil, fmt.Errorf("failed to decode logging configuration: %w", err)
	}
	return &cfg, nil
}

// Load builds and decodes the logging configuration held by r.
func Load(r *reconf.Registry) (*Config, error) {
	st, err := r.Build()
	if err != nil {
		return nil, err
	}
	dict, err := Build(st)
	if err != nil {
		return nil, err
	}
	return Decode(dict)
}
