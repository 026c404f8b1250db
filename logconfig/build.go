// FILE: lixenwraith/reconf/logconfig/build.go

// Package logconfig projects a merged reconf store into a nested logging
// configuration and turns that configuration into slog loggers.
//
// Sections are recognized by name:
//
//	[logging]                       version, incremental, disable_existing_loggers, ...
//	[logging.formatter:<id>]        format, datefmt
//	[logging.handler:<id>]          class, level, formatter, filters, ...
//	[logging.logger:<id>]           level, handlers, filters, propagate, ...
//	[logging.root]                  same options as a logger
package logconfig

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lixenwraith/reconf"
)

const (
	Section         = "logging"
	FormatterPrefix = "logging.formatter:"
	HandlerPrefix   = "logging.handler:"
	LoggerPrefix    = "logging.logger:"
	RootSection     = "logging.root"
)

// Store is the part of *reconf.Store the projection reads.
type Store interface {
	Sections() []string
	HasSection(section string) bool
	Options(section string) ([]string, error)
	Raw(section, option string) (string, error)
	Get(section, option string) (string, error)
}

var _ Store = (*reconf.Store)(nil)

// Build returns the logging configuration held in st:
//
//	{version, formatters, filters, handlers, loggers, root?, incremental?, disable_existing_loggers?}
//
// filters is always empty. Options read from handler and logger sections do
// not include store defaults.
func Build(st Store) (map[string]any, error) {
	dict := map[string]any{"version": 1}

	if st.HasSection(Section) {
		options, err := st.Options(Section)
		if err != nil {
			return nil, err
		}
		for _, option := range options {
			value, err := st.Get(Section, option)
			if err != nil {
				return nil, err
			}
			switch option {
			case "version":
				v, err := strconv.Atoi(strings.TrimSpace(value))
				if err != nil {
					return nil, fmt.Errorf("%s:version: %w", Section, err)
				}
				dict[option] = v
			case "incremental", "disable_existing_loggers":
				b, err := reconf.ParseBool(value)
				if err != nil {
					return nil, fmt.Errorf("%s:%s: %w", Section, option, err)
				}
				dict[option] = b
			default:
				dict[option] = value
			}
		}
	}

	formatters, err := buildFormatters(st)
	if err != nil {
		return nil, err
	}
	handlers, err := buildHandlers(st)
	if err != nil {
		return nil, err
	}
	loggers, err := buildLoggers(st)
	if err != nil {
		return nil, err
	}
	dict["formatters"] = formatters
	dict["filters"] = map[string]any{}
	dict["handlers"] = handlers
	dict["loggers"] = loggers

	if st.HasSection(RootSection) {
		root, err := buildLogger(st, RootSection)
		if err != nil {
			return nil, err
		}
		dict["root"] = root
	}
	return dict, nil
}

// withPrefix yields every section starting with prefix and its id.
func withPrefix(st Store, prefix string, fn func(section, id string) error) error {
	for _, section := range st.Sections() {
		if id, ok := strings.CutPrefix(section, prefix); ok {
			if err := fn(section, id); err != nil {
				return err
			}
		}
	}
	return nil
}

func buildFormatters(st Store) (map[string]any, error) {
	formatters := make(map[string]any)
	err := withPrefix(st, FormatterPrefix, func(section, id string) error {
		// Format strings use %(name)s themselves, so they are read raw
		format, err := st.Raw(section, "format")
		if err != nil {
			return err
		}
		datefmt, err := optionalRaw(st, section, "datefmt")
		if err != nil {
			return err
		}
		formatters[id] = map[string]any{"format": format, "datefmt": datefmt}
		return nil
	})
	return formatters, err
}

// optionalRaw returns the raw value, or nil when the option is absent.
func optionalRaw(st Store, section, option string) (any, error) {
	raw, err := st.Raw(section, option)
	if err != nil {
		if reconf.IsAbsent(err) {
			return nil, nil
		}
		return nil, err
	}
	return raw, nil
}

func buildHandlers(st Store) (map[string]any, error) {
	handlers := make(map[string]any)
	err := withPrefix(st, HandlerPrefix, func(section, id string) error {
		options, err := st.Options(section)
		if err != nil {
			return err
		}
		handler := make(map[string]any, len(options))
		for _, option := range options {
			value, err := st.Get(section, option)
			if err != nil {
				return err
			}
			switch option {
			case "filters":
				handler[option] = idList(value)
			case "class", "level", "formatter":
				handler[option] = value
			default:
				if v, err := reconf.ParseLiteral(value); err == nil {
					handler[option] = v
				} else {
					handler[option] = value
				}
			}
		}
		handlers[id] = handler
		return nil
	})
	return handlers, err
}

func buildLoggers(st Store) (map[string]any, error) {
	loggers := make(map[string]any)
	err := withPrefix(st, LoggerPrefix, func(section, id string) error {
		logger, err := buildLogger(st, section)
		if err != nil {
			return err
		}
		loggers[id] = logger
		return nil
	})
	return loggers, err
}

func buildLogger(st Store, section string) (map[string]any, error) {
	options, err := st.Options(section)
	if err != nil {
		return nil, err
	}
	logger := make(map[string]any, len(options))
	for _, option := range options {
		value, err := st.Get(section, option)
		if err != nil {
			return nil, err
		}
		switch option {
		case "filters", "handlers":
			logger[option] = idList(value)
		case "propagate":
			b, err := reconf.ParseBool(value)
			if err != nil {
				return nil, fmt.Errorf("%s:propagate: %w", section, err)
			}
			logger[option] = b
		default:
			logger[option] = value
		}
	}
	return logger, nil
}

func idList(value string) []string {
	ids := strings.Split(value, ",")
	for i, id := range ids {
		ids[i] = strings.TrimSpace(id)
	}
	return ids
}
