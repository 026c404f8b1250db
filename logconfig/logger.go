package logconfig

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ErrUnknownHandler is returned for handler classes NewLogger cannot build.
var ErrUnknownHandler = errors.New("unknown handler class")

// NewLogger returns a slog logger for the dotted logger name, built from the
// handlers of that logger and, while loggers propagate, of its ancestors and
// the root. An empty name selects the root logger. The returned Closer closes
// any files opened for file handlers.
func NewLogger(cfg *Config, name string) (*slog.Logger, io.Closer, error) {
	files := &fileSet{}
	level, handlers := cfg.chain(name)

	built := make([]slog.Handler, 0, len(handlers))
	for _, id := range handlers {
		h, err := cfg.handler(id, files)
		if err != nil {
			files.Close()
			return nil, nil, err
		}
		built = append(built, h)
	}

	var out slog.Handler
	switch len(built) {
	case 0:
		out = slog.DiscardHandler
	case 1:
		out = built[0]
	default:
		out = &multiHandler{handlers: built}
	}
	return slog.New(&levelHandler{level: level, next: out}), files, nil
}

// chain walks from name up to the root. Handlers are collected until a
// logger stops propagation; the level is the first one set along the whole
// path, as levels are inherited regardless of propagation.
func (cfg *Config) chain(name string) (slog.Level, []string) {
	var (
		handlers   []string
		level      string
		propagates = true
		seen       = make(map[string]bool)
	)
	visit := func(l Logger) {
		if level == "" {
			level = l.Level
		}
		if !propagates {
			return
		}
		for _, id := range l.Handlers {
			if id != "" && !seen[id] {
				seen[id] = true
				handlers = append(handlers, id)
			}
		}
		propagates = l.propagates()
	}

	for current := name; current != ""; {
		if l, ok := cfg.Loggers[current]; ok {
			visit(l)
		}
		if i := strings.LastIndexByte(current, '.'); i >= 0 {
			current = current[:i]
		} else {
			current = ""
		}
	}
	if cfg.Root != nil {
		visit(*cfg.Root)
	}
	if level == "" {
		level = "warning"
	}
	return parseLevel(level), handlers
}

func (cfg *Config) handler(id string, files *fileSet) (slog.Handler, error) {
	spec, ok := cfg.Handlers[id]
	if !ok {
		return nil, fmt.Errorf("handler %q is not configured", id)
	}

	var w io.Writer
	switch className(spec.Class) {
	case "StreamHandler":
		switch strings.TrimPrefix(strings.TrimPrefix(spec.Stream, "ext://"), "sys.") {
		case "stdout":
			w = os.Stdout
		case "", "stderr":
			w = os.Stderr
		default:
			return nil, fmt.Errorf("handler %q: unsupported stream %q", id, spec.Stream)
		}
	case "FileHandler":
		if spec.Filename == "" {
			return nil, fmt.Errorf("handler %q: filename is required", id)
		}
		f, err := files.open(spec.Filename, spec.Mode)
		if err != nil {
			return nil, fmt.Errorf("handler %q: %w", id, err)
		}
		w = f
	case "NullHandler":
		return slog.DiscardHandler, nil
	default:
		return nil, fmt.Errorf("%w: %q for handler %q", ErrUnknownHandler, spec.Class, id)
	}

	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	if spec.Level != "" {
		opts.Level = parseLevel(spec.Level)
	}

	var format Formatter
	if spec.Formatter != "" {
		f, ok := cfg.Formatters[spec.Formatter]
		if !ok {
			return nil, fmt.Errorf("handler %q: formatter %q is not configured", id, spec.Formatter)
		}
		format = f
	}
	if format.DateFmt != nil && *format.DateFmt != "" {
		layout := *format.DateFmt
		opts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
				return slog.String(slog.TimeKey, a.Value.Time().Format(layout))
			}
			return a
		}
	}

	if strings.EqualFold(strings.TrimSpace(format.Format), "json") {
		return slog.NewJSONHandler(w, opts), nil
	}
	return slog.NewTextHandler(w, opts), nil
}

// className strips a module path, so "logging.StreamHandler" and
// "StreamHandler" are equivalent.
func className(class string) string {
	if i := strings.LastIndexByte(class, '.'); i >= 0 {
		return class[i+1:]
	}
	return class
}

// parseLevel converts a level name into a slog.Level. Unknown names map to info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "notset":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "critical", "fatal":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// levelHandler applies a logger's level in front of its handlers.
type levelHandler struct {
	level slog.Level
	next  slog.Handler
}

func (h *levelHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return l >= h.level && h.next.Enabled(ctx, l)
}

func (h *levelHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.next.Handle(ctx, r)
}

func (h *levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelHandler{level: h.level, next: h.next.WithAttrs(attrs)}
}

func (h *levelHandler) WithGroup(name string) slog.Handler {
	return &levelHandler{level: h.level, next: h.next.WithGroup(name)}
}

// multiHandler fans records out to several handlers.
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: next}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: next}
}

// fileSet tracks files opened by file handlers.
type fileSet struct {
	files []*os.File
}

func (s *fileSet) open(name, mode string) (*os.File, error) {
	flag := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if strings.HasPrefix(mode, "w") {
		flag = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}
	f, err := os.OpenFile(name, flag, 0o644)
	if err != nil {
		return nil, err
	}
	s.files = append(s.files, f)
	return f, nil
}

func (s *fileSet) Close() error {
	var errs []error
	for _, f := range s.files {
		errs = append(errs, f.Close())
	}
	s.files = nil
	return errors.Join(errs...)
}
