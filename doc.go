// File: lixenwraith/reconf/doc.go

// Package reconf merges INI-style configuration from ranked sources and exposes
// it through lazily resolved, typed settings.
//
// Features:
//   - Ranked sources: packaged resources, installation files, files named by an
//     environment variable, command-line overrides and test sources
//   - Cached merge, rebuilt only after the source set changes
//   - %(name)s interpolation with per-store defaults
//   - Typed fields with fallbacks, resolved on first access and cached
//   - List and Dict fields collected from "option.suffix" families
//   - TOML installation files and TOML export
//   - Optional structured debug logging (log/slog) and Prometheus metrics
//
// Quick Start:
//
//	reg := reconf.MustQuick("myapp")
//	reg.AddResource("myapp", defaults, "myapp.ini")
//
//	settings := reg.Settings(reconf.MustSchema(
//	    reconf.Text("server:host"),
//	    reconf.Integer("server:port", reconf.WithFallback(func(*reconf.Settings) (any, error) {
//	        return 8080, nil
//	    })),
//	))
//
//	port, _ := settings.Int("port")
//
// Precedence (highest to lowest):
//  1. Test sources (test resources and literal strings)
//  2. Command-line overrides (--server:port 9090)
//  3. Files named by MYAPP_CONFIG
//  4. Installation files (/etc/myapp/myapp.conf, ~/.config/myapp/myapp.conf, ./myapp.conf)
//  5. Packaged resources
//
// Sources of equal rank are read in the order they were added; later reads win.
//
// Thread Safety:
// Registry and Settings guard their state with mutexes. No lock is held while a
// fallback runs, so fallbacks may resolve other fields freely.
package reconf
