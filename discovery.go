// FILE: lixenwraith/reconf/discovery.go
package reconf

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// FileDiscoveryOptions configures the standard installation file search
type FileDiscoveryOptions struct {
	// Base name of config file (without extension)
	Name string

	// Extensions to try (in order)
	Extensions []string

	// Custom search paths, more specific than the system paths
	Paths []string

	// Whether to search in XDG config directories
	UseXDG bool

	// Whether to search in current directory
	UseCurrentDir bool
}

// DefaultDiscoveryOptions returns sensible defaults
func DefaultDiscoveryOptions(appName string) FileDiscoveryOptions {
	return FileDiscoveryOptions{
		Name:          appName,
		Extensions:    []string{".conf", ".ini"},
		UseXDG:        true,
		UseCurrentDir: true,
	}
}

// StandardPaths lists candidate installation files, least specific first, so
// that reading them in order lets user and local files override system ones.
// Files are not checked for existence; FileSource skips missing ones.
func StandardPaths(opts FileDiscoveryOptions) []string {
	// Most specific first, reversed at the end
	var dirs []string
	if opts.UseCurrentDir {
		if cwd, err := os.Getwd(); err == nil {
			dirs = append(dirs, cwd)
		}
	}
	dirs = append(dirs, opts.Paths...)
	if opts.UseXDG {
		dirs = append(dirs, getXDGConfigPaths(opts.Name)...)
	}

	var paths []string
	for _, dir := range dirs {
		for _, ext := range slices.Backward(opts.Extensions) {
			paths = append(paths, filepath.Join(dir, opts.Name+ext))
		}
	}
	slices.Reverse(paths)
	return slices.Compact(paths)
}

// AddStandardFiles registers one FileSource covering StandardPaths(opts).
func (r *Registry) AddStandardFiles(opts FileDiscoveryOptions) Source {
	return r.AddFile(strings.Join(StandardPaths(opts), string(os.PathListSeparator)))
}

// getXDGConfigPaths returns XDG-compliant config search paths
func getXDGConfigPaths(appName string) []string {
	var paths []string

	// XDG_CONFIG_HOME
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		paths = append(paths, filepath.Join(xdgHome, appName))
	} else if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", appName))
	}

	// XDG_CONFIG_DIRS
	if xdgDirs := os.Getenv("XDG_CONFIG_DIRS"); xdgDirs != "" {
		for _, dir := range filepath.SplitList(xdgDirs) {
			paths = append(paths, filepath.Join(dir, appName))
		}
	} else {
		// Default system paths
		paths = append(paths,
			filepath.Join("/etc/xdg", appName),
			filepath.Join("/etc", appName),
		)
	}

	return paths
}
