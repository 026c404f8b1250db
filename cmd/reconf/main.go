// FILE: cmd/reconf/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/lixenwraith/reconf"
	"github.com/lixenwraith/reconf/logconfig"
)

// stringList collects a repeatable flag
type stringList []string

func (l *stringList) String() string     { return strings.Join(*l, ",") }
func (l *stringList) Set(v string) error { *l = append(*l, v); return nil }

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "reconf:", err)
		os.Exit(1)
	}
}

func run(argv []string) error {
	var files, tomlFiles, overrides stringList
	fs := flag.NewFlagSet("reconf", flag.ContinueOnError)
	fs.Var(&files, "file", "configuration file or path list (repeatable)")
	fs.Var(&tomlFiles, "toml", "TOML configuration file (repeatable)")
	fs.Var(&overrides, "set", "override as section:option=value (repeatable)")
	env := fs.String("env", "", "environment variable listing configuration files")
	app := fs.String("app", "", "application name for standard file discovery and APP_CONFIG")
	get := fs.String("get", "", "print a single value given as section:option")
	logging := fs.Bool("logging", false, "print the logging configuration as JSON")
	format := fs.String("format", "ini", "output format for the merged store: ini or toml")
	verbose := fs.Bool("v", false, "log source activity to stderr")
	if err := fs.Parse(argv); err != nil {
		return err
	}

	b := reconf.NewBuilder().WithArgs(nil)
	if *verbose {
		b.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	if *app != "" {
		b.WithStandardFiles(reconf.DefaultDiscoveryOptions(*app)).
			WithEnviron(reconf.EnvVarName(*app))
	}
	for _, f := range files {
		b.WithFile(f)
	}
	for _, f := range tomlFiles {
		b.WithTOMLFile(f)
	}
	if *env != "" {
		b.WithEnviron(*env)
	}
	args := make([]string, 0, len(overrides))
	for _, o := range overrides {
		args = append(args, "--"+o)
	}
	b.WithArgs(args)

	reg, err := b.Build()
	if err != nil {
		return err
	}
	st, err := reg.Build()
	if err != nil {
		return err
	}

	switch {
	case *get != "":
		section, option, ok := strings.Cut(*get, ":")
		if !ok {
			return fmt.Errorf("-get expects section:option, got %q", *get)
		}
		value, err := st.Get(section, option)
		if err != nil {
			return err
		}
		fmt.Println(value)
		return nil
	case *logging:
		dict, err := logconfig.Build(st)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(dict)
	}

	switch *format {
	case "ini":
		_, err = st.WriteTo(os.Stdout)
	case "toml":
		err = st.EncodeTOML(os.Stdout)
	default:
		err = fmt.Errorf("unknown format %q", *format)
	}
	return err
}
