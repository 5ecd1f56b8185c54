// Package flagx lets several configuration layers share one command line.
// Each layer keeps only the flags it owns and parses them with its own
// FlagSet, so flags registered elsewhere never cause "flag provided but not
// defined" errors.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs returns the arguments in args that belong to the named flags,
// together with their values, in their original order.
//
// Names are given without dashes; "-name" and "--name" are both accepted on
// the command line, as the flag package does. Values may be attached
// ("-c=conf.json") or follow as the next argument ("-c conf.json"). A next
// argument starting with "-" is never taken as a value.
func FilterArgs(args []string, names []string) []string {
	owned := make(map[string]struct{}, len(names))
	for _, n := range names {
		owned[strings.TrimLeft(n, "-")] = struct{}{}
	}

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		name, _, attached := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if _, ok := owned[name]; !ok {
			continue
		}
		filtered = append(filtered, arg)

		if !attached && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}
	return filtered
}

// ConfigFile returns the config file path given with -c or -config, or "".
// When both appear the last one wins.
func ConfigFile(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"c", "config"}))

	return path
}
