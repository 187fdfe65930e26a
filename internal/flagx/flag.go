// Package flagx contains helpers for parsing a subset of command-line flags
// without tripping over flags owned by other components.
package flagx

import (
	"flag"
	"io"
	"os"
	"strings"
)

// ConfigEnvVar names the environment variable consulted by JsonConfigFlags
// when neither -c nor -config is given.
const ConfigEnvVar = "CONFIG"

// FilterArgs returns the subset of args made of allowedFlags and their values.
//
// Supported formats:
//  1. Flag and value as separate arguments:  -c conf.json
//  2. Flag and value combined with '=':      -config=conf.json
//
// A value following a bare flag is kept only if it does not itself look like
// a flag. The result is never nil.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]bool, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = true
	}

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		name, _, inline := strings.Cut(args[i], "=")
		switch {
		case !strings.HasPrefix(name, "-") || !allowed[name]:
		case inline:
			filtered = append(filtered, args[i])
		default:
			filtered = append(filtered, name)
			if next := i + 1; next < len(args) && !strings.HasPrefix(args[next], "-") {
				filtered = append(filtered, args[next])
				i = next
			}
		}
	}
	return filtered
}

// JsonConfigFlags returns the config file path given via -c or -config,
// falling back to $CONFIG. Empty means no file.
func JsonConfigFlags() string {
	var path string
	fs := flag.NewFlagSet("config-path", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "JSON config file")
	fs.StringVar(&path, "c", "", "JSON config file (shorthand)")
	_ = fs.Parse(FilterArgs(os.Args[1:], []string{"-c", "-config"}))

	if path != "" {
		return path
	}
	return os.Getenv(ConfigEnvVar)
}
