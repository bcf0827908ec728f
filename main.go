// pattern: Imperative Shell
package main

import (
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"projectbranch/internal/cli"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run parses the global flags and dispatches the rest to the CLI app. It
// returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("projectbranch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	// Stop parsing flags after the first non-flag arg (the subcommand),
	// so that --help after a subcommand is handled by the subcommand.
	fs.SetInterspersed(false)

	opts := cli.Options{Stdin: stdin, Stdout: stdout, Stderr: stderr}
	fs.StringVarP(&opts.ConfigDir, "config-dir", "c", "", "config directory (default: ~/.config/projectbranch)")
	fs.StringArrayVarP(&opts.Roots, "root", "r", nil, "workspace root, replaces configured roots (repeatable)")
	fs.BoolVar(&opts.JSON, "json", false, "output JSON even on a terminal")
	fs.StringVar(&opts.LogLevel, "log-level", "", "log level: debug, info, warn, error")

	// Override Usage before Parse so --help uses the CLI app's help
	fs.Usage = func() {
		app := cli.BuildApp(version, opts)
		app.PrintHelp(stderr)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}

	app := cli.BuildApp(version, opts)
	if fs.NArg() == 0 {
		fs.Usage()
		return 1
	}
	return app.Execute(fs.Args())
}
