// Command cvs is the command-line driver for the cool_cvs version
// control engine (internal/corevcs). It parses global flags, wires a
// structured logger, and dispatches to subcommands.
package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/rybkr/coolcvs/internal/cli"
	"github.com/rybkr/coolcvs/internal/termcolor"
)

// version is overridden at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	colorMode := termcolor.ColorAuto
	verbose := false

	var rest []string
	for _, a := range args {
		switch {
		case a == "--no-color":
			colorMode = termcolor.ColorNever
		case a == "--verbose":
			verbose = true
		case strings.HasPrefix(a, "--color="):
			if mode, err := termcolor.ParseColorMode(strings.TrimPrefix(a, "--color=")); err == nil {
				colorMode = mode
			}
		default:
			rest = append(rest, a)
		}
	}

	cw := termcolor.NewWriter(os.Stdout, colorMode)

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	app := cli.NewApp("cvs", version)
	cli.Register(app, log)
	return app.Run(rest, cw)
}
