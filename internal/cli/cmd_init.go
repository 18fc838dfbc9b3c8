package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/rybkr/coolcvs/internal/corevcs"
)

func initCommand(log *slog.Logger) *Command {
	return &Command{
		Name:    "init",
		Summary: "Create a new repository in the current directory",
		Usage:   "cvs init",
		Run: func(args []string) int {
			cwd, err := os.Getwd()
			if err != nil {
				return fail(os.Stderr, "cvs init: %v", err)
			}
			if _, err := corevcs.Init(cwd, log); err != nil {
				return fail(os.Stderr, "cvs init: %v", err)
			}
			fmt.Printf("Initialized empty repository in %s\n", cwd) //nolint:gosec // CLI stdout
			return 0
		},
	}
}
