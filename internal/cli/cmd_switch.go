package cli

import (
	"log/slog"
	"os"
)

func switchCommand(log *slog.Logger) *Command {
	return &Command{
		Name:      "switch",
		Summary:   "Point Head at an existing branch and restore its tree",
		Usage:     "cvs switch <branch>",
		Examples:  []string{"cvs switch master"},
		NeedsRepo: true,
		Run: func(args []string) int {
			if len(args) != 1 {
				return fail(os.Stderr, "cvs switch: expected a branch name")
			}
			r, err := openRepo(log)
			if err != nil {
				return fail(os.Stderr, "cvs switch: %v", err)
			}
			if err := r.SwitchToBranch(args[0]); err != nil {
				return fail(os.Stderr, "cvs switch: %v", err)
			}
			_, headCommit, err := r.ResolveHead()
			if err != nil {
				return fail(os.Stderr, "cvs switch: %v", err)
			}
			if err := r.Restore(headCommit.Hash()); err != nil {
				return fail(os.Stderr, "cvs switch: %v", err)
			}
			return 0
		},
	}
}
