package cli

import (
	"log/slog"
	"os"

	"github.com/rybkr/coolcvs/internal/corevcs"
)

func resetCommand(log *slog.Logger) *Command {
	return &Command{
		Name:      "reset",
		Summary:   "Move Head (and the current branch) to a commit",
		Usage:     "cvs reset [--hard] <commit-hash>",
		Examples:  []string{"cvs reset HEAD~", "cvs reset --hard 4fa2c91..."},
		NeedsRepo: true,
		Run: func(args []string) int {
			hard := false
			var target string
			for _, a := range args {
				if a == "--hard" {
					hard = true
					continue
				}
				target = a
			}
			if target == "" {
				return fail(os.Stderr, "cvs reset: expected a commit hash")
			}

			r, err := openRepo(log)
			if err != nil {
				return fail(os.Stderr, "cvs reset: %v", err)
			}

			var h corevcs.Hash
			if target == "HEAD~" {
				_, headCommit, err := r.ResolveHead()
				if err != nil {
					return fail(os.Stderr, "cvs reset: %v", err)
				}
				h = headCommit.Parent
			} else {
				h, err = corevcs.NewHash(target)
				if err != nil {
					return fail(os.Stderr, "cvs reset: %v", err)
				}
			}

			if err := r.Reset(h, hard); err != nil {
				return fail(os.Stderr, "cvs reset: %v", err)
			}
			return 0
		},
	}
}
