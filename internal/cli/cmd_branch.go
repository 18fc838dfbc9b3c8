package cli

import (
	"fmt"
	"log/slog"
	"os"
)

func branchCommand(log *slog.Logger) *Command {
	return &Command{
		Name:    "branch",
		Summary: "List, create, or delete branches",
		Usage:   "cvs branch [-l] | cvs branch [-c] <name> | cvs branch -d <name>",
		Examples: []string{
			"cvs branch",
			"cvs branch feature/rebase-ui",
			"cvs branch -d feature/rebase-ui",
		},
		NeedsRepo: true,
		Run: func(args []string) int {
			r, err := openRepo(log)
			if err != nil {
				return fail(os.Stderr, "cvs branch: %v", err)
			}

			switch {
			case len(args) == 0 || (len(args) == 1 && args[0] == "-l"):
				names, err := r.Branches()
				if err != nil {
					return fail(os.Stderr, "cvs branch: %v", err)
				}
				head, herr := r.ResolveHeadBranch()
				for _, n := range names {
					if herr == nil && n == head {
						fmt.Printf("* %s\n", n) //nolint:gosec // CLI stdout
					} else {
						fmt.Printf("  %s\n", n) //nolint:gosec // CLI stdout
					}
				}
				return 0

			case args[0] == "-d":
				if len(args) != 2 {
					return fail(os.Stderr, "cvs branch -d: expected a branch name")
				}
				if err := r.DeleteBranch(args[1]); err != nil {
					return fail(os.Stderr, "cvs branch -d: %v", err)
				}
				return 0

			default:
				name := args[0]
				if name == "-c" {
					if len(args) != 2 {
						return fail(os.Stderr, "cvs branch -c: expected a branch name")
					}
					name = args[1]
				}
				_, headCommit, err := r.ResolveHead()
				if err != nil {
					return fail(os.Stderr, "cvs branch: %v", err)
				}
				if err := r.CreateBranch(name, headCommit.Hash()); err != nil {
					return fail(os.Stderr, "cvs branch: %v", err)
				}
				return 0
			}
		},
	}
}
