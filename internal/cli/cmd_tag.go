package cli

import (
	"fmt"
	"log/slog"
	"os"
)

func tagCommand(log *slog.Logger) *Command {
	return &Command{
		Name:    "tag",
		Summary: "List, create, or delete tags",
		Usage:   "cvs tag [-l] | cvs tag [-c] <name> | cvs tag -d <name>",
		Examples: []string{
			"cvs tag",
			"cvs tag v0.1.0",
			"cvs tag -d v0.1.0",
		},
		NeedsRepo: true,
		Run: func(args []string) int {
			r, err := openRepo(log)
			if err != nil {
				return fail(os.Stderr, "cvs tag: %v", err)
			}

			switch {
			case len(args) == 0 || (len(args) == 1 && args[0] == "-l"):
				names, err := r.Tags()
				if err != nil {
					return fail(os.Stderr, "cvs tag: %v", err)
				}
				for _, n := range names {
					fmt.Println(n) //nolint:gosec // CLI stdout
				}
				return 0

			case args[0] == "-d":
				if len(args) != 2 {
					return fail(os.Stderr, "cvs tag -d: expected a tag name")
				}
				if err := r.DeleteTag(args[1]); err != nil {
					return fail(os.Stderr, "cvs tag -d: %v", err)
				}
				return 0

			default:
				name := args[0]
				if name == "-c" {
					if len(args) != 2 {
						return fail(os.Stderr, "cvs tag -c: expected a tag name")
					}
					name = args[1]
				}
				_, headCommit, err := r.ResolveHead()
				if err != nil {
					return fail(os.Stderr, "cvs tag: %v", err)
				}
				if err := r.CreateTag(name, headCommit.Hash()); err != nil {
					return fail(os.Stderr, "cvs tag: %v", err)
				}
				return 0
			}
		},
	}
}
