package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

func logCommand(log *slog.Logger) *Command {
	return &Command{
		Name:      "log",
		Summary:   "Show commit history starting at Head",
		Usage:     "cvs log [--format=doc]",
		Examples:  []string{"cvs log", "cvs log --format=doc"},
		NeedsRepo: true,
		Run: func(args []string) int {
			docFormat := false
			for _, a := range args {
				if a == "--format=doc" {
					docFormat = true
				}
			}

			r, err := openRepo(log)
			if err != nil {
				return fail(os.Stderr, "cvs log: %v", err)
			}
			_, headCommit, err := r.ResolveHead()
			if err != nil {
				return fail(os.Stderr, "cvs log: %v", err)
			}

			for c := range r.Parents(headCommit, true) {
				fmt.Printf("commit %s\n", c.Hash().Short()) //nolint:gosec // CLI stdout
				message := c.Message
				if docFormat && looksLikeMarkdown(message) {
					rendered, err := renderMarkdownANSI(message)
					if err == nil {
						message = rendered
					}
				}
				for _, line := range strings.Split(message, "\n") {
					fmt.Printf("    %s\n", line) //nolint:gosec // CLI stdout
				}
				fmt.Println() //nolint:gosec // CLI stdout
			}
			return 0
		},
	}
}
