package cli

import (
	"fmt"
	"log/slog"
	"os"
)

func commitCommand(log *slog.Logger) *Command {
	return &Command{
		Name:      "commit",
		Summary:   "Record the staged changes as a new commit",
		Usage:     "cvs commit [-m <message>]",
		Examples:  []string{`cvs commit -m "fix off-by-one in scanner"`},
		NeedsRepo: true,
		Run: func(args []string) int {
			message, ok := parseMessageFlag(args)
			if !ok && len(args) > 0 {
				return fail(os.Stderr, "cvs commit: expected -m <message>")
			}
			r, err := openRepo(log)
			if err != nil {
				return fail(os.Stderr, "cvs commit: %v", err)
			}
			idx, err := r.LoadIndex()
			if err != nil {
				return fail(os.Stderr, "cvs commit: %v", err)
			}
			commit, err := r.MakeCommit(idx, message)
			if err != nil {
				return fail(os.Stderr, "cvs commit: %v", err)
			}
			if commit == nil {
				fmt.Println("nothing staged, nothing to commit") //nolint:gosec // CLI stdout
				return 0
			}
			fmt.Printf("[%s] %s\n", commit.Hash().Short(), message) //nolint:gosec // CLI stdout
			return 0
		},
	}
}

// parseMessageFlag extracts "-m <message>" from args. Without -m the
// commit is recorded with an empty message.
func parseMessageFlag(args []string) (string, bool) {
	for i, a := range args {
		if a == "-m" && i+1 < len(args) {
			return args[i+1], true
		}
	}
	return "", false
}
