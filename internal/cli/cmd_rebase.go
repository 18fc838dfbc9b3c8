package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"

	"github.com/rybkr/coolcvs/internal/corevcs"
)

func rebaseCommand(log *slog.Logger) *Command {
	return &Command{
		Name:    "rebase",
		Summary: "Replay a branch's unique commits onto the current branch",
		Usage:   "cvs rebase <source-branch> | cvs rebase --onto <target> <source> | cvs rebase --continue | cvs rebase --abort",
		Examples: []string{
			"cvs rebase feature/login",
			"cvs rebase --onto master feature/login",
			"cvs rebase --continue",
			"cvs rebase --abort",
		},
		NeedsRepo: true,
		Run: func(args []string) int {
			if len(args) == 3 && args[0] == "--onto" {
				r, err := openRepo(log)
				if err != nil {
					return fail(os.Stderr, "cvs rebase: %v", err)
				}
				return runRebaseOnto(r, args[1], args[2])
			}
			if len(args) != 1 {
				return fail(os.Stderr, "cvs rebase: expected a source branch, --onto <target> <source>, --continue, or --abort")
			}
			r, err := openRepo(log)
			if err != nil {
				return fail(os.Stderr, "cvs rebase: %v", err)
			}

			switch args[0] {
			case "--abort":
				return runRebaseAbort(r)
			case "--continue":
				return runRebaseContinue(r)
			default:
				return runRebaseStart(r, args[0])
			}
		},
	}
}

func runRebaseStart(r *corevcs.Repository, sourceBranch string) int {
	s, err := r.InitializeRebase(sourceBranch)
	if err != nil {
		return fail(os.Stderr, "cvs rebase: %v", err)
	}
	s, err = r.Rebase(s)
	if err != nil {
		return fail(os.Stderr, "cvs rebase: %v", err)
	}
	return reportRebaseState(r, s)
}

func runRebaseOnto(r *corevcs.Repository, targetBranch, sourceBranch string) int {
	s, err := r.InitializeRebaseOnto(targetBranch, sourceBranch)
	if err != nil {
		return fail(os.Stderr, "cvs rebase --onto: %v", err)
	}
	s, err = r.Rebase(s)
	if err != nil {
		return fail(os.Stderr, "cvs rebase --onto: %v", err)
	}
	return reportRebaseState(r, s)
}

func runRebaseContinue(r *corevcs.Repository) int {
	s, err := r.LoadRebaseState()
	if err != nil {
		return fail(os.Stderr, "cvs rebase --continue: %v", err)
	}
	if s == nil {
		return fail(os.Stderr, "cvs rebase --continue: no rebase in progress")
	}
	if !s.IsConflict || s.CurrentFile == nil {
		return fail(os.Stderr, "cvs rebase --continue: no conflict to resolve")
	}

	resolved, err := os.ReadFile(filepath.Join(r.WorkDir(), filepath.FromSlash(s.CurrentFile.Path))) //nolint:gosec // path comes from the repository's own rebase state
	if err != nil {
		return fail(os.Stderr, "cvs rebase --continue: %v", err)
	}
	s, err = r.ContinueRebase(s, resolved)
	if err != nil {
		return fail(os.Stderr, "cvs rebase --continue: %v", err)
	}
	return reportRebaseState(r, s)
}

func runRebaseAbort(r *corevcs.Repository) int {
	s, err := r.LoadRebaseState()
	if err != nil {
		return fail(os.Stderr, "cvs rebase --abort: %v", err)
	}
	if s == nil {
		return fail(os.Stderr, "cvs rebase --abort: no rebase in progress")
	}
	if err := r.AbortRebase(s); err != nil {
		return fail(os.Stderr, "cvs rebase --abort: %v", err)
	}
	pterm.Success.Println("rebase aborted, working tree restored")
	return 0
}

// reportRebaseState prints the outcome of a rebase step and, on a clean
// finish, restores the working directory to the new tip (§6 rebase
// command table: "on success, Restore(head.commit)").
func reportRebaseState(r *corevcs.Repository, s *corevcs.RebaseState) int {
	if s.IsConflict {
		box := pterm.DefaultBox.WithTitle("rebase conflict").WithTitleTopCenter()
		box.Println(fmt.Sprintf(
			"file: %s\nresolve the conflict markers in place, then run:\n  cvs rebase --continue",
			s.CurrentFile.Path,
		))
		return 1
	}
	if err := r.Restore(s.CurrentDstCommit); err != nil {
		return fail(os.Stderr, "cvs rebase: %v", err)
	}
	pterm.Success.Printfln("rebase complete: %d commit(s) replayed", len(s.Applied))
	return 0
}
