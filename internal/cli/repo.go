package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/rybkr/coolcvs/internal/corevcs"
)

// openRepo loads the repository rooted at the current working directory,
// printing a uniform error to stderr on failure (§6: no cd/ls conveniences,
// operate on cwd directly).
func openRepo(log *slog.Logger) (*corevcs.Repository, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return corevcs.Open(cwd, log)
}

// loadWorkingIndex loads the persisted Staged set and refreshes
// New/Modified/Removed against headCommit, the shape every mutating
// command except init needs before doing anything else.
func loadWorkingIndex(r *corevcs.Repository) (*corevcs.Index, *corevcs.Commit, error) {
	_, headCommit, err := r.ResolveHead()
	if err != nil {
		return nil, nil, err
	}
	idx, err := r.LoadIndex()
	if err != nil {
		return nil, nil, err
	}
	if err := idx.Update(r, headCommit); err != nil {
		return nil, nil, err
	}
	return idx, headCommit, nil
}

func fail(stderr io.Writer, format string, a ...any) int {
	fmt.Fprintf(stderr, format+"\n", a...) //nolint:gosec // CLI stderr
	return 1
}
