package cli

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/pterm/pterm"

	"github.com/rybkr/coolcvs/internal/corevcs"
)

func statusCommand(log *slog.Logger) *Command {
	return &Command{
		Name:      "status",
		Summary:   "Show staged, modified, new, and removed files",
		Usage:     "cvs status",
		NeedsRepo: true,
		Run: func(args []string) int {
			r, err := openRepo(log)
			if err != nil {
				return fail(os.Stderr, "cvs status: %v", err)
			}
			idx, _, err := loadWorkingIndex(r)
			if err != nil {
				return fail(os.Stderr, "cvs status: %v", err)
			}
			printStatus(r, idx)
			return 0
		},
	}
}

func printStatus(r *corevcs.Repository, idx *corevcs.Index) {
	state, _, err := r.ResolveHead()
	if err == nil {
		if state.Detached {
			pterm.Info.Printfln("HEAD detached at %s", state.Commit.Short())
		} else {
			pterm.Info.Printfln("On branch %s", state.Branch)
		}
	}

	if s, err := r.LoadRebaseState(); err == nil && s != nil {
		printRebaseStatus(s)
	}

	if len(idx.Staged) > 0 {
		pterm.DefaultBulletList.WithItems(statusItems(idx.Staged, pterm.FgGreen)).Render()
	} else {
		fmt.Println("nothing staged") //nolint:gosec // CLI stdout
	}

	pending := make(map[corevcs.Descriptor]corevcs.Hash)
	for d, h := range idx.New {
		pending[d] = h
	}
	for d, h := range idx.Modified {
		pending[d] = h
	}
	for d, h := range idx.Removed {
		pending[d] = h
	}
	unstaged := make(map[corevcs.Descriptor]corevcs.Hash)
	for d, h := range pending {
		if _, staged := idx.Staged[d]; !staged {
			unstaged[d] = h
		}
	}
	if len(unstaged) > 0 {
		pterm.Warning.Println("changes not staged for commit")
		pterm.DefaultBulletList.WithItems(statusItems(unstaged, pterm.FgYellow)).Render()
	}
}

func printRebaseStatus(s *corevcs.RebaseState) {
	if s.IsConflict {
		pterm.Warning.Printfln("rebase in progress (%s -> %s): conflict in %s, resolve and run `cvs rebase --continue`",
			s.SourceBranch, s.DestinationBranch, s.CurrentFile.Path)
		return
	}
	pterm.Info.Printfln("rebase in progress (%s -> %s): %d commit(s) applied, %d remaining",
		s.SourceBranch, s.DestinationBranch, len(s.Applied), len(s.NotApplied))
}

func statusItems(files map[corevcs.Descriptor]corevcs.Hash, color pterm.Color) []pterm.BulletListItem {
	paths := make([]string, 0, len(files))
	for d := range files {
		label := d.Path
		if d.Removed {
			label = "removed: " + label
		}
		paths = append(paths, label)
	}
	sort.Strings(paths)

	items := make([]pterm.BulletListItem, 0, len(paths))
	for _, p := range paths {
		items = append(items, pterm.BulletListItem{Level: 0, Text: p, TextStyle: pterm.NewStyle(color)})
	}
	return items
}
