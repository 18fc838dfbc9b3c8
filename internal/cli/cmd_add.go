package cli

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rybkr/coolcvs/internal/corevcs"
)

func addCommand(log *slog.Logger) *Command {
	return &Command{
		Name:      "add",
		Summary:   "Stage new, modified, or removed files for the next commit",
		Usage:     "cvs add <path>... | cvs add . | cvs add --all",
		Examples:  []string{"cvs add main.go", "cvs add --all"},
		NeedsRepo: true,
		Run: func(args []string) int {
			if len(args) == 0 {
				return fail(os.Stderr, "cvs add: nothing specified, expected a path or --all")
			}
			r, err := openRepo(log)
			if err != nil {
				return fail(os.Stderr, "cvs add: %v", err)
			}
			idx, _, err := loadWorkingIndex(r)
			if err != nil {
				return fail(os.Stderr, "cvs add: %v", err)
			}

			all := len(args) == 1 && (args[0] == "--all" || args[0] == ".")
			if all {
				for d := range idx.New {
					if err := idx.AddToStaged(r, d); err != nil {
						return fail(os.Stderr, "cvs add: %v", err)
					}
				}
				for d := range idx.Modified {
					if err := idx.AddToStaged(r, d); err != nil {
						return fail(os.Stderr, "cvs add: %v", err)
					}
				}
				for d := range idx.Removed {
					if err := idx.AddToStaged(r, d); err != nil {
						return fail(os.Stderr, "cvs add: %v", err)
					}
				}
				return 0
			}

			for _, path := range args {
				d, ok := findPendingDescriptor(idx, path)
				if !ok {
					return fail(os.Stderr, "cvs add: %q has no pending change", path)
				}
				if err := idx.AddToStaged(r, d); err != nil {
					return fail(os.Stderr, "cvs add: %v", err)
				}
			}
			return 0
		},
	}
}

// findPendingDescriptor resolves a bare path argument to the descriptor
// that carries its pending change: a directory argument (checked via
// os.Stat) classifies as Tree, otherwise Blob (§6 `add` "classify as
// Blob or Tree"), then checks new, modified, then removed in that
// order. Only a wholly-new directory ever appears as a pending Tree
// descriptor (see Index.collapseNewDirectories); a partially-changed
// directory still has to be added file by file.
func findPendingDescriptor(idx *corevcs.Index, path string) (corevcs.Descriptor, bool) {
	path = filepath.ToSlash(path)

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		tree := corevcs.Descriptor{Path: path, Kind: corevcs.KindTree}
		if _, ok := idx.New[tree]; ok {
			return tree, true
		}
	}

	live := corevcs.Descriptor{Path: path, Kind: corevcs.KindBlob}
	if _, ok := idx.New[live]; ok {
		return live, true
	}
	if _, ok := idx.Modified[live]; ok {
		return live, true
	}
	tomb := live.Tombstone()
	if _, ok := idx.Removed[tomb]; ok {
		return tomb, true
	}
	return corevcs.Descriptor{}, false
}
