package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/rybkr/coolcvs/internal/corevcs"
	"github.com/rybkr/coolcvs/internal/progress"
)

const watchDebounce = 150 * time.Millisecond

// watchCommand re-runs `status` whenever the working tree changes. It is
// a driver-only convenience (§4.7 supplemented feature): fsnotify never
// appears inside internal/corevcs.
func watchCommand(log *slog.Logger) *Command {
	return &Command{
		Name:      "watch",
		Summary:   "Re-run status whenever the working tree changes",
		Usage:     "cvs watch",
		NeedsRepo: true,
		Run: func(args []string) int {
			r, err := openRepo(log)
			if err != nil {
				return fail(os.Stderr, "cvs watch: %v", err)
			}

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fail(os.Stderr, "cvs watch: %v", err)
			}
			defer watcher.Close()

			if err := watchTree(watcher, r.WorkDir(), r); err != nil {
				return fail(os.Stderr, "cvs watch: %v", err)
			}

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

			fmt.Println("watching for changes, Ctrl-C to stop") //nolint:gosec // CLI stdout
			printWatchedStatus(r)

			spinner := progress.New("watching")
			spinner.Start()

			var debounce *time.Timer
			fire := make(chan struct{}, 1)
			for {
				select {
				case <-sig:
					spinner.Stop()
					return 0
				case err := <-watcher.Errors:
					log.Warn("watch error", "err", err)
				case _, ok := <-watcher.Events:
					if !ok {
						spinner.Stop()
						return 0
					}
					if debounce != nil {
						debounce.Stop()
					}
					debounce = time.AfterFunc(watchDebounce, func() {
						select {
						case fire <- struct{}{}:
						default:
						}
					})
				case <-fire:
					spinner.Stop()
					printWatchedStatus(r)
					spinner = progress.New("watching")
					spinner.Start()
				}
			}
		},
	}
}

// watchTree adds fsnotify watches for root and every subdirectory except
// the sentinel directory, since fsnotify does not recurse. Directories
// listed in .cvsignore are still watched, and directories created after
// the watch starts are not added.
func watchTree(watcher *fsnotify.Watcher, root string, r *corevcs.Repository) error {
	if err := watcher.Add(root); err != nil {
		return err
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if e.Name() == corevcs.SentinelDir {
			continue
		}
		if err := watchTree(watcher, root+string(os.PathSeparator)+e.Name(), r); err != nil {
			return err
		}
	}
	return nil
}

func printWatchedStatus(r *corevcs.Repository) {
	idx, _, err := loadWorkingIndex(r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cvs watch: %v\n", err) //nolint:gosec // CLI stderr
		return
	}
	fmt.Println("---") //nolint:gosec // CLI stdout
	printStatus(r, idx)
}
