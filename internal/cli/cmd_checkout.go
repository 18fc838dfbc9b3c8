package cli

import (
	"log/slog"
	"os"

	"github.com/rybkr/coolcvs/internal/corevcs"
)

func checkoutCommand(log *slog.Logger) *Command {
	return &Command{
		Name:      "checkout",
		Summary:   "Detach Head at a commit or tag and restore its tree",
		Usage:     "cvs checkout <commit-hash|tag>",
		Examples:  []string{"cvs checkout v0.1.0", "cvs checkout 4fa2c91..."},
		NeedsRepo: true,
		Run: func(args []string) int {
			if len(args) != 1 {
				return fail(os.Stderr, "cvs checkout: expected a commit hash or tag name")
			}
			r, err := openRepo(log)
			if err != nil {
				return fail(os.Stderr, "cvs checkout: %v", err)
			}

			h, err := corevcs.NewHash(args[0])
			if err != nil || h == corevcs.ZeroHash {
				h, err = r.ResolveTag(args[0])
				if err != nil {
					return fail(os.Stderr, "cvs checkout: %q is not a commit hash or known tag", args[0])
				}
			}

			if err := r.CheckoutDetached(h); err != nil {
				return fail(os.Stderr, "cvs checkout: %v", err)
			}
			if err := r.Restore(h); err != nil {
				return fail(os.Stderr, "cvs checkout: %v", err)
			}
			return 0
		},
	}
}
