package corevcs

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// ignoreSet holds the set of path prefixes the scanner skips: always the
// sentinel directory, plus whatever the repository's root .cvsignore
// file lists (§4.8 supplemented feature, generalizing the Python
// original's single-entry CVS.ignore set).
//
// Unlike .gitignore, this is deliberately not a glob matcher — the
// original source's ignore set is a flat set of path prefixes, and full
// gitignore semantics are out of scope here.
type ignoreSet struct {
	prefixes []string
}

// loadIgnoreSet reads <root>/.cvsignore if present. A missing file is
// not an error — it just means no extra ignores beyond the sentinel.
func loadIgnoreSet(root string) (*ignoreSet, error) {
	ig := &ignoreSet{prefixes: []string{SentinelDir}}

	f, err := os.Open(filepath.Join(root, ignoreFileName)) //nolint:gosec // fixed filename under the repository root
	if err != nil {
		if os.IsNotExist(err) {
			return ig, nil
		}
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ig.prefixes = append(ig.prefixes, line)
	}
	return ig, scanner.Err()
}

// Matches reports whether relPath (slash-separated, relative to the
// repository root) falls under any ignored prefix.
func (ig *ignoreSet) Matches(relPath string) bool {
	for _, p := range ig.prefixes {
		if relPath == p || strings.HasPrefix(relPath, p+"/") {
			return true
		}
	}
	return false
}
