package corevcs

import (
	"io/fs"
	"os"
	"path/filepath"
)

// Scan walks the working directory rooted at r.workDir and returns a
// descriptor/hash pair for every tracked file (§4.3 "scanner"). Only
// regular files are reported as leaves; directories are descended into
// but not reported themselves, matching the history engine's leaf-only
// ExpandFullTree output.
func (r *Repository) Scan() (map[Descriptor]Hash, error) {
	const op = "Repository.Scan"
	result := make(map[Descriptor]Hash)

	err := filepath.WalkDir(r.workDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == r.workDir {
			return nil
		}

		relPath, relErr := filepath.Rel(r.workDir, path)
		if relErr != nil {
			return relErr
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if r.ignore.Matches(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if r.ignore.Matches(relPath) {
			return nil
		}

		content, readErr := os.ReadFile(path) //nolint:gosec // path comes from WalkDir under the repository root
		if readErr != nil {
			return readErr
		}

		blob := &Blob{Content: content}
		result[Descriptor{Path: relPath, Kind: KindBlob, Removed: false}] = blob.Hash()
		return nil
	})
	if err != nil {
		return nil, newErr(KindIO, op, err)
	}
	return result, nil
}
