package corevcs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

const indexDir = "index"
const stagedFile = "STAGED"

// Index is the working-tree scanner's comparison result plus the
// staging set (§4.3). A zero Index is ready to use after NewIndex.
type Index struct {
	Staged   map[Descriptor]Hash
	New      map[Descriptor]Hash
	Modified map[Descriptor]Hash
	Removed  map[Descriptor]Hash
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{
		Staged:   make(map[Descriptor]Hash),
		New:      make(map[Descriptor]Hash),
		Modified: make(map[Descriptor]Hash),
		Removed:  make(map[Descriptor]Hash),
	}
}

// stagedEntry is the on-disk representation of one Staged entry: Go's
// encoding/json cannot use a struct directly as a map key, so the staged
// set is flattened to a slice for persistence (§6 "index/" directory).
type stagedEntry struct {
	Descriptor Descriptor
	Hash       Hash
}

func (r *Repository) stagedPath() string { return filepath.Join(r.gitDir, indexDir, stagedFile) }

// LoadIndex returns an Index with Staged populated from the persisted
// on-disk set (empty if none has ever been saved). New/Modified/Removed
// are left empty; call Update to populate them against a head commit.
func (r *Repository) LoadIndex() (*Index, error) {
	idx := NewIndex()
	data, err := os.ReadFile(r.stagedPath()) //nolint:gosec // fixed filename under the repository's sentinel directory
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, newErr(KindIO, "Repository.LoadIndex", err)
	}
	var entries []stagedEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, newErr(KindCorrupt, "Repository.LoadIndex", err)
	}
	for _, e := range entries {
		idx.Staged[e.Descriptor] = e.Hash
	}
	return idx, nil
}

// saveStaged persists idx.Staged to disk so it survives across separate
// `add`/`commit` CLI invocations (§4.3).
func (idx *Index) saveStaged(r *Repository) error {
	entries := make([]stagedEntry, 0, len(idx.Staged))
	for d, h := range idx.Staged {
		entries = append(entries, stagedEntry{Descriptor: d, Hash: h})
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return newErr(KindIO, "Index.saveStaged", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.stagedPath()), 0o755); err != nil {
		return newErr(KindIO, "Index.saveStaged", err)
	}
	if err := atomicWrite(r.stagedPath(), data); err != nil {
		return newErr(KindIO, "Index.saveStaged", err)
	}
	return nil
}

// Update recomputes New, Modified, Removed by diffing the working tree
// against the full tree state at headCommit. Staged is left untouched
// (§4.3).
func (idx *Index) Update(r *Repository, headCommit *Commit) error {
	treeFiles, err := r.ExpandFullTree(headCommit)
	if err != nil {
		return err
	}
	dirFiles, err := r.Scan()
	if err != nil {
		return err
	}

	newSet := make(map[Descriptor]Hash)
	modified := make(map[Descriptor]Hash)
	equal := make(map[Descriptor]bool)

	for d, h := range dirFiles {
		if prev, ok := treeFiles[d]; !ok {
			newSet[d] = h
		} else if prev != h {
			modified[d] = h
		} else {
			equal[d] = true
		}
	}

	removed := make(map[Descriptor]Hash)
	for d, h := range treeFiles {
		if _, isMod := modified[d]; equal[d] || isMod {
			continue
		}
		tomb := d.Tombstone()
		if _, alreadyDead := treeFiles[tomb]; alreadyDead {
			continue
		}
		removed[tomb] = h
	}

	if err := collapseNewDirectories(r, newSet, treeFiles); err != nil {
		return err
	}

	idx.New = newSet
	idx.Modified = modified
	idx.Removed = removed
	return nil
}

// collapseNewDirectories folds newly-created blob descriptors that sit
// entirely under a directory absent from history into a single Tree
// descriptor for that directory, so `add <dir>` (§6) can classify and
// stage the whole directory at once and MakeCommit's Tree branch
// (§4.3 step 2) has something to snapshot. Only wholly-new top-level
// directories collapse this way: a directory with at least one file
// already known to history keeps its changes tracked at individual-file
// granularity, since a partially-changed directory has no single
// well-defined Tree hash to diff against on the next Update.
func collapseNewDirectories(r *Repository, newSet map[Descriptor]Hash, treeFiles map[Descriptor]Hash) error {
	byDir := make(map[string][]Descriptor)
	for d := range newSet {
		if d.Kind != KindBlob {
			continue
		}
		if dir := topLevelDir(d.Path); dir != "" {
			byDir[dir] = append(byDir[dir], d)
		}
	}

	for dir, descs := range byDir {
		prefix := dir + "/"
		known := false
		for d := range treeFiles {
			if strings.HasPrefix(d.Path, prefix) {
				known = true
				break
			}
		}
		if known {
			continue
		}

		h, err := r.dirTreeHash(dir)
		if err != nil {
			return err
		}
		for _, d := range descs {
			delete(newSet, d)
		}
		newSet[Descriptor{Path: dir, Kind: KindTree}] = h
	}
	return nil
}

func topLevelDir(path string) string {
	i := strings.Index(path, "/")
	if i < 0 {
		return ""
	}
	return path[:i]
}

// dirTreeHash computes the Tree hash that snapshotDirectory would write
// for relPath, without writing anything to the store: it only needs to
// give collapseNewDirectories a stable comparison value, since the real
// objects are written later by MakeCommit via snapshotDirectory.
func (r *Repository) dirTreeHash(relPath string) (Hash, error) {
	const op = "Repository.dirTreeHash"
	full := filepath.Join(r.workDir, filepath.FromSlash(relPath))
	entries, err := os.ReadDir(full)
	if err != nil {
		return "", newErr(KindIO, op, err)
	}

	tree := &Tree{}
	for _, e := range entries {
		childRel := filepath.ToSlash(filepath.Join(relPath, e.Name()))
		if r.ignore.Matches(childRel) {
			continue
		}
		if e.IsDir() {
			childHash, err := r.dirTreeHash(childRel)
			if err != nil {
				return "", err
			}
			tree.AddEntry(Descriptor{Path: childRel, Kind: KindTree}, childHash)
		} else {
			content, err := os.ReadFile(filepath.Join(r.workDir, filepath.FromSlash(childRel))) //nolint:gosec // path built from a repository-relative directory walk
			if err != nil {
				return "", newErr(KindIO, op, err)
			}
			blob := &Blob{Content: content}
			tree.AddEntry(Descriptor{Path: childRel, Kind: KindBlob}, blob.Hash())
		}
	}
	return tree.Hash(), nil
}

// AddToStaged marks d for inclusion in the next commit and persists the
// staged set to disk. Per §4.3 this is idempotent and silently ignores
// descriptors that are not a pending change, already staged, or ignored.
func (idx *Index) AddToStaged(r *Repository, d Descriptor) error {
	_, isNew := idx.New[d]
	_, isMod := idx.Modified[d]
	_, isRemoved := idx.Removed[d]
	if !isNew && !isMod && !isRemoved {
		return nil
	}
	if r.ignore.Matches(d.Path) {
		return nil
	}
	if _, already := idx.Staged[d]; already {
		return nil
	}

	var h Hash
	switch {
	case isNew:
		h = idx.New[d]
	case isMod:
		h = idx.Modified[d]
	default:
		h = idx.Removed[d]
	}
	idx.Staged[d] = h
	return idx.saveStaged(r)
}

// MakeCommit builds a commit from the staged set and advances Head
// (§4.3). A no-op if nothing is staged.
func (r *Repository) MakeCommit(idx *Index, message string) (*Commit, error) {
	const op = "Repository.MakeCommit"
	if len(idx.Staged) == 0 {
		return nil, nil
	}

	unlock, err := r.Lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	headState, headCommit, err := r.ResolveHead()
	if err != nil {
		return nil, err
	}

	tree := &Tree{}
	for d := range idx.Staged {
		var child Hash
		switch {
		case d.Removed:
			child = ZeroHash
		case d.Kind == KindTree:
			child, err = r.snapshotDirectory(d.Path)
			if err != nil {
				return nil, err
			}
		default:
			child, err = r.snapshotBlob(d.Path)
			if err != nil {
				return nil, err
			}
		}
		tree.AddEntry(d, child)
	}

	if err := r.writeObject(tree); err != nil {
		return nil, err
	}

	newCommit := DeriveCommit(headCommit, tree.Hash(), message)
	if err := r.writeObject(newCommit); err != nil {
		return nil, err
	}

	if headState.Detached {
		if err := r.CheckoutDetached(newCommit.Hash()); err != nil {
			return nil, err
		}
	} else {
		if err := r.store.PutRef(refsHeadsDir, headState.Branch, []byte(newCommit.Hash())); err != nil {
			return nil, newErr(KindIO, op, err)
		}
	}

	idx.Staged = make(map[Descriptor]Hash)
	if err := os.Remove(r.stagedPath()); err != nil && !os.IsNotExist(err) {
		return nil, newErr(KindIO, op, err)
	}
	return newCommit, nil
}

func (r *Repository) snapshotBlob(relPath string) (Hash, error) {
	content, err := os.ReadFile(filepath.Join(r.workDir, filepath.FromSlash(relPath))) //nolint:gosec // path is a repository-relative staged descriptor
	if err != nil {
		return "", newErr(KindIO, "Repository.snapshotBlob", err)
	}
	blob := &Blob{Content: content}
	if err := r.writeObject(blob); err != nil {
		return "", err
	}
	return blob.Hash(), nil
}

// snapshotDirectory recursively snapshots the directory at relPath
// (repository-root-relative) into a Tree object, writing every nested
// Blob and Tree to the store. Entry paths inside the returned tree are
// full repository-root-relative paths, matching ExpandFullTree's output
// shape and the Python original's initialize_and_store_tree_from_directory.
func (r *Repository) snapshotDirectory(relPath string) (Hash, error) {
	const op = "Repository.snapshotDirectory"
	full := filepath.Join(r.workDir, filepath.FromSlash(relPath))
	entries, err := os.ReadDir(full)
	if err != nil {
		return "", newErr(KindIO, op, err)
	}

	tree := &Tree{}
	for _, e := range entries {
		childRel := filepath.ToSlash(filepath.Join(relPath, e.Name()))
		if r.ignore.Matches(childRel) {
			continue
		}
		if e.IsDir() {
			childHash, err := r.snapshotDirectory(childRel)
			if err != nil {
				return "", err
			}
			tree.AddEntry(Descriptor{Path: childRel, Kind: KindTree}, childHash)
		} else {
			childHash, err := r.snapshotBlob(childRel)
			if err != nil {
				return "", err
			}
			tree.AddEntry(Descriptor{Path: childRel, Kind: KindBlob}, childHash)
		}
	}

	if err := r.writeObject(tree); err != nil {
		return "", err
	}
	return tree.Hash(), nil
}
