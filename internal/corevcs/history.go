package corevcs

import "fmt"

// Parents returns a lazy, non-restartable sequence of commit ancestors
// starting at c (§9 "Ancestry walk as a lazy sequence"). Each step
// performs exactly one store read.
//
// Quirk preserved verbatim from the source this was generalized from
// (§9 "`Parents()` termination", not corrected): an ancestor is only
// yielded once we've also read *its* parent and confirmed that parent is
// non-empty. The practical effect is that the root (initial) commit of
// the repository is never yielded while walking up the parent chain —
// only includeSelf can ever surface it, and only when c itself is the
// root.
func (r *Repository) Parents(c *Commit, includeSelf bool) func(yield func(*Commit) bool) {
	return func(yield func(*Commit) bool) {
		if c == nil {
			return
		}
		if includeSelf {
			if !yield(c) {
				return
			}
		}
		current := c
		for current.Parent != ZeroHash {
			prev, err := r.GetCommit(current.Parent)
			if err != nil {
				return
			}
			if prev.Parent == ZeroHash {
				// prev is the root commit: stop without yielding it.
				return
			}
			if !yield(prev) {
				return
			}
			current = prev
		}
	}
}

// expandLeaves recursively descends tree entries of kind Tree, yielding
// only Blob leaf descriptors with their paths rewritten relative to the
// repository root (not relative to the subtree), matching the teacher's
// flattenTree recursion shape.
func (r *Repository) expandLeaves(treeHash Hash) ([]TreeEntry, error) {
	tree, err := r.GetTree(treeHash)
	if err != nil {
		return nil, err
	}
	var leaves []TreeEntry
	for _, e := range tree.Entries {
		if e.Descriptor.Kind == KindTree && !e.Descriptor.Removed {
			sub, err := r.expandLeaves(e.Child)
			if err != nil {
				return nil, err
			}
			leaves = append(leaves, sub...)
			continue
		}
		leaves = append(leaves, e)
	}
	return leaves, nil
}

// ExpandFullTree reconstructs the complete set of live files at commit c
// by folding its ancestry and honoring tombstones (§4.4). This is a
// direct port of the Python original's expand_full_tree /
// get_full_tree_state. A tombstone met in an ancestor of c stays in the
// result under its removed descriptor (child ZeroHash); lookups of live
// files use the descriptor with Removed=false.
func (r *Repository) ExpandFullTree(c *Commit) (map[Descriptor]Hash, error) {
	const op = "Repository.ExpandFullTree"
	files := make(map[Descriptor]Hash)
	killed := make(map[Descriptor]bool)

	tree, err := r.GetTree(c.Tree)
	if err != nil {
		return nil, err
	}
	for _, e := range tree.Entries {
		if e.Descriptor.Removed {
			killed[e.Descriptor] = true
		}
	}

	var walkErr error
	for p := range r.Parents(c, true) {
		pTree, err := r.GetTree(p.Tree)
		if err != nil {
			walkErr = err
			break
		}
		for _, e := range pTree.Entries {
			var leaves []TreeEntry
			if e.Descriptor.Kind == KindTree {
				ls, err := r.expandLeaves(e.Child)
				if err != nil {
					walkErr = err
					break
				}
				leaves = ls
			} else {
				leaves = []TreeEntry{e}
			}

			for _, leaf := range leaves {
				d := leaf.Descriptor
				if killed[d.Tombstone()] {
					continue
				}
				if _, shadowed := files[d.Live()]; shadowed {
					continue
				}
				files[d] = leaf.Child
				if d.Removed {
					killed[d] = true
				}
			}
		}
		if walkErr != nil {
			break
		}
	}
	if walkErr != nil {
		return nil, newErr(KindCorrupt, op, walkErr)
	}
	return files, nil
}

// Restore materializes commit c's full tree state onto the working
// directory: everything under the repository root outside the ignore set
// is deleted, then recreated from the stored blob content (§4.4).
func (r *Repository) Restore(h Hash) error {
	const op = "Repository.Restore"
	commit, err := r.GetCommit(h)
	if err != nil {
		return err
	}
	files, err := r.ExpandFullTree(commit)
	if err != nil {
		return err
	}

	if err := r.clearWorkDir(); err != nil {
		return newErr(KindIO, op, err)
	}
	for d, blobHash := range files {
		if d.Removed {
			continue
		}
		blob, err := r.GetBlob(blobHash)
		if err != nil {
			return err
		}
		if err := r.writeWorkFile(d.Path, blob.Content); err != nil {
			return newErr(KindIO, op, err)
		}
	}
	return nil
}
