package corevcs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// RebaseState is the explicit, serializable record described in §9
// "Rebase suspension": rather than a suspended coroutine, it is a value
// that can be persisted and resumed across process boundaries. This
// implementation goes one step further than the reference design (which
// keeps it in memory only) and writes it to .cool_cvs/REBASE_STATE.
type RebaseState struct {
	SourceBranch             string
	DestinationBranch        string
	DestinationOriginalTip   Hash
	NotApplied               []Hash // stack; last element is popped next
	Applied                  []Hash
	DestinationBranchChanged []Descriptor
	CurrentDstCommit         Hash
	CurrentFile              *Descriptor
	ResolvedFiles            []Descriptor
	IsConflict               bool
}

func containsDescriptor(set []Descriptor, d Descriptor) bool {
	for _, x := range set {
		if x == d {
			return true
		}
	}
	return false
}

func (r *Repository) rebaseStatePath() string { return filepath.Join(r.gitDir, rebaseFile) }

func (r *Repository) saveRebaseState(s *RebaseState) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return newErr(KindIO, "Repository.saveRebaseState", err)
	}
	if err := atomicWrite(r.rebaseStatePath(), data); err != nil {
		return newErr(KindIO, "Repository.saveRebaseState", err)
	}
	return nil
}

// LoadRebaseState reads the persisted rebase state, or returns
// (nil, nil) if no rebase is in progress.
func (r *Repository) LoadRebaseState() (*RebaseState, error) {
	data, err := os.ReadFile(r.rebaseStatePath()) //nolint:gosec // fixed filename under the repository's sentinel directory
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, newErr(KindIO, "Repository.LoadRebaseState", err)
	}
	var s RebaseState
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, newErr(KindCorrupt, "Repository.LoadRebaseState", err)
	}
	return &s, nil
}

func (r *Repository) clearRebaseState() error {
	err := os.Remove(r.rebaseStatePath())
	if err != nil && !os.IsNotExist(err) {
		return newErr(KindIO, "Repository.clearRebaseState", err)
	}
	return nil
}

// InitializeRebase computes the common ancestor between sourceBranch and
// the current (destination) branch, and records which destination
// descriptors have changed since that ancestor (§4.5 "Initialization").
// The destination is Head's symbolic branch: rebase replays onto "the
// current branch".
func (r *Repository) InitializeRebase(sourceBranch string) (*RebaseState, error) {
	destBranch, err := r.ResolveHeadBranch()
	if err != nil {
		return nil, err
	}
	_, destCommit, err := r.ResolveHead()
	if err != nil {
		return nil, err
	}

	srcCommit, err := r.getBranchCommit(sourceBranch)
	if err != nil {
		return nil, err
	}

	s, err := r.buildRebaseState(sourceBranch, destBranch, destCommit, srcCommit, destCommit.Hash())
	if err != nil {
		return nil, err
	}
	if err := r.saveRebaseState(s); err != nil {
		return nil, err
	}
	return s, nil
}

// InitializeRebaseOnto is the engine entry point behind the `rebase
// --onto target source` command form (§6): source's unique commits are
// replayed onto target's tip rather than onto Head's current branch.
// Head is switched to sourceBranch first so the replay loop's MoveHead
// calls advance source's ref, matching plain InitializeRebase's
// assumption that Head is already parked on the branch being rebased.
// Unlike a plain rebase, the ancestry-comparison base (target's tip) and
// the branch whose ref actually advances (source) are different
// commits, so the abort/restore point is pinned to source's own
// pre-rebase tip rather than target's.
func (r *Repository) InitializeRebaseOnto(targetBranch, sourceBranch string) (*RebaseState, error) {
	if err := r.SwitchToBranch(sourceBranch); err != nil {
		return nil, err
	}

	targetCommit, err := r.getBranchCommit(targetBranch)
	if err != nil {
		return nil, err
	}
	srcCommit, err := r.getBranchCommit(sourceBranch)
	if err != nil {
		return nil, err
	}

	s, err := r.buildRebaseState(sourceBranch, sourceBranch, targetCommit, srcCommit, srcCommit.Hash())
	if err != nil {
		return nil, err
	}
	if err := r.saveRebaseState(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *Repository) getBranchCommit(branch string) (*Commit, error) {
	hash, err := r.resolveBranch(branch)
	if err != nil {
		return nil, err
	}
	return r.GetCommit(hash)
}

// buildRebaseState is the ancestry walk shared by InitializeRebase and
// InitializeRebaseOnto: base seeds both the destination-ancestry
// comparison and current_dst_commit, while originalTip is the abort
// point for whichever branch's ref actually moves (base itself for a
// plain rebase, source's own tip for --onto).
func (r *Repository) buildRebaseState(sourceBranch, destBranch string, base, srcCommit *Commit, originalTip Hash) (*RebaseState, error) {
	const op = "Repository.buildRebaseState"

	destAncestors := make(map[Hash]bool)
	for p := range r.Parents(base, true) {
		destAncestors[p.Hash()] = true
	}

	s := &RebaseState{
		SourceBranch:           sourceBranch,
		DestinationBranch:      destBranch,
		DestinationOriginalTip: originalTip,
		CurrentDstCommit:       base.Hash(),
	}

	var common Hash
	found := false
	for p := range r.Parents(srcCommit, true) {
		if destAncestors[p.Hash()] {
			common = p.Hash()
			found = true
			break
		}
		s.NotApplied = append(s.NotApplied, p.Hash())
	}
	_ = found // the no-common-ancestor case is handled by walking to completion below

	for p := range r.Parents(base, true) {
		tree, err := r.GetTree(p.Tree)
		if err != nil {
			return nil, newErr(KindCorrupt, op, err)
		}
		for _, e := range tree.Entries {
			if !containsDescriptor(s.DestinationBranchChanged, e.Descriptor) {
				s.DestinationBranchChanged = append(s.DestinationBranchChanged, e.Descriptor)
			}
		}
		if found && p.Hash() == common {
			break
		}
	}

	return s, nil
}

// Rebase runs the replay loop: pop the next source commit and apply it,
// stopping (but not erroring) on conflict (§4.5 "Replay loop").
func (r *Repository) Rebase(s *RebaseState) (*RebaseState, error) {
	unlock, err := r.Lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	for len(s.NotApplied) > 0 {
		next := len(s.NotApplied) - 1
		commitHash := s.NotApplied[next]
		s.NotApplied = s.NotApplied[:next]

		commit, err := r.GetCommit(commitHash)
		if err != nil {
			return nil, err
		}
		if err := r.applyCommit(s, commitHash, commit); err != nil {
			return nil, err
		}
		if s.IsConflict {
			if err := r.saveRebaseState(s); err != nil {
				return nil, err
			}
			return s, nil
		}
	}

	if err := r.clearRebaseState(); err != nil {
		return nil, err
	}
	return s, nil
}

// applyCommit replays a single source commit onto CurrentDstCommit,
// suspending with IsConflict=true at the first descriptor that the
// destination has also touched since the common ancestor (§4.5
// "apply_commit").
func (r *Repository) applyCommit(s *RebaseState, commitHash Hash, commit *Commit) error {
	const op = "Repository.applyCommit"
	tree, err := r.GetTree(commit.Tree)
	if err != nil {
		return err
	}

	for _, e := range tree.Entries {
		d := e.Descriptor
		if containsDescriptor(s.ResolvedFiles, d) {
			continue
		}
		s.CurrentFile = &d
		s.ResolvedFiles = append(s.ResolvedFiles, d)

		if containsDescriptor(s.DestinationBranchChanged, d) {
			ours := ""
			if data, err := os.ReadFile(filepath.Join(r.workDir, filepath.FromSlash(d.Path))); err == nil { //nolint:gosec // descriptor path is repository-relative
				ours = string(data)
			}
			theirs := ""
			if !d.Removed && e.Child != ZeroHash {
				blob, err := r.GetBlob(e.Child)
				if err != nil {
					return err
				}
				theirs = string(blob.Content)
			}

			artifact := renderConflictArtifact(ours, theirs)
			if err := r.writeWorkFile(d.Path, []byte(artifact)); err != nil {
				return newErr(KindIO, op, err)
			}
			s.IsConflict = true
			return nil
		}
	}

	// No conflict across the whole commit: re-parent and commit it.
	s.ResolvedFiles = nil
	newCommit := &Commit{Tree: commit.Tree, Parent: s.CurrentDstCommit, Message: commit.Message}
	if err := r.writeObject(newCommit); err != nil {
		return err
	}
	if err := r.MoveHead(newCommit.Hash()); err != nil {
		return newErr(KindIO, op, err)
	}

	s.CurrentDstCommit = newCommit.Hash()
	s.Applied = append(s.Applied, commitHash)
	return nil
}

// ContinueRebase resumes a suspended rebase. resolvedContent is written
// to CurrentFile's path and synthesized into a merge commit atop
// CurrentDstCommit before the replay loop resumes — making explicit the
// caller/engine coupling the source design left implicit (§4.5, §9
// "Rebase continue expectations").
func (r *Repository) ContinueRebase(s *RebaseState, resolvedContent []byte) (*RebaseState, error) {
	const op = "Repository.ContinueRebase"
	if !s.IsConflict {
		return nil, newErr(KindInvalidState, op, fmt.Errorf("no rebase conflict in progress"))
	}
	if s.CurrentFile == nil {
		return nil, newErr(KindInvalidState, op, fmt.Errorf("no current conflict file recorded"))
	}
	s.IsConflict = false

	if err := r.writeWorkFile(s.CurrentFile.Path, resolvedContent); err != nil {
		return nil, newErr(KindIO, op, err)
	}

	blob := &Blob{Content: resolvedContent}
	if err := r.writeObject(blob); err != nil {
		return nil, err
	}
	tree := &Tree{}
	tree.AddEntry(s.CurrentFile.Live(), blob.Hash())
	if err := r.writeObject(tree); err != nil {
		return nil, err
	}

	mergeCommit := &Commit{Tree: tree.Hash(), Parent: s.CurrentDstCommit, Message: "resolve rebase conflict"}
	if err := r.writeObject(mergeCommit); err != nil {
		return nil, err
	}
	if err := r.MoveHead(mergeCommit.Hash()); err != nil {
		return nil, newErr(KindIO, op, err)
	}
	s.CurrentDstCommit = mergeCommit.Hash()

	return r.Rebase(s)
}

// AbortRebase moves Head and the destination branch back to their
// pre-rebase position, restores the working directory to match, and
// discards the persisted state (§4.5 "abort_rebase").
func (r *Repository) AbortRebase(s *RebaseState) error {
	const op = "Repository.AbortRebase"
	if err := r.MoveHead(s.DestinationOriginalTip); err != nil {
		return newErr(KindIO, op, err)
	}
	if err := r.Restore(s.DestinationOriginalTip); err != nil {
		return err
	}
	return r.clearRebaseState()
}
