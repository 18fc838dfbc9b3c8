package corevcs

import (
	"os"
	"path/filepath"
	"testing"
)

func commitAllForTest(t *testing.T, r *Repository, message string) *Commit {
	t.Helper()
	_, head, err := r.ResolveHead()
	if err != nil {
		t.Fatalf("ResolveHead: %v", err)
	}
	idx, err := r.LoadIndex()
	if err != nil {
		t.Fatalf("LoadIndex: %v", err)
	}
	if err := idx.Update(r, head); err != nil {
		t.Fatalf("Update: %v", err)
	}
	for d := range idx.New {
		if err := idx.AddToStaged(r, d); err != nil {
			t.Fatalf("AddToStaged: %v", err)
		}
	}
	for d := range idx.Modified {
		if err := idx.AddToStaged(r, d); err != nil {
			t.Fatalf("AddToStaged: %v", err)
		}
	}
	for d := range idx.Removed {
		if err := idx.AddToStaged(r, d); err != nil {
			t.Fatalf("AddToStaged: %v", err)
		}
	}
	commit, err := r.MakeCommit(idx, message)
	if err != nil {
		t.Fatalf("MakeCommit: %v", err)
	}
	if commit == nil {
		t.Fatalf("MakeCommit(%q) had nothing staged", message)
	}
	return commit
}

func switchAndRestoreForTest(t *testing.T, r *Repository, branch string) {
	t.Helper()
	if err := r.SwitchToBranch(branch); err != nil {
		t.Fatalf("SwitchToBranch(%s): %v", branch, err)
	}
	_, head, err := r.ResolveHead()
	if err != nil {
		t.Fatalf("ResolveHead: %v", err)
	}
	if err := r.Restore(head.Hash()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
}

func TestRebaseReplaysWithoutConflict(t *testing.T) {
	r := newTestRepo(t)
	writeWorkFileForTest(t, r, "base.txt", "base")
	base := commitAllForTest(t, r, "base")

	if err := r.CreateBranch("feature", base.Hash()); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}

	writeWorkFileForTest(t, r, "master-only.txt", "m")
	masterTip := commitAllForTest(t, r, "master work")

	switchAndRestoreForTest(t, r, "feature")
	writeWorkFileForTest(t, r, "feature-only.txt", "f")
	commitAllForTest(t, r, "feature work")

	switchAndRestoreForTest(t, r, defaultBranch)

	s, err := r.InitializeRebase("feature")
	if err != nil {
		t.Fatalf("InitializeRebase: %v", err)
	}
	if len(s.NotApplied) != 1 {
		t.Fatalf("expected exactly one feature-only commit queued, got %d", len(s.NotApplied))
	}

	s, err = r.Rebase(s)
	if err != nil {
		t.Fatalf("Rebase: %v", err)
	}
	if s.IsConflict {
		t.Fatal("expected no conflict replaying a disjoint file set")
	}

	persisted, err := r.LoadRebaseState()
	if err != nil {
		t.Fatalf("LoadRebaseState: %v", err)
	}
	if persisted != nil {
		t.Fatal("expected rebase state cleared after a clean replay")
	}

	_, headCommit, err := r.ResolveHead()
	if err != nil {
		t.Fatalf("ResolveHead: %v", err)
	}
	if headCommit.Parent != masterTip.Hash() {
		t.Fatal("expected the replayed commit to chain onto master's tip")
	}

	files, err := r.ExpandFullTree(headCommit)
	if err != nil {
		t.Fatalf("ExpandFullTree: %v", err)
	}
	for _, p := range []string{"base.txt", "master-only.txt", "feature-only.txt"} {
		if _, ok := files[Descriptor{Path: p, Kind: KindBlob}]; !ok {
			t.Fatalf("expected %s to be live after rebase, files=%v", p, files)
		}
	}
}

func TestRebaseConflictThenContinue(t *testing.T) {
	r := newTestRepo(t)
	writeWorkFileForTest(t, r, "shared.txt", "original")
	base := commitAllForTest(t, r, "base")

	if err := r.CreateBranch("feature", base.Hash()); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}

	writeWorkFileForTest(t, r, "shared.txt", "master version")
	commitAllForTest(t, r, "master edits shared")

	switchAndRestoreForTest(t, r, "feature")
	writeWorkFileForTest(t, r, "shared.txt", "feature version")
	commitAllForTest(t, r, "feature edits shared")

	switchAndRestoreForTest(t, r, defaultBranch)

	s, err := r.InitializeRebase("feature")
	if err != nil {
		t.Fatalf("InitializeRebase: %v", err)
	}
	s, err = r.Rebase(s)
	if err != nil {
		t.Fatalf("Rebase: %v", err)
	}
	if !s.IsConflict {
		t.Fatal("expected a conflict: both branches edited shared.txt")
	}
	if s.CurrentFile == nil || s.CurrentFile.Path != "shared.txt" {
		t.Fatalf("expected CurrentFile to be shared.txt, got %+v", s.CurrentFile)
	}

	artifact, err := os.ReadFile(filepath.Join(r.WorkDir(), "shared.txt"))
	if err != nil {
		t.Fatalf("ReadFile(shared.txt): %v", err)
	}
	if len(artifact) == 0 {
		t.Fatal("expected a non-empty conflict artifact written to the working file")
	}

	reloaded, err := r.LoadRebaseState()
	if err != nil {
		t.Fatalf("LoadRebaseState: %v", err)
	}
	if reloaded == nil || !reloaded.IsConflict {
		t.Fatal("expected the conflicted rebase state to be persisted to disk")
	}

	final, err := r.ContinueRebase(reloaded, []byte("resolved version"))
	if err != nil {
		t.Fatalf("ContinueRebase: %v", err)
	}
	if final.IsConflict {
		t.Fatal("expected the rebase to finish after resolving its only conflict")
	}

	persisted, err := r.LoadRebaseState()
	if err != nil {
		t.Fatalf("LoadRebaseState: %v", err)
	}
	if persisted != nil {
		t.Fatal("expected rebase state cleared once fully resolved")
	}

	got, err := os.ReadFile(filepath.Join(r.WorkDir(), "shared.txt"))
	if err != nil {
		t.Fatalf("ReadFile(shared.txt): %v", err)
	}
	if string(got) != "resolved version" {
		t.Fatalf("expected working file to hold the resolved content, got %q", got)
	}
}

func TestRebaseAbortRestoresOriginalTip(t *testing.T) {
	r := newTestRepo(t)
	writeWorkFileForTest(t, r, "shared.txt", "original")
	base := commitAllForTest(t, r, "base")

	if err := r.CreateBranch("feature", base.Hash()); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}

	writeWorkFileForTest(t, r, "shared.txt", "master version")
	masterTip := commitAllForTest(t, r, "master edits shared")

	switchAndRestoreForTest(t, r, "feature")
	writeWorkFileForTest(t, r, "shared.txt", "feature version")
	commitAllForTest(t, r, "feature edits shared")

	switchAndRestoreForTest(t, r, defaultBranch)

	s, err := r.InitializeRebase("feature")
	if err != nil {
		t.Fatalf("InitializeRebase: %v", err)
	}
	s, err = r.Rebase(s)
	if err != nil {
		t.Fatalf("Rebase: %v", err)
	}
	if !s.IsConflict {
		t.Fatal("expected a conflict before abort")
	}

	if err := r.AbortRebase(s); err != nil {
		t.Fatalf("AbortRebase: %v", err)
	}

	_, headCommit, err := r.ResolveHead()
	if err != nil {
		t.Fatalf("ResolveHead: %v", err)
	}
	if headCommit.Hash() != masterTip.Hash() {
		t.Fatal("expected HEAD restored to master's pre-rebase tip")
	}

	got, err := os.ReadFile(filepath.Join(r.WorkDir(), "shared.txt"))
	if err != nil {
		t.Fatalf("ReadFile(shared.txt): %v", err)
	}
	if string(got) != "master version" {
		t.Fatalf("expected working file restored to master's version, got %q", got)
	}

	if persisted, err := r.LoadRebaseState(); err != nil || persisted != nil {
		t.Fatal("expected rebase state cleared after abort")
	}
}
