package corevcs

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestBlobRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		content := rapid.SliceOf(rapid.Byte()).Draw(rt, "content")
		b := &Blob{Content: content}
		round := DeserializeBlob(b.Serialize())
		if len(round.Content) != len(content) {
			rt.Fatalf("round-trip length mismatch: got %d want %d", len(round.Content), len(content))
		}
		for i := range content {
			if round.Content[i] != content[i] {
				rt.Fatalf("round-trip byte mismatch at %d", i)
			}
		}
	})
}

func TestBlobHashDeterministic(t *testing.T) {
	a := &Blob{Content: []byte("hello")}
	b := &Blob{Content: []byte("hello")}
	if a.Hash() != b.Hash() {
		t.Fatalf("identical content produced different hashes: %s vs %s", a.Hash(), b.Hash())
	}
	c := &Blob{Content: []byte("hellp")}
	if a.Hash() == c.Hash() {
		t.Fatal("different content produced the same hash")
	}
}

func TestTreeRoundTrip(t *testing.T) {
	tree := &Tree{}
	tree.AddEntry(Descriptor{Path: "a.txt", Kind: KindBlob}, Hash(strings.Repeat("a", 40)))
	tree.AddEntry(Descriptor{Path: "sub", Kind: KindTree}, Hash(strings.Repeat("b", 40)))
	tree.AddEntry(Descriptor{Path: "old.txt", Kind: KindBlob, Removed: true}, ZeroHash)

	round, err := DeserializeTree(tree.Serialize())
	if err != nil {
		t.Fatalf("DeserializeTree: %v", err)
	}
	if len(round.Entries) != len(tree.Entries) {
		t.Fatalf("entry count mismatch: got %d want %d", len(round.Entries), len(tree.Entries))
	}
	for i, e := range tree.Entries {
		if round.Entries[i] != e {
			t.Fatalf("entry %d mismatch: got %+v want %+v", i, round.Entries[i], e)
		}
	}
	if round.Hash() != tree.Hash() {
		t.Fatal("round-tripped tree hashes differently from the original")
	}
}

// TestTreeHashIgnoresDescriptor pins the preserved quirk: Tree.Hash only
// folds in child hashes, so two trees built from the same children in
// the same order but different paths/kinds are indistinguishable by hash.
func TestTreeHashIgnoresDescriptor(t *testing.T) {
	childA := Hash(strings.Repeat("c", 40))
	childB := Hash(strings.Repeat("d", 40))

	t1 := &Tree{}
	t1.AddEntry(Descriptor{Path: "x.txt", Kind: KindBlob}, childA)
	t1.AddEntry(Descriptor{Path: "y.txt", Kind: KindBlob}, childB)

	t2 := &Tree{}
	t2.AddEntry(Descriptor{Path: "totally-different-name", Kind: KindTree}, childA)
	t2.AddEntry(Descriptor{Path: "z", Kind: KindBlob, Removed: true}, childB)

	if t1.Hash() != t2.Hash() {
		t.Fatal("expected trees with identical child hashes in the same order to hash identically")
	}
}

func TestCommitRoundTrip(t *testing.T) {
	c := &Commit{
		Tree:    Hash(strings.Repeat("1", 40)),
		Parent:  Hash(strings.Repeat("2", 40)),
		Message: "initial import",
	}
	round, err := DeserializeCommit(c.Serialize())
	if err != nil {
		t.Fatalf("DeserializeCommit: %v", err)
	}
	if *round != *c {
		t.Fatalf("round-trip mismatch: got %+v want %+v", round, c)
	}
}

// TestCommitHashExcludesMessage pins the preserved quirk: two commits
// with the same tree and parent but different messages collide.
func TestCommitHashExcludesMessage(t *testing.T) {
	tree := Hash(strings.Repeat("3", 40))
	parent := Hash(strings.Repeat("4", 40))

	a := &Commit{Tree: tree, Parent: parent, Message: "first message"}
	b := &Commit{Tree: tree, Parent: parent, Message: "an entirely different message"}

	if a.Hash() != b.Hash() {
		t.Fatal("expected commits differing only in message to hash identically")
	}
}

func TestDeriveCommitRootHasZeroParent(t *testing.T) {
	root := DeriveCommit(nil, ZeroHash, "")
	if root.Parent != ZeroHash {
		t.Fatalf("expected root commit to have ZeroHash parent, got %s", root.Parent)
	}

	child := DeriveCommit(root, ZeroHash, "first")
	if child.Parent != root.Hash() {
		t.Fatalf("expected child's parent to equal root's hash")
	}
}
