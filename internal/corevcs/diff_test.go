package corevcs

import (
	"strings"
	"testing"
)

func TestRenderConflictArtifactIdenticalContent(t *testing.T) {
	artifact := renderConflictArtifact("same\nlines\n", "same\nlines\n")
	if strings.Contains(artifact, "- ") || strings.Contains(artifact, "+ ") {
		t.Fatalf("expected no add/delete markers for identical content, got:\n%s", artifact)
	}
	if !strings.HasPrefix(artifact, "<<<<<<< ours\n") || !strings.HasSuffix(artifact, ">>>>>>> theirs\n") {
		t.Fatalf("expected conflict markers bracketing the artifact, got:\n%s", artifact)
	}
}

func TestRenderConflictArtifactMarksBothSides(t *testing.T) {
	artifact := renderConflictArtifact("one\ntwo\nthree\n", "one\ntwo\nfour\n")
	if !strings.Contains(artifact, "- three") {
		t.Fatalf("expected a deleted 'three' line from ours, got:\n%s", artifact)
	}
	if !strings.Contains(artifact, "+ four") {
		t.Fatalf("expected an inserted 'four' line from theirs, got:\n%s", artifact)
	}
	if !strings.Contains(artifact, "  one") || !strings.Contains(artifact, "  two") {
		t.Fatalf("expected shared lines kept unmarked, got:\n%s", artifact)
	}
}

func TestSplitLinesEmptyString(t *testing.T) {
	if lines := splitLines(""); lines != nil {
		t.Fatalf("expected nil for an empty string, got %v", lines)
	}
}

func TestSplitLinesTrimsTrailingNewline(t *testing.T) {
	lines := splitLines("a\nb\nc\n")
	want := []string{"a", "b", "c"}
	if len(lines) != len(want) {
		t.Fatalf("got %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("got %v, want %v", lines, want)
		}
	}
}
