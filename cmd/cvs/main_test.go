package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rybkr/coolcvs/internal/corevcs"
)

func TestCLIEndToEndWorkflow(t *testing.T) {
	t.Chdir(t.TempDir())

	if code := run([]string{"init"}); code != 0 {
		t.Fatalf("init exited %d", code)
	}
	if code := run([]string{"status"}); code != 0 {
		t.Fatalf("status exited %d", code)
	}

	if err := os.WriteFile("hello.txt", []byte("hello, world"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if code := run([]string{"add", "hello.txt"}); code != 0 {
		t.Fatalf("add exited %d", code)
	}
	if code := run([]string{"commit", "-m", "add hello.txt"}); code != 0 {
		t.Fatalf("commit exited %d", code)
	}
	if code := run([]string{"log"}); code != 0 {
		t.Fatalf("log exited %d", code)
	}

	if code := run([]string{"branch", "feature"}); code != 0 {
		t.Fatalf("branch exited %d", code)
	}
	if code := run([]string{"branch"}); code != 0 {
		t.Fatalf("branch (list) exited %d", code)
	}

	if code := run([]string{"tag", "v0.1"}); code != 0 {
		t.Fatalf("tag exited %d", code)
	}

	if code := run([]string{"switch", "feature"}); code != 0 {
		t.Fatalf("switch exited %d", code)
	}
	if err := os.WriteFile("feature-only.txt", []byte("new on feature"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if code := run([]string{"add", "--all"}); code != 0 {
		t.Fatalf("add --all exited %d", code)
	}
	if code := run([]string{"commit", "-m", "feature work"}); code != 0 {
		t.Fatalf("commit exited %d", code)
	}

	if code := run([]string{"switch", "master"}); code != 0 {
		t.Fatalf("switch back to master exited %d", code)
	}
	if _, err := os.Stat("feature-only.txt"); !os.IsNotExist(err) {
		t.Fatalf("expected feature-only.txt to be gone after switching back to master, stat err=%v", err)
	}

	if code := run([]string{"rebase", "feature"}); code != 0 {
		t.Fatalf("rebase exited %d", code)
	}

	// A successful rebase restores the working directory to the new
	// tip, so both commits' files should now be present on disk.
	for _, p := range []string{"hello.txt", "feature-only.txt"} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s on disk after rebase: %v", p, err)
		}
	}

	r, err := corevcs.Open(".", nil)
	if err != nil {
		t.Fatalf("corevcs.Open: %v", err)
	}
	_, headCommit, err := r.ResolveHead()
	if err != nil {
		t.Fatalf("ResolveHead: %v", err)
	}
	files, err := r.ExpandFullTree(headCommit)
	if err != nil {
		t.Fatalf("ExpandFullTree: %v", err)
	}
	for _, p := range []string{"hello.txt", "feature-only.txt"} {
		if _, ok := files[corevcs.Descriptor{Path: p, Kind: corevcs.KindBlob}]; !ok {
			t.Fatalf("expected %s live in history after rebase, files=%v", p, files)
		}
	}
}

func TestCLIUnknownCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	if code := run([]string{"frobnicate"}); code == 0 {
		t.Fatal("expected a nonzero exit code for an unknown command")
	}
}

func TestCLICommandsRequireRepository(t *testing.T) {
	t.Chdir(t.TempDir())
	if code := run([]string{"status"}); code == 0 {
		t.Fatal("expected status to fail outside a repository")
	}
}

func TestCLIHelpFlag(t *testing.T) {
	t.Chdir(t.TempDir())
	if code := run([]string{"--help"}); code != 0 {
		t.Fatalf("--help exited %d, want 0", code)
	}
}

func TestCLINoColorFlag(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if code := run([]string{"--no-color", "init"}); code != 0 {
		t.Fatalf("init exited %d", code)
	}
	if _, err := os.Stat(filepath.Join(dir, ".cool_cvs")); err != nil {
		t.Fatalf("expected sentinel directory created: %v", err)
	}
}
