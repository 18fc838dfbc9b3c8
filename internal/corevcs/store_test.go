package corevcs

import (
	"bytes"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), nil)
}

func TestStorePutGetObjectRoundTrip(t *testing.T) {
	s := newTestStore(t)
	blob := &Blob{Content: []byte("package main\n")}
	h := blob.Hash()

	if err := s.PutObject(h, blob.Serialize()); err != nil {
		t.Fatalf("PutObject: %v", err)
	}
	if !s.HasObject(h) {
		t.Fatal("HasObject false after PutObject")
	}
	got, err := s.GetObject(h)
	if err != nil {
		t.Fatalf("GetObject: %v", err)
	}
	if !bytes.Equal(got, blob.Serialize()) {
		t.Fatal("GetObject returned different bytes than were written")
	}
}

func TestStorePutObjectRefusesZeroHash(t *testing.T) {
	s := newTestStore(t)
	if err := s.PutObject(ZeroHash, []byte("x")); err == nil {
		t.Fatal("expected an error writing the empty hash")
	}
}

func TestStoreGetObjectNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetObject(Hash("0123456789012345678901234567890123456789"))
	if !IsNotFound(err) {
		t.Fatalf("expected a not-found error, got %v", err)
	}
}

func TestStoreRefs(t *testing.T) {
	s := newTestStore(t)
	if s.HasRef("refs/heads", "master") {
		t.Fatal("ref should not exist yet")
	}
	if err := s.PutRef("refs/heads", "master", []byte("deadbeef")); err != nil {
		t.Fatalf("PutRef: %v", err)
	}
	if !s.HasRef("refs/heads", "master") {
		t.Fatal("HasRef false after PutRef")
	}
	data, err := s.GetRef("refs/heads", "master")
	if err != nil {
		t.Fatalf("GetRef: %v", err)
	}
	if string(data) != "deadbeef" {
		t.Fatalf("GetRef returned %q", data)
	}

	names, err := s.ListRefs("refs/heads")
	if err != nil {
		t.Fatalf("ListRefs: %v", err)
	}
	if len(names) != 1 || names[0] != "master" {
		t.Fatalf("ListRefs returned %v", names)
	}

	if err := s.DeleteRef("refs/heads", "master"); err != nil {
		t.Fatalf("DeleteRef: %v", err)
	}
	if s.HasRef("refs/heads", "master") {
		t.Fatal("ref still present after DeleteRef")
	}
}
