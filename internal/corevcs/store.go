package corevcs

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// objectShardWidth is the number of leading hex characters used as the
// shard directory name, bounding per-directory fan-out (§4.1).
const objectShardWidth = 2

// Store is the content-addressed object store plus named-reference
// store, rooted at a single directory (normally <repo>/.cool_cvs). It
// owns the objects/ and ref files of the layout described in
// SPEC_FULL.md §6; the index, lock, and rebase-state files are written by
// Repository directly.
type Store struct {
	root string
	log  *slog.Logger
}

// NewStore returns a Store rooted at root. root must already exist.
func NewStore(root string, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{root: root, log: log}
}

func (s *Store) objectsDir() string { return filepath.Join(s.root, "objects") }

func (s *Store) objectPath(h Hash) (dir, path string) {
	hx := string(h)
	dir = filepath.Join(s.objectsDir(), hx[:objectShardWidth])
	path = filepath.Join(dir, hx[objectShardWidth:])
	return dir, path
}

// PutObject writes data under the hex key h, sharded by its first two
// characters. Idempotent: writing the same hash twice produces the same
// on-disk outcome.
func (s *Store) PutObject(h Hash, data []byte) error {
	const op = "Store.PutObject"
	if h == ZeroHash {
		return newErr(KindInvalidState, op, fmt.Errorf("refusing to store the empty hash"))
	}
	dir, path := s.objectPath(h)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return newErr(KindIO, op, err)
	}
	if err := atomicWrite(path, data); err != nil {
		return newErr(KindIO, op, err)
	}
	s.log.Debug("object written", "hash", h.Short())
	return nil
}

// GetObject reads the bytes stored under h.
func (s *Store) GetObject(h Hash) ([]byte, error) {
	const op = "Store.GetObject"
	_, path := s.objectPath(h)
	data, err := os.ReadFile(path) //nolint:gosec // path is derived from a validated hex hash
	if err != nil {
		if os.IsNotExist(err) {
			return nil, newErr(KindNotFound, op, err)
		}
		return nil, newErr(KindIO, op, err)
	}
	return data, nil
}

// HasObject reports whether h is present in the store.
func (s *Store) HasObject(h Hash) bool {
	_, path := s.objectPath(h)
	_, err := os.Stat(path)
	return err == nil
}

// PutRef writes a named reference (branch, tag, or HEAD) under dir,
// overwriting any existing value.
func (s *Store) PutRef(dir, name string, data []byte) error {
	const op = "Store.PutRef"
	full := filepath.Join(s.root, dir)
	if err := os.MkdirAll(full, 0o755); err != nil {
		return newErr(KindIO, op, err)
	}
	if err := atomicWrite(filepath.Join(full, name), data); err != nil {
		return newErr(KindIO, op, err)
	}
	s.log.Debug("ref written", "dir", dir, "name", name)
	return nil
}

// GetRef reads a named reference.
func (s *Store) GetRef(dir, name string) ([]byte, error) {
	const op = "Store.GetRef"
	data, err := os.ReadFile(filepath.Join(s.root, dir, name)) //nolint:gosec // ref paths are caller-controlled repository-internal names
	if err != nil {
		if os.IsNotExist(err) {
			return nil, newErr(KindNotFound, op, err)
		}
		return nil, newErr(KindIO, op, err)
	}
	return data, nil
}

// HasRef reports whether the named reference exists.
func (s *Store) HasRef(dir, name string) bool {
	_, err := os.Stat(filepath.Join(s.root, dir, name))
	return err == nil
}

// DeleteRef removes a named reference.
func (s *Store) DeleteRef(dir, name string) error {
	const op = "Store.DeleteRef"
	err := os.Remove(filepath.Join(s.root, dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return newErr(KindNotFound, op, err)
		}
		return newErr(KindIO, op, err)
	}
	return nil
}

// ListRefs returns the names of every reference stored under dir.
func (s *Store) ListRefs(dir string) ([]string, error) {
	const op = "Store.ListRefs"
	entries, err := os.ReadDir(filepath.Join(s.root, dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, newErr(KindIO, op, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// atomicWrite writes data to path via a temp file in the same directory,
// fsync, then rename — so a crash mid-write never leaves a torn file
// visible at path. Grounded on 0xlemi-microprolly's FileCAS.Write, the
// only pack example that performs a durable CAS write rather than a
// read-only parse.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
