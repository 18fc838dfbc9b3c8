package corevcs

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel layout (§6). Everything below is rooted at <repo>/.cool_cvs.
const (
	SentinelDir = ".cool_cvs"

	headFile       = "HEAD"
	lockFile       = "LOCK"
	refsHeadsDir   = "refs/heads"
	refsTagsDir    = "refs/tags"
	ignoreFileName = ".cvsignore"
	rebaseFile     = "REBASE_STATE"

	defaultBranch = "master"
	headRefPrefix = "ref: "
)

// Repository is a value rooted at a working directory path; it has no
// process-wide state (§9 "Global state").
type Repository struct {
	workDir string
	gitDir  string
	store   *Store
	ignore  *ignoreSet
	log     *slog.Logger
}

// IsRepository reports whether path contains the sentinel directory.
func IsRepository(path string) bool {
	info, err := os.Stat(filepath.Join(path, SentinelDir))
	return err == nil && info.IsDir()
}

// Open loads an existing repository rooted at path. It fails with
// KindNotARepository if the sentinel directory is absent.
func Open(path string, log *slog.Logger) (*Repository, error) {
	const op = "Open"
	if !IsRepository(path) {
		return nil, newErr(KindNotARepository, op, fmt.Errorf("no %s directory under %s", SentinelDir, path))
	}
	if log == nil {
		log = slog.Default()
	}
	gitDir := filepath.Join(path, SentinelDir)
	ig, err := loadIgnoreSet(path)
	if err != nil {
		return nil, newErr(KindIO, op, err)
	}
	return &Repository{workDir: path, gitDir: gitDir, store: NewStore(gitDir, log), ignore: ig, log: log}, nil
}

// Init creates a brand-new repository at path: the sentinel layout, an
// empty initial commit, a branch "master" pointing at it, and Head
// pointing symbolically at "master" (§6 `init`).
func Init(path string, log *slog.Logger) (*Repository, error) {
	const op = "Init"
	if IsRepository(path) {
		return nil, newErr(KindInvalidState, op, fmt.Errorf("%s already a repository", path))
	}
	if log == nil {
		log = slog.Default()
	}
	gitDir := filepath.Join(path, SentinelDir)
	for _, dir := range []string{gitDir, filepath.Join(gitDir, "objects"), filepath.Join(gitDir, refsHeadsDir), filepath.Join(gitDir, refsTagsDir), filepath.Join(gitDir, "index")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, newErr(KindIO, op, err)
		}
	}

	ig, err := loadIgnoreSet(path)
	if err != nil {
		return nil, newErr(KindIO, op, err)
	}
	store := NewStore(gitDir, log)
	repo := &Repository{workDir: path, gitDir: gitDir, store: store, ignore: ig, log: log}

	root := DeriveCommit(nil, (&Tree{}).Hash(), "")
	if err := repo.writeObject(root); err != nil {
		return nil, err
	}
	if err := store.PutRef(refsHeadsDir, defaultBranch, []byte(root.Hash())); err != nil {
		return nil, newErr(KindIO, op, err)
	}
	if err := store.PutRef("", headFile, []byte(headRefPrefix+refsHeadsDir+"/"+defaultBranch)); err != nil {
		return nil, newErr(KindIO, op, err)
	}

	log.Debug("repository initialized", "path", path, "root", root.Hash().Short())
	return repo, nil
}

// WorkDir returns the repository's working directory root.
func (r *Repository) WorkDir() string { return r.workDir }

// GitDir returns the repository's sentinel directory.
func (r *Repository) GitDir() string { return r.gitDir }

func (r *Repository) writeObject(obj Object) error {
	return r.store.PutObject(obj.Hash(), obj.Serialize())
}

// GetCommit reads and deserializes the commit stored at h.
func (r *Repository) GetCommit(h Hash) (*Commit, error) {
	const op = "Repository.GetCommit"
	data, err := r.store.GetObject(h)
	if err != nil {
		return nil, err
	}
	c, err := DeserializeCommit(data)
	if err != nil {
		return nil, newErr(KindCorrupt, op, err)
	}
	return c, nil
}

// GetTree reads and deserializes the tree stored at h. An empty Tree is
// returned for ZeroHash so callers can treat "no tree" uniformly.
func (r *Repository) GetTree(h Hash) (*Tree, error) {
	const op = "Repository.GetTree"
	if h == ZeroHash {
		return &Tree{}, nil
	}
	data, err := r.store.GetObject(h)
	if err != nil {
		return nil, err
	}
	t, err := DeserializeTree(data)
	if err != nil {
		return nil, newErr(KindCorrupt, op, err)
	}
	return t, nil
}

// GetBlob reads the blob stored at h.
func (r *Repository) GetBlob(h Hash) (*Blob, error) {
	data, err := r.store.GetObject(h)
	if err != nil {
		return nil, err
	}
	return DeserializeBlob(data), nil
}

// HeadState is the two-variant sum described in §9 "References as
// values": either symbolic (naming a branch) or detached (naming a
// commit directly).
type HeadState struct {
	Detached bool
	Branch   string // valid when !Detached
	Commit   Hash   // valid when Detached; when !Detached, resolved lazily via ResolveHead
}

// ResolveHead reads HEAD and returns its current state plus the commit it
// ultimately points to.
func (r *Repository) ResolveHead() (HeadState, *Commit, error) {
	const op = "Repository.ResolveHead"
	raw, err := r.store.GetRef("", headFile)
	if err != nil {
		return HeadState{}, nil, err
	}
	line := strings.TrimSpace(string(raw))

	if strings.HasPrefix(line, headRefPrefix) {
		target := strings.TrimPrefix(line, headRefPrefix)
		branch := strings.TrimPrefix(target, refsHeadsDir+"/")
		hash, err := r.resolveBranch(branch)
		if err != nil {
			return HeadState{}, nil, err
		}
		commit, err := r.GetCommit(hash)
		if err != nil {
			return HeadState{}, nil, newErr(KindCorrupt, op, err)
		}
		return HeadState{Branch: branch}, commit, nil
	}

	hash, err := NewHash(line)
	if err != nil {
		return HeadState{}, nil, newErr(KindCorrupt, op, err)
	}
	commit, err := r.GetCommit(hash)
	if err != nil {
		return HeadState{}, nil, newErr(KindCorrupt, op, err)
	}
	return HeadState{Detached: true, Commit: hash}, commit, nil
}

// ResolveHeadBranch returns the branch Head currently points at, or
// KindInvalidState if Head is detached (§7).
func (r *Repository) ResolveHeadBranch() (string, error) {
	state, _, err := r.ResolveHead()
	if err != nil {
		return "", err
	}
	if state.Detached {
		return "", newErr(KindInvalidState, "Repository.ResolveHeadBranch", fmt.Errorf("HEAD is detached"))
	}
	return state.Branch, nil
}

func (r *Repository) resolveBranch(name string) (Hash, error) {
	raw, err := r.store.GetRef(refsHeadsDir, name)
	if err != nil {
		return "", err
	}
	return NewHash(strings.TrimSpace(string(raw)))
}

// ResolveTag returns the commit a tag points to.
func (r *Repository) ResolveTag(name string) (Hash, error) {
	raw, err := r.store.GetRef(refsTagsDir, name)
	if err != nil {
		return "", err
	}
	return NewHash(strings.TrimSpace(string(raw)))
}

// CreateBranch creates a new movable pointer at commit hash h.
func (r *Repository) CreateBranch(name string, h Hash) error {
	if r.store.HasRef(refsHeadsDir, name) {
		return newErr(KindInvalidState, "Repository.CreateBranch", fmt.Errorf("branch %q already exists", name))
	}
	return r.store.PutRef(refsHeadsDir, name, []byte(h))
}

// DeleteBranch removes a branch pointer (§4.8 supplemented feature).
func (r *Repository) DeleteBranch(name string) error {
	return r.store.DeleteRef(refsHeadsDir, name)
}

// CreateTag creates an immovable pointer at commit hash h (§4.8).
func (r *Repository) CreateTag(name string, h Hash) error {
	if r.store.HasRef(refsTagsDir, name) {
		return newErr(KindInvalidState, "Repository.CreateTag", fmt.Errorf("tag %q already exists", name))
	}
	return r.store.PutRef(refsTagsDir, name, []byte(h))
}

// DeleteTag removes a tag pointer (§4.8).
func (r *Repository) DeleteTag(name string) error {
	return r.store.DeleteRef(refsTagsDir, name)
}

// Branches lists every branch name.
func (r *Repository) Branches() ([]string, error) { return r.store.ListRefs(refsHeadsDir) }

// Tags lists every tag name.
func (r *Repository) Tags() ([]string, error) { return r.store.ListRefs(refsTagsDir) }

// SwitchToBranch points Head symbolically at an existing branch.
func (r *Repository) SwitchToBranch(name string) error {
	if !r.store.HasRef(refsHeadsDir, name) {
		return newErr(KindNotFound, "Repository.SwitchToBranch", fmt.Errorf("branch %q does not exist", name))
	}
	return r.store.PutRef("", headFile, []byte(headRefPrefix+refsHeadsDir+"/"+name))
}

// CheckoutDetached points Head directly at a commit hash.
func (r *Repository) CheckoutDetached(h Hash) error {
	if _, err := r.GetCommit(h); err != nil {
		return err
	}
	return r.store.PutRef("", headFile, []byte(h))
}

// MoveHead advances Head (and its branch, if symbolic) to newCommit —
// the same effect as MakeCommit step 5 (§4.3). Every successful rebase
// step, rebase abort, and Reset goes through it (§4.5); MakeCommit
// writes the ref itself.
func (r *Repository) MoveHead(newCommit Hash) error {
	state, _, err := r.ResolveHead()
	if err != nil {
		return err
	}
	if state.Detached {
		return r.store.PutRef("", headFile, []byte(newCommit))
	}
	return r.store.PutRef(refsHeadsDir, state.Branch, []byte(newCommit))
}

// Reset moves Head (and the current branch, if symbolic) to commit h.
// If hard, the working directory is also restored to h's full tree
// state (§6 `reset`).
func (r *Repository) Reset(h Hash, hard bool) error {
	if _, err := r.GetCommit(h); err != nil {
		return err
	}
	if err := r.MoveHead(h); err != nil {
		return err
	}
	if hard {
		return r.Restore(h)
	}
	return nil
}

// Lock acquires the advisory lock file described in §5, failing if
// another operation already holds it.
func (r *Repository) Lock() (func(), error) {
	path := filepath.Join(r.gitDir, lockFile)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, newErr(KindInvalidState, "Repository.Lock", fmt.Errorf("repository is locked by another operation"))
		}
		return nil, newErr(KindIO, "Repository.Lock", err)
	}
	f.Close()
	return func() { os.Remove(path) }, nil
}
