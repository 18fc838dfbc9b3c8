package corevcs

import (
	"crypto/sha1" //nolint:gosec // the reference design is explicitly SHA-1 (§3)
	"encoding/binary"
	"fmt"
)

// Object is the closed tagged-variant family Blob/Tree/Commit (§9
// "Polymorphic object set"). Dispatch on ObjectKind rather than a class
// hierarchy: every object knows how to serialize itself and compute its
// own content-addressed identity.
type Object interface {
	ObjectKind() ObjectKind
	Serialize() []byte
	Hash() Hash
}

// ObjectKind is the literal type tag used in the hash preimage
// "<kind> #\0" (§3), generalizing git's "blob"/"tree"/"commit" literals.
type ObjectKind string

const (
	ObjectBlob   ObjectKind = "blob"
	ObjectTree   ObjectKind = "tree"
	ObjectCommit ObjectKind = "commit"
)

// hashObject computes H(kind + " #\0" + content), the uniform hashing
// discipline every object type in this package shares.
func hashObject(kind ObjectKind, content []byte) Hash {
	h := sha1.New() //nolint:gosec // see package doc: SHA-1 is the reference design's chosen H
	header := fmt.Sprintf("%s #\x00", kind)
	h.Write([]byte(header))
	h.Write(content)
	return Hash(fmt.Sprintf("%x", h.Sum(nil)))
}

// Blob is an immutable opaque byte sequence representing a file's
// contents. A blob never carries its own tombstone flag: removal is
// recorded on the descriptor in the owning Tree (§4.2), not on the blob.
type Blob struct {
	Content []byte
}

func (b *Blob) ObjectKind() ObjectKind { return ObjectBlob }

// Serialize returns the blob's content verbatim; blobs are stored as-is.
func (b *Blob) Serialize() []byte { return b.Content }

func (b *Blob) Hash() Hash { return hashObject(ObjectBlob, b.Content) }

// DeserializeBlob is the inverse of Serialize: a blob's on-disk form *is*
// its content, so this simply wraps the bytes.
func DeserializeBlob(data []byte) *Blob {
	return &Blob{Content: data}
}

// TreeEntry is one child of a Tree: a descriptor paired with the hash of
// the object it names (ZeroHash for a tombstoned entry).
type TreeEntry struct {
	Descriptor Descriptor
	Child      Hash
}

// Tree is an unordered mapping from entry descriptor to child object
// hash, represented here as an ordered slice to keep hashing and
// serialization deterministic on insertion order, per §3's note that
// "iteration order must be deterministic for a given construction."
type Tree struct {
	Entries []TreeEntry
}

func (t *Tree) ObjectKind() ObjectKind { return ObjectTree }

// AddEntry appends a child. Tree never deduplicates by descriptor; the
// caller (index/history layers) is responsible for constructing a Tree
// with the entries it actually wants present.
func (t *Tree) AddEntry(d Descriptor, child Hash) {
	t.Entries = append(t.Entries, TreeEntry{Descriptor: d, Child: child})
}

// Serialize encodes the tree per the §4.2 envelope:
//
//	uint32 entry_count
//	for each entry:
//	  uint8  kind     (0=Blob, 1=Tree)
//	  uint8  removed  (0/1)
//	  uint32 path_len
//	  []byte path     (path_len bytes, no terminator)
//	  [20]byte child hash (all-zero for a tombstone sentinel)
func (t *Tree) Serialize() []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, uint32(len(t.Entries))) //nolint:gosec // entry counts are bounded by filesystem reality
	for _, e := range t.Entries {
		var kindByte, removedByte byte
		if e.Descriptor.Kind == KindTree {
			kindByte = 1
		}
		if e.Descriptor.Removed {
			removedByte = 1
		}
		buf = append(buf, kindByte, removedByte)

		pathLen := make([]byte, 4)
		binary.BigEndian.PutUint32(pathLen, uint32(len(e.Descriptor.Path))) //nolint:gosec // path lengths are bounded by filesystem reality
		buf = append(buf, pathLen...)
		buf = append(buf, e.Descriptor.Path...)
		buf = append(buf, e.Child.Bytes()...)
	}
	return buf
}

// Hash computes H("tree #\0" || concat(child_hash...)) over the entries
// in iteration order. Per §9, this deliberately ignores descriptor path
// and kind: two trees with the same children in the same order but
// different paths hash identically. This is a preserved source quirk, not
// a bug — see DESIGN.md "Open Question decisions".
func (t *Tree) Hash() Hash {
	var content []byte
	for _, e := range t.Entries {
		content = append(content, e.Child.Bytes()...)
	}
	return hashObject(ObjectTree, content)
}

// DeserializeTree parses the §4.2 tree envelope. Round-trip exact: for any
// tree t, DeserializeTree(t.Serialize()).Serialize() == t.Serialize().
func DeserializeTree(data []byte) (*Tree, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("DeserializeTree: truncated header (%d bytes)", len(data))
	}
	count := binary.BigEndian.Uint32(data[:4])
	offset := 4

	t := &Tree{Entries: make([]TreeEntry, 0, count)}
	for i := uint32(0); i < count; i++ {
		if offset+2+4 > len(data) {
			return nil, fmt.Errorf("DeserializeTree: truncated entry %d fixed fields", i)
		}
		kindByte := data[offset]
		removedByte := data[offset+1]
		pathLen := binary.BigEndian.Uint32(data[offset+2 : offset+6])
		offset += 6

		if offset+int(pathLen)+hashSize > len(data) {
			return nil, fmt.Errorf("DeserializeTree: truncated entry %d variable fields", i)
		}
		path := string(data[offset : offset+int(pathLen)])
		offset += int(pathLen)

		child := hashFromBytes(data[offset : offset+hashSize])
		offset += hashSize

		kind := KindBlob
		if kindByte == 1 {
			kind = KindTree
		}
		t.Entries = append(t.Entries, TreeEntry{
			Descriptor: Descriptor{Path: path, Kind: kind, Removed: removedByte == 1},
			Child:      child,
		})
	}
	return t, nil
}

// Commit is a node {tree, parent, message} in a linear history. A
// commit's tree stores only the deltas staged for this commit, not a
// full working-tree snapshot (§3).
type Commit struct {
	Tree    Hash
	Parent  Hash // ZeroHash for the initial commit
	Message string
}

func (c *Commit) ObjectKind() ObjectKind { return ObjectCommit }

// Serialize encodes the commit per §4.2:
//
//	[20]byte tree hash
//	uint8    has_parent (0/1)
//	[20]byte parent hash (all-zero if absent)
//	uint32   message_len
//	[]byte   message
//
// The message is carried in the envelope for display even though it is
// excluded from the hash preimage below (§3, §9 "Commit identity excludes
// message" — preserved verbatim, not corrected).
func (c *Commit) Serialize() []byte {
	buf := make([]byte, 0, hashSize*2+5+len(c.Message))
	buf = append(buf, c.Tree.Bytes()...)
	if c.Parent == ZeroHash {
		buf = append(buf, 0)
	} else {
		buf = append(buf, 1)
	}
	buf = append(buf, c.Parent.Bytes()...)

	msgLen := make([]byte, 4)
	binary.BigEndian.PutUint32(msgLen, uint32(len(c.Message))) //nolint:gosec // message length is bounded by filesystem reality
	buf = append(buf, msgLen...)
	buf = append(buf, c.Message...)
	return buf
}

// Hash computes H("commit #\0" || tree.hash || parent_hash_bytes). The
// message does not participate in identity: two commits with the same
// tree and parent but different messages collide (§3, documented
// limitation; see §9).
func (c *Commit) Hash() Hash {
	content := append([]byte{}, c.Tree.Bytes()...)
	content = append(content, c.Parent.Bytes()...)
	return hashObject(ObjectCommit, content)
}

// DeriveCommit returns a new commit with parent set to parent's hash
// (ZeroHash if parent is nil, meaning this is a root commit), the given
// tree, and message.
func DeriveCommit(parent *Commit, tree Hash, message string) *Commit {
	c := &Commit{Tree: tree, Message: message}
	if parent != nil {
		c.Parent = parent.Hash()
	}
	return c
}

// DeserializeCommit parses the §4.2 commit envelope.
func DeserializeCommit(data []byte) (*Commit, error) {
	if len(data) < hashSize+1+hashSize+4 {
		return nil, fmt.Errorf("DeserializeCommit: truncated header (%d bytes)", len(data))
	}
	offset := 0
	treeHash := hashFromBytes(data[offset : offset+hashSize])
	offset += hashSize

	hasParent := data[offset]
	offset++

	parentHash := hashFromBytes(data[offset : offset+hashSize])
	offset += hashSize
	if hasParent == 0 {
		parentHash = ZeroHash
	}

	msgLen := binary.BigEndian.Uint32(data[offset : offset+4])
	offset += 4
	if offset+int(msgLen) > len(data) {
		return nil, fmt.Errorf("DeserializeCommit: truncated message")
	}
	message := string(data[offset : offset+int(msgLen)])

	return &Commit{Tree: treeHash, Parent: parentHash, Message: message}, nil
}
