package artifact

import (
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/crypto/blake2b"
)

// Store owns the on-disk artifact tree: one directory per run under a single
// artifacts root, created lazily on first write.
type Store struct {
	root string
}

// NewStore creates a store rooted at dir. The directory itself is created on
// first write, not here.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the artifacts base directory.
func (s *Store) Root() string {
	return s.root
}

// PutResult describes a completed write.
type PutResult struct {
	Bytes  int64  `json:"bytes"`
	Digest string `json:"digest"` // blake2b-256 of the stored content, hex
}

// Info holds metadata for a single stored artifact.
type Info struct {
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime"`
}

// Put streams content into the artifact at relPath under the run's root,
// creating missing directories. The content lands in a temporary file next to
// the destination and is renamed into place, so a concurrent reader never
// sees a partial write. Overwriting an existing artifact is silent
// (last-write-wins).
func (s *Store) Put(runID, relPath string, content io.Reader) (PutResult, error) {
	runRoot, err := Resolve(s.root, runID)
	if err != nil {
		return PutResult{}, err
	}
	dest, err := Resolve(runRoot, relPath)
	if err != nil {
		return PutResult{}, err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return PutResult{}, &StorageError{Op: "mkdir", Path: filepath.Dir(dest), Err: err}
	}
	return writeAtomic(dest, content)
}

// writeAtomic writes content to a temp file in dest's directory and renames
// it over dest. On any failure the temp file is removed; nothing partial
// becomes visible.
func writeAtomic(dest string, content io.Reader) (PutResult, error) {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return PutResult{}, &StorageError{Op: "create", Path: dir, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	hash, err := blake2b.New256(nil)
	if err != nil {
		tmp.Close()
		return PutResult{}, err
	}

	n, err := io.Copy(io.MultiWriter(tmp, hash), content)
	if err != nil {
		tmp.Close()
		return PutResult{}, &StorageError{Op: "write", Path: dest, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return PutResult{}, &StorageError{Op: "close", Path: dest, Err: err}
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return PutResult{}, &StorageError{Op: "rename", Path: dest, Err: err}
	}

	return PutResult{
		Bytes:  n,
		Digest: hex.EncodeToString(hash.Sum(nil)),
	}, nil
}

// Get opens the artifact at relPath and returns its content plus byte length.
// The caller must close the reader. Missing files and anything that is not a
// regular file report ErrNotFound.
func (s *Store) Get(runID, relPath string) (io.ReadCloser, int64, error) {
	runRoot, err := Resolve(s.root, runID)
	if err != nil {
		return nil, 0, err
	}
	dest, err := Resolve(runRoot, relPath)
	if err != nil {
		return nil, 0, err
	}

	info, err := os.Stat(dest)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, &StorageError{Op: "stat", Path: dest, Err: err}
	}
	if !info.Mode().IsRegular() {
		return nil, 0, ErrNotFound
	}

	f, err := os.Open(dest)
	if err != nil {
		return nil, 0, &StorageError{Op: "open", Path: dest, Err: err}
	}
	return f, info.Size(), nil
}

// Stat returns metadata for a single artifact without opening it.
func (s *Store) Stat(runID, relPath string) (Info, error) {
	runRoot, err := Resolve(s.root, runID)
	if err != nil {
		return Info{}, err
	}
	dest, err := Resolve(runRoot, relPath)
	if err != nil {
		return Info{}, err
	}

	info, err := os.Stat(dest)
	if err != nil {
		if os.IsNotExist(err) {
			return Info{}, ErrNotFound
		}
		return Info{}, &StorageError{Op: "stat", Path: dest, Err: err}
	}
	if !info.Mode().IsRegular() {
		return Info{}, ErrNotFound
	}

	rel, err := normalizeRel(relPath)
	if err != nil {
		return Info{}, err
	}
	return Info{Path: rel, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// List returns the relative paths of all regular files under the run's root,
// slash-separated and sorted. A run with no artifacts (or no directory at
// all) yields an empty slice, not an error.
func (s *Store) List(runID string) ([]string, error) {
	runRoot, err := Resolve(s.root, runID)
	if err != nil {
		return nil, err
	}

	paths := []string{}
	err = filepath.WalkDir(runRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(runRoot, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, &StorageError{Op: "list", Path: runRoot, Err: err}
	}

	sort.Strings(paths)
	return paths, nil
}
