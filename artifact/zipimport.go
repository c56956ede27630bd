package artifact

import (
	"archive/zip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// OpenZip parses an uploaded archive blob. Entries with traversal-style names
// are not an error at this point: ImportZip rejects them with a
// *PathEscapeError naming the offending entry, which is what callers report.
func OpenZip(blob io.ReaderAt, size int64) (*zip.Reader, error) {
	zr, err := zip.NewReader(blob, size)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, err
	}
	return zr, nil
}

// Default import quotas. Decompression bombs are bounded by both the declared
// entry sizes (checked before extraction) and the observed byte counts
// (enforced while copying).
const (
	DefaultMaxEntries    = 2000
	DefaultMaxEntryBytes = 256 << 20 // 256 MiB
	DefaultMaxTotalBytes = 1 << 30   // 1 GiB
)

// Quota bounds a single archive import. Zero fields use the defaults above.
type Quota struct {
	MaxEntries    int   `yaml:"max_entries"`
	MaxEntryBytes int64 `yaml:"max_entry_bytes"`
	MaxTotalBytes int64 `yaml:"max_total_bytes"`
}

func (q Quota) orDefaults() Quota {
	if q.MaxEntries == 0 {
		q.MaxEntries = DefaultMaxEntries
	}
	if q.MaxEntryBytes == 0 {
		q.MaxEntryBytes = DefaultMaxEntryBytes
	}
	if q.MaxTotalBytes == 0 {
		q.MaxTotalBytes = DefaultMaxTotalBytes
	}
	return q
}

// Importer expands uploaded zip archives into the store as an all-or-nothing
// batch: every entry is validated, the batch is staged next to the live tree,
// and only a fully staged batch is moved into the run root. Imports targeting
// the same run are serialized; different runs import independently.
type Importer struct {
	store *Store
	quota Quota

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewImporter creates an importer over store with the given quota.
func NewImporter(store *Store, quota Quota) *Importer {
	return &Importer{
		store: store,
		quota: quota.orDefaults(),
		locks: make(map[string]*sync.Mutex),
	}
}

func (im *Importer) runLock(runID string) *sync.Mutex {
	im.mu.Lock()
	defer im.mu.Unlock()
	l, ok := im.locks[runID]
	if !ok {
		l = &sync.Mutex{}
		im.locks[runID] = l
	}
	return l
}

type zipEntry struct {
	file *zip.File
	rel  string
}

// ImportZip expands the archive into the run's root and returns the relative
// paths it imported. If any entry fails a containment or quota check, the
// whole import fails with that entry's error and the run root is untouched.
// Existing artifacts at imported paths are overwritten (last-write-wins).
func (im *Importer) ImportZip(runID string, zr *zip.Reader) ([]string, error) {
	lock := im.runLock(runID)
	lock.Lock()
	defer lock.Unlock()

	runRoot, err := Resolve(im.store.root, runID)
	if err != nil {
		return nil, err
	}

	entries, err := im.validate(runRoot, zr)
	if err != nil {
		return nil, err
	}

	stage, err := im.stage(entries)
	if stage != "" {
		defer os.RemoveAll(stage)
	}
	if err != nil {
		return nil, err
	}

	return im.commit(runRoot, stage, entries)
}

// validate checks every entry before a single byte is extracted: containment
// via Resolve, regular files only, and declared-size quotas.
func (im *Importer) validate(runRoot string, zr *zip.Reader) ([]zipEntry, error) {
	if n := len(zr.File); n > im.quota.MaxEntries {
		return nil, &QuotaError{
			Kind:     "entries",
			Limit:    int64(im.quota.MaxEntries),
			Observed: int64(n),
		}
	}

	var entries []zipEntry
	var declared int64
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if !f.Mode().IsRegular() {
			return nil, &PathEscapeError{Path: f.Name, Reason: "non-regular entry"}
		}
		if _, err := Resolve(runRoot, f.Name); err != nil {
			return nil, err
		}
		rel, err := normalizeRel(f.Name)
		if err != nil {
			return nil, err
		}

		size := int64(f.UncompressedSize64)
		if size > im.quota.MaxEntryBytes {
			return nil, &QuotaError{
				Kind:     "entry-size",
				Entry:    f.Name,
				Limit:    im.quota.MaxEntryBytes,
				Observed: size,
			}
		}
		declared += size
		if declared > im.quota.MaxTotalBytes {
			return nil, &QuotaError{
				Kind:     "total-size",
				Limit:    im.quota.MaxTotalBytes,
				Observed: declared,
			}
		}

		entries = append(entries, zipEntry{file: f, rel: rel})
	}
	return entries, nil
}

// stage extracts validated entries into a temp directory beside the live
// tree (same filesystem, so the later renames are atomic). Observed sizes
// are enforced during the copy: a lying zip header does not get past the
// quota.
func (im *Importer) stage(entries []zipEntry) (string, error) {
	if err := os.MkdirAll(im.store.root, 0o755); err != nil {
		return "", &StorageError{Op: "mkdir", Path: im.store.root, Err: err}
	}
	stage, err := os.MkdirTemp(im.store.root, ".import-")
	if err != nil {
		return "", &StorageError{Op: "stage", Path: im.store.root, Err: err}
	}

	var total int64
	for _, e := range entries {
		n, err := im.extractEntry(stage, e, im.quota.MaxTotalBytes-total)
		if err != nil {
			return stage, err
		}
		total += n
	}
	return stage, nil
}

func (im *Importer) extractEntry(stage string, e zipEntry, totalBudget int64) (int64, error) {
	rc, err := e.file.Open()
	if err != nil {
		return 0, &StorageError{Op: "read entry", Path: e.rel, Err: err}
	}
	defer rc.Close()

	staged := filepath.Join(stage, filepath.FromSlash(e.rel))
	if err := os.MkdirAll(filepath.Dir(staged), 0o755); err != nil {
		return 0, &StorageError{Op: "mkdir", Path: filepath.Dir(staged), Err: err}
	}
	out, err := os.Create(staged)
	if err != nil {
		return 0, &StorageError{Op: "create", Path: staged, Err: err}
	}
	defer out.Close()

	allowed := im.quota.MaxEntryBytes
	if totalBudget < allowed {
		allowed = totalBudget
	}
	n, err := io.Copy(out, io.LimitReader(rc, allowed+1))
	if err != nil {
		return n, &StorageError{Op: "extract", Path: e.rel, Err: err}
	}
	if n > allowed {
		kind, limit := "entry-size", im.quota.MaxEntryBytes
		if allowed < im.quota.MaxEntryBytes {
			kind, limit = "total-size", im.quota.MaxTotalBytes
		}
		return n, &QuotaError{Kind: kind, Entry: e.file.Name, Limit: limit, Observed: n}
	}
	return n, nil
}

// commit moves staged files into the run root with per-file atomic renames.
// By this point every entry has passed validation; a failure here is a disk
// fault, not bad input.
func (im *Importer) commit(runRoot, stage string, entries []zipEntry) ([]string, error) {
	imported := make([]string, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		// Duplicate entry names collapse to one staged file (last write wins).
		if seen[e.rel] {
			continue
		}
		seen[e.rel] = true
		dest, err := Resolve(runRoot, e.rel)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return nil, &StorageError{Op: "mkdir", Path: filepath.Dir(dest), Err: err}
		}
		staged := filepath.Join(stage, filepath.FromSlash(e.rel))
		if err := os.Rename(staged, dest); err != nil {
			return nil, &StorageError{Op: "rename", Path: dest, Err: err}
		}
		imported = append(imported, e.rel)
	}
	return imported, nil
}
