package artifact

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestStore_PutGetRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())
	runID := "2025-01-15-run-aaaa0001"
	content := []byte("epoch,loss\n1,0.52\n2,0.31\n")

	res, err := store.Put(runID, "metrics/loss.csv", bytes.NewReader(content))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if res.Bytes != int64(len(content)) {
		t.Errorf("Put bytes = %d, want %d", res.Bytes, len(content))
	}
	if len(res.Digest) != 64 {
		t.Errorf("digest length = %d, want 64 hex chars", len(res.Digest))
	}

	rc, size, err := store.Get(runID, "metrics/loss.csv")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer rc.Close()

	if size != int64(len(content)) {
		t.Errorf("Get size = %d, want %d", size, len(content))
	}
	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("content mismatch:\ngot:  %q\nwant: %q", got, content)
	}
}

func TestStore_OverwriteLastWriteWins(t *testing.T) {
	store := NewStore(t.TempDir())
	runID := "2025-01-15-run-aaaa0002"

	if _, err := store.Put(runID, "config.yaml", strings.NewReader("lr: 0.1")); err != nil {
		t.Fatalf("first Put: %v", err)
	}
	if _, err := store.Put(runID, "config.yaml", strings.NewReader("lr: 0.01")); err != nil {
		t.Fatalf("second Put: %v", err)
	}

	rc, _, err := store.Get(runID, "config.yaml")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != "lr: 0.01" {
		t.Errorf("content = %q, want the second write", got)
	}

	paths, err := store.List(runID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(paths) != 1 {
		t.Errorf("List = %v, want exactly one path", paths)
	}
}

func TestStore_GetNotFound(t *testing.T) {
	store := NewStore(t.TempDir())

	_, _, err := store.Get("2025-01-15-run-aaaa0003", "missing.txt")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get missing artifact: error = %v, want ErrNotFound", err)
	}
}

func TestStore_GetDirectoryIsNotFound(t *testing.T) {
	store := NewStore(t.TempDir())
	runID := "2025-01-15-run-aaaa0004"

	if _, err := store.Put(runID, "logs/out.txt", strings.NewReader("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if _, _, err := store.Get(runID, "logs"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get on directory: error = %v, want ErrNotFound", err)
	}
}

func TestStore_PutRejectsEscape(t *testing.T) {
	base := t.TempDir()
	store := NewStore(filepath.Join(base, "artifacts"))
	runID := "2025-01-15-run-aaaa0005"

	for _, bad := range []string{"../escape.txt", "/abs.txt", "a/../../b.txt"} {
		_, err := store.Put(runID, bad, strings.NewReader("payload"))
		var escape *PathEscapeError
		if !errors.As(err, &escape) {
			t.Errorf("Put(%q) error = %v, want *PathEscapeError", bad, err)
		}
	}

	// The rejected writes left nothing behind, inside or outside the root.
	if paths, err := store.List(runID); err != nil || len(paths) != 0 {
		t.Errorf("List after rejected puts = %v, %v; want empty", paths, err)
	}
	if _, err := os.Stat(filepath.Join(base, "escape.txt")); !os.IsNotExist(err) {
		t.Error("escape.txt was written outside the artifacts root")
	}
}

func TestStore_ListCompleteness(t *testing.T) {
	store := NewStore(t.TempDir())
	runID := "2025-01-15-run-aaaa0006"

	want := []string{"a.txt", "nested/deep/c.bin", "nested/b.json"}
	for _, p := range want {
		if _, err := store.Put(runID, p, strings.NewReader("data")); err != nil {
			t.Fatalf("Put(%q): %v", p, err)
		}
	}

	got, err := store.List(runID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("List = %v, want %v", got, want)
	}
	for i, p := range []string{"a.txt", "nested/b.json", "nested/deep/c.bin"} {
		if got[i] != p {
			t.Errorf("List[%d] = %q, want %q", i, got[i], p)
		}
	}
}

func TestStore_ListEmptyRun(t *testing.T) {
	store := NewStore(t.TempDir())

	paths, err := store.List("2025-01-15-run-never-written")
	if err != nil {
		t.Fatalf("List on unknown run: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("List = %v, want empty", paths)
	}
}

func TestStore_ConcurrentFirstWrites(t *testing.T) {
	store := NewStore(t.TempDir())
	runID := "2025-01-15-run-aaaa0007"

	// Two concurrent first writes race on creating the run root; idempotent
	// directory creation means both must succeed.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, name := range []string{"first.txt", "second.txt"} {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			_, errs[i] = store.Put(runID, name, strings.NewReader(name))
		}(i, name)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("concurrent Put %d: %v", i, err)
		}
	}

	paths, err := store.List(runID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(paths) != 2 {
		t.Errorf("List = %v, want both writes visible", paths)
	}
}

func TestStore_PutAbortedReaderLeavesNothing(t *testing.T) {
	store := NewStore(t.TempDir())
	runID := "2025-01-15-run-aaaa0008"

	broken := io.MultiReader(strings.NewReader("partial"), &failingReader{})
	_, err := store.Put(runID, "upload.bin", broken)
	var storageErr *StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("Put with aborted stream: error = %v, want *StorageError", err)
	}

	// The temp file was discarded and never renamed into the visible tree.
	paths, err := store.List(runID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("List after aborted upload = %v, want empty", paths)
	}
}

type failingReader struct{}

func (*failingReader) Read([]byte) (int, error) {
	return 0, errors.New("stream aborted")
}

func TestStore_StatInfo(t *testing.T) {
	store := NewStore(t.TempDir())
	runID := "2025-01-15-run-aaaa0009"

	if _, err := store.Put(runID, "model/weights.bin", strings.NewReader("0123456789")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	info, err := store.Stat(runID, "model/weights.bin")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Path != "model/weights.bin" {
		t.Errorf("Stat path = %q", info.Path)
	}
	if info.Size != 10 {
		t.Errorf("Stat size = %d, want 10", info.Size)
	}

	if _, err := store.Stat(runID, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Stat missing: error = %v, want ErrNotFound", err)
	}
}
