package artifact

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func agedRun(t *testing.T, store *Store, runID string, age time.Duration) {
	t.Helper()

	if _, err := store.Put(runID, "out.log", strings.NewReader("data")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	old := time.Now().Add(-age)
	path := filepath.Join(store.Root(), runID, "out.log")
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
}

func TestSweeper_DeletesAgedRuns(t *testing.T) {
	store := NewStore(t.TempDir())
	sweeper := NewSweeper(store, RetentionConfig{RetentionDays: 30, KeepMinRuns: 1})

	agedRun(t, store, "2024-01-01-run-old00001", 90*24*time.Hour)
	agedRun(t, store, "2024-06-01-run-old00002", 60*24*time.Hour)
	agedRun(t, store, "2025-01-15-run-fresh001", time.Hour)

	result, err := sweeper.Sweep(false)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	if len(result.Deleted) != 2 {
		t.Errorf("Deleted = %v, want the two aged runs", result.Deleted)
	}
	if len(result.Kept) != 1 || result.Kept[0] != "2025-01-15-run-fresh001" {
		t.Errorf("Kept = %v, want the fresh run", result.Kept)
	}
	if result.SpaceFreed == 0 {
		t.Error("SpaceFreed = 0, want > 0")
	}

	if _, err := os.Stat(filepath.Join(store.Root(), "2024-01-01-run-old00001")); !os.IsNotExist(err) {
		t.Error("aged run directory still present after sweep")
	}
}

func TestSweeper_KeepMinRunsFloor(t *testing.T) {
	store := NewStore(t.TempDir())
	sweeper := NewSweeper(store, RetentionConfig{RetentionDays: 30, KeepMinRuns: 3})

	for _, id := range []string{"2024-01-01-run-aged0001", "2024-01-02-run-aged0002", "2024-01-03-run-aged0003"} {
		agedRun(t, store, id, 90*24*time.Hour)
	}

	result, err := sweeper.Sweep(false)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(result.Deleted) != 0 {
		t.Errorf("Deleted = %v, want none below the minimum-keep floor", result.Deleted)
	}
	if len(result.Kept) != 3 {
		t.Errorf("Kept = %v, want all three", result.Kept)
	}
}

func TestSweeper_DryRun(t *testing.T) {
	store := NewStore(t.TempDir())
	sweeper := NewSweeper(store, RetentionConfig{RetentionDays: 30, KeepMinRuns: 0})

	agedRun(t, store, "2024-01-01-run-aged0004", 90*24*time.Hour)

	result, err := sweeper.Sweep(true)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(result.Deleted) != 1 {
		t.Errorf("dry-run Deleted = %v, want the aged run reported", result.Deleted)
	}
	if _, err := os.Stat(filepath.Join(store.Root(), "2024-01-01-run-aged0004")); err != nil {
		t.Errorf("dry run removed the directory: %v", err)
	}
}

func TestSweeper_EmptyRoot(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "never-created"))
	sweeper := NewSweeper(store, DefaultRetentionConfig())

	result, err := sweeper.Sweep(false)
	if err != nil {
		t.Fatalf("Sweep on missing root: %v", err)
	}
	if len(result.Deleted)+len(result.Kept) != 0 {
		t.Errorf("Sweep on missing root = %+v, want empty result", result)
	}

	stats, err := sweeper.Usage()
	if err != nil {
		t.Fatalf("Usage on missing root: %v", err)
	}
	if stats.RunCount != 0 || stats.TotalSize != 0 {
		t.Errorf("Usage = %+v, want zeros", stats)
	}
}

func TestSweeper_Usage(t *testing.T) {
	store := NewStore(t.TempDir())
	sweeper := NewSweeper(store, DefaultRetentionConfig())

	agedRun(t, store, "2025-01-15-run-usage001", time.Hour)
	agedRun(t, store, "2025-01-15-run-usage002", time.Hour)

	stats, err := sweeper.Usage()
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if stats.RunCount != 2 {
		t.Errorf("RunCount = %d, want 2", stats.RunCount)
	}
	if stats.TotalSize != 8 {
		t.Errorf("TotalSize = %d, want 8", stats.TotalSize)
	}
}
