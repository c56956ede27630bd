package artifact

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// RetentionConfig defines the retention policy for run directories.
type RetentionConfig struct {
	RetentionDays int `yaml:"retention_days"` // Days to keep run artifacts after their last write
	KeepMinRuns   int `yaml:"keep_min_runs"`  // Minimum runs to keep regardless of age
}

// DefaultRetentionConfig returns sensible defaults.
func DefaultRetentionConfig() RetentionConfig {
	return RetentionConfig{
		RetentionDays: 30,
		KeepMinRuns:   100,
	}
}

// Sweeper deletes run directories that have aged out. Deletion never happens
// on the serving path; it runs only when explicitly invoked (mltrack gc).
type Sweeper struct {
	store  *Store
	config RetentionConfig
}

// NewSweeper creates a sweeper over store.
func NewSweeper(store *Store, config RetentionConfig) *Sweeper {
	return &Sweeper{store: store, config: config}
}

// SweepResult summarizes a sweep.
type SweepResult struct {
	Deleted    []string `json:"deleted"`
	Kept       []string `json:"kept"`
	Errors     []string `json:"errors,omitempty"`
	SpaceFreed int64    `json:"spaceFreed"`
}

// Sweep applies the retention policy. A run's age is the modification time
// of its newest artifact, so an old run that is still receiving writes is
// kept. With dryRun set, nothing is deleted and the result reports what
// would happen.
func (s *Sweeper) Sweep(dryRun bool) (*SweepResult, error) {
	result := &SweepResult{
		Deleted: make([]string, 0),
		Kept:    make([]string, 0),
	}

	entries, err := os.ReadDir(s.store.Root())
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return nil, &StorageError{Op: "list", Path: s.store.Root(), Err: err}
	}

	type runDir struct {
		id        string
		size      int64
		lastWrite time.Time
	}

	var runs []runDir
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(s.store.Root(), entry.Name())
		size, lastWrite := dirStats(dir)
		runs = append(runs, runDir{id: entry.Name(), size: size, lastWrite: lastWrite})
	}

	// Oldest first, so the minimum-keep floor protects the newest runs.
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].lastWrite.Before(runs[j].lastWrite)
	})

	threshold := time.Now().Add(-time.Duration(s.config.RetentionDays) * 24 * time.Hour)

	deleted := 0
	for _, run := range runs {
		if len(runs)-deleted <= s.config.KeepMinRuns || !run.lastWrite.Before(threshold) {
			result.Kept = append(result.Kept, run.id)
			continue
		}

		if !dryRun {
			if err := os.RemoveAll(filepath.Join(s.store.Root(), run.id)); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("delete %s: %v", run.id, err))
				continue
			}
		}
		result.Deleted = append(result.Deleted, run.id)
		result.SpaceFreed += run.size
		deleted++
	}

	return result, nil
}

// UsageStats reports disk usage for the artifact tree.
type UsageStats struct {
	RunCount  int   `json:"runCount"`
	TotalSize int64 `json:"totalSize"`
}

// Usage returns current disk usage across all runs.
func (s *Sweeper) Usage() (*UsageStats, error) {
	stats := &UsageStats{}

	entries, err := os.ReadDir(s.store.Root())
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return nil, &StorageError{Op: "list", Path: s.store.Root(), Err: err}
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		size, _ := dirStats(filepath.Join(s.store.Root(), entry.Name()))
		stats.RunCount++
		stats.TotalSize += size
	}
	return stats, nil
}

// dirStats returns total size and newest file mtime under dir. Walk errors
// are skipped; a partially readable run still gets swept on what is visible.
func dirStats(dir string) (int64, time.Time) {
	var size int64
	var newest time.Time
	filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		size += info.Size()
		if info.ModTime().After(newest) {
			newest = info.ModTime()
		}
		return nil
	})
	if newest.IsZero() {
		if info, err := os.Stat(dir); err == nil {
			newest = info.ModTime()
		}
	}
	return size, newest
}
