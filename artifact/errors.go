package artifact

import (
	"errors"
	"fmt"
)

// Artifact errors
var (
	// ErrNotFound indicates the requested artifact (or its run root) does not exist.
	ErrNotFound = errors.New("artifact not found")
)

// PathEscapeError indicates a caller-supplied path would resolve outside its
// run root. The operation is rejected outright; the path is never sanitized
// into a different location.
type PathEscapeError struct {
	Path   string // The path as the caller supplied it
	Reason string // Which check failed
}

func (e *PathEscapeError) Error() string {
	return fmt.Sprintf("path escapes run root: %q (%s)", e.Path, e.Reason)
}

// QuotaError indicates an archive import exceeded a configured limit.
// Kind is one of "entries", "entry-size", or "total-size".
type QuotaError struct {
	Kind     string
	Entry    string // Offending entry name; empty for archive-wide limits
	Limit    int64
	Observed int64
}

func (e *QuotaError) Error() string {
	if e.Entry != "" {
		return fmt.Sprintf("archive %s quota exceeded by %q: %d > %d",
			e.Kind, e.Entry, e.Observed, e.Limit)
	}
	return fmt.Sprintf("archive %s quota exceeded: %d > %d", e.Kind, e.Observed, e.Limit)
}

// StorageError wraps a filesystem failure with operation context.
// Callers decide whether to retry; this package never retries on its own.
type StorageError struct {
	Op   string // Operation that failed (e.g., "write", "rename")
	Path string // Path involved
	Err  error  // Underlying error
}

func (e *StorageError) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
