package artifact

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestRetriever_Fetch(t *testing.T) {
	store := NewStore(t.TempDir())
	retriever := NewRetriever(store)
	runID := "2025-01-15-run-cccc0001"

	if _, err := store.Put(runID, "report.html", strings.NewReader("<html/>")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	rc, size, err := retriever.Fetch(runID, "report.html")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	defer rc.Close()
	if size != 7 {
		t.Errorf("size = %d, want 7", size)
	}
	got, _ := io.ReadAll(rc)
	if string(got) != "<html/>" {
		t.Errorf("content = %q", got)
	}
}

func TestRetriever_FetchErrors(t *testing.T) {
	retriever := NewRetriever(NewStore(t.TempDir()))

	if _, _, err := retriever.Fetch("2025-01-15-run-cccc0002", "absent.txt"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Fetch absent: error = %v, want ErrNotFound", err)
	}

	_, _, err := retriever.Fetch("2025-01-15-run-cccc0002", "../sneaky")
	var escape *PathEscapeError
	if !errors.As(err, &escape) {
		t.Errorf("Fetch traversal: error = %v, want *PathEscapeError", err)
	}
}
