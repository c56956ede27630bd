package artifact

import "io"

// Retriever streams stored artifacts back to the transport boundary.
// It is a thin read-side facade over Store; the caller is responsible for
// delivering the stream as a download.
type Retriever struct {
	store *Store
}

// NewRetriever creates a retriever over store.
func NewRetriever(store *Store) *Retriever {
	return &Retriever{store: store}
}

// Fetch returns the artifact's content and byte length. The caller must
// close the reader. Absent artifacts report ErrNotFound; invalid paths
// report *PathEscapeError.
func (r *Retriever) Fetch(runID, relPath string) (io.ReadCloser, int64, error) {
	return r.store.Get(runID, relPath)
}
