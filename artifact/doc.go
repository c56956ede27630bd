// Package artifact provides run-scoped artifact storage for experiment runs.
//
// Core types:
//   - Store: writes, reads, and lists artifacts under one directory per run
//   - Importer: expands uploaded zip archives as an all-or-nothing batch
//   - Retriever: streams stored artifacts back to the transport layer
//   - Sweeper: retention cleanup of old run directories
//
// Every filesystem path is built through Resolve, which rejects any requested
// path that would land outside its run root: absolute paths, "." or ".."
// segments, backslash tricks, and symlink escapes. No other code in this
// package or its callers joins caller-supplied paths onto a directory.
//
// Example usage:
//
//	store := artifact.NewStore("data/artifacts")
//	res, err := store.Put("2025-01-15-run-x7k2m9qp", "model/weights.bin", file)
//	rc, size, err := store.Get("2025-01-15-run-x7k2m9qp", "model/weights.bin")
package artifact
