// Package testutil provides utilities for testing.
package testutil

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"
	"time"
)

// TestContext returns a context that is canceled when the test ends.
func TestContext(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return ctx
}

// TestContextWithTimeout returns a context with a timeout, canceled when the
// test ends.
func TestContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)

	return ctx
}

// BuildZip assembles an in-memory zip archive from entry name to content.
// Entries are written in map iteration order; use BuildZipOrdered when the
// archive's entry order matters.
func BuildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	return buildZip(t, names, entries)
}

// BuildZipOrdered assembles a zip archive with entries in the given order.
func BuildZipOrdered(t *testing.T, names []string, entries map[string]string) []byte {
	t.Helper()
	return buildZip(t, names, entries)
}

func buildZip(t *testing.T, names []string, entries map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range names {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := f.Write([]byte(entries[name])); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}
