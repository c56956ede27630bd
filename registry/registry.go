// Package registry stores named models with schema-validated manifests.
//
// Each model is a manifest.json plus a payload blob under the models
// directory. Manifests are a fixed schema decoded strictly: unknown fields
// are an error, never silently carried along. Payloads are opaque bytes;
// nothing in this package deserializes or executes stored payload content.
package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/randalmurphal/mltrack/artifact"
)

// Registry errors
var (
	// ErrModelNotFound indicates no model is stored under the requested name.
	ErrModelNotFound = errors.New("model not found")
)

// ValidationError indicates a manifest failed schema validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid manifest: %s %s", e.Field, e.Reason)
}

const (
	manifestFile = "manifest.json"
	payloadFile  = "model.bin"
)

// Manifest is the fixed schema describing one stored model.
type Manifest struct {
	Name      string            `json:"name"`
	Version   string            `json:"version"`
	Framework string            `json:"framework,omitempty"`
	RunID     string            `json:"runId,omitempty"`
	Params    map[string]string `json:"params,omitempty"`
	SavedAt   time.Time         `json:"savedAt"`
	Bytes     int64             `json:"bytes"`
}

func (m Manifest) validate() error {
	if m.Name == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}
	if strings.ContainsAny(m.Name, `/\`) {
		return &ValidationError{Field: "name", Reason: "must not contain path separators"}
	}
	if m.Version == "" {
		return &ValidationError{Field: "version", Reason: "is required"}
	}
	return nil
}

// Registry manages the on-disk model tree: one directory per model name.
type Registry struct {
	dir string
}

// New creates a registry rooted at dir, created lazily on first save.
func New(dir string) *Registry {
	return &Registry{dir: dir}
}

// Save validates the manifest and stores it together with the payload.
// The model name namespaces storage and passes the same containment check as
// artifact paths, so a crafted name cannot land outside the models directory.
// Saving an existing name replaces it.
func (r *Registry) Save(manifest Manifest, payload io.Reader) (Manifest, error) {
	if err := manifest.validate(); err != nil {
		return Manifest{}, err
	}

	modelDir, err := artifact.Resolve(r.dir, manifest.Name)
	if err != nil {
		return Manifest{}, err
	}
	if err := os.MkdirAll(modelDir, 0o755); err != nil {
		return Manifest{}, &artifact.StorageError{Op: "mkdir", Path: modelDir, Err: err}
	}

	n, err := writeFileAtomic(filepath.Join(modelDir, payloadFile), payload)
	if err != nil {
		return Manifest{}, err
	}
	manifest.Bytes = n
	manifest.SavedAt = time.Now().UTC().Truncate(time.Second)

	encoded, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return Manifest{}, err
	}
	if _, err := writeFileAtomic(filepath.Join(modelDir, manifestFile), bytes.NewReader(encoded)); err != nil {
		return Manifest{}, err
	}

	return manifest, nil
}

// Load reads and strictly validates a model's manifest.
func (r *Registry) Load(name string) (Manifest, error) {
	modelDir, err := artifact.Resolve(r.dir, name)
	if err != nil {
		return Manifest{}, err
	}

	data, err := os.ReadFile(filepath.Join(modelDir, manifestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return Manifest{}, ErrModelNotFound
		}
		return Manifest{}, &artifact.StorageError{Op: "read", Path: modelDir, Err: err}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var manifest Manifest
	if err := dec.Decode(&manifest); err != nil {
		return Manifest{}, &ValidationError{Field: "manifest", Reason: err.Error()}
	}
	if err := manifest.validate(); err != nil {
		return Manifest{}, err
	}
	return manifest, nil
}

// Open returns the payload stream and byte length for a stored model.
// The caller must close the reader.
func (r *Registry) Open(name string) (io.ReadCloser, int64, error) {
	modelDir, err := artifact.Resolve(r.dir, name)
	if err != nil {
		return nil, 0, err
	}

	path := filepath.Join(modelDir, payloadFile)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, ErrModelNotFound
		}
		return nil, 0, &artifact.StorageError{Op: "stat", Path: path, Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, &artifact.StorageError{Op: "open", Path: path, Err: err}
	}
	return f, info.Size(), nil
}

// List returns manifests for every stored model, sorted by name.
func (r *Registry) List() ([]Manifest, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Manifest{}, nil
		}
		return nil, &artifact.StorageError{Op: "list", Path: r.dir, Err: err}
	}

	manifests := []Manifest{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		manifest, err := r.Load(entry.Name())
		if err != nil {
			// A half-written or foreign directory is not a model.
			continue
		}
		manifests = append(manifests, manifest)
	}
	return manifests, nil
}

func writeFileAtomic(dest string, content io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".save-*")
	if err != nil {
		return 0, &artifact.StorageError{Op: "create", Path: dest, Err: err}
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	n, err := io.Copy(tmp, content)
	if err != nil {
		tmp.Close()
		return 0, &artifact.StorageError{Op: "write", Path: dest, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return 0, &artifact.StorageError{Op: "close", Path: dest, Err: err}
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return 0, &artifact.StorageError{Op: "rename", Path: dest, Err: err}
	}
	return n, nil
}
