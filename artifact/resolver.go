package artifact

import (
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Resolve joins an untrusted relative path onto root and returns the absolute
// destination, or a *PathEscapeError if the path could land outside root.
//
// The requested path must be non-blank, relative, and consist of
// forward-slash-separated segments none of which are empty, ".", or "..".
// Backslashes are treated as separators so Windows-style traversal is caught
// too. The joined result is canonicalized against symlinks and must stay
// equal to or below the canonicalized root.
//
// Root may not exist yet; canonicalization walks up to the deepest existing
// ancestor. Resolve is the only place this module builds paths from caller
// input.
func Resolve(root, requested string) (string, error) {
	rel, err := normalizeRel(requested)
	if err != nil {
		return "", err
	}

	dest := filepath.Join(root, filepath.FromSlash(rel))

	canonRoot, err := canonicalize(root)
	if err != nil {
		return "", &StorageError{Op: "resolve", Path: root, Err: err}
	}
	canonDest, err := canonicalize(dest)
	if err != nil {
		return "", &StorageError{Op: "resolve", Path: dest, Err: err}
	}

	if canonDest != canonRoot &&
		!strings.HasPrefix(canonDest, canonRoot+string(filepath.Separator)) {
		return "", &PathEscapeError{Path: requested, Reason: "resolves outside root"}
	}

	return dest, nil
}

// normalizeRel validates requested and returns its clean, slash-separated,
// NFC-normalized form. Uploads from macOS clients arrive NFD-encoded;
// normalizing keeps one logical name mapped to one artifact.
func normalizeRel(requested string) (string, error) {
	if strings.TrimSpace(requested) == "" {
		return "", &PathEscapeError{Path: requested, Reason: "blank path"}
	}

	cleaned := norm.NFC.String(requested)
	cleaned = strings.ReplaceAll(cleaned, `\`, "/")

	if strings.HasPrefix(cleaned, "/") {
		return "", &PathEscapeError{Path: requested, Reason: "absolute path"}
	}

	segments := strings.Split(cleaned, "/")
	for _, seg := range segments {
		switch seg {
		case "", ".", "..":
			return "", &PathEscapeError{Path: requested, Reason: "invalid segment " + strconv.Quote(seg)}
		}
	}
	// A colon in the first segment is a drive or scheme prefix (C:, file:).
	if strings.Contains(segments[0], ":") {
		return "", &PathEscapeError{Path: requested, Reason: "drive or scheme prefix"}
	}

	return path.Join(segments...), nil
}

// canonicalize resolves symlinks in path. The tail of the path is allowed to
// not exist yet: the deepest existing ancestor is resolved and the remainder
// joined back on.
func canonicalize(p string) (string, error) {
	suffix := ""
	for {
		resolved, err := filepath.EvalSymlinks(p)
		if err == nil {
			return filepath.Join(resolved, suffix), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(p)
		if parent == p {
			return "", err
		}
		suffix = filepath.Join(filepath.Base(p), suffix)
		p = parent
	}
}
