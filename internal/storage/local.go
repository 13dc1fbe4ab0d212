package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes uploaded originals into the uploads directory, beside
// which the resize cache places derived copies. Relative paths use forward
// slashes regardless of platform so they double as URL suffixes.
type LocalStore struct {
	root    string
	baseURL string
}

func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("local store: creating uploads root: %w", err)
	}
	return &LocalStore{
		root:    root,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Save writes the reader's bytes to the given relative path under the scoped
// uploads root, creating intermediate directories. It returns the absolute
// path written.
func (s *LocalStore) Save(scopeID *int64, relPath string, r io.Reader) (string, error) {
	abs := s.Path(scopeID, relPath)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("local store: creating directory: %w", err)
	}

	f, err := os.Create(abs)
	if err != nil {
		return "", fmt.Errorf("local store: creating file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(abs)
		return "", fmt.Errorf("local store: writing file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(abs)
		return "", fmt.Errorf("local store: closing file: %w", err)
	}
	return abs, nil
}

// Path returns the absolute on-disk path for a relative upload path.
func (s *LocalStore) Path(scopeID *int64, relPath string) string {
	return filepath.Join(s.scopedRoot(scopeID), filepath.FromSlash(relPath))
}

// URL returns the public URL for a relative upload path.
func (s *LocalStore) URL(scopeID *int64, relPath string) string {
	if scopeID != nil {
		return fmt.Sprintf("%s/sites/%d/%s", s.baseURL, *scopeID, relPath)
	}
	return s.baseURL + "/" + relPath
}

// Remove deletes a stored file. Missing files are not an error.
func (s *LocalStore) Remove(scopeID *int64, relPath string) error {
	err := os.Remove(s.Path(scopeID, relPath))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("local store: removing file: %w", err)
	}
	return nil
}

func (s *LocalStore) scopedRoot(scopeID *int64) string {
	if scopeID != nil {
		return filepath.Join(s.root, "sites", fmt.Sprintf("%d", *scopeID))
	}
	return s.root
}
