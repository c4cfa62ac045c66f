// Package photostore persists medication photos as opaque blobs on disk.
// Files are named by generated identifier; callers keep only the reference.
package photostore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidRef is returned when a reference does not name a stored photo.
var ErrInvalidRef = errors.New("photostore: invalid photo reference")

// maxPhotoBytes caps a single upload at 5 MiB.
const maxPhotoBytes = 5 << 20

// Store writes photo blobs under a single directory.
type Store struct {
	dir string
}

// New prepares the storage directory and returns a Store over it.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("photostore: create directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save stores the blob and returns the generated reference.
func (s *Store) Save(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("photostore: empty photo")
	}
	if len(data) > maxPhotoBytes {
		return "", fmt.Errorf("photostore: photo exceeds %d bytes", maxPhotoBytes)
	}
	ref := uuid.NewString() + ".jpg"
	if err := os.WriteFile(filepath.Join(s.dir, ref), data, 0o644); err != nil {
		return "", fmt.Errorf("photostore: write photo: %w", err)
	}
	return ref, nil
}

// Path resolves a reference to its on-disk location. References containing
// path separators are rejected before touching the filesystem.
func (s *Store) Path(ref string) (string, error) {
	if ref == "" || strings.ContainsAny(ref, `/\`) || strings.Contains(ref, "..") {
		return "", ErrInvalidRef
	}
	path := filepath.Join(s.dir, ref)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", ErrInvalidRef
		}
		return "", fmt.Errorf("photostore: stat photo: %w", err)
	}
	return path, nil
}

// Remove deletes the blob for a reference. A reference that is already gone
// is not an error.
func (s *Store) Remove(ref string) error {
	if ref == "" || strings.ContainsAny(ref, `/\`) || strings.Contains(ref, "..") {
		return ErrInvalidRef
	}
	if err := os.Remove(filepath.Join(s.dir, ref)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("photostore: remove photo: %w", err)
	}
	return nil
}
