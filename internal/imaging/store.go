package imaging

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	TaskImagesDir      = "task_images"
	ProfilePicturesDir = "profile_pics"
)

var ErrInvalidPath = errors.New("invalid stored file path")

// Store writes uploads below root. Paths handed out are relative to root
// and always use forward slashes.
type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

func (s *Store) Root() string {
	return s.root
}

// Save writes data to dir under a fresh random name with the given extension.
func (s *Store) Save(dir, ext string, data []byte) (string, error) {
	if !allowedExtensions[strings.ToLower(ext)] {
		return "", ErrUnsupportedType
	}

	if err := os.MkdirAll(filepath.Join(s.root, dir), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	rel := path.Join(dir, uuid.NewString()+"."+strings.ToLower(ext))
	full, err := s.Path(rel)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return rel, nil
}

// Delete removes a stored file. Missing files are not an error.
func (s *Store) Delete(rel string) error {
	if rel == "" {
		return nil
	}
	full, err := s.Path(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Path resolves rel inside root, rejecting anything that escapes it.
func (s *Store) Path(rel string) (string, error) {
	clean := path.Clean("/" + rel)
	if clean == "/" || strings.Contains(rel, "..") {
		return "", ErrInvalidPath
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}
