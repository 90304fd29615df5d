// vidstore/internal/storage/disk/store.go

// Package disk stores one header-obfuscated file per content id in a flat
// directory: {dir}/{contentId}.file
package disk

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"vidstore/internal/core/domain"
)

type Store struct {
	dir string
}

// NewStore opens the storage directory, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIO, err)
	}
	return &Store{
		dir: filepath.Clean(dir),
	}, nil
}

// Dir returns the storage directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file path for id. It is also the stream cache key.
func (s *Store) Path(id domain.ContentID) string {
	return filepath.Join(s.dir, id.FileName())
}

func (s *Store) stat(id domain.ContentID) (os.FileInfo, error) {
	if !ValidID(id) {
		return nil, fmt.Errorf("content id %q: %w", id, domain.ErrNotFound)
	}
	info, err := os.Stat(s.Path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("content id %q: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrIO, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("content id %q: %w", id, domain.ErrNotFound)
	}
	return info, nil
}

func (s *Store) Exists(id domain.ContentID) (bool, error) {
	_, err := s.stat(id)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) Size(id domain.ContentID) (int64, error) {
	info, err := s.stat(id)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Stat returns the stored file description for id.
func (s *Store) Stat(id domain.ContentID) (domain.StoredFile, error) {
	info, err := s.stat(id)
	if err != nil {
		return domain.StoredFile{}, err
	}
	return domain.StoredFile{
		ContentID: id,
		Size:      info.Size(),
		ModTime:   info.ModTime(),
	}, nil
}

// ReadRange returns the raw bytes [start, end] inclusive, header
// obfuscation included.
func (s *Store) ReadRange(id domain.ContentID, start, end int64) ([]byte, error) {
	size, err := s.Size(id)
	if err != nil {
		return nil, err
	}
	if start < 0 || start > end || end >= size {
		return nil, fmt.Errorf("%w: bytes %d-%d of %d", domain.ErrRangeInvalid, start, end, size)
	}

	f, err := os.Open(s.Path(id))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIO, err)
	}
	defer f.Close()

	buf := make([]byte, end-start+1)
	if _, err := f.ReadAt(buf, start); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", domain.ErrIO, err)
	}
	return buf, nil
}

// ReadAll returns the whole raw file.
func (s *Store) ReadAll(id domain.ContentID) ([]byte, error) {
	if !ValidID(id) {
		return nil, fmt.Errorf("content id %q: %w", id, domain.ErrNotFound)
	}
	data, err := os.ReadFile(s.Path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("content id %q: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrIO, err)
	}
	return data, nil
}

func (s *Store) Delete(id domain.ContentID) error {
	if _, err := s.stat(id); err != nil {
		return err
	}
	if err := os.Remove(s.Path(id)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("content id %q: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("%w: %w", domain.ErrIO, err)
	}
	return nil
}

// List returns the ids of every stored file in the directory.
func (s *Store) List() (map[domain.ContentID]struct{}, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIO, err)
	}
	ids := make(map[domain.ContentID]struct{}, len(entries))
	for _, e := range entries {
		if id, ok := ParseFileName(e.Name()); ok && e.Type().IsRegular() {
			ids[id] = struct{}{}
		}
	}
	return ids, nil
}

// ListSorted returns List in directory order.
func (s *Store) ListSorted() ([]domain.ContentID, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrIO, err)
	}
	var ids []domain.ContentID
	for _, e := range entries {
		if id, ok := ParseFileName(e.Name()); ok && e.Type().IsRegular() {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ParseFileName extracts the content id from a stored file name.
func ParseFileName(name string) (domain.ContentID, bool) {
	stem, ok := strings.CutSuffix(name, domain.StoredFileExt)
	if !ok || stem == "" {
		return "", false
	}
	id := domain.ContentID(stem)
	return id, ValidID(id)
}

// ValidID rejects ids that would escape the storage directory.
func ValidID(id domain.ContentID) bool {
	s := string(id)
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}
