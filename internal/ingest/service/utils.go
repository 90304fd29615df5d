package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"vidstore/internal/core/domain"
)

const plainExt = ".mp4"

// transformFile reads src, flips its header window and writes the result
// to dst through a temp file in dst's directory. src is never modified.
func (s *IngestService) transformFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIO, err)
	}
	s.codec.ApplyWindow(data)
	return writeFileAtomic(dst, data)
}

func writeFileAtomic(dst string, data []byte) error {
	tmp := filepath.Join(filepath.Dir(dst), "."+filepath.Base(dst)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: failed to write temp file: %w", domain.ErrIO, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: failed to rename into place: %w", domain.ErrIO, err)
	}
	return nil
}

func exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %w", domain.ErrIO, err)
	}
	return true, nil
}

func isPlainVideo(entry os.DirEntry) bool {
	return entry.Type().IsRegular() && strings.HasSuffix(entry.Name(), plainExt)
}

// safeName reports whether name can be used as a file name inside the
// storage directory.
func safeName(name string) bool {
	return name != "" && name != "." && name != ".." && filepath.Base(name) == name && !strings.ContainsAny(name, `/\`)
}
