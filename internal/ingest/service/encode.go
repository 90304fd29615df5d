package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"vidstore/internal/core/domain"
)

// Encode converts every plain .mp4 file in the storage directory into
// the stored format: header window obfuscated, renamed to its content
// id, with a ledger record appended. Names that are already mapped are
// skipped. The original file is removed only once the stored file is
// in place and its record appended.
func (s *IngestService) Encode(ctx context.Context) ([]domain.IngestResult, error) {
	entries, err := os.ReadDir(s.store.Dir())
	if err != nil {
		return nil, fmt.Errorf("failed to read storage directory: %w", err)
	}

	var results []domain.IngestResult
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if !isPlainVideo(entry) {
			continue
		}
		result := s.encodeOne(entry.Name())
		s.logResult("encode", result)
		results = append(results, result)
	}
	return results, nil
}

func (s *IngestService) encodeOne(name string) domain.IngestResult {
	src := filepath.Join(s.store.Dir(), name)
	result := domain.IngestResult{Source: src}

	if id, err := s.ledger.LookupIDByName(name); err == nil {
		result.ContentID = id
		result.Skipped = true
		result.Reason = "already mapped"
		return result
	} else if !errors.Is(err, domain.ErrNotFound) {
		result.Err = err
		return result
	}

	id, err := s.ledger.AssignID(name)
	if err != nil {
		result.Err = err
		return result
	}
	result.ContentID = id
	result.Target = s.store.Path(id)

	taken, err := exists(result.Target)
	if err != nil {
		result.Err = err
		return result
	}
	if taken {
		result.Err = fmt.Errorf("unmapped stored file %s already exists", id.FileName())
		return result
	}

	if err := s.transformFile(src, result.Target); err != nil {
		result.Err = err
		return result
	}

	if err := s.ledger.Append(id, name); err != nil {
		if rmErr := os.Remove(result.Target); rmErr != nil {
			s.logger.Error("failed to roll back stored file", "path", result.Target, "error", rmErr)
		}
		result.Err = fmt.Errorf("failed to record mapping: %w", err)
		return result
	}

	if err := os.Remove(src); err != nil {
		result.Err = fmt.Errorf("%w: stored but failed to remove original: %w", domain.ErrIO, err)
	}
	return result
}

func (s *IngestService) logResult(op string, r domain.IngestResult) {
	switch {
	case r.Err != nil:
		s.logger.Error(op+" failed", "source", r.Source, "content_id", r.ContentID, "error", r.Err)
	case r.Skipped:
		s.logger.Warn(op+" skipped", "source", r.Source, "content_id", r.ContentID, "reason", r.Reason)
	default:
		s.logger.Info(op+" done", "source", r.Source, "target", r.Target, "content_id", r.ContentID)
	}
}
