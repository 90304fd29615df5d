package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"vidstore/internal/core/domain"
)

// Decode restores every stored file to its original name and plaintext
// bytes, then compacts the ledger against the ids still on disk so the
// restored files' records are dropped.
func (s *IngestService) Decode(ctx context.Context) ([]domain.IngestResult, error) {
	live, err := s.store.List()
	if err != nil {
		return nil, err
	}
	ids := make([]domain.ContentID, 0, len(live))
	for id := range live {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var results []domain.IngestResult
	restored := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			results = s.compactAfterDecode(results, restored)
			return results, err
		}
		result := s.decodeOne(id)
		s.logResult("decode", result)
		if result.Err == nil && !result.Skipped {
			restored++
		}
		results = append(results, result)
	}
	return s.compactAfterDecode(results, restored), nil
}

func (s *IngestService) compactAfterDecode(results []domain.IngestResult, restored int) []domain.IngestResult {
	if restored == 0 {
		return results
	}
	live, err := s.store.List()
	if err == nil {
		err = s.ledger.Compact(live)
	}
	if err != nil {
		s.logger.Error("failed to compact ledger after decode", "error", err)
		results = append(results, domain.IngestResult{
			Source: "ledger",
			Err:    fmt.Errorf("failed to compact ledger: %w", err),
		})
	}
	return results
}

func (s *IngestService) decodeOne(id domain.ContentID) domain.IngestResult {
	src := s.store.Path(id)
	result := domain.IngestResult{Source: src, ContentID: id}

	name, err := s.ledger.LookupNameByID(id)
	if errors.Is(err, domain.ErrNotFound) {
		result.Skipped = true
		result.Reason = "original name not found"
		return result
	}
	if err != nil {
		result.Err = err
		return result
	}
	if !safeName(name) {
		result.Skipped = true
		result.Reason = fmt.Sprintf("unsafe original name %q", name)
		return result
	}

	result.Target = filepath.Join(s.store.Dir(), name)
	taken, err := exists(result.Target)
	if err != nil {
		result.Err = err
		return result
	}
	if taken {
		result.Skipped = true
		result.Reason = "target already exists"
		return result
	}

	if err := s.transformFile(src, result.Target); err != nil {
		result.Err = err
		return result
	}
	if err := s.store.Delete(id); err != nil {
		result.Err = fmt.Errorf("restored but failed to remove stored file: %w", err)
	}
	return result
}
