package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"vidstore/internal/core/domain"
	"vidstore/internal/storage/disk"
)

const (
	storageKeyDir = "storage"
	ledgerKeyName = "file-mapping.txt"
)

// Report summarises one archive or restore run.
type Report struct {
	Files   int
	Bytes   int64
	Skipped int
	Records int // Ledger records merged in on restore
}

// Archiver copies the storage directory and the ledger, exactly as they
// sit on disk, to object storage and back.
type Archiver struct {
	backend Backend
	config  Config
	logger  *slog.Logger
}

func NewArchiver(backend Backend, config Config, logger *slog.Logger) *Archiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{
		backend: backend,
		config:  config,
		logger:  logger,
	}
}

// Root returns the key prefix of this host's archive.
func (a *Archiver) Root() string {
	return path.Join(a.config.Prefix, a.config.InstanceID)
}

func (a *Archiver) fileKey(id domain.ContentID) string {
	return path.Join(a.Root(), storageKeyDir, id.FileName())
}

func (a *Archiver) ledgerKey() string {
	return path.Join(a.Root(), ledgerKeyName)
}

// Archive uploads every stored file and then the ledger. A missing
// ledger file is archived as no ledger at all.
func (a *Archiver) Archive(ctx context.Context, store *disk.Store, ledger Ledger) (Report, error) {
	var report Report

	ids, err := store.ListSorted()
	if err != nil {
		return report, err
	}
	for _, id := range ids {
		n, err := a.uploadFile(ctx, store.Path(id), a.fileKey(id))
		if err != nil {
			return report, err
		}
		report.Files++
		report.Bytes += n
		a.logger.Info("archived", "content_id", id, "bytes", n)
	}

	n, err := a.uploadFile(ctx, ledger.Path(), a.ledgerKey())
	if errors.Is(err, os.ErrNotExist) {
		a.logger.Warn("no ledger to archive", "path", ledger.Path())
		return report, nil
	}
	if err != nil {
		return report, err
	}
	report.Bytes += n
	return report, nil
}

func (a *Archiver) uploadFile(ctx context.Context, localPath, key string) (int64, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return 0, err
	}
	if err := a.backend.Upload(ctx, key, bytes.NewReader(data), int64(len(data))); err != nil {
		return 0, fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return int64(len(data)), nil
}

// Restore downloads this host's archive into the storage directory and
// merges the archived ledger records into ledger. Existing stored files
// and the local records for their ids are kept unless opts.Overwrite.
// Local records with no archived counterpart always survive. An archive
// without a ledger leaves the local ledger untouched.
func (a *Archiver) Restore(ctx context.Context, store *disk.Store, ledger Ledger, opts Options) (Report, error) {
	var report Report

	// Fetch the ledger first so a failure leaves the storage directory alone.
	archived, ledgerBytes, err := a.fetchLedger(ctx, ledger)
	if err != nil {
		return report, err
	}
	report.Bytes += ledgerBytes

	prefix := path.Join(a.Root(), storageKeyDir) + "/"
	objects, err := a.backend.List(ctx, prefix)
	if err != nil {
		return report, fmt.Errorf("failed to list %s: %w", prefix, err)
	}

	for _, obj := range objects {
		id, ok := disk.ParseFileName(strings.TrimPrefix(obj.Key, prefix))
		if !ok {
			continue
		}
		present, err := store.Exists(id)
		if err != nil {
			return report, err
		}
		if present && !opts.Overwrite {
			report.Skipped++
			continue
		}
		n, err := a.downloadFile(ctx, obj.Key, store.Path(id))
		if err != nil {
			return report, err
		}
		report.Files++
		report.Bytes += n
		a.logger.Info("restored", "content_id", id, "bytes", n)
	}

	if archived == nil {
		return report, nil
	}
	merged, err := a.mergeLedger(ledger, archived, opts)
	if err != nil {
		return report, err
	}
	report.Records = merged
	return report, nil
}

// fetchLedger downloads and decodes the archived ledger. It returns nil
// entries when the archive has no ledger.
func (a *Archiver) fetchLedger(ctx context.Context, ledger Ledger) ([]domain.MappingEntry, int64, error) {
	var buf bytes.Buffer
	n, err := a.backend.Download(ctx, a.ledgerKey(), &buf)
	if errors.Is(err, ErrObjectNotFound) {
		a.logger.Warn("archive has no ledger, keeping local ledger", "key", a.ledgerKey())
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to download %s: %w", a.ledgerKey(), err)
	}

	entries := []domain.MappingEntry{}
	for i, line := range strings.Split(buf.String(), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry, err := ledger.DecodeRecord(line)
		if err != nil {
			a.logger.Warn("skipping archived ledger record", "line", i+1, "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, n, nil
}

// mergeLedger combines the local records with archived ones and rewrites
// the ledger. On a content id present in both, the local record wins
// unless opts.Overwrite. It returns the number of archived records
// written.
func (a *Archiver) mergeLedger(ledger Ledger, archived []domain.MappingEntry, opts Options) (int, error) {
	local, err := ledger.Entries()
	if err != nil {
		return 0, err
	}

	first, second := local, archived
	if opts.Overwrite {
		first, second = archived, local
	}

	seen := make(map[domain.ContentID]struct{}, len(local)+len(archived))
	merged := make([]domain.MappingEntry, 0, len(local)+len(archived))
	fromArchive := 0
	for i, group := range [][]domain.MappingEntry{first, second} {
		isArchive := (i == 0) == opts.Overwrite
		for _, e := range group {
			if _, ok := seen[e.ContentID]; ok {
				continue
			}
			seen[e.ContentID] = struct{}{}
			merged = append(merged, e)
			if isArchive {
				fromArchive++
			}
		}
	}

	if err := ledger.Replace(merged); err != nil {
		return 0, fmt.Errorf("failed to merge ledger: %w", err)
	}
	a.logger.Info("ledger merged", "path", ledger.Path(), "records", len(merged), "from_archive", fromArchive)
	return fromArchive, nil
}

func (a *Archiver) downloadFile(ctx context.Context, key, localPath string) (int64, error) {
	var buf bytes.Buffer
	n, err := a.backend.Download(ctx, key, &buf)
	if err != nil {
		return 0, fmt.Errorf("failed to download %s: %w", key, err)
	}

	tmp := filepath.Join(filepath.Dir(localPath), "."+filepath.Base(localPath)+".restore")
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("%w: %w", domain.ErrIO, err)
	}
	if err := os.Rename(tmp, localPath); err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("%w: %w", domain.ErrIO, err)
	}
	return n, nil
}
