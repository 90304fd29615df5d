// vidstore/internal/mapping/ledger.go

// Package mapping persists the content id to original name mapping in an
// append-only text ledger. Each line is one record, hex encoded after
// XOR obfuscation of "<id>|<name>".
package mapping

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"vidstore/internal/core/domain"
	"vidstore/internal/pkg/crypto/xor"
)

const (
	recordSeparator = "|"
	retrySuffix     = "-retry"
	maxAssignTries  = 64
)

type Ledger struct {
	path   string
	codec  *xor.Obfuscator
	logger *slog.Logger
	mu     sync.RWMutex
}

func NewLedger(path string, codec *xor.Obfuscator, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		path:   path,
		codec:  codec,
		logger: logger,
	}
}

// Path returns the ledger file location.
func (l *Ledger) Path() string {
	return l.path
}

// EncodeRecord renders one ledger line without the trailing newline.
func (l *Ledger) EncodeRecord(id domain.ContentID, name string) string {
	return hex.EncodeToString(l.codec.Apply([]byte(string(id) + recordSeparator + name)))
}

// DecodeRecord parses one ledger line.
func (l *Ledger) DecodeRecord(line string) (domain.MappingEntry, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(line))
	if err != nil {
		return domain.MappingEntry{}, fmt.Errorf("%w: %w", domain.ErrLedgerCorrupt, err)
	}
	id, name, ok := strings.Cut(string(l.codec.Apply(raw)), recordSeparator)
	if !ok || id == "" {
		return domain.MappingEntry{}, fmt.Errorf("%w: missing separator", domain.ErrLedgerCorrupt)
	}
	return domain.MappingEntry{
		ContentID:    domain.ContentID(id),
		OriginalName: name,
	}, nil
}

// readEntries scans the ledger. Callers hold l.mu.
func (l *Ledger) readEntries() ([]domain.MappingEntry, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrIO, err)
	}

	var entries []domain.MappingEntry
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		entry, err := l.DecodeRecord(line)
		if err != nil {
			l.logger.Warn("skipping ledger record", "path", l.path, "line", i+1, "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Entries returns every decodable record in ledger order.
func (l *Ledger) Entries() ([]domain.MappingEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.readEntries()
}

// LookupIDByName returns the id of the first record whose name equals name.
func (l *Ledger) LookupIDByName(name string) (domain.ContentID, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries, err := l.readEntries()
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.OriginalName == name {
			return e.ContentID, nil
		}
	}
	return "", fmt.Errorf("name %q: %w", name, domain.ErrNotFound)
}

// LookupNameByID returns the name of the first record carrying id.
func (l *Ledger) LookupNameByID(id domain.ContentID) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries, err := l.readEntries()
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if e.ContentID == id {
			return e.OriginalName, nil
		}
	}
	return "", fmt.Errorf("content id %q: %w", id, domain.ErrNotFound)
}

// Append adds one record. The line is written with a single write so a
// failure never leaves a partial record behind an existing one.
func (l *Ledger) Append(id domain.ContentID, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIO, err)
	}

	line := l.EncodeRecord(id, name) + "\n"
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return fmt.Errorf("%w: %w", domain.ErrIO, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrIO, err)
	}
	return nil
}

// Compact rewrites the ledger keeping only records whose id is in live.
// The new ledger is written beside the old one and renamed over it.
func (l *Ledger) Compact(live map[domain.ContentID]struct{}) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.readEntries()
	if err != nil {
		return err
	}

	kept := entries[:0]
	for _, e := range entries {
		if _, ok := live[e.ContentID]; ok {
			kept = append(kept, e)
		}
	}
	dropped := len(entries) - len(kept)
	if err := l.writeEntries(kept); err != nil {
		return err
	}

	l.logger.Debug("ledger compacted", "path", l.path, "kept", len(kept), "dropped", dropped)
	return nil
}

// Replace rewrites the ledger to hold exactly entries, in order.
func (l *Ledger) Replace(entries []domain.MappingEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writeEntries(entries)
}

// writeEntries renders entries into a temp file and renames it over the
// ledger. Callers hold l.mu. A ledger left with no records is a single
// newline, so every write ends in one.
func (l *Ledger) writeEntries(entries []domain.MappingEntry) error {
	var buf strings.Builder
	for _, e := range entries {
		buf.WriteString(l.EncodeRecord(e.ContentID, e.OriginalName))
		buf.WriteByte('\n')
	}
	if buf.Len() == 0 {
		buf.WriteByte('\n')
	}

	tmp := filepath.Join(filepath.Dir(l.path), "."+filepath.Base(l.path)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, []byte(buf.String()), 0644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: %w", domain.ErrIO, err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: %w", domain.ErrIO, err)
	}
	return nil
}

// HashName returns the content id derived from name alone.
func HashName(name string) domain.ContentID {
	sum := sha256.Sum256([]byte(name))
	return domain.ContentID(hex.EncodeToString(sum[:])[:domain.ContentIDLength])
}

// AssignID derives a content id for name that no ledger record uses yet,
// appending a retry suffix to the hash input on every collision.
func (l *Ledger) AssignID(name string) (domain.ContentID, error) {
	entries, err := l.Entries()
	if err != nil {
		return "", err
	}
	taken := make(map[domain.ContentID]struct{}, len(entries))
	for _, e := range entries {
		taken[e.ContentID] = struct{}{}
	}

	input := name
	for i := 0; i < maxAssignTries; i++ {
		id := HashName(input)
		if _, ok := taken[id]; !ok {
			return id, nil
		}
		input += retrySuffix
	}
	return "", fmt.Errorf("no free content id for %q after %d attempts", name, maxAssignTries)
}
