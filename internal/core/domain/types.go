// vidstore/internal/core/domain/types.go
package domain

import (
	"errors"
	"time"
)

const (
	// StoredFileExt is the suffix of every file in the storage directory.
	StoredFileExt = ".file"

	// ContentIDLength is the number of hex characters kept from the name hash.
	ContentIDLength = 16

	// ContentType is the media type every stored video is served with.
	ContentType = "video/mp4"
)

var (
	// ErrNotFound indicates a name or content id has no live mapping or backing file.
	ErrNotFound = errors.New("vidstore: not found")

	// ErrRangeInvalid indicates a malformed or unsatisfiable byte range.
	ErrRangeInvalid = errors.New("vidstore: invalid range")

	// ErrIO indicates a disk read, write or rename failure.
	ErrIO = errors.New("vidstore: I/O failure")

	// ErrLedgerCorrupt indicates a ledger line that does not decode into id and name.
	ErrLedgerCorrupt = errors.New("vidstore: corrupt ledger record")
)

// ContentID is the opaque, hash-derived stem of a stored file name.
type ContentID string

// FileName returns the on-disk name of the stored file.
func (id ContentID) FileName() string {
	return string(id) + StoredFileExt
}

// MappingEntry ties a content id to the name the file was ingested under.
type MappingEntry struct {
	ContentID    ContentID
	OriginalName string
}

// StoredFile describes a file in the storage directory.
type StoredFile struct {
	ContentID ContentID
	Size      int64
	ModTime   time.Time
}

// ByteRange is an inclusive byte range within a stored file.
type ByteRange struct {
	Start int64
	End   int64
}

// Length returns the number of bytes covered by the range.
func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

// IngestResult reports what a batch encode or decode did with one file.
type IngestResult struct {
	Source    string
	Target    string
	ContentID ContentID
	Skipped   bool
	Reason    string
	Err       error
}
