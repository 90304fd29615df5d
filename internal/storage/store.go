package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"vidstore/internal/core/domain"
)

// ErrObjectNotFound is returned by a Backend when a key does not exist.
var ErrObjectNotFound = errors.New("storage: object not found")

// Object describes one archived object.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Backend defines the object storage operations the archive needs
type Backend interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64) error
	Download(ctx context.Context, key string, w io.Writer) (int64, error)
	List(ctx context.Context, prefix string) ([]Object, error)
}

// Ledger is the name mapping the archive copies and merges.
type Ledger interface {
	Path() string
	DecodeRecord(line string) (domain.MappingEntry, error)
	Entries() ([]domain.MappingEntry, error)
	Replace(entries []domain.MappingEntry) error
}

// Config holds configuration for the off-host archive
type Config struct {
	BucketName string
	Region     string
	Prefix     string // Key prefix every archive lives under
	InstanceID string // Separates archives of different hosts in one bucket
}

// Options for archive operations
type Options struct {
	Overwrite bool // Replace local files and their ledger records on restore
}
