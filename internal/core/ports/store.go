// vidstore/internal/core/ports/store.go
package ports

import (
	"context"

	"vidstore/internal/core/domain"
)

// Ledger maps content ids to the original names of stored files.
type Ledger interface {
	LookupIDByName(name string) (domain.ContentID, error)
	LookupNameByID(id domain.ContentID) (string, error)
	Append(id domain.ContentID, name string) error
	Compact(live map[domain.ContentID]struct{}) error
	Entries() ([]domain.MappingEntry, error)
	AssignID(name string) (domain.ContentID, error)
}

// ContentStore holds one header-obfuscated file per content id.
type ContentStore interface {
	Exists(id domain.ContentID) (bool, error)
	Size(id domain.ContentID) (int64, error)
	ReadRange(id domain.ContentID, start, end int64) ([]byte, error)
	ReadAll(id domain.ContentID) ([]byte, error)
	Delete(id domain.ContentID) error
	List() (map[domain.ContentID]struct{}, error)
	Path(id domain.ContentID) string
	Dir() string
}

// StreamCache keeps whole raw file buffers for the duration of a viewing session.
type StreamCache interface {
	GetOrLoad(ctx context.Context, path string, load func() ([]byte, error)) ([]byte, error)
	Remove(path string)
}
