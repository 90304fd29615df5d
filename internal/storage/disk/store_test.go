// vidstore/internal/storage/disk/store_test.go
package disk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidstore/internal/core/domain"
)

const testID domain.ContentID = "0123456789abcdef"

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func writeStored(t *testing.T, s *Store, id domain.ContentID, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(s.Path(id), data, 0644))
}

func TestNewStore_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "storage")
	store, err := NewStore(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewStore_EmptyDir(t *testing.T) {
	_, err := NewStore("")
	assert.Error(t, err)
}

func TestExistsAndSize(t *testing.T) {
	s := newTestStore(t)

	ok, err := s.Exists(testID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Size(testID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	writeStored(t, s, testID, make([]byte, 1500))

	ok, err = s.Exists(testID)
	require.NoError(t, err)
	assert.True(t, ok)

	size, err := s.Size(testID)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), size)

	stat, err := s.Stat(testID)
	require.NoError(t, err)
	assert.Equal(t, testID, stat.ContentID)
	assert.Equal(t, int64(1500), stat.Size)
}

func TestReadRange(t *testing.T) {
	s := newTestStore(t)
	data := []byte("0123456789")
	writeStored(t, s, testID, data)

	tests := []struct {
		name    string
		start   int64
		end     int64
		want    string
		wantErr error
	}{
		{name: "Whole file", start: 0, end: 9, want: "0123456789"},
		{name: "Middle", start: 3, end: 5, want: "345"},
		{name: "Single byte", start: 9, end: 9, want: "9"},
		{name: "Start after end", start: 5, end: 4, wantErr: domain.ErrRangeInvalid},
		{name: "End past size", start: 0, end: 10, wantErr: domain.ErrRangeInvalid},
		{name: "Negative start", start: -1, end: 3, wantErr: domain.ErrRangeInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ReadRange(testID, tt.start, tt.end)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}

	_, err := s.ReadRange("ffffffffffffffff", 0, 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReadAll(t *testing.T) {
	s := newTestStore(t)
	writeStored(t, s, testID, []byte("payload"))

	got, err := s.ReadAll(testID)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))

	_, err = s.ReadAll("ffffffffffffffff")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	writeStored(t, s, testID, []byte("payload"))

	require.NoError(t, s.Delete(testID))

	ok, err := s.Exists(testID)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, s.Delete(testID), domain.ErrNotFound)
}

func TestList(t *testing.T) {
	s := newTestStore(t)
	writeStored(t, s, "aaaaaaaaaaaaaaaa", []byte("a"))
	writeStored(t, s, "bbbbbbbbbbbbbbbb", []byte("b"))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "plain.mp4"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(s.Dir(), "dir.file"), 0755))

	ids, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, map[domain.ContentID]struct{}{
		"aaaaaaaaaaaaaaaa": {},
		"bbbbbbbbbbbbbbbb": {},
	}, ids)

	sorted, err := s.ListSorted()
	require.NoError(t, err)
	assert.Equal(t, []domain.ContentID{"aaaaaaaaaaaaaaaa", "bbbbbbbbbbbbbbbb"}, sorted)
}

func TestParseFileName(t *testing.T) {
	tests := []struct {
		name   string
		want   domain.ContentID
		wantOK bool
	}{
		{name: "0123456789abcdef.file", want: "0123456789abcdef", wantOK: true},
		{name: "clip.mp4", wantOK: false},
		{name: ".file", wantOK: false},
		{name: "..file", want: ".", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ParseFileName(tt.name)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, id)
			}
		})
	}
}

func TestValidIDRejectsTraversal(t *testing.T) {
	s := newTestStore(t)
	assert.False(t, ValidID("../escape"))
	assert.False(t, ValidID(".."))

	_, err := s.Size("../escape")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
