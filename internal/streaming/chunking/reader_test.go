// vidstore/internal/streaming/chunking/reader_test.go
package chunking

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateVideoData(size int) []byte {
	data := make([]byte, size)
	rand.Read(data) // Generate random bytes to simulate video data
	return data
}

func TestChunkReader(t *testing.T) {
	tests := []struct {
		name      string
		input     []byte
		chunkSize int
		wantErr   bool
	}{
		{
			name:      "Default chunk size",
			input:     generateVideoData(DefaultChunkSize),
			chunkSize: DefaultChunkSize,
		},
		{
			name:      "Minimum chunk size",
			input:     generateVideoData(3 * MinChunkSize),
			chunkSize: MinChunkSize,
		},
		{
			name:      "Below minimum chunk size",
			input:     generateVideoData(1024),
			chunkSize: MinChunkSize - 1,
			wantErr:   true,
		},
		{
			name:      "Above maximum chunk size",
			input:     generateVideoData(1024),
			chunkSize: MaxChunkSize + 1,
			wantErr:   true,
		},
		{
			name:      "Empty video file",
			input:     []byte{},
			chunkSize: DefaultChunkSize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader, err := NewChunkReader(bytes.NewReader(tt.input), tt.chunkSize)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			totalRead := 0
			chunk := make([]byte, 2*tt.chunkSize)
			for {
				n, err := reader.Read(chunk)
				assert.LessOrEqual(t, n, tt.chunkSize)
				totalRead += n
				if err == io.EOF {
					break
				}
				require.NoError(t, err)
			}
			assert.Equal(t, len(tt.input), totalRead)
		})
	}
}

type countingWriter struct {
	bytes.Buffer
	writes  int
	flushes int
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.writes++
	return w.Buffer.Write(p)
}

func (w *countingWriter) Flush() {
	w.flushes++
}

func TestCopy(t *testing.T) {
	input := generateVideoData(10*MinChunkSize + 17)
	reader, err := NewChunkReader(bytes.NewReader(input), MinChunkSize)
	require.NoError(t, err)

	var w countingWriter
	n, err := reader.Copy(context.Background(), &w)
	require.NoError(t, err)
	assert.Equal(t, int64(len(input)), n)
	assert.Equal(t, input, w.Bytes())
	assert.Equal(t, 11, w.writes)
	assert.Equal(t, w.writes, w.flushes)
}

func TestCopyStopsOnCancelledContext(t *testing.T) {
	reader, err := NewChunkReader(bytes.NewReader(generateVideoData(MinChunkSize)), MinChunkSize)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var w bytes.Buffer
	n, err := reader.Copy(ctx, &w)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(0), n)
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("connection reset by peer")
}

func TestCopyReportsWriteError(t *testing.T) {
	reader, err := NewChunkReader(bytes.NewReader(generateVideoData(MinChunkSize)), MinChunkSize)
	require.NoError(t, err)

	_, err = reader.Copy(context.Background(), failingWriter{})
	assert.Error(t, err)
}
