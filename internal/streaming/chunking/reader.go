// vidstore/internal/streaming/chunking/reader.go
package chunking

import (
	"context"
	"fmt"
	"io"
)

const (
	// Chunk sizes for writing a prepared response body to the client
	DefaultChunkSize = 256 * 1024      // 256KB default chunk size
	MinChunkSize     = 4 * 1024        // 4KB minimum chunk size
	MaxChunkSize     = 8 * 1024 * 1024 // 8MB maximum chunk size
)

type ChunkReader struct {
	reader    io.Reader
	chunkSize int
}

func NewChunkReader(reader io.Reader, chunkSize int) (*ChunkReader, error) {
	if chunkSize < MinChunkSize || chunkSize > MaxChunkSize {
		return nil, fmt.Errorf("invalid chunk size: must be between %d and %d bytes", MinChunkSize, MaxChunkSize)
	}

	return &ChunkReader{
		reader:    reader,
		chunkSize: chunkSize,
	}, nil
}

func (r *ChunkReader) Read(p []byte) (n int, err error) {
	if len(p) > r.chunkSize {
		p = p[:r.chunkSize]
	}
	return r.reader.Read(p)
}

func (r *ChunkReader) ChunkSize() int {
	return r.chunkSize
}

// Copy writes r to w one chunk at a time, flushing after each chunk when
// w supports it, and stops as soon as ctx is done. A client that goes
// away mid-stream surfaces as ctx.Err() or a write error.
func (r *ChunkReader) Copy(ctx context.Context, w io.Writer) (int64, error) {
	flusher, _ := w.(interface{ Flush() })
	buf := make([]byte, r.chunkSize)
	var written int64

	for {
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		default:
		}

		n, err := r.Read(buf)
		if n > 0 {
			m, werr := w.Write(buf[:n])
			written += int64(m)
			if werr != nil {
				return written, fmt.Errorf("failed to write chunk: %w", werr)
			}
			if m != n {
				return written, io.ErrShortWrite
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err == io.EOF {
			return written, nil
		}
		if err != nil {
			return written, fmt.Errorf("failed to read chunk: %w", err)
		}
	}
}
