// vidstore/internal/streaming/range.go
package streaming

import (
	"fmt"
	"strconv"
	"strings"

	"vidstore/internal/core/domain"
)

const rangeUnit = "bytes="

// RangeError reports an unsatisfiable or malformed Range header together
// with the size of the file it was checked against.
type RangeError struct {
	Header string
	Size   int64
	Reason string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("range %q on %d bytes: %s", e.Header, e.Size, e.Reason)
}

func (e *RangeError) Unwrap() error {
	return domain.ErrRangeInvalid
}

// ParseRange parses a single "bytes=<start>-[<end>]" range against a file
// of size bytes. A missing end means the last byte. An end at or past
// size is clamped to size-1. Suffix ranges and multiple ranges are
// rejected, as is any start at or past size.
func ParseRange(header string, size int64) (domain.ByteRange, error) {
	fail := func(reason string) (domain.ByteRange, error) {
		return domain.ByteRange{}, &RangeError{Header: header, Size: size, Reason: reason}
	}

	ranges, ok := strings.CutPrefix(strings.TrimSpace(header), rangeUnit)
	if !ok {
		return fail("unsupported unit")
	}
	if strings.Contains(ranges, ",") {
		return fail("multiple ranges")
	}
	startStr, endStr, ok := strings.Cut(ranges, "-")
	if !ok {
		return fail("missing '-'")
	}

	start, ok := parseOffset(startStr)
	if !ok {
		return fail("bad start")
	}
	end := size - 1
	if s := strings.TrimSpace(endStr); s != "" {
		if end, ok = parseOffset(s); !ok {
			return fail("bad end")
		}
	}

	if start > end {
		return fail("start after end")
	}
	if start >= size {
		return fail("start past end of file")
	}
	if end >= size {
		end = size - 1
	}
	return domain.ByteRange{Start: start, End: end}, nil
}

func parseOffset(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ContentRange renders the Content-Range value for r within size bytes.
func ContentRange(r domain.ByteRange, size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, size)
}
