package playback

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	errBadRange      = errors.New("malformed range header")
	errUnsatisfiable = errors.New("range not satisfiable")
)

// span is a resolved byte range within a file of known size.
type span struct {
	start  int64
	length int64
}

func (s span) end() int64 {
	return s.start + s.length - 1
}

func (s span) contentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", s.start, s.end(), size)
}

// resolveSpan parses a Range header against a file size. A nil span with nil
// error means no range was requested. Only the first range of a multi-range
// request is honored.
func resolveSpan(header string, size int64) (*span, error) {
	if header == "" {
		return nil, nil
	}
	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return nil, errBadRange
	}
	if idx := strings.IndexByte(spec, ','); idx >= 0 {
		spec = strings.TrimSpace(spec[:idx])
	}

	first, last, ok := strings.Cut(spec, "-")
	if !ok {
		return nil, errBadRange
	}

	// Suffix form: bytes=-N means the final N bytes.
	if first == "" {
		n, err := strconv.ParseInt(last, 10, 64)
		if err != nil || n <= 0 {
			return nil, errBadRange
		}
		if n > size {
			n = size
		}
		return &span{start: size - n, length: n}, nil
	}

	start, err := strconv.ParseInt(first, 10, 64)
	if err != nil || start < 0 {
		return nil, errBadRange
	}

	end := size - 1
	if last != "" {
		end, err = strconv.ParseInt(last, 10, 64)
		if err != nil {
			return nil, errBadRange
		}
	}

	if start >= size || start > end {
		return nil, errUnsatisfiable
	}
	if end >= size {
		end = size - 1
	}
	return &span{start: start, length: end - start + 1}, nil
}
