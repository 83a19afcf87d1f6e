// Package httprange parses HTTP Range request headers into concrete serve
// intervals. Only the bytes unit and a single range are supported.
package httprange

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnsatisfiable indicates a Range header that could not be parsed or
// satisfied. Callers must answer with a 400-class status, never with a
// silent full-content fallback.
var ErrUnsatisfiable = errors.New("unsatisfiable range")

// ByteRange is a resolved inclusive byte interval.
type ByteRange struct {
	Start int64
	End   int64
}

// Length returns the number of bytes covered by the range.
func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

// Resolve parses a Range header value against the known content length.
//
// A missing header, or one without "=", requests the full content and
// returns (nil, nil): status 200, no Content-Range. A single satisfiable
// bytes range returns the resolved interval for a 206 response. Anything
// else, including multiple comma-separated ranges, returns ErrUnsatisfiable.
func Resolve(header string, contentLength int64) (*ByteRange, error) {
	idx := strings.Index(header, "=")
	if idx == -1 {
		return nil, nil
	}

	parts := strings.Split(header[idx+1:], ",")
	if len(parts) != 1 {
		return nil, fmt.Errorf("%w: %d ranges requested", ErrUnsatisfiable, len(parts))
	}

	startStr, endStr, found := strings.Cut(strings.TrimSpace(parts[0]), "-")
	if !found {
		return nil, fmt.Errorf("%w: missing separator in %q", ErrUnsatisfiable, parts[0])
	}

	var start, end int64

	switch {
	case startStr == "":
		// bytes=-n requests the final n bytes.
		suffix, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad suffix length %q", ErrUnsatisfiable, endStr)
		}
		start = contentLength - suffix
		end = contentLength - 1

	case endStr == "":
		var err error
		start, err = strconv.ParseInt(startStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad start %q", ErrUnsatisfiable, startStr)
		}
		end = contentLength - 1

	default:
		var err error
		start, err = strconv.ParseInt(startStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad start %q", ErrUnsatisfiable, startStr)
		}
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad end %q", ErrUnsatisfiable, endStr)
		}
	}

	if end > contentLength-1 {
		end = contentLength - 1
	}

	if start < 0 || start > end {
		return nil, fmt.Errorf("%w: bytes %d-%d of %d", ErrUnsatisfiable, start, end, contentLength)
	}

	return &ByteRange{Start: start, End: end}, nil
}

// ContentRange formats a Content-Range header value for a 206 response.
func ContentRange(r ByteRange, contentLength int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, contentLength)
}
