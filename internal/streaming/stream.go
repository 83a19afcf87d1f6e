package streaming

import (
	"fmt"
	"io"
	"os"

	"video-server/internal/catalog"
	"video-server/internal/filesystem"
	"video-server/internal/httprange"
	"video-server/internal/logging"
)

// Stream is an open, optionally bounded byte stream over a video source
// file, plus the metadata the HTTP layer needs to build the response.
// The reader is consumed incrementally; nothing is buffered in memory.
type Stream struct {
	Reader   io.Reader
	Range    *httprange.ByteRange // nil for a full-content response
	Size     int64
	MimeType string

	file *os.File
}

// Partial reports whether the stream covers a byte subrange.
func (s *Stream) Partial() bool {
	return s.Range != nil
}

// ContentLength returns the number of bytes the response body will carry.
func (s *Stream) ContentLength() int64 {
	if s.Range != nil {
		return s.Range.Length()
	}
	return s.Size
}

// Close releases the underlying file.
func (s *Stream) Close() error {
	return s.file.Close()
}

// Open resolves the Range header against the record's size and opens a
// stream over the source file, bounded to the resolved interval when one
// applies. It returns httprange.ErrUnsatisfiable for a bad range; any other
// error is an IO failure, which for a known record means a 500-class
// response (the record existing implies the file was expected to exist).
func Open(record *catalog.VideoRecord, rangeHeader string) (*Stream, error) {
	resolved, err := httprange.Resolve(rangeHeader, record.FileSize)
	if err != nil {
		return nil, err
	}

	file, err := filesystem.Open(record.SourcePath, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, fmt.Errorf("open source for %s: %w", record.FileName, err)
	}

	stream := &Stream{
		Range:    resolved,
		Size:     record.FileSize,
		MimeType: record.MimeType,
		file:     file,
	}

	if resolved != nil {
		stream.Reader = io.NewSectionReader(file, resolved.Start, resolved.Length())
		logging.Debug("Opened partial stream for %s: bytes %d-%d/%d",
			record.FileName, resolved.Start, resolved.End, record.FileSize)
	} else {
		stream.Reader = file
		logging.Debug("Opened full stream for %s: %d bytes", record.FileName, record.FileSize)
	}

	return stream, nil
}
