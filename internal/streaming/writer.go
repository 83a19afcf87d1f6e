package streaming

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"video-server/internal/logging"
)

// Sentinel errors for streaming operations.
var (
	// ErrWriteTimeout indicates that a single write exceeded the configured
	// timeout, typically a client receiving data too slowly.
	ErrWriteTimeout = errors.New("write timeout exceeded")

	// ErrClientGone indicates the client disconnected before the stream
	// completed, detected via request context cancellation.
	ErrClientGone = errors.New("client disconnected")
)

// CopyConfig configures the timeout-protected response copy.
type CopyConfig struct {
	// WriteTimeout is the maximum time to wait for a single chunk write.
	WriteTimeout time.Duration
	// ChunkSize is the size of chunks written to the client.
	ChunkSize int
}

// DefaultCopyConfig returns sensible defaults for video streaming.
func DefaultCopyConfig() CopyConfig {
	return CopyConfig{
		WriteTimeout: 30 * time.Second,
		ChunkSize:    64 * 1024,
	}
}

// Copy streams from r to the response writer in chunks, aborting when the
// request context is canceled or a chunk write stalls past the timeout.
// It returns the number of bytes written.
func Copy(ctx context.Context, w http.ResponseWriter, r io.Reader, config CopyConfig) (int64, error) {
	flusher, _ := w.(http.Flusher)
	buf := make([]byte, config.ChunkSize)

	var written int64
	for {
		select {
		case <-ctx.Done():
			return written, ErrClientGone
		default:
		}

		n, readErr := r.Read(buf)
		if n > 0 {
			wn, writeErr := writeWithTimeout(ctx, w, buf[:n], config.WriteTimeout)
			written += int64(wn)
			if writeErr != nil {
				return written, writeErr
			}
			if flusher != nil {
				flusher.Flush()
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return written, nil
			}
			return written, readErr
		}
	}
}

// writeWithTimeout performs one write, bounded by the timeout and the
// request context. The write itself runs in a goroutine because
// http.ResponseWriter has no deadline of its own.
func writeWithTimeout(ctx context.Context, w io.Writer, p []byte, timeout time.Duration) (int, error) {
	type writeResult struct {
		n   int
		err error
	}
	resultCh := make(chan writeResult, 1)

	go func() {
		n, err := w.Write(p)
		resultCh <- writeResult{n, err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-resultCh:
		return result.n, result.err
	case <-timer.C:
		logging.Warn("Stream write stalled past %v, dropping client", timeout)
		return 0, ErrWriteTimeout
	case <-ctx.Done():
		return 0, ErrClientGone
	}
}
