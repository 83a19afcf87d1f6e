package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"video-server/internal/catalog"
	"video-server/internal/httprange"
	"video-server/internal/logging"
	"video-server/internal/metrics"
	"video-server/internal/streaming"

	"github.com/gorilla/mux"
)

// ListVideos returns the full catalog as a JSON array.
func (h *Handlers) ListVideos(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.ListAll(r.Context())
	if err != nil {
		logging.Error("ListVideos store error: %v", err)
		http.Error(w, "Failed to list videos", http.StatusInternalServerError)
		return
	}

	writeJSON(w, records)
}

// GetVideoInfo returns a single catalog record, or 404 if the id is unknown.
func (h *Handlers) GetVideoInfo(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	record, err := h.store.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			http.Error(w, "Video not found", http.StatusNotFound)
			return
		}
		logging.Error("GetVideoInfo store error for %s: %v", id, err)
		http.Error(w, "Failed to load video", http.StatusInternalServerError)
		return
	}

	writeJSON(w, record)
}

// StreamVideo serves video bytes with byte-range support. A request without
// a Range header gets the full content with status 200; a single satisfiable
// range gets 206 with Content-Range; an unsatisfiable or malformed range is
// a 400, never a silent full-content fallback.
func (h *Handlers) StreamVideo(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	w.Header().Set("Accept-Ranges", "bytes")

	record, err := h.store.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			http.Error(w, "Video not found", http.StatusNotFound)
			return
		}
		logging.Error("StreamVideo store error for %s: %v", id, err)
		http.Error(w, "Failed to load video", http.StatusInternalServerError)
		return
	}

	stream, err := streaming.Open(record, r.Header.Get("Range"))
	if err != nil {
		if errors.Is(err, httprange.ErrUnsatisfiable) {
			http.Error(w, "Could not parse requested content range", http.StatusBadRequest)
			return
		}
		// The record exists, so the file was expected to be readable.
		logging.Error("StreamVideo open error for %s: %v", record.FileName, err)
		http.Error(w, "Failed to open video", http.StatusInternalServerError)
		return
	}
	defer func() {
		if closeErr := stream.Close(); closeErr != nil {
			logging.Warn("Failed to close stream for %s: %v", record.FileName, closeErr)
		}
	}()

	w.Header().Set("Content-Type", stream.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", record.FileName))
	w.Header().Set("Content-Length", strconv.FormatInt(stream.ContentLength(), 10))

	kind := "full"
	if stream.Partial() {
		kind = "partial"
		w.Header().Set("Content-Range", httprange.ContentRange(*stream.Range, stream.Size))
		w.WriteHeader(http.StatusPartialContent)
	}
	metrics.StreamRequestsTotal.WithLabelValues(kind).Inc()

	written, err := streaming.Copy(r.Context(), w, stream.Reader, streaming.DefaultCopyConfig())
	metrics.StreamBytesSent.Add(float64(written))
	if err != nil {
		// Headers are gone by now; a dropped client is normal churn.
		logging.Debug("Stream for %s ended early after %d bytes: %v", record.FileName, written, err)
	}
}
