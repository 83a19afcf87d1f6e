package handlers

import (
	"encoding/json"
	"net/http"

	"video-server/internal/catalog"
	"video-server/internal/crawler"
	"video-server/internal/logging"
	"video-server/internal/subtitles"
	"video-server/internal/thumbnails"
)

// Handlers carries the collaborators behind the HTTP surface.
type Handlers struct {
	store   *catalog.Store
	crawler *crawler.Crawler
	subs    *subtitles.Synchronizer
	thumbs  *thumbnails.Deriver
}

// New creates the handler set.
func New(store *catalog.Store, c *crawler.Crawler, subs *subtitles.Synchronizer, thumbs *thumbnails.Deriver) *Handlers {
	return &Handlers{
		store:   store,
		crawler: c,
		subs:    subs,
		thumbs:  thumbs,
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("Failed to encode response: %v", err)
	}
}
