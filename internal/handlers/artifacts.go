package handlers

import (
	"fmt"
	"net/http"
	"os"

	"video-server/internal/logging"

	"github.com/gorilla/mux"
)

// GetSubtitle serves a cached subtitle track, or 404 if the artifact for
// this (id, lang) pair has not been derived.
func (h *Handlers) GetSubtitle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, lang := vars["id"], vars["lang"]

	path := h.subs.ArtifactPath(id, lang)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "Subtitle not found", http.StatusNotFound)
		} else {
			logging.Error("Subtitle stat failed for %s/%s: %v", id, lang, err)
			http.Error(w, "Failed to access subtitle", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "text/vtt")
	http.ServeFile(w, r, path)
}

// GetThumbnail serves a video's cached preview image, or 404 if it has not
// been derived yet.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	path := h.thumbs.ArtifactPath(id)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "Thumbnail not found", http.StatusNotFound)
		} else {
			logging.Error("Thumbnail stat failed for %s: %v", id, err)
			http.Error(w, "Failed to access thumbnail", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", id+".png"))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, path)
}
