package handlers

import (
	"context"
	"net/http"
)

// HealthCheck reports basic liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// ReadinessCheck reports 503 until the initial crawl pass has completed.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if !h.crawler.IsReady() {
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, map[string]string{"status": "indexing"})
		return
	}
	writeJSON(w, map[string]string{"status": "ready"})
}

// TriggerCrawl starts a crawl pass in the background unless one is running.
func (h *Handlers) TriggerCrawl(w http.ResponseWriter, r *http.Request) {
	if h.crawler.IsSyncing() {
		writeJSON(w, map[string]string{
			"status":  "already_running",
			"message": "Crawl is already in progress",
		})
		return
	}

	// Detached from the request context: the pass should outlive the
	// request that triggered it.
	h.crawler.TriggerSync(context.Background())

	writeJSON(w, map[string]string{
		"status":  "started",
		"message": "Crawl started",
	})
}
