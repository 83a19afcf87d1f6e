package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"

	"video-server/internal/catalog"
	"video-server/internal/crawler"
	"video-server/internal/subtitles"
	"video-server/internal/thumbnails"
)

type nopExtractor struct{}

func (nopExtractor) ExtractFrame(ctx context.Context, srcPath string, fraction float64, outPath string, width, height int) error {
	return os.WriteFile(outPath, []byte("png-bytes"), 0644)
}

type fixture struct {
	router   *mux.Router
	store    *catalog.Store
	crawler  *crawler.Crawler
	subs     *subtitles.Synchronizer
	thumbs   *thumbnails.Deriver
	cacheDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	videosDir := t.TempDir()
	cacheDir := t.TempDir()

	store, err := catalog.NewStore(context.Background(), filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})

	subs := subtitles.NewSynchronizer(videosDir, cacheDir)
	thumbs := thumbnails.NewDeriver(cacheDir, nopExtractor{})
	c := crawler.New(store, subs, thumbs, videosDir, 1, 1)

	h := New(store, c, subs, thumbs)

	r := mux.NewRouter()
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/api/video/list", h.ListVideos).Methods("GET")
	r.HandleFunc("/api/video/i/{id}", h.GetVideoInfo).Methods("GET")
	r.HandleFunc("/api/video/v/{id}", h.StreamVideo).Methods("GET")
	r.HandleFunc("/api/subtitles/{id}/{lang}", h.GetSubtitle).Methods("GET")
	r.HandleFunc("/api/thumbnail/{id}", h.GetThumbnail).Methods("GET")
	r.HandleFunc("/api/crawl", h.TriggerCrawl).Methods("POST")

	return &fixture{
		router:   r,
		store:    store,
		crawler:  c,
		subs:     subs,
		thumbs:   thumbs,
		cacheDir: cacheDir,
	}
}

// addVideo persists a record backed by a real file so streaming works.
func (f *fixture) addVideo(t *testing.T, id, fileName, content string) *catalog.VideoRecord {
	t.Helper()

	path := filepath.Join(t.TempDir(), fileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", fileName, err)
	}

	rec := &catalog.VideoRecord{
		ID:           id,
		SourcePath:   path,
		FileName:     fileName,
		BaseName:     "movie",
		FriendlyName: "movie",
		MimeType:     "video/mp4",
		FileSize:     int64(len(content)),
		Tags:         []string{},
		Subtitles:    []string{},
	}
	if err := f.store.Insert(context.Background(), rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	return rec
}

func (f *fixture) do(method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestListVideos(t *testing.T) {
	f := newFixture(t)
	f.addVideo(t, "id-1", "alpha.mp4", "aaaa")
	f.addVideo(t, "id-2", "beta.mp4", "bbbb")

	w := f.do("GET", "/api/video/list", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var records []catalog.VideoRecord
	if err := json.Unmarshal(w.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].FileName != "alpha.mp4" || records[1].FileName != "beta.mp4" {
		t.Errorf("order = %q, %q; want alpha.mp4, beta.mp4", records[0].FileName, records[1].FileName)
	}
}

func TestGetVideoInfo(t *testing.T) {
	f := newFixture(t)
	f.addVideo(t, "id-1", "movie.mp4", "aaaa")

	w := f.do("GET", "/api/video/i/id-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var rec catalog.VideoRecord
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if rec.ID != "id-1" || rec.MimeType != "video/mp4" {
		t.Errorf("record = %+v", rec)
	}
}

func TestGetVideoInfoNotFound(t *testing.T) {
	f := newFixture(t)

	w := f.do("GET", "/api/video/i/ghost", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestStreamVideoFull(t *testing.T) {
	f := newFixture(t)
	f.addVideo(t, "id-1", "movie.mp4", "0123456789")

	w := f.do("GET", "/api/video/v/id-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Header().Get("Accept-Ranges"); got != "bytes" {
		t.Errorf("Accept-Ranges = %q, want bytes", got)
	}
	if got := w.Header().Get("Content-Type"); got != "video/mp4" {
		t.Errorf("Content-Type = %q, want video/mp4", got)
	}
	if got := w.Header().Get("Content-Length"); got != "10" {
		t.Errorf("Content-Length = %q, want 10", got)
	}
	if got := w.Header().Get("Content-Range"); got != "" {
		t.Errorf("Content-Range = %q on a full response, want empty", got)
	}
	if w.Body.String() != "0123456789" {
		t.Errorf("body = %q, want full content", w.Body.String())
	}
}

func TestStreamVideoPartial(t *testing.T) {
	f := newFixture(t)
	f.addVideo(t, "id-1", "movie.mp4", "0123456789")

	w := f.do("GET", "/api/video/v/id-1", map[string]string{"Range": "bytes=2-5"})
	if w.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", w.Code)
	}
	if got := w.Header().Get("Content-Range"); got != "bytes 2-5/10" {
		t.Errorf("Content-Range = %q, want bytes 2-5/10", got)
	}
	if got := w.Header().Get("Content-Length"); got != "4" {
		t.Errorf("Content-Length = %q, want 4", got)
	}
	if w.Body.String() != "2345" {
		t.Errorf("body = %q, want \"2345\"", w.Body.String())
	}
}

func TestStreamVideoSuffixRange(t *testing.T) {
	f := newFixture(t)
	f.addVideo(t, "id-1", "movie.mp4", "0123456789")

	w := f.do("GET", "/api/video/v/id-1", map[string]string{"Range": "bytes=-3"})
	if w.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", w.Code)
	}
	if got := w.Header().Get("Content-Range"); got != "bytes 7-9/10" {
		t.Errorf("Content-Range = %q, want bytes 7-9/10", got)
	}
	if w.Body.String() != "789" {
		t.Errorf("body = %q, want \"789\"", w.Body.String())
	}
}

func TestStreamVideoBadRanges(t *testing.T) {
	f := newFixture(t)
	f.addVideo(t, "id-1", "movie.mp4", "0123456789")

	for _, header := range []string{
		"bytes=9-1",
		"bytes=0-4,6-9",
		"bytes=abc-",
	} {
		w := f.do("GET", "/api/video/v/id-1", map[string]string{"Range": header})
		if w.Code != http.StatusBadRequest {
			t.Errorf("Range %q: status = %d, want 400", header, w.Code)
		}
	}
}

func TestStreamVideoNotFound(t *testing.T) {
	f := newFixture(t)

	w := f.do("GET", "/api/video/v/ghost", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGetSubtitle(t *testing.T) {
	f := newFixture(t)
	content := "WEBVTT\n\n00:00:01.000 --> 00:00:02.000\nHello\n"
	if err := os.WriteFile(f.subs.ArtifactPath("id-1", "en"), []byte(content), 0644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}

	w := f.do("GET", "/api/subtitles/id-1/en", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "text/vtt" {
		t.Errorf("Content-Type = %q, want text/vtt", got)
	}
	if w.Body.String() != content {
		t.Errorf("body = %q, want artifact content", w.Body.String())
	}
}

func TestGetSubtitleNotFound(t *testing.T) {
	f := newFixture(t)

	w := f.do("GET", "/api/subtitles/id-1/en", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGetThumbnail(t *testing.T) {
	f := newFixture(t)
	if err := os.WriteFile(f.thumbs.ArtifactPath("id-1"), []byte("png-bytes"), 0644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}

	w := f.do("GET", "/api/thumbnail/id-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", got)
	}
	if got := w.Header().Get("Cache-Control"); got != "public, max-age=86400" {
		t.Errorf("Cache-Control = %q", got)
	}
}

func TestGetThumbnailNotFound(t *testing.T) {
	f := newFixture(t)

	w := f.do("GET", "/api/thumbnail/ghost", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	f := newFixture(t)

	w := f.do("GET", "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestReadinessCheck(t *testing.T) {
	f := newFixture(t)

	w := f.do("GET", "/readyz", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status before first crawl = %d, want 503", w.Code)
	}

	if _, err := f.crawler.Sync(context.Background()); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	w = f.do("GET", "/readyz", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status after first crawl = %d, want 200", w.Code)
	}
}

func TestTriggerCrawl(t *testing.T) {
	f := newFixture(t)

	w := f.do("POST", "/api/crawl", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "started" && body["status"] != "already_running" {
		t.Errorf("status field = %q", body["status"])
	}
}
