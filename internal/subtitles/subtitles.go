package subtitles

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"video-server/internal/catalog"
	"video-server/internal/filesystem"
	"video-server/internal/logging"
	"video-server/internal/mediatypes"
	"video-server/internal/metrics"
)

// Synchronizer reconciles sidecar subtitle files found beside a source video
// against the per-video artifact cache. Cache artifacts are named
// {id}.{lang}.vtt and are never mutated once written, so every operation
// here is skip-if-exists and the whole pass is safe to re-run.
type Synchronizer struct {
	videosDir string
	cacheDir  string
	retry     filesystem.RetryConfig
}

// NewSynchronizer creates a Synchronizer over the given source and cache
// directories.
func NewSynchronizer(videosDir, cacheDir string) *Synchronizer {
	return &Synchronizer{
		videosDir: videosDir,
		cacheDir:  cacheDir,
		retry:     filesystem.DefaultRetryConfig(),
	}
}

// sidecar is a parsed subtitle file name: full name, name minus extension,
// the extension-before-extension language token, and the lowercase extension.
// "movie.en.srt" parses to {full: "movie.en.srt", base: "movie.en",
// lang: "en", ext: ".srt"}.
type sidecar struct {
	full string
	base string
	lang string
	ext  string
}

func parseSidecar(name string) sidecar {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return sidecar{
		full: name,
		base: base,
		lang: strings.TrimPrefix(filepath.Ext(base), "."),
		ext:  strings.ToLower(ext),
	}
}

// Sync reconciles the subtitle sidecars for one video and returns the
// language codes for which a playable cache artifact exists. The result is
// recomputed fresh from the cache directory after reconciliation, so
// externally added artifacts are picked up too.
//
// A copy or conversion failure for one language does not block the others;
// the failed language is simply absent from the result until the next pass.
func (s *Synchronizer) Sync(video *catalog.VideoRecord) ([]string, error) {
	sourceFiles, err := s.listSidecars(s.videosDir, video.BaseName)
	if err != nil {
		return nil, fmt.Errorf("list source subtitles for %s: %w", video.FileName, err)
	}

	cacheFiles, err := s.listSidecars(s.cacheDir, video.ID)
	if err != nil {
		return nil, fmt.Errorf("list cached subtitles for %s: %w", video.FileName, err)
	}

	s.reconcile(video, sourceFiles, cacheFiles)

	// Recompute from the cache rather than from what was just processed.
	cacheFiles, err = s.listSidecars(s.cacheDir, video.ID)
	if err != nil {
		return nil, fmt.Errorf("recompute cached subtitles for %s: %w", video.FileName, err)
	}

	langs := make([]string, 0, len(cacheFiles))
	seen := make(map[string]bool)
	for _, f := range cacheFiles {
		if f.ext != ".vtt" || seen[f.lang] {
			continue
		}
		seen[f.lang] = true
		langs = append(langs, f.lang)
	}
	return langs, nil
}

// reconcile brings the cache up to date with the source sidecars. Per spec
// of the cache layout, a .vtt sidecar is copied verbatim and a .srt sidecar
// is converted, unless a same-language .vtt sidecar supersedes it.
func (s *Synchronizer) reconcile(video *catalog.VideoRecord, sourceFiles, cacheFiles []sidecar) {
	cached := make(map[string]bool, len(cacheFiles))
	for _, f := range cacheFiles {
		if f.ext == ".vtt" {
			cached[f.lang] = true
		}
	}

	vttLangs := make(map[string]bool)
	for _, f := range sourceFiles {
		if f.ext == ".vtt" {
			vttLangs[f.lang] = true
		}
	}

	for _, f := range sourceFiles {
		switch f.ext {
		case ".vtt":
			if cached[f.lang] {
				continue
			}
			if err := s.copyToCache(video.ID, f); err != nil {
				metrics.SubtitleErrors.Inc()
				logging.Warn("Subtitle copy failed for %s lang %q: %v", video.FileName, f.lang, err)
			}

		case ".srt":
			// A same-language .vtt sidecar supersedes the .srt entirely.
			if vttLangs[f.lang] {
				logging.Debug("Skipping %s: superseded by .vtt sidecar", f.full)
				continue
			}
			if cached[f.lang] {
				continue
			}
			if err := s.convertToCache(video.ID, f); err != nil {
				metrics.SubtitleErrors.Inc()
				logging.Warn("Subtitle conversion failed for %s lang %q: %v", video.FileName, f.lang, err)
			}
		}
	}
}

// copyToCache copies a .vtt sidecar byte-for-byte to {id}.{lang}.vtt,
// skipping when the artifact already exists.
func (s *Synchronizer) copyToCache(videoID string, f sidecar) error {
	dst := s.artifactPath(videoID, f.lang)
	if _, err := os.Stat(dst); err == nil {
		return nil
	}

	src, err := filesystem.Open(filepath.Join(s.videosDir, f.full), s.retry)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil {
			logging.Warn("failed to close %s: %v", f.full, closeErr)
		}
	}()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create artifact: %w", err)
	}

	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("copy artifact: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close artifact: %w", err)
	}

	metrics.SubtitleConversionsTotal.WithLabelValues("copy").Inc()
	logging.Debug("Copied subtitle %s -> %s", f.full, dst)
	return nil
}

// convertToCache converts a .srt sidecar to {id}.{lang}.vtt, skipping when
// the artifact already exists.
func (s *Synchronizer) convertToCache(videoID string, f sidecar) error {
	dst := s.artifactPath(videoID, f.lang)
	if _, err := os.Stat(dst); err == nil {
		return nil
	}

	data, err := os.ReadFile(filepath.Join(s.videosDir, f.full))
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}

	if err := os.WriteFile(dst, ToVTT(data), 0644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}

	metrics.SubtitleConversionsTotal.WithLabelValues("convert").Inc()
	logging.Debug("Converted subtitle %s -> %s", f.full, dst)
	return nil
}

// ArtifactPath returns the cache path for a (videoID, lang) subtitle
// artifact. The HTTP layer uses it to serve tracks directly.
func (s *Synchronizer) ArtifactPath(videoID, lang string) string {
	return s.artifactPath(videoID, lang)
}

func (s *Synchronizer) artifactPath(videoID, lang string) string {
	return filepath.Join(s.cacheDir, fmt.Sprintf("%s.%s.vtt", videoID, lang))
}

// listSidecars returns the parsed subtitle files in dir whose name contains
// the filter token. Directory entries come back sorted, which is what makes
// the returned language set deterministically ordered.
func (s *Synchronizer) listSidecars(dir, filter string) ([]sidecar, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []sidecar
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.Contains(name, filter) {
			continue
		}
		if !mediatypes.IsSubtitleFile(name) {
			continue
		}
		files = append(files, parseSidecar(name))
	}
	return files, nil
}
