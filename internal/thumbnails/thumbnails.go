package thumbnails

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"video-server/internal/catalog"
	"video-server/internal/logging"
	"video-server/internal/metrics"
)

// Default geometry and capture point for derived thumbnails.
const (
	ThumbWidth  = 720
	ThumbHeight = 405

	// captureFraction is how far into the video the preview frame is taken.
	captureFraction = 0.05
)

// FrameExtractor captures a single frame from a video file and writes it as
// a PNG to outPath. fraction selects the capture point as a fraction of the
// video's duration. Implementations spawn external decoder processes, so the
// Deriver bounds and injects them; tests substitute a fake.
type FrameExtractor interface {
	ExtractFrame(ctx context.Context, srcPath string, fraction float64, outPath string, width, height int) error
}

// Deriver lazily produces one preview image per video. An artifact that is
// already present is never regenerated, even if the source changed.
type Deriver struct {
	cacheDir  string
	extractor FrameExtractor
}

// NewDeriver creates a Deriver writing {id}.png artifacts into cacheDir.
func NewDeriver(cacheDir string, extractor FrameExtractor) *Deriver {
	return &Deriver{
		cacheDir:  cacheDir,
		extractor: extractor,
	}
}

// Ensure guarantees a cached thumbnail exists for the video, invoking the
// frame extractor only when the artifact is absent.
func (d *Deriver) Ensure(ctx context.Context, video *catalog.VideoRecord) error {
	outPath := d.ArtifactPath(video.ID)
	if _, err := os.Stat(outPath); err == nil {
		metrics.ThumbnailExtractions.WithLabelValues("cached").Inc()
		return nil
	}

	logging.Debug("Deriving thumbnail for %s -> %s", video.FileName, outPath)
	start := time.Now()

	err := d.extractor.ExtractFrame(ctx, video.SourcePath, captureFraction, outPath, ThumbWidth, ThumbHeight)
	metrics.ThumbnailExtractionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ThumbnailExtractions.WithLabelValues("error").Inc()
		return fmt.Errorf("extract frame for %s: %w", video.FileName, err)
	}

	metrics.ThumbnailExtractions.WithLabelValues("success").Inc()
	return nil
}

// ArtifactPath returns the cache path of a video's thumbnail.
func (d *Deriver) ArtifactPath(videoID string) string {
	return filepath.Join(d.cacheDir, videoID+".png")
}
