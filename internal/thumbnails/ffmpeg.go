package thumbnails

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"video-server/internal/logging"

	"github.com/disintegration/imaging"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/webp"
)

// maxExtractionTime bounds a single decoder invocation so one stuck process
// cannot hang a crawl pass.
const maxExtractionTime = 60 * time.Second

// FFmpegExtractor implements FrameExtractor by shelling out to ffprobe for
// the duration and ffmpeg for the frame itself.
type FFmpegExtractor struct {
	ffmpegPath  string
	ffprobePath string
}

// NewFFmpegExtractor creates an extractor using the given binaries. Empty
// paths fall back to "ffmpeg" and "ffprobe" on PATH.
func NewFFmpegExtractor(ffmpegPath, ffprobePath string) *FFmpegExtractor {
	if strings.TrimSpace(ffmpegPath) == "" {
		ffmpegPath = "ffmpeg"
	}
	if strings.TrimSpace(ffprobePath) == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpegExtractor{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
	}
}

// ExtractFrame captures one frame at the given fraction of the video's
// duration, resizes it to width x height and writes it as PNG to outPath.
func (e *FFmpegExtractor) ExtractFrame(ctx context.Context, srcPath string, fraction float64, outPath string, width, height int) error {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, maxExtractionTime)
		defer cancel()
	}

	seek := 0.0
	duration, err := e.probeDuration(ctx, srcPath)
	if err != nil {
		// A video with unreadable metadata can still often decode its first
		// frames, so fall back to the start instead of failing outright.
		logging.Debug("Duration probe failed for %s, capturing from start: %v", srcPath, err)
	} else {
		seek = duration * fraction
	}

	frame, err := e.captureFrame(ctx, srcPath, seek)
	if err != nil {
		return err
	}

	thumb := imaging.Resize(frame, width, height, imaging.Lanczos)

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create thumbnail: %w", err)
	}
	if err := png.Encode(out, thumb); err != nil {
		out.Close()
		os.Remove(outPath)
		return fmt.Errorf("encode thumbnail: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close thumbnail: %w", err)
	}
	return nil
}

// probePayload is the subset of ffprobe JSON output we parse.
type probePayload struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func (e *FFmpegExtractor) probeDuration(ctx context.Context, srcPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, e.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		srcPath,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return 0, fmt.Errorf("ffprobe failed: %w", err)
		}
		return 0, fmt.Errorf("ffprobe failed: %w: %s", err, msg)
	}

	var payload probePayload
	if err := json.Unmarshal(stdout.Bytes(), &payload); err != nil {
		return 0, fmt.Errorf("ffprobe output parse failed: %w", err)
	}

	duration, err := strconv.ParseFloat(payload.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe reported no usable duration: %w", err)
	}
	return duration, nil
}

func (e *FFmpegExtractor) captureFrame(ctx context.Context, srcPath string, seekSeconds float64) (image.Image, error) {
	args := []string{}
	if seekSeconds > 0 {
		args = append(args, "-ss", fmt.Sprintf("%.3f", seekSeconds))
	}
	args = append(args,
		"-i", srcPath,
		"-vframes", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output for %s", srcPath)
	}

	frame, _, err := image.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ffmpeg output: %w", err)
	}
	return frame, nil
}
