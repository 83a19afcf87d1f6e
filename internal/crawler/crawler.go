package crawler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"video-server/internal/catalog"
	"video-server/internal/filesystem"
	"video-server/internal/logging"
	"video-server/internal/mediatypes"
	"video-server/internal/metrics"
	"video-server/internal/subtitles"
	"video-server/internal/thumbnails"
)

// Crawler reconciles the videos directory against the persisted catalog.
// It is the only writer of catalog records.
type Crawler struct {
	store     *catalog.Store
	subs      *subtitles.Synchronizer
	thumbs    *thumbnails.Deriver
	videosDir string

	// fileWorkers bounds concurrent per-file resolutions (stats, subtitle
	// IO); thumbWorkers bounds concurrent decoder processes and should be
	// small.
	fileWorkers  int
	thumbWorkers int

	retry filesystem.RetryConfig

	// Single-pass-at-a-time discipline: two interleaved passes could race
	// the check-then-insert on the same file name.
	syncMu        sync.Mutex
	syncing       bool
	lastSyncTime  time.Time
	firstSyncDone bool
}

// New creates a Crawler over the given directory and collaborators.
func New(store *catalog.Store, subs *subtitles.Synchronizer, thumbs *thumbnails.Deriver, videosDir string, fileWorkers, thumbWorkers int) *Crawler {
	if fileWorkers < 1 {
		fileWorkers = 1
	}
	if thumbWorkers < 1 {
		thumbWorkers = 1
	}
	return &Crawler{
		store:        store,
		subs:         subs,
		thumbs:       thumbs,
		videosDir:    videosDir,
		fileWorkers:  fileWorkers,
		thumbWorkers: thumbWorkers,
		retry:        filesystem.DefaultRetryConfig(),
	}
}

// Sync performs one crawl pass: list the videos directory, resolve every
// recognized video file against the catalog, then derive missing thumbnails
// for the resolved set. Repeated passes over an unchanged directory converge
// without further writes. If a pass is already running, Sync returns
// immediately without starting another.
func (c *Crawler) Sync(ctx context.Context) ([]catalog.VideoRecord, error) {
	if !c.tryStartSync() {
		logging.Info("Crawl already in progress, skipping...")
		return nil, nil
	}
	defer c.finishSync()

	metrics.CrawlIsRunning.Set(1)
	defer metrics.CrawlIsRunning.Set(0)
	metrics.CrawlRunsTotal.Inc()

	startTime := time.Now()
	logging.Info("Starting crawl pass over %s", c.videosDir)

	fileNames, err := c.listVideoFiles()
	if err != nil {
		return nil, fmt.Errorf("list videos directory: %w", err)
	}

	resolved := c.resolveAll(ctx, fileNames)

	// Thumbnails only start once records are resolved; each video's record
	// is its own data dependency, not a global barrier, but resolveAll has
	// already joined by the time we get here.
	c.deriveThumbnails(ctx, resolved)

	duration := time.Since(startTime)
	metrics.CrawlLastRunTimestamp.Set(float64(time.Now().Unix()))
	metrics.CrawlLastRunDuration.Set(duration.Seconds())

	logging.Info("Crawl complete: %d/%d videos resolved in %v", len(resolved), len(fileNames), duration)
	return resolved, nil
}

// listVideoFiles returns the names of recognized video containers in the
// videos directory, non-recursively.
func (c *Crawler) listVideoFiles() ([]string, error) {
	entries, err := os.ReadDir(c.videosDir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if mediatypes.IsVideoFile(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// resolveAll fans per-file resolution out over a bounded worker pool and
// joins the results. A failure for one file never aborts the pass; the file
// is skipped and retried on the next pass.
func (c *Crawler) resolveAll(ctx context.Context, fileNames []string) []catalog.VideoRecord {
	jobs := make(chan string)
	results := make(chan *catalog.VideoRecord)

	var wg sync.WaitGroup
	for i := 0; i < c.fileWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for fileName := range jobs {
				record, err := c.resolveFile(ctx, fileName)
				if err != nil {
					logging.Error("Failed to resolve %s: %v", fileName, err)
					continue
				}
				select {
				case results <- record:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, fileName := range fileNames {
			select {
			case jobs <- fileName:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var resolved []catalog.VideoRecord
	for record := range results {
		resolved = append(resolved, *record)
		metrics.CrawlVideosResolved.Inc()
	}
	return resolved
}

// resolveFile creates or updates the catalog record for one file name.
func (c *Crawler) resolveFile(ctx context.Context, fileName string) (*catalog.VideoRecord, error) {
	existing, err := c.store.FindByFileName(ctx, fileName)
	switch {
	case err == nil:
		return c.updateVideo(ctx, existing)
	case errors.Is(err, catalog.ErrNotFound):
		return c.newVideo(ctx, fileName)
	default:
		metrics.CrawlErrors.WithLabelValues("store").Inc()
		return nil, err
	}
}

// newVideo constructs and inserts a record for a file seen for the first
// time. The id is assigned once here and never changes; friendly name,
// description and tags are only initialized, never touched again.
func (c *Crawler) newVideo(ctx context.Context, fileName string) (*catalog.VideoRecord, error) {
	logging.Debug("Adding new video %s", fileName)

	sourcePath := filepath.Join(c.videosDir, fileName)
	info, err := filesystem.Stat(sourcePath, c.retry)
	if err != nil {
		metrics.CrawlErrors.WithLabelValues("stat").Inc()
		return nil, fmt.Errorf("stat %s: %w", fileName, err)
	}

	baseName := mediatypes.BaseName(fileName)
	record := &catalog.VideoRecord{
		ID:           uuid.NewString(),
		SourcePath:   sourcePath,
		FileName:     fileName,
		BaseName:     baseName,
		FriendlyName: baseName,
		Description:  "",
		Tags:         []string{},
		MimeType:     mediatypes.GetMimeType(fileName),
		FileSize:     info.Size(),
	}

	langs, err := c.subs.Sync(record)
	if err != nil {
		metrics.CrawlErrors.WithLabelValues("subtitles").Inc()
		return nil, fmt.Errorf("sync subtitles for %s: %w", fileName, err)
	}
	record.Subtitles = langs

	if err := c.store.Insert(ctx, record); err != nil {
		if errors.Is(err, catalog.ErrDuplicate) {
			// Lost the insert race to an earlier pass that failed midway or
			// to a concurrent worker; fall back to the update path so the
			// original id survives.
			existing, findErr := c.store.FindByFileName(ctx, fileName)
			if findErr != nil {
				metrics.CrawlErrors.WithLabelValues("store").Inc()
				return nil, findErr
			}
			return c.updateVideo(ctx, existing)
		}
		metrics.CrawlErrors.WithLabelValues("store").Inc()
		return nil, err
	}

	metrics.CrawlVideosCreated.Inc()
	logging.Info("Indexed new video %s (%d bytes, %d subtitle languages)",
		fileName, record.FileSize, len(record.Subtitles))
	return record, nil
}

// updateVideo re-validates the on-disk size and subtitle set of a known
// record and persists only when something drifted.
func (c *Crawler) updateVideo(ctx context.Context, existing *catalog.VideoRecord) (*catalog.VideoRecord, error) {
	info, err := filesystem.Stat(existing.SourcePath, c.retry)
	if err != nil {
		metrics.CrawlErrors.WithLabelValues("stat").Inc()
		return nil, fmt.Errorf("stat %s: %w", existing.FileName, err)
	}

	langs, err := c.subs.Sync(existing)
	if err != nil {
		metrics.CrawlErrors.WithLabelValues("subtitles").Inc()
		return nil, fmt.Errorf("sync subtitles for %s: %w", existing.FileName, err)
	}

	dirty := false
	if info.Size() != existing.FileSize {
		existing.FileSize = info.Size()
		dirty = true
	}
	if !equalStrings(langs, existing.Subtitles) {
		existing.Subtitles = langs
		dirty = true
	}

	if !dirty {
		return existing, nil
	}

	if err := c.store.Update(ctx, existing); err != nil {
		metrics.CrawlErrors.WithLabelValues("store").Inc()
		return nil, err
	}

	metrics.CrawlVideosUpdated.Inc()
	logging.Info("Updated video %s (%d bytes, %d subtitle languages)",
		existing.FileName, existing.FileSize, len(existing.Subtitles))
	return existing, nil
}

// deriveThumbnails runs the thumbnail stage over the resolved records with a
// small bounded pool, since every miss spawns a decoder process.
func (c *Crawler) deriveThumbnails(ctx context.Context, records []catalog.VideoRecord) {
	jobs := make(chan catalog.VideoRecord)

	var wg sync.WaitGroup
	for i := 0; i < c.thumbWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for record := range jobs {
				if err := c.thumbs.Ensure(ctx, &record); err != nil {
					metrics.CrawlErrors.WithLabelValues("thumbnail").Inc()
					logging.Error("Thumbnail derivation failed for %s: %v", record.FileName, err)
				}
			}
		}()
	}

	for _, record := range records {
		select {
		case jobs <- record:
		case <-ctx.Done():
			logging.Warn("Thumbnail stage canceled: %v", ctx.Err())
			close(jobs)
			wg.Wait()
			return
		}
	}
	close(jobs)
	wg.Wait()
}

func (c *Crawler) tryStartSync() bool {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()

	if c.syncing {
		return false
	}
	c.syncing = true
	return true
}

func (c *Crawler) finishSync() {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()

	c.syncing = false
	c.firstSyncDone = true
	c.lastSyncTime = time.Now()
}

// IsSyncing reports whether a crawl pass is currently running.
func (c *Crawler) IsSyncing() bool {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()
	return c.syncing
}

// IsReady reports whether the initial crawl pass has completed.
func (c *Crawler) IsReady() bool {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()
	return c.firstSyncDone
}

// LastSyncTime returns the completion time of the last crawl pass.
func (c *Crawler) LastSyncTime() time.Time {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()
	return c.lastSyncTime
}

// TriggerSync starts a crawl pass in the background.
func (c *Crawler) TriggerSync(ctx context.Context) {
	go func() {
		if _, err := c.Sync(ctx); err != nil {
			logging.Error("Triggered crawl failed: %v", err)
		}
	}()
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
