// Package startup loads and validates configuration from the environment.
package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"video-server/internal/logging"
)

// Config holds all application configuration.
type Config struct {
	// VideosDir is the source directory containing video files and
	// optional sidecar subtitles.
	VideosDir string
	// StorageDir is the cache directory for derived artifacts and the
	// catalog database itself.
	StorageDir string

	Port           string
	MetricsPort    string
	MetricsEnabled bool

	CrawlWorkers     int
	ThumbnailWorkers int

	FFmpegPath  string
	FFprobePath string

	// Derived paths
	DatabasePath string
}

// LoadConfig loads configuration from environment variables and validates
// the directories the server depends on.
func LoadConfig() (*Config, error) {
	videosDir := getEnv("VIDEOS_DIR", "/videos")
	storageDir := getEnv("STORAGE_DIR", "/storage")
	port := getEnv("PORT", "8080")
	metricsPort := getEnv("METRICS_PORT", "9090")
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	crawlWorkers := getEnvInt("CRAWL_WORKERS", 0)
	thumbnailWorkers := getEnvInt("THUMBNAIL_WORKERS", 0)
	ffmpegPath := getEnv("FFMPEG_PATH", "ffmpeg")
	ffprobePath := getEnv("FFPROBE_PATH", "ffprobe")

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  VIDEOS_DIR:        %s", videosDir)
	logging.Info("  STORAGE_DIR:       %s", storageDir)
	logging.Info("  PORT:              %s", port)
	logging.Info("  METRICS_PORT:      %s", metricsPort)
	logging.Info("  METRICS_ENABLED:   %v", metricsEnabled)
	logging.Info("  CRAWL_WORKERS:     %d (0 = auto)", crawlWorkers)
	logging.Info("  THUMBNAIL_WORKERS: %d (0 = auto)", thumbnailWorkers)
	logging.Info("  FFMPEG_PATH:       %s", ffmpegPath)
	logging.Info("  FFPROBE_PATH:      %s", ffprobePath)
	logging.Info("  LOG_LEVEL:         %s", logging.GetLevel())

	videosDir, err := filepath.Abs(videosDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve videos directory path: %w", err)
	}

	storageDir, err = filepath.Abs(storageDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage directory path: %w", err)
	}

	// The videos directory only needs to be readable; the storage
	// directory must exist and be writable because artifacts and the
	// catalog database live there.
	if err := ensureDirectory(videosDir); err != nil {
		logging.Warn("  Videos directory issue: %v", err)
	}
	if err := ensureDirectory(storageDir); err != nil {
		return nil, fmt.Errorf("storage directory error: %w", err)
	}
	if err := testWriteAccess(storageDir); err != nil {
		return nil, fmt.Errorf("storage directory is not writable: %w", err)
	}
	logging.Info("  [OK] Storage directory is writable")

	return &Config{
		VideosDir:        videosDir,
		StorageDir:       storageDir,
		Port:             port,
		MetricsPort:      metricsPort,
		MetricsEnabled:   metricsEnabled,
		CrawlWorkers:     crawlWorkers,
		ThumbnailWorkers: thumbnailWorkers,
		FFmpegPath:       ffmpegPath,
		FFprobePath:      ffprobePath,
		DatabasePath:     filepath.Join(storageDir, "catalog.db"),
	}, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("  Invalid boolean for %s: %q, using %v", key, value, fallback)
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("  Invalid integer for %s: %q, using %d", key, value, fallback)
		return fallback
	}
	return parsed
}

func ensureDirectory(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			if mkErr := os.MkdirAll(dir, 0755); mkErr != nil {
				return fmt.Errorf("could not create %s: %w", dir, mkErr)
			}
			logging.Info("  Created directory %s", dir)
			return nil
		}
		return fmt.Errorf("could not stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s exists but is not a directory", dir)
	}
	return nil
}

func testWriteAccess(dir string) error {
	probe := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(probe, []byte("probe"), 0644); err != nil {
		return err
	}
	return os.Remove(probe)
}
