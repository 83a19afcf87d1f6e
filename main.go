package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"video-server/internal/catalog"
	"video-server/internal/crawler"
	"video-server/internal/handlers"
	"video-server/internal/logging"
	"video-server/internal/middleware"
	"video-server/internal/startup"
	"video-server/internal/subtitles"
	"video-server/internal/thumbnails"
	"video-server/internal/workers"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	config, err := startup.LoadConfig()
	if err != nil {
		logging.Fatal("Configuration error: %v", err)
	}

	store, err := catalog.NewStore(context.Background(), config.DatabasePath)
	if err != nil {
		logging.Fatal("Failed to initialize catalog store: %v", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logging.Warn("Failed to close catalog store: %v", closeErr)
		}
	}()

	subs := subtitles.NewSynchronizer(config.VideosDir, config.StorageDir)
	extractor := thumbnails.NewFFmpegExtractor(config.FFmpegPath, config.FFprobePath)
	thumbs := thumbnails.NewDeriver(config.StorageDir, extractor)

	fileWorkers := config.CrawlWorkers
	if fileWorkers <= 0 {
		fileWorkers = workers.ForIO("CRAWL_WORKERS", 8)
	}
	thumbWorkers := config.ThumbnailWorkers
	if thumbWorkers <= 0 {
		thumbWorkers = workers.ForCPU("THUMBNAIL_WORKERS", 2)
	}

	c := crawler.New(store, subs, thumbs, config.VideosDir, fileWorkers, thumbWorkers)

	// Initial crawl runs in the background; readiness flips once it is done.
	crawlCtx, cancelCrawl := context.WithCancel(context.Background())
	go func() {
		if _, err := c.Sync(crawlCtx); err != nil {
			logging.Error("Initial crawl failed: %v", err)
		}
	}()

	h := handlers.New(store, c, subs, thumbs)
	router := setupRouter(h)

	handler := middleware.Metrics(middleware.Logger(router))

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // streaming responses have their own write timeout
		IdleTimeout:  60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:    ":" + config.MetricsPort,
			Handler: metricsMux,
		}
		go func() {
			logging.Info("Metrics listening on :%s", config.MetricsPort)
			if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	go handleShutdown(srv, metricsSrv, cancelCrawl)

	logging.Info("Server listening on :%s (started in %v)", config.Port, time.Since(startTime))
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logging.Fatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/video/list", h.ListVideos).Methods("GET")
	api.HandleFunc("/video/i/{id}", h.GetVideoInfo).Methods("GET")
	api.HandleFunc("/video/v/{id}", h.StreamVideo).Methods("GET")
	api.HandleFunc("/subtitles/{id}/{lang}", h.GetSubtitle).Methods("GET")
	api.HandleFunc("/thumbnail/{id}", h.GetThumbnail).Methods("GET")
	api.HandleFunc("/crawl", h.TriggerCrawl).Methods("POST")

	return r
}

func handleShutdown(srv, metricsSrv *http.Server, cancelCrawl context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	logging.Info("Received %s, shutting down...", sig)

	cancelCrawl()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		}
	}

	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		logging.Info("Shutdown complete")
	}
}
