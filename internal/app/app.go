package app

import (
	"log/slog"

	"photofolio/internal/backend"
	"photofolio/internal/config"
	"photofolio/internal/metrics"
	albumsvc "photofolio/internal/services/album_service"
	authsvc "photofolio/internal/services/auth_service"
	imagesvc "photofolio/internal/services/image_service"
	"photofolio/internal/storage"
	"photofolio/internal/storage/backendstore"
	filestorage "photofolio/internal/storage/filestorage"
	httprouters "photofolio/internal/transport/http"

	httpapp "photofolio/internal/app/http"
)

type App struct {
	HTTPServer *httpapp.Server

	tracker metrics.Tracker
}

func New(log *slog.Logger, cfg *config.Config) *App {
	client := backend.NewClient(log, cfg.Backend.BaseURL, cfg.Backend.APIKey)

	tracker := buildTracker(log, cfg.Metrics)

	source, sourceKind := buildImageSource(log, cfg.Images, client)

	albumService := albumsvc.NewAlbumService(log, tracker, client)
	imageService := imagesvc.NewImageService(log, tracker, source, sourceKind)
	authService := authsvc.NewAuthService(log, cfg.Auth.AdminPasswordHash, cfg.Auth.SessionSecret, cfg.Auth.TokenTTL)

	routers := httprouters.NewRouter(log, tracker, cfg.Env, albumService, imageService, authService)

	server := httpapp.New(log, cfg.Auth.SessionSecret, cfg.HTTP.Host, cfg.HTTP.Port, routers)
	server.BuildRouters()

	return &App{
		HTTPServer: server,
		tracker:    tracker,
	}
}

// Stop гасит HTTP-сервер и сбрасывает накопленные метрики на диск.
func (a *App) Stop() error {
	err := a.HTTPServer.Stop()

	if ft, ok := a.tracker.(*metrics.FileTracker); ok {
		ft.Close()
	}

	return err
}

func buildTracker(log *slog.Logger, cfg config.MetricsConfig) metrics.Tracker {
	if !cfg.Enabled || cfg.Sink == "disabled" {
		return metrics.Noop{}
	}

	switch cfg.Sink {
	case "file":
		return metrics.NewFileTracker(log, metrics.FileTrackerConfig{Path: cfg.FilePath})
	default:
		return metrics.NewLogTracker(log)
	}
}

// buildImageSource выбирает стратегию источника изображений один раз на
// старте; запросы стратегию не переключают.
func buildImageSource(log *slog.Logger, cfg config.ImagesConfig, client *backend.Client) (storage.ImageSource, string) {
	if cfg.Source == "local" {
		fs, err := filestorage.NewLocalFileStorage(cfg.BaseDir, cfg.BaseURL)
		if err != nil {
			panic("cannot init local file storage: " + err.Error())
		}

		log.Info("image source: local file storage", slog.String("dir", fs.BaseDir()))

		return fs, "local"
	}

	log.Info("image source: backend API")

	return backendstore.NewBackendStorage(log, client), "backend"
}
