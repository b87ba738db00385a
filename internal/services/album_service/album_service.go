package services

import (
	"context"
	"log/slog"

	"photofolio/internal/backend"
	"photofolio/internal/metrics"
)

// BackendClient операции backend API, нужные альбомному сервису.
type BackendClient interface {
	ListAlbums(ctx context.Context, published *bool) (*backend.Response, error)
	CreateAlbum(ctx context.Context, body []byte) (*backend.Response, error)
	GetAlbum(ctx context.Context, id string) (*backend.Response, error)
	UpdateAlbum(ctx context.Context, id string, body []byte) (*backend.Response, error)
	DeleteAlbum(ctx context.Context, id string) (*backend.Response, error)
	AddAlbumImages(ctx context.Context, id string, body []byte) (*backend.Response, error)
	RemoveAlbumImage(ctx context.Context, id, imageID string) (*backend.Response, error)
	ReorderAlbumImages(ctx context.Context, id string, body []byte) (*backend.Response, error)
}

// AlbumService транзитный слой над backend API. Каждая операция обернута в
// метрики с собственным именем; интерпретация статусов остается за
// обработчиками маршрутов.
type AlbumService struct {
	log     *slog.Logger
	tracker metrics.Tracker
	backend BackendClient
}

func NewAlbumService(log *slog.Logger, tracker metrics.Tracker, backendClient BackendClient) *AlbumService {
	return &AlbumService{
		log:     log,
		tracker: tracker,
		backend: backendClient,
	}
}

func (s *AlbumService) ListAlbums(ctx context.Context, published *bool) (*backend.Response, error) {
	return metrics.TrackOperation(ctx, s.tracker, "FetchAlbums", func(ctx context.Context) (*backend.Response, error) {
		return s.backend.ListAlbums(ctx, published)
	})
}

func (s *AlbumService) CreateAlbum(ctx context.Context, body []byte) (*backend.Response, error) {
	return metrics.TrackOperation(ctx, s.tracker, "CreateAlbum", func(ctx context.Context) (*backend.Response, error) {
		return s.backend.CreateAlbum(ctx, body)
	})
}

func (s *AlbumService) GetAlbum(ctx context.Context, id string) (*backend.Response, error) {
	return metrics.TrackOperation(ctx, s.tracker, "FetchAlbum", func(ctx context.Context) (*backend.Response, error) {
		return s.backend.GetAlbum(ctx, id)
	})
}

func (s *AlbumService) UpdateAlbum(ctx context.Context, id string, body []byte) (*backend.Response, error) {
	return metrics.TrackOperation(ctx, s.tracker, "UpdateAlbum", func(ctx context.Context) (*backend.Response, error) {
		return s.backend.UpdateAlbum(ctx, id, body)
	})
}

func (s *AlbumService) DeleteAlbum(ctx context.Context, id string) (*backend.Response, error) {
	return metrics.TrackOperation(ctx, s.tracker, "DeleteAlbum", func(ctx context.Context) (*backend.Response, error) {
		return s.backend.DeleteAlbum(ctx, id)
	})
}

func (s *AlbumService) AddAlbumImages(ctx context.Context, id string, body []byte) (*backend.Response, error) {
	return metrics.TrackOperation(ctx, s.tracker, "AddAlbumImages", func(ctx context.Context) (*backend.Response, error) {
		return s.backend.AddAlbumImages(ctx, id, body)
	})
}

func (s *AlbumService) RemoveAlbumImage(ctx context.Context, id, imageID string) (*backend.Response, error) {
	return metrics.TrackOperation(ctx, s.tracker, "RemoveAlbumImage", func(ctx context.Context) (*backend.Response, error) {
		return s.backend.RemoveAlbumImage(ctx, id, imageID)
	})
}

func (s *AlbumService) ReorderAlbumImages(ctx context.Context, id string, body []byte) (*backend.Response, error) {
	return metrics.TrackOperation(ctx, s.tracker, "ReorderAlbumImages", func(ctx context.Context) (*backend.Response, error) {
		return s.backend.ReorderAlbumImages(ctx, id, body)
	})
}
