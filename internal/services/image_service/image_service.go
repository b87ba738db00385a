package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"

	"photofolio/internal/domain/models"
	"photofolio/internal/lib/logger/sl"
	"photofolio/internal/metrics"
	"photofolio/internal/storage"
)

// MaxUploadBytes потолок размера загрузки, граница включительная:
// файл ровно в 50 MiB еще принимается.
const MaxUploadBytes = 50 << 20

// Фиксированный allow-list типов загружаемых файлов
var allowedMimeTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

var (
	ErrNoFile          = errors.New("no file provided")
	ErrFileTooLarge    = errors.New("file too large")
	ErrInvalidFileType = errors.New("invalid file type")
)

// ImageService валидация загрузок и доступ к выбранному источнику
// изображений. Валидация выполняется до какого-либо I/O.
type ImageService struct {
	log     *slog.Logger
	tracker metrics.Tracker
	source  storage.ImageSource
	listOp  string
}

func NewImageService(log *slog.Logger, tracker metrics.Tracker, source storage.ImageSource, sourceKind string) *ImageService {
	listOp := "FetchImagesFromDisk"
	if sourceKind == "backend" {
		listOp = "FetchImagesFromBackend"
	}

	return &ImageService{
		log:     log,
		tracker: tracker,
		source:  source,
		listOp:  listOp,
	}
}

func (s *ImageService) ListImages(ctx context.Context) ([]models.Image, error) {
	return metrics.TrackOperation(ctx, s.tracker, s.listOp, func(ctx context.Context) ([]models.Image, error) {
		return s.source.ListImages(ctx)
	})
}

// ValidateUpload проверяет форму файла до обращения к хранилищу: наличие,
// размер, MIME-тип. Каждый отказ считается метрикой с причиной.
func (s *ImageService) ValidateUpload(file *multipart.FileHeader) error {
	const op = "image_service.ValidateUpload"

	log := s.log.With(slog.String("op", op))

	if file == nil {
		s.tracker.TrackCount("image_upload_rejected", 1, map[string]string{"reason": "no_file"})
		return ErrNoFile
	}

	if file.Size > MaxUploadBytes {
		log.Warn("upload rejected: file too large",
			slog.String("filename", file.Filename),
			slog.Int64("size", file.Size),
		)
		s.tracker.TrackCount("image_upload_rejected", 1, map[string]string{"reason": "too_large"})

		return ErrFileTooLarge
	}

	mimeType := file.Header.Get("Content-Type")
	if _, ok := allowedMimeTypes[mimeType]; !ok {
		log.Warn("upload rejected: invalid file type",
			slog.String("filename", file.Filename),
			slog.String("mime_type", mimeType),
		)
		s.tracker.TrackCount("image_upload_rejected", 1, map[string]string{"reason": "invalid_type"})

		return ErrInvalidFileType
	}

	return nil
}

// UploadImage валидирует файл и отдает его активному источнику. Результат
// источника (JSON backend-а либо метаданные локального файла) возвращается
// без переупаковки.
func (s *ImageService) UploadImage(ctx context.Context, file *multipart.FileHeader) (json.RawMessage, error) {
	const op = "image_service.UploadImage"

	if err := s.ValidateUpload(file); err != nil {
		return nil, err
	}

	log := s.log.With(
		slog.String("op", op),
		slog.String("filename", file.Filename),
	)

	raw, err := metrics.TrackOperation(ctx, s.tracker, "UploadImage", func(ctx context.Context) (json.RawMessage, error) {
		return s.source.UploadImage(ctx, file)
	})
	if err != nil {
		log.Error("upload failed", sl.Err(err))
		s.tracker.TrackCount("image_upload_failed", 1, nil)

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("upload successful", slog.Int64("size", file.Size))
	s.tracker.TrackCount("image_upload_uploaded", 1, map[string]string{"type": file.Header.Get("Content-Type")})

	return raw, nil
}

func (s *ImageService) DeleteImage(ctx context.Context, id string) error {
	_, err := metrics.TrackOperation(ctx, s.tracker, "DeleteImage", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.source.DeleteImage(ctx, id)
	})

	return err
}

func (s *ImageService) ImageExists(ctx context.Context, id string) (bool, error) {
	return s.source.ImageExists(ctx, id)
}
