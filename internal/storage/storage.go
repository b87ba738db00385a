package storage

import (
	"context"
	"encoding/json"
	"mime/multipart"

	"photofolio/internal/domain/models"
)

// ImageSource стратегия работы с изображениями: локальная директория или
// проксирование в backend. Выбирается один раз при старте процесса по
// конфигурации, не per-request.
//
// UploadImage возвращает сырой JSON-результат, чтобы ответ backend-а
// доходил до клиента без переупаковки.
type ImageSource interface {
	ListImages(ctx context.Context) ([]models.Image, error)
	UploadImage(ctx context.Context, file *multipart.FileHeader) (json.RawMessage, error)
	DeleteImage(ctx context.Context, id string) error
	ImageExists(ctx context.Context, id string) (bool, error)
}
