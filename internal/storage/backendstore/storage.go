package backendstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"photofolio/internal/backend"
	"photofolio/internal/domain/models"
	"photofolio/internal/lib/logger/sl"
)

// Client часть backend-клиента, нужная источнику изображений.
type Client interface {
	ListImages(ctx context.Context) (*backend.Response, error)
	GetImage(ctx context.Context, id string) (*backend.Response, error)
	DeleteImage(ctx context.Context, id string) (*backend.Response, error)
	UploadImage(ctx context.Context, contentType string, body io.Reader) (*backend.Response, error)
}

// BackendStorage реализация ImageSource, проксирующая все операции во
// внешний backend API.
type BackendStorage struct {
	log    *slog.Logger
	client Client
}

func NewBackendStorage(log *slog.Logger, client Client) *BackendStorage {
	return &BackendStorage{
		log:    log,
		client: client,
	}
}

func (s *BackendStorage) ListImages(ctx context.Context) ([]models.Image, error) {
	const op = "backendstore.ListImages"

	resp, err := s.client.ListImages(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !resp.OK() {
		return nil, fmt.Errorf("%s: backend returned status %d", op, resp.StatusCode)
	}

	var list models.ImageList
	if err := json.Unmarshal(resp.Body, &list); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", op, err)
	}

	return list.Images, nil
}

// UploadImage пересобирает multipart-форму с единственной частью "file" и
// отправляет ее на endpoint загрузки. Тело стримится через pipe, файл
// целиком в память не поднимается.
func (s *BackendStorage) UploadImage(ctx context.Context, file *multipart.FileHeader) (json.RawMessage, error) {
	const op = "backendstore.UploadImage"

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		src, err := file.Open()
		if err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		defer src.Close()

		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(file.Filename)))
		if ct := file.Header.Get("Content-Type"); ct != "" {
			header.Set("Content-Type", ct)
		}

		part, err := mw.CreatePart(header)
		if err != nil {
			_ = pw.CloseWithError(err)
			return
		}

		if _, err := io.Copy(part, src); err != nil {
			_ = pw.CloseWithError(err)
			return
		}

		_ = pw.CloseWithError(mw.Close())
	}()

	resp, err := s.client.UploadImage(ctx, mw.FormDataContentType(), pr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !resp.OK() {
		s.log.Error("backend rejected upload",
			slog.Int("status", resp.StatusCode),
			slog.String("filename", file.Filename),
		)

		return nil, fmt.Errorf("%s: backend returned status %d", op, resp.StatusCode)
	}

	return json.RawMessage(resp.Body), nil
}

func (s *BackendStorage) DeleteImage(ctx context.Context, id string) error {
	const op = "backendstore.DeleteImage"

	resp, err := s.client.DeleteImage(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	// Удаление отсутствующего изображения не считается ошибкой
	if !resp.OK() && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("%s: backend returned status %d", op, resp.StatusCode)
	}

	return nil
}

func (s *BackendStorage) ImageExists(ctx context.Context, id string) (bool, error) {
	const op = "backendstore.ImageExists"

	resp, err := s.client.GetImage(ctx, id)
	if err != nil {
		s.log.Debug("image existence check failed", sl.Err(err))
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return resp.OK(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
