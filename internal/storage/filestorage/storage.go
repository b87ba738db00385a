package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"photofolio/internal/domain/models"
)

// Расширения, которые считаются изображениями при обходе директории
var imageExtensions = map[string]string{
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".png":  "png",
	".gif":  "gif",
	".webp": "webp",
}

// LocalFileStorage реализация ImageSource поверх локальной файловой системы.
// Индекса в памяти нет: каждый вызов заново читает директорию, каждый вызов
// идемпотентен.
type LocalFileStorage struct {
	baseDir string // Базовый каталог для хранения (например: "./uploads")
	baseURL string // Базовый URL для доступа к файлам (например: "/uploads")
}

func NewLocalFileStorage(baseDir, baseURL string) (*LocalFileStorage, error) {
	// Создаем директорию, если она не существует
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	return &LocalFileStorage{
		baseDir: baseDir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// ListImages перечисляет изображения директории, новые первыми.
func (s *LocalFileStorage) ListImages(ctx context.Context) ([]models.Image, error) {
	const op = "filestorage.ListImages"

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Отсутствующая директория — не ошибка, создаем и отдаем пустой список
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	images := make([]models.Image, 0, len(entries))

	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}

		format, ok := imageExtensions[strings.ToLower(filepath.Ext(e.Name()))]
		if !ok {
			continue
		}

		info, err := e.Info()
		if err != nil {
			continue
		}

		images = append(images, s.metadata(e.Name(), format, info))
	}

	sort.Slice(images, func(i, j int) bool {
		if images[i].UploadedAt != images[j].UploadedAt {
			return images[i].UploadedAt > images[j].UploadedAt
		}

		return images[i].ID < images[j].ID
	})

	return images, nil
}

// UploadImage записывает файл в директорию и возвращает его метаданные в той
// же форме, в какой их отдает listing.
func (s *LocalFileStorage) UploadImage(ctx context.Context, file *multipart.FileHeader) (json.RawMessage, error) {
	const op = "filestorage.UploadImage"

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Защита от path traversal в имени файла
	filename := filepath.Base(file.Filename)
	filePath := filepath.Join(s.baseDir, filename)

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open source file: %w", op, err)
	}
	defer src.Close()

	dst, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create destination file: %w", op, err)
	}
	defer dst.Close()

	done := make(chan struct{})
	var copyErr error

	go func() {
		_, copyErr = io.Copy(dst, src)
		close(done)
	}()

	select {
	case <-done:
		if copyErr != nil {
			_ = os.Remove(filePath)
			return nil, fmt.Errorf("%s: failed to copy file: %w", op, copyErr)
		}
	case <-ctx.Done():
		_ = os.Remove(filePath)
		return nil, ctx.Err()
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	format := imageExtensions[strings.ToLower(filepath.Ext(filename))]

	meta, err := json.Marshal(s.metadata(filename, format, info))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return meta, nil
}

// DeleteImage удаляет файл. Отсутствие файла ошибкой не считается.
func (s *LocalFileStorage) DeleteImage(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Remove(filepath.Join(s.baseDir, filepath.Base(id)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}

func (s *LocalFileStorage) ImageExists(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := os.Stat(filepath.Join(s.baseDir, filepath.Base(id)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

func (s *LocalFileStorage) BaseDir() string {
	return s.baseDir
}

func (s *LocalFileStorage) metadata(filename, format string, info fs.FileInfo) models.Image {
	return models.Image{
		ID:         filename,
		Name:       strings.TrimSuffix(filename, filepath.Ext(filename)),
		URL:        s.baseURL + "/" + filename,
		UploadedAt: info.ModTime().UnixMilli(),
		Size:       info.Size(),
		Format:     format,
	}
}
