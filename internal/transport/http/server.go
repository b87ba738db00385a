package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"photofolio/internal/backend"
	"photofolio/internal/domain/models"
	"photofolio/internal/lib/logger/sl"
	"photofolio/internal/metrics"
	mw "photofolio/internal/middleware"
	authsvc "photofolio/internal/services/auth_service"
	imagesvc "photofolio/internal/services/image_service"
	"photofolio/internal/transport/http/dto"
	"photofolio/internal/transport/http/dto/request"
	"photofolio/internal/transport/http/dto/response"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	_ "photofolio/docs"
)

const SessionName = "admin_session"

type AlbumService interface {
	ListAlbums(ctx context.Context, published *bool) (*backend.Response, error)
	CreateAlbum(ctx context.Context, body []byte) (*backend.Response, error)
	GetAlbum(ctx context.Context, id string) (*backend.Response, error)
	UpdateAlbum(ctx context.Context, id string, body []byte) (*backend.Response, error)
	DeleteAlbum(ctx context.Context, id string) (*backend.Response, error)
	AddAlbumImages(ctx context.Context, id string, body []byte) (*backend.Response, error)
	RemoveAlbumImage(ctx context.Context, id, imageID string) (*backend.Response, error)
	ReorderAlbumImages(ctx context.Context, id string, body []byte) (*backend.Response, error)
}

type ImageService interface {
	ListImages(ctx context.Context) ([]models.Image, error)
	UploadImage(ctx context.Context, file *multipart.FileHeader) (json.RawMessage, error)
	DeleteImage(ctx context.Context, id string) error
	ImageExists(ctx context.Context, id string) (bool, error)
}

type AuthService interface {
	Login(ctx context.Context, password string) (string, error)
}

type Routers struct {
	log          *slog.Logger
	tracker      metrics.Tracker
	env          string
	AlbumService AlbumService
	ImageService ImageService
	AuthService  AuthService
}

func NewRouter(log *slog.Logger, tracker metrics.Tracker, env string, albumService AlbumService, imageService ImageService, authService AuthService) *Routers {
	return &Routers{
		log:          log,
		tracker:      tracker,
		env:          env,
		AlbumService: albumService,
		ImageService: imageService,
		AuthService:  authService,
	}
}

// Health godoc
// @Summary Проверка живости сервиса
// @Tags service
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (r *Routers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Login godoc
// @Summary Вход администратора
// @Description Проверяет пароль администратора, устанавливает cookie-сессию и возвращает access-токен.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body request.LoginRequest true "Пароль администратора"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Router /auth/login [post]
func (r *Routers) Login(c echo.Context) error {
	const op = "http.routers.Login"

	log := mw.Logger(c, r.log).With(slog.String("op", op))

	var req request.LoginRequest

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	token, err := r.AuthService.Login(c.Request().Context(), req.Password)
	if err != nil {
		if errors.Is(err, authsvc.ErrInvalidCredentials) {
			// Причина отказа наружу не уходит
			return c.JSON(http.StatusUnauthorized, response.ErrUnauthorized)
		}

		return r.respondError(c, op, err, http.StatusInternalServerError, "")
	}

	sess, err := session.Get(SessionName, c)
	if err != nil {
		return r.respondError(c, op, err, http.StatusInternalServerError, "")
	}

	sess.Values["admin"] = true
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return r.respondError(c, op, err, http.StatusInternalServerError, "")
	}

	log.Info("admin session established")

	return c.JSON(http.StatusOK, response.SuccessResponse(map[string]string{
		"access_token": token,
	}))
}

// Logout godoc
// @Summary Выход администратора
// @Tags auth
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Router /auth/logout [post]
func (r *Routers) Logout(c echo.Context) error {
	const op = "http.routers.Logout"

	log := mw.Logger(c, r.log).With(slog.String("op", op))

	sess, err := session.Get(SessionName, c)
	if err != nil {
		return r.respondError(c, op, err, http.StatusInternalServerError, "")
	}

	sess.Values = map[interface{}]interface{}{}
	sess.Options.MaxAge = -1

	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return r.respondError(c, op, err, http.StatusInternalServerError, "")
	}

	log.Info("admin session cleared")

	return c.JSON(http.StatusOK, response.Response{Status: "success"})
}

// ListAlbums godoc
// @Summary Список альбомов
// @Description Транзитом возвращает список альбомов backend-а, опционально только опубликованные.
// @Tags albums
// @Produce json
// @Param published query bool false "Фильтр по публикации"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} response.ErrorResponse
// @Router /albums [get]
func (r *Routers) ListAlbums(c echo.Context) error {
	const op = "http.routers.ListAlbums"

	var published *bool

	if raw := c.QueryParam("published"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return r.respondError(c, op, err, http.StatusBadRequest, "Invalid published filter")
		}
		published = &v
	}

	resp, err := r.AlbumService.ListAlbums(c.Request().Context(), published)
	if err != nil {
		return r.respondError(c, op, err, http.StatusInternalServerError, "")
	}

	return r.forwardBackend(c, resp, http.StatusOK)
}

// CreateAlbum godoc
// @Summary Создать альбом
// @Tags albums
// @Accept json
// @Produce json
// @Param request body dto.CreateAlbumRequest true "Данные альбома"
// @Success 201 {object} models.Album
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /albums [post]
func (r *Routers) CreateAlbum(c echo.Context) error {
	const op = "http.routers.CreateAlbum"

	body, req, err := bindRaw[dto.CreateAlbumRequest](c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(req); err != nil {
		return r.respondError(c, op, err, http.StatusBadRequest, "Album name is required")
	}

	resp, err := r.AlbumService.CreateAlbum(c.Request().Context(), body)
	if err != nil {
		return r.respondError(c, op, err, http.StatusInternalServerError, "")
	}

	return r.forwardBackend(c, resp, http.StatusCreated)
}

// GetAlbum godoc
// @Summary Получить альбом с изображениями
// @Tags albums
// @Produce json
// @Param id path string true "Идентификатор альбома"
// @Success 200 {object} models.AlbumWithImages
// @Failure 404 {object} response.ErrorResponse "Album not found"
// @Router /albums/{id} [get]
func (r *Routers) GetAlbum(c echo.Context) error {
	const op = "http.routers.GetAlbum"

	id := c.Param("id")

	resp, err := r.AlbumService.GetAlbum(c.Request().Context(), id)
	if err != nil {
		return r.respondError(c, op, err, http.StatusInternalServerError, "")
	}

	// Любой неуспех backend-а здесь означает одно: альбома нет.
	// Форма ответа фиксирована независимо от фактического статуса.
	if !resp.OK() {
		mw.Logger(c, r.log).Warn("album not found",
			slog.String("op", op),
			slog.String("album_id", id),
			slog.Int("backend_status", resp.StatusCode),
		)

		return c.JSON(http.StatusNotFound, response.ErrAlbumNotFound)
	}

	return c.JSONBlob(http.StatusOK, resp.Body)
}

// UpdateAlbum godoc
// @Summary Обновить альбом
// @Tags albums
// @Accept json
// @Produce json
// @Param id path string true "Идентификатор альбома"
// @Param request body dto.UpdateAlbumRequest true "Изменяемые поля"
// @Success 200 {object} models.Album
// @Failure 401 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /albums/{id} [put]
func (r *Routers) UpdateAlbum(c echo.Context) error {
	const op = "http.routers.UpdateAlbum"

	body, _, err := bindRaw[dto.UpdateAlbumRequest](c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	resp, err := r.AlbumService.UpdateAlbum(c.Request().Context(), c.Param("id"), body)
	if err != nil {
		return r.respondError(c, op, err, http.StatusInternalServerError, "")
	}

	return r.forwardBackend(c, resp, http.StatusOK)
}

// DeleteAlbum godoc
// @Summary Удалить альбом
// @Tags albums
// @Produce json
// @Param id path string true "Идентификатор альбома"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /albums/{id} [delete]
func (r *Routers) DeleteAlbum(c echo.Context) error {
	const op = "http.routers.DeleteAlbum"

	resp, err := r.AlbumService.DeleteAlbum(c.Request().Context(), c.Param("id"))
	if err != nil {
		return r.respondError(c, op, err, http.StatusInternalServerError, "")
	}

	return r.forwardBackend(c, resp, http.StatusOK)
}

// AddAlbumImages godoc
// @Summary Добавить изображения в альбом
// @Description Позиция -1 добавляет изображения в конец.
// @Tags albums
// @Accept json
// @Produce json
// @Param id path string true "Идентификатор альбома"
// @Param request body dto.AddImagesRequest true "Изображения и позиция"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /albums/{id}/images [post]
func (r *Routers) AddAlbumImages(c echo.Context) error {
	const op = "http.routers.AddAlbumImages"

	body, req, err := bindRaw[dto.AddImagesRequest](c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(req); err != nil {
		return r.respondError(c, op, err, http.StatusBadRequest, "image_ids is required")
	}

	resp, err := r.AlbumService.AddAlbumImages(c.Request().Context(), c.Param("id"), body)
	if err != nil {
		return r.respondError(c, op, err, http.StatusInternalServerError, "")
	}

	return r.forwardBackend(c, resp, http.StatusOK)
}

// RemoveAlbumImage godoc
// @Summary Убрать изображение из альбома
// @Tags albums
// @Produce json
// @Param id path string true "Идентификатор альбома"
// @Param imageId path string true "Идентификатор изображения"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /albums/{id}/images/{imageId} [delete]
func (r *Routers) RemoveAlbumImage(c echo.Context) error {
	const op = "http.routers.RemoveAlbumImage"

	resp, err := r.AlbumService.RemoveAlbumImage(c.Request().Context(), c.Param("id"), c.Param("imageId"))
	if err != nil {
		return r.respondError(c, op, err, http.StatusInternalServerError, "")
	}

	return r.forwardBackend(c, resp, http.StatusOK)
}

// ReorderAlbumImages godoc
// @Summary Переупорядочить изображения альбома
// @Description Принимает полный упорядоченный список идентификаторов; совпадение набора с содержимым альбома проверяет backend.
// @Tags albums
// @Accept json
// @Produce json
// @Param id path string true "Идентификатор альбома"
// @Param request body dto.ReorderImagesRequest true "Новый порядок"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /albums/{id}/reorder [put]
func (r *Routers) ReorderAlbumImages(c echo.Context) error {
	const op = "http.routers.ReorderAlbumImages"

	body, req, err := bindRaw[dto.ReorderImagesRequest](c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	if err := c.Validate(req); err != nil {
		return r.respondError(c, op, err, http.StatusBadRequest, "image_ids is required")
	}

	resp, err := r.AlbumService.ReorderAlbumImages(c.Request().Context(), c.Param("id"), body)
	if err != nil {
		return r.respondError(c, op, err, http.StatusInternalServerError, "")
	}

	return r.forwardBackend(c, resp, http.StatusOK)
}

// UploadImage godoc
// @Summary Загрузка изображения
// @Description Принимает multipart-файл, проверяет размер (до 50 MiB включительно) и MIME-тип, затем передает активному источнику изображений.
// @Tags images
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Файл изображения"
// @Success 200 {object} models.Image
// @Failure 400 {object} response.ErrorResponse "No file provided / File too large / Invalid file type"
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /upload [post]
func (r *Routers) UploadImage(c echo.Context) error {
	const op = "http.routers.UploadImage"

	log := mw.Logger(c, r.log).With(slog.String("op", op))

	file, err := c.FormFile("file")
	if err != nil {
		log.Warn("upload without file part", sl.Err(err))
		file = nil
	}

	raw, err := r.ImageService.UploadImage(c.Request().Context(), file)
	if err != nil {
		switch {
		case errors.Is(err, imagesvc.ErrNoFile):
			return r.respondError(c, op, err, http.StatusBadRequest, "No file provided")
		case errors.Is(err, imagesvc.ErrFileTooLarge):
			return r.respondError(c, op, err, http.StatusBadRequest, "File too large")
		case errors.Is(err, imagesvc.ErrInvalidFileType):
			return r.respondError(c, op, err, http.StatusBadRequest, "Invalid file type")
		default:
			return r.respondError(c, op, err, http.StatusInternalServerError, "")
		}
	}

	return c.JSONBlob(http.StatusOK, raw)
}

// ListImages godoc
// @Summary Список изображений
// @Description Форма ответа стабильна независимо от активного источника изображений.
// @Tags images
// @Produce json
// @Success 200 {object} models.ImageList
// @Failure 500 {object} response.ErrorResponse
// @Router /images [get]
func (r *Routers) ListImages(c echo.Context) error {
	const op = "http.routers.ListImages"

	images, err := r.ImageService.ListImages(c.Request().Context())
	if err != nil {
		return r.respondError(c, op, err, http.StatusInternalServerError, "")
	}

	if images == nil {
		images = []models.Image{}
	}

	return c.JSON(http.StatusOK, models.ImageList{Images: images})
}

// DeleteImage godoc
// @Summary Удалить изображение
// @Tags images
// @Produce json
// @Param id path string true "Идентификатор изображения"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Security ApiKeyAuth
// @Router /images/{id} [delete]
func (r *Routers) DeleteImage(c echo.Context) error {
	const op = "http.routers.DeleteImage"

	id := c.Param("id")

	exists, err := r.ImageService.ImageExists(c.Request().Context(), id)
	if err != nil {
		return r.respondError(c, op, err, http.StatusInternalServerError, "")
	}

	if !exists {
		return c.JSON(http.StatusNotFound, response.ErrImageNotFound)
	}

	if err := r.ImageService.DeleteImage(c.Request().Context(), id); err != nil {
		return r.respondError(c, op, err, http.StatusInternalServerError, "")
	}

	return c.JSON(http.StatusOK, response.Response{Status: "success"})
}

// forwardBackend транслирует ответ backend-а клиенту. Успех получает
// локальный статус (200 или 201), неуспех уходит как есть: backend —
// доверенный peer, его сообщения не маскируются.
func (r *Routers) forwardBackend(c echo.Context, resp *backend.Response, successStatus int) error {
	if resp.OK() {
		return c.JSONBlob(successStatus, resp.Body)
	}

	if len(resp.Body) > 0 && json.Valid(resp.Body) {
		return c.JSONBlob(resp.StatusCode, resp.Body)
	}

	// Тело не распарсилось — отдаем общий текст с тем же статусом
	return c.JSON(resp.StatusCode, response.ErrorResponse{Error: "Backend request failed"})
}

// bindRaw читает тело целиком, проверяет форму через DTO и возвращает
// исходные байты: дальше к backend-у уходит ровно то, что прислал клиент.
func bindRaw[T any](c echo.Context) ([]byte, T, error) {
	var req T

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, req, err
	}

	if err := json.Unmarshal(body, &req); err != nil {
		return nil, req, err
	}

	return body, req, nil
}
