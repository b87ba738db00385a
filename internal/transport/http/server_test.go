package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"photofolio/internal/backend"
	"photofolio/internal/domain/models"
	"photofolio/internal/lib/logger/handlers/slogdiscard"
	"photofolio/internal/metrics"
	imagesvc "photofolio/internal/services/image_service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testValidator struct {
	v *validator.Validate
}

func (tv *testValidator) Validate(i interface{}) error {
	return tv.v.Struct(i)
}

type MockAlbumService struct {
	mock.Mock
}

func (m *MockAlbumService) ListAlbums(ctx context.Context, published *bool) (*backend.Response, error) {
	args := m.Called(ctx, published)
	return resp(args), args.Error(1)
}

func (m *MockAlbumService) CreateAlbum(ctx context.Context, body []byte) (*backend.Response, error) {
	args := m.Called(ctx, body)
	return resp(args), args.Error(1)
}

func (m *MockAlbumService) GetAlbum(ctx context.Context, id string) (*backend.Response, error) {
	args := m.Called(ctx, id)
	return resp(args), args.Error(1)
}

func (m *MockAlbumService) UpdateAlbum(ctx context.Context, id string, body []byte) (*backend.Response, error) {
	args := m.Called(ctx, id, body)
	return resp(args), args.Error(1)
}

func (m *MockAlbumService) DeleteAlbum(ctx context.Context, id string) (*backend.Response, error) {
	args := m.Called(ctx, id)
	return resp(args), args.Error(1)
}

func (m *MockAlbumService) AddAlbumImages(ctx context.Context, id string, body []byte) (*backend.Response, error) {
	args := m.Called(ctx, id, body)
	return resp(args), args.Error(1)
}

func (m *MockAlbumService) RemoveAlbumImage(ctx context.Context, id, imageID string) (*backend.Response, error) {
	args := m.Called(ctx, id, imageID)
	return resp(args), args.Error(1)
}

func (m *MockAlbumService) ReorderAlbumImages(ctx context.Context, id string, body []byte) (*backend.Response, error) {
	args := m.Called(ctx, id, body)
	return resp(args), args.Error(1)
}

func resp(args mock.Arguments) *backend.Response {
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*backend.Response)
}

type MockImageService struct {
	mock.Mock
}

func (m *MockImageService) ListImages(ctx context.Context) ([]models.Image, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Image), args.Error(1)
}

func (m *MockImageService) UploadImage(ctx context.Context, file *multipart.FileHeader) (json.RawMessage, error) {
	args := m.Called(ctx, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockImageService) DeleteImage(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockImageService) ImageExists(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func newTestRouter(env string, albums AlbumService, images ImageService) *Routers {
	return NewRouter(slogdiscard.NewDiscardLogger(), metrics.Noop{}, env, albums, images, nil)
}

func newTestContext(t *testing.T, method, target, body, contentType string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	e.Validator = &testValidator{v: validator.New()}

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}

	rec := httptest.NewRecorder()

	return e.NewContext(req, rec), rec
}

func TestRespondError_MasksInternalErrorsInProd(t *testing.T) {
	r := newTestRouter("prod", nil, nil)

	c, rec := newTestContext(t, http.MethodGet, "/albums", "", "")

	err := r.respondError(c, "http.routers.Test", errors.New("database connection string leaked"), http.StatusInternalServerError, "")
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "database")
}

func TestRespondError_DetailsOutsideProd(t *testing.T) {
	r := newTestRouter("dev", nil, nil)

	c, rec := newTestContext(t, http.MethodGet, "/albums", "", "")

	err := r.respondError(c, "http.routers.Test", errors.New("dial tcp: refused"), http.StatusInternalServerError, "")
	require.NoError(t, err)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, "Internal server error", body["error"])
	assert.Equal(t, "dial tcp: refused", body["details"])
}

func TestRespondError_BackendNotConfigured(t *testing.T) {
	r := newTestRouter("dev", nil, nil)

	c, rec := newTestContext(t, http.MethodGet, "/albums", "", "")

	err := r.respondError(c, "http.routers.Test", fmt.Errorf("op: %w", backend.ErrNotConfigured), http.StatusInternalServerError, "")
	require.NoError(t, err)

	assert.JSONEq(t, `{"error":"Backend API not configured"}`, rec.Body.String())
}

func TestRespondError_ClientErrorsAreExposed(t *testing.T) {
	r := newTestRouter("prod", nil, nil)

	c, rec := newTestContext(t, http.MethodPost, "/upload", "", "")

	err := r.respondError(c, "http.routers.Test", imagesvc.ErrFileTooLarge, http.StatusBadRequest, "File too large")
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"File too large"}`, rec.Body.String())
}

func TestGetAlbum_NotFoundOverride(t *testing.T) {
	albums := new(MockAlbumService)
	albums.On("GetAlbum", mock.Anything, "a1").
		Return(&backend.Response{StatusCode: http.StatusServiceUnavailable, Body: []byte(`{"error":"backend exploded"}`)}, nil)

	r := newTestRouter("dev", albums, nil)

	c, rec := newTestContext(t, http.MethodGet, "/albums/a1", "", "")
	c.SetPath("/albums/:id")
	c.SetParamNames("id")
	c.SetParamValues("a1")

	require.NoError(t, r.GetAlbum(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Album not found"}`, rec.Body.String())
}

func TestGetAlbum_PassesThroughAlbumBody(t *testing.T) {
	backendBody := `{"id":"a1","name":"Trip","images":[{"id":"i1","url":"/uploads/i1.jpg"}]}`

	albums := new(MockAlbumService)
	albums.On("GetAlbum", mock.Anything, "a1").
		Return(&backend.Response{StatusCode: http.StatusOK, Body: []byte(backendBody)}, nil)

	r := newTestRouter("dev", albums, nil)

	c, rec := newTestContext(t, http.MethodGet, "/albums/a1", "", "")
	c.SetPath("/albums/:id")
	c.SetParamNames("id")
	c.SetParamValues("a1")

	require.NoError(t, r.GetAlbum(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, backendBody, rec.Body.String())
}

func TestCreateAlbum_ForwardsRawBody(t *testing.T) {
	in := `{"name":"Trip","extra_field":42}`
	backendBody := `{"id":"a1","name":"Trip"}`

	albums := new(MockAlbumService)
	albums.On("CreateAlbum", mock.Anything, []byte(in)).
		Return(&backend.Response{StatusCode: http.StatusOK, Body: []byte(backendBody)}, nil)

	r := newTestRouter("dev", albums, nil)

	c, rec := newTestContext(t, http.MethodPost, "/albums", in, echo.MIMEApplicationJSON)

	require.NoError(t, r.CreateAlbum(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, backendBody, rec.Body.String())
	albums.AssertExpectations(t)
}

func TestCreateAlbum_RejectsMissingName(t *testing.T) {
	albums := new(MockAlbumService)

	r := newTestRouter("dev", albums, nil)

	c, rec := newTestContext(t, http.MethodPost, "/albums", `{"description":"no name"}`, echo.MIMEApplicationJSON)

	require.NoError(t, r.CreateAlbum(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	albums.AssertNotCalled(t, "CreateAlbum", mock.Anything, mock.Anything)
}

func TestForwardBackend_JSONErrorBodyPassesThrough(t *testing.T) {
	albums := new(MockAlbumService)
	albums.On("DeleteAlbum", mock.Anything, "gone").
		Return(&backend.Response{StatusCode: http.StatusConflict, Body: []byte(`{"error":"album already deleted"}`)}, nil)

	r := newTestRouter("dev", albums, nil)

	c, rec := newTestContext(t, http.MethodDelete, "/albums/gone", "", "")
	c.SetPath("/albums/:id")
	c.SetParamNames("id")
	c.SetParamValues("gone")

	require.NoError(t, r.DeleteAlbum(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"album already deleted"}`, rec.Body.String())
}

func TestForwardBackend_UnparseableErrorBody(t *testing.T) {
	albums := new(MockAlbumService)
	albums.On("DeleteAlbum", mock.Anything, "a1").
		Return(&backend.Response{StatusCode: http.StatusBadGateway, Body: []byte("upstream gone")}, nil)

	r := newTestRouter("dev", albums, nil)

	c, rec := newTestContext(t, http.MethodDelete, "/albums/a1", "", "")
	c.SetPath("/albums/:id")
	c.SetParamNames("id")
	c.SetParamValues("a1")

	require.NoError(t, r.DeleteAlbum(c))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"Backend request failed"}`, rec.Body.String())
}

func TestListAlbums_PublishedFilter(t *testing.T) {
	albums := new(MockAlbumService)
	albums.On("ListAlbums", mock.Anything, mock.MatchedBy(func(p *bool) bool {
		return p != nil && *p
	})).Return(&backend.Response{StatusCode: http.StatusOK, Body: []byte(`{"albums":[]}`)}, nil)

	r := newTestRouter("dev", albums, nil)

	c, rec := newTestContext(t, http.MethodGet, "/albums?published=true", "", "")

	require.NoError(t, r.ListAlbums(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	albums.AssertExpectations(t)
}

func TestListAlbums_InvalidPublishedValue(t *testing.T) {
	albums := new(MockAlbumService)

	r := newTestRouter("dev", albums, nil)

	c, rec := newTestContext(t, http.MethodGet, "/albums?published=banana", "", "")

	require.NoError(t, r.ListAlbums(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	albums.AssertNotCalled(t, "ListAlbums", mock.Anything, mock.Anything)
}

func TestUploadImage_ValidationErrors(t *testing.T) {
	cases := []struct {
		name    string
		svcErr  error
		message string
	}{
		{"no file", imagesvc.ErrNoFile, "No file provided"},
		{"too large", imagesvc.ErrFileTooLarge, "File too large"},
		{"bad type", imagesvc.ErrInvalidFileType, "Invalid file type"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			images := new(MockImageService)
			images.On("UploadImage", mock.Anything, mock.Anything).Return(nil, tc.svcErr)

			r := newTestRouter("dev", nil, images)

			c, rec := newTestContext(t, http.MethodPost, "/upload", "", "")

			require.NoError(t, r.UploadImage(c))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, fmt.Sprintf(`{"error":%q}`, tc.message), rec.Body.String())
		})
	}
}

func TestUploadImage_ReturnsSourceResultVerbatim(t *testing.T) {
	raw := `{"id":"img1.jpg","url":"/uploads/img1.jpg","custom_field":true}`

	images := new(MockImageService)
	images.On("UploadImage", mock.Anything, mock.Anything).Return(json.RawMessage(raw), nil)

	r := newTestRouter("dev", nil, images)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "img1.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("not really a jpeg"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	c, rec := newTestContext(t, http.MethodPost, "/upload", buf.String(), mw.FormDataContentType())

	require.NoError(t, r.UploadImage(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, raw, rec.Body.String())
}

func TestListImages_EmptyListIsNotNull(t *testing.T) {
	images := new(MockImageService)
	images.On("ListImages", mock.Anything).Return(nil, nil)

	r := newTestRouter("dev", nil, images)

	c, rec := newTestContext(t, http.MethodGet, "/images", "", "")

	require.NoError(t, r.ListImages(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"images":[]}`, rec.Body.String())
}

func TestDeleteImage_NotFound(t *testing.T) {
	images := new(MockImageService)
	images.On("ImageExists", mock.Anything, "ghost.jpg").Return(false, nil)

	r := newTestRouter("dev", nil, images)

	c, rec := newTestContext(t, http.MethodDelete, "/images/ghost.jpg", "", "")
	c.SetPath("/images/:id")
	c.SetParamNames("id")
	c.SetParamValues("ghost.jpg")

	require.NoError(t, r.DeleteImage(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Image not found"}`, rec.Body.String())
	images.AssertNotCalled(t, "DeleteImage", mock.Anything, mock.Anything)
}

func TestDeleteImage_Success(t *testing.T) {
	images := new(MockImageService)
	images.On("ImageExists", mock.Anything, "img1.jpg").Return(true, nil)
	images.On("DeleteImage", mock.Anything, "img1.jpg").Return(nil)

	r := newTestRouter("dev", nil, images)

	c, rec := newTestContext(t, http.MethodDelete, "/images/img1.jpg", "", "")
	c.SetPath("/images/:id")
	c.SetParamNames("id")
	c.SetParamValues("img1.jpg")

	require.NoError(t, r.DeleteImage(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	images.AssertExpectations(t)
}
