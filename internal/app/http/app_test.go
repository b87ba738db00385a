package httpapp

import (
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"photofolio/internal/backend"
	"photofolio/internal/domain/models"
	"photofolio/internal/lib/logger/handlers/slogdiscard"
	"photofolio/internal/metrics"
	authsvc "photofolio/internal/services/auth_service"
	httprouters "photofolio/internal/transport/http"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const adminPassword = "s3cret-test-password"

type MockAlbumService struct {
	mock.Mock
}

func (m *MockAlbumService) ListAlbums(ctx context.Context, published *bool) (*backend.Response, error) {
	args := m.Called(ctx, published)
	return backendResp(args), args.Error(1)
}

func (m *MockAlbumService) CreateAlbum(ctx context.Context, body []byte) (*backend.Response, error) {
	args := m.Called(ctx, body)
	return backendResp(args), args.Error(1)
}

func (m *MockAlbumService) GetAlbum(ctx context.Context, id string) (*backend.Response, error) {
	args := m.Called(ctx, id)
	return backendResp(args), args.Error(1)
}

func (m *MockAlbumService) UpdateAlbum(ctx context.Context, id string, body []byte) (*backend.Response, error) {
	args := m.Called(ctx, id, body)
	return backendResp(args), args.Error(1)
}

func (m *MockAlbumService) DeleteAlbum(ctx context.Context, id string) (*backend.Response, error) {
	args := m.Called(ctx, id)
	return backendResp(args), args.Error(1)
}

func (m *MockAlbumService) AddAlbumImages(ctx context.Context, id string, body []byte) (*backend.Response, error) {
	args := m.Called(ctx, id, body)
	return backendResp(args), args.Error(1)
}

func (m *MockAlbumService) RemoveAlbumImage(ctx context.Context, id, imageID string) (*backend.Response, error) {
	args := m.Called(ctx, id, imageID)
	return backendResp(args), args.Error(1)
}

func (m *MockAlbumService) ReorderAlbumImages(ctx context.Context, id string, body []byte) (*backend.Response, error) {
	args := m.Called(ctx, id, body)
	return backendResp(args), args.Error(1)
}

func backendResp(args mock.Arguments) *backend.Response {
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*backend.Response)
}

type fakeImageService struct{}

func (fakeImageService) ListImages(ctx context.Context) ([]models.Image, error) { return nil, nil }

func (fakeImageService) UploadImage(ctx context.Context, file *multipart.FileHeader) (json.RawMessage, error) {
	return json.RawMessage(`{"id":"img1.jpg"}`), nil
}

func (fakeImageService) DeleteImage(ctx context.Context, id string) error { return nil }

func (fakeImageService) ImageExists(ctx context.Context, id string) (bool, error) { return true, nil }

func newTestServer(t *testing.T, albums *MockAlbumService) *Server {
	t.Helper()

	log := slogdiscard.NewDiscardLogger()

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)

	auth := authsvc.NewAuthService(log, string(hash), "test-token-secret", time.Minute)

	routers := httprouters.NewRouter(log, metrics.Noop{}, "dev", albums, fakeImageService{}, auth)

	s := New(log, "test-session-secret", "localhost", "0", routers)
	s.BuildRouters()

	return s
}

func doRequest(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, s *Server) []*http.Cookie {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"password":"`+adminPassword+`"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := doRequest(s, req)
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	return cookies
}

func TestAdminRoutesRequireSession(t *testing.T) {
	albums := new(MockAlbumService)
	s := newTestServer(t, albums)

	requests := []struct {
		method string
		target string
	}{
		{http.MethodPost, "/albums"},
		{http.MethodPut, "/albums/a1"},
		{http.MethodDelete, "/albums/a1"},
		{http.MethodPost, "/albums/a1/images"},
		{http.MethodDelete, "/albums/a1/images/i1"},
		{http.MethodPut, "/albums/a1/reorder"},
		{http.MethodPost, "/upload"},
		{http.MethodDelete, "/images/i1"},
	}

	for _, r := range requests {
		t.Run(r.method+" "+r.target, func(t *testing.T) {
			req := httptest.NewRequest(r.method, r.target, strings.NewReader(`{"name":"x"}`))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

			rec := doRequest(s, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
		})
	}

	albums.AssertNotCalled(t, "CreateAlbum", mock.Anything, mock.Anything)
	albums.AssertNotCalled(t, "DeleteAlbum", mock.Anything, mock.Anything)
}

func TestPublicRoutesSkipSession(t *testing.T) {
	albums := new(MockAlbumService)
	albums.On("ListAlbums", mock.Anything, mock.Anything).
		Return(&backend.Response{StatusCode: http.StatusOK, Body: []byte(`{"albums":[]}`)}, nil)

	s := newTestServer(t, albums)

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/albums", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestLoginGrantsAccessToAdminRoutes(t *testing.T) {
	name := gofakeit.ProductName()
	body := fmt.Sprintf(`{"name":%q,"tags":["travel"]}`, name)

	albums := new(MockAlbumService)
	albums.On("CreateAlbum", mock.Anything, []byte(body)).
		Return(&backend.Response{StatusCode: http.StatusOK, Body: []byte(`{"id":"a1","name":"Trip"}`)}, nil)

	s := newTestServer(t, albums)

	cookies := login(t, s)

	req := httptest.NewRequest(http.MethodPost, "/albums", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := doRequest(s, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":"a1","name":"Trip"}`, rec.Body.String())
	albums.AssertExpectations(t)
}

func TestLoginReturnsAccessToken(t *testing.T) {
	s := newTestServer(t, new(MockAlbumService))

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"password":"`+adminPassword+`"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := doRequest(s, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status string            `json:"status"`
		Data   map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "success", resp.Status)
	assert.NotEmpty(t, resp.Data["access_token"])
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	s := newTestServer(t, new(MockAlbumService))

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"password":"wrong"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := doRequest(s, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
	assert.Empty(t, rec.Result().Cookies())
}

func TestLogoutClearsSession(t *testing.T) {
	s := newTestServer(t, new(MockAlbumService))

	cookies := login(t, s)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := doRequest(s, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"success"}`, rec.Body.String())

	var expired bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == httprouters.SessionName && c.MaxAge < 0 {
			expired = true
		}
	}
	assert.True(t, expired, "logout should expire the session cookie")
}

func TestRequestIDEchoedOnResponses(t *testing.T) {
	albums := new(MockAlbumService)
	albums.On("ListAlbums", mock.Anything, mock.Anything).
		Return(&backend.Response{StatusCode: http.StatusOK, Body: []byte(`{"albums":[]}`)}, nil)

	s := newTestServer(t, albums)

	req := httptest.NewRequest(http.MethodGet, "/albums", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-42")

	rec := doRequest(s, req)

	assert.Equal(t, "req-42", rec.Header().Get(echo.HeaderXRequestID))

	rec = doRequest(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}
