package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ErrNotConfigured возвращается, когда базовый URL backend-а не задан.
// Это штатное состояние конфигурации, а не сбой времени выполнения.
var ErrNotConfigured = errors.New("backend API not configured")

// Response сырой ответ backend-а: статус и тело без какой-либо
// интерпретации. Транзитная верность — единственный инвариант клиента.
type Response struct {
	StatusCode int
	Body       []byte
}

func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client HTTP-клиент внешнего backend API. Дедлайн запросов наследуется от
// транспорта по умолчанию, отмена приходит через context.
type Client struct {
	log     *slog.Logger
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(log *slog.Logger, baseURL, apiKey string) *Client {
	return &Client{
		log:     log,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{},
	}
}

// ListAlbums GET /albums с необязательным фильтром по публикации.
func (c *Client) ListAlbums(ctx context.Context, published *bool) (*Response, error) {
	query := url.Values{}
	if published != nil {
		query.Set("published", strconv.FormatBool(*published))
	}

	return c.do(ctx, http.MethodGet, "/albums", query, "", nil)
}

func (c *Client) CreateAlbum(ctx context.Context, body []byte) (*Response, error) {
	return c.doJSON(ctx, http.MethodPost, "/albums", body)
}

func (c *Client) GetAlbum(ctx context.Context, id string) (*Response, error) {
	return c.do(ctx, http.MethodGet, "/albums/"+url.PathEscape(id), nil, "", nil)
}

func (c *Client) UpdateAlbum(ctx context.Context, id string, body []byte) (*Response, error) {
	return c.doJSON(ctx, http.MethodPut, "/albums/"+url.PathEscape(id), body)
}

func (c *Client) DeleteAlbum(ctx context.Context, id string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, "/albums/"+url.PathEscape(id), nil, "", nil)
}

func (c *Client) AddAlbumImages(ctx context.Context, id string, body []byte) (*Response, error) {
	return c.doJSON(ctx, http.MethodPost, "/albums/"+url.PathEscape(id)+"/images", body)
}

func (c *Client) RemoveAlbumImage(ctx context.Context, id, imageID string) (*Response, error) {
	path := "/albums/" + url.PathEscape(id) + "/images/" + url.PathEscape(imageID)

	return c.do(ctx, http.MethodDelete, path, nil, "", nil)
}

func (c *Client) ReorderAlbumImages(ctx context.Context, id string, body []byte) (*Response, error) {
	return c.doJSON(ctx, http.MethodPut, "/albums/"+url.PathEscape(id)+"/reorder", body)
}

func (c *Client) ListImages(ctx context.Context) (*Response, error) {
	return c.do(ctx, http.MethodGet, "/images", nil, "", nil)
}

func (c *Client) GetImage(ctx context.Context, id string) (*Response, error) {
	return c.do(ctx, http.MethodGet, "/images/"+url.PathEscape(id), nil, "", nil)
}

func (c *Client) DeleteImage(ctx context.Context, id string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, "/images/"+url.PathEscape(id), nil, "", nil)
}

// UploadImage пересылает multipart-тело на endpoint загрузки backend-а
// как есть, вместе с исходным Content-Type (boundary внутри).
func (c *Client) UploadImage(ctx context.Context, contentType string, body io.Reader) (*Response, error) {
	return c.do(ctx, http.MethodPost, "/images/upload", nil, contentType, body)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body []byte) (*Response, error) {
	return c.do(ctx, method, path, nil, "application/json", bytes.NewReader(body))
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, contentType string, body io.Reader) (*Response, error) {
	const op = "backend.Client.do"

	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	// Серверный ключ нужен на всех мутирующих вызовах
	if c.apiKey != "" && method != http.MethodGet {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	c.log.Debug("backend request",
		slog.String("method", method),
		slog.String("url", u),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", op, err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       data,
	}, nil
}
