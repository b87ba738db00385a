package middleware

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	loggerContextKey    = "photofolio.request_logger"
	requestIDContextKey = "photofolio.request_id"
)

// RequestContext присваивает запросу корреляционный идентификатор (входящий
// X-Request-Id переиспользуется, иначе генерируется v4) и кладет в контекст
// логгер, уже связанный с полями запроса. Идентификатор возвращается тем же
// заголовком в каждом ответе, включая ошибки.
func RequestContext(log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqID := c.Request().Header.Get(echo.HeaderXRequestID)
			if reqID == "" {
				reqID = uuid.NewString()
			}

			c.Response().Header().Set(echo.HeaderXRequestID, reqID)
			c.Set(requestIDContextKey, reqID)

			c.Set(loggerContextKey, log.With(
				slog.String("request_id", reqID),
				slog.String("method", c.Request().Method),
				slog.String("path", c.Request().URL.Path),
				slog.String("remote_ip", c.RealIP()),
				slog.String("user_agent", c.Request().UserAgent()),
			))

			return next(c)
		}
	}
}

// Logger возвращает логгер запроса из контекста либо fallback, если
// middleware не отработал (например, в тестах отдельных обработчиков).
func Logger(c echo.Context, fallback *slog.Logger) *slog.Logger {
	if l, ok := c.Get(loggerContextKey).(*slog.Logger); ok {
		return l
	}

	return fallback
}

// RequestID возвращает корреляционный идентификатор текущего запроса.
func RequestID(c echo.Context) string {
	if id, ok := c.Get(requestIDContextKey).(string); ok {
		return id
	}

	return ""
}
