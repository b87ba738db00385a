package http

import (
	"errors"
	"log/slog"
	"strconv"

	"photofolio/internal/backend"
	mw "photofolio/internal/middleware"
	"photofolio/internal/transport/http/dto/response"

	"github.com/labstack/echo/v4"
)

const unknownErrorMessage = "An unknown error occurred"

// respondError единственное место, где сбой превращается в HTTP-ответ:
// журналирование, метрика ошибки и маскирование выполняются здесь и только
// здесь. Внутренние помощники ответов не формируют.
//
// Правило раскрытия: 4xx считается безопасным для клиента, 5xx всегда
// маскируется в "Internal server error". Исключение — незаданный backend URL:
// это ошибка оператора, ее сообщение возвращается явно.
func (r *Routers) respondError(c echo.Context, op string, err error, status int, userMessage string) error {
	log := mw.Logger(c, r.log).With(slog.String("op", op))

	severity := "low"
	switch {
	case status >= 500:
		severity = "critical"
	case status >= 400:
		severity = "medium"
	}

	errText := unknownErrorMessage
	if err != nil {
		errText = err.Error()
	}

	msg := userMessage

	if status >= 500 {
		if errors.Is(err, backend.ErrNotConfigured) {
			msg = "Backend API not configured"
		} else {
			msg = "Internal server error"
		}
	} else if msg == "" {
		msg = errText
	}

	log.Error("request failed",
		slog.Int("status", status),
		slog.String("severity", severity),
		slog.String("error", errText),
	)

	r.tracker.TrackError(op, err)
	r.tracker.TrackCount("request_error", 1, map[string]string{
		"operation": op,
		"status":    strconv.Itoa(status),
	})

	resp := response.ErrorResponse{Error: msg}

	// Детали настоящей ошибки наружу выходят только вне production
	if r.env != "prod" && status >= 500 && err != nil && !errors.Is(err, backend.ErrNotConfigured) {
		resp.Details = errText
	}

	return c.JSON(status, resp)
}
