package httpapp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	mw "photofolio/internal/middleware"
	"photofolio/internal/transport/http/dto/response"

	httprouters "photofolio/internal/transport/http"

	"github.com/arl/statsviz"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

type Server struct {
	m       *http.ServeMux
	log     *slog.Logger
	e       *echo.Echo
	routers *httprouters.Routers
	host    string
	port    string
}

func New(log *slog.Logger, sessionSecret string, host, port string, routers *httprouters.Routers) *Server {
	e := echo.New()
	e.HideBanner = true

	validate := validator.New()
	e.Validator = &CustomValidator{validator: validate}

	e.Use(session.Middleware(sessions.NewCookieStore([]byte(sessionSecret))))

	e.Use(middleware.CORS())
	e.Use(middleware.Recover())

	e.Use(mw.RequestContext(log))
	e.Use(mw.PrometheusMetrics)

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogRemoteIP: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			mw.Logger(c, log).Info("request",
				slog.String("URI", v.URI),
				slog.Int("status", v.Status),
				slog.String("remote ip", v.RemoteIP),
			)

			return nil
		},
	}))

	mux := http.NewServeMux()
	err := statsviz.Register(mux)
	if err != nil {
		log.Info("Statsviz start with error", slog.Any("error:", err.Error()))
	}

	return &Server{
		m:       mux,
		log:     log,
		e:       e,
		routers: routers,
		host:    host,
		port:    port,
	}
}

func (s *Server) MustRun() {
	const op = "http.Server.MustRun"

	s.log.Info(op, slog.String("Start", "server"))

	if err := s.Start(); err != nil {
		panic(err)
	}
}

func (s *Server) Start() error {
	const op = "http.Server.Start"

	if err := s.e.Start(fmt.Sprintf(":%s", s.port)); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("%s server stopped: %w", op, err)
	}

	return nil
}

func (s *Server) Stop() error {
	const op = "http.Server.Stop"

	optCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	s.log.Info("stopping", op, "http server")

	if err := s.e.Shutdown(optCtx); err != nil {
		return fmt.Errorf("%s could not shutdown server gracefuly: %w", op, err)
	}

	return nil
}

// requireSession пускает дальше только запросы с активной админской сессией.
// Отказ всегда один и тот же: 401 {"error":"Unauthorized"}.
func (s *Server) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, err := session.Get(httprouters.SessionName, c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, response.ErrUnauthorized)
		}

		admin, ok := sess.Values["admin"].(bool)
		if !ok || !admin {
			s.log.Warn("unauthenticated admin request",
				slog.String("method", c.Request().Method),
				slog.String("path", c.Path()),
				slog.String("request_id", mw.RequestID(c)),
			)

			return c.JSON(http.StatusUnauthorized, response.ErrUnauthorized)
		}

		return next(c)
	}
}

func (s *Server) BuildRouters() {
	s.e.GET("/health", s.routers.Health)
	s.e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	debug := s.e.Group("/debug")
	{
		debug.GET("/statsviz/", echo.WrapHandler(s.m))
		debug.GET("/statsviz/*", echo.WrapHandler(s.m))
	}

	swagger := s.e.Group("/swag")
	{
		swagger.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	auth := s.e.Group("/auth")
	{
		auth.POST("/login", s.routers.Login)
		auth.POST("/logout", s.routers.Logout, s.requireSession)
	}

	albums := s.e.Group("/albums")
	{
		albums.GET("", s.routers.ListAlbums)
		albums.GET("/:id", s.routers.GetAlbum)

		albums.POST("", s.routers.CreateAlbum, s.requireSession)
		albums.PUT("/:id", s.routers.UpdateAlbum, s.requireSession)
		albums.DELETE("/:id", s.routers.DeleteAlbum, s.requireSession)
		albums.POST("/:id/images", s.routers.AddAlbumImages, s.requireSession)
		albums.DELETE("/:id/images/:imageId", s.routers.RemoveAlbumImage, s.requireSession)
		albums.PUT("/:id/reorder", s.routers.ReorderAlbumImages, s.requireSession)
	}

	images := s.e.Group("/images")
	{
		images.GET("", s.routers.ListImages)
		images.DELETE("/:id", s.routers.DeleteImage, s.requireSession)
	}

	s.e.POST("/upload", s.routers.UploadImage, s.requireSession)
}
