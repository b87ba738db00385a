package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"photofolio/internal/lib/jwt"
	"photofolio/internal/lib/logger/sl"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService проверка пароля администратора и выпуск access-токена.
// Пароль хранится только bcrypt-хэшем в конфигурации.
type AuthService struct {
	log          *slog.Logger
	passwordHash string
	tokenSecret  string
	tokenTTL     time.Duration
}

func NewAuthService(log *slog.Logger, passwordHash, tokenSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		log:          log,
		passwordHash: passwordHash,
		tokenSecret:  tokenSecret,
		tokenTTL:     tokenTTL,
	}
}

// Login сверяет пароль с хэшем и возвращает токен. Причина отказа наружу
// не уходит — всегда ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, password string) (string, error) {
	const op = "auth_service.Login"

	log := s.log.With(slog.String("op", op))

	if s.passwordHash == "" {
		log.Warn("login rejected: admin password hash is not configured")
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
		log.Warn("login rejected: password mismatch")
		return "", ErrInvalidCredentials
	}

	token, err := jwt.NewAdminToken(s.tokenSecret, s.tokenTTL)
	if err != nil {
		log.Error("failed to issue admin token", sl.Err(err))
		return "", err
	}

	log.Info("admin logged in")

	return token, nil
}
