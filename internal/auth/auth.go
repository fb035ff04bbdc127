package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"quantdash/internal/models"
	"quantdash/internal/storage"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserExists         = errors.New("user already exists")
)

// Service управляет регистрацией, входом и сессиями
type Service struct {
	storage       *storage.Storage
	cookieMaxAge  time.Duration
	secureCookies bool
	logger        *slog.Logger
}

// NewService создает новый auth сервис
func NewService(st *storage.Storage, cookieMaxAge time.Duration, secureCookies bool, logger *slog.Logger) *Service {
	return &Service{
		storage:       st,
		cookieMaxAge:  cookieMaxAge,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

// HashPassword хеширует пароль
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// VerifyPassword проверяет пароль
func (s *Service) VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// NewSessionToken генерирует непрозрачный токен сессии (32 случайных байта, hex)
func NewSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	return hex.EncodeToString(buf), nil
}

// SignUp регистрирует нового пользователя с настройками по умолчанию
func (s *Service) SignUp(ctx context.Context, email, password, name string) (*models.User, error) {
	existing, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := s.storage.CreateUser(ctx, storage.NewUser{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Timezone:     "UTC",
		Theme:        "dark",
		Language:     "en",
		Currency:     "USD",
		DateFormat:   "MM/DD/YYYY",
	})
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateUser) {
			return nil, ErrUserExists
		}

		return nil, err
	}

	s.logger.Info("✅ User signed up",
		slog.Int("user_id", user.ID),
		slog.String("email", user.Email))

	return user, nil
}

// SignIn проверяет пару email+пароль. Все отказы возвращают одну и ту же
// ошибку, чтобы по ответу нельзя было перебирать зарегистрированные email
func (s *Service) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}

		return nil, err
	}

	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if err := s.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.storage.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("Failed to update last login", "user_id", user.ID, "error", err)
	}

	return user, nil
}

// GetSession восстанавливает сессию по паре cookies. Возвращает nil, если
// какая-то из cookies отсутствует, пользователь не найден или деактивирован
func (s *Service) GetSession(ctx context.Context, token string, userID int) *models.Session {
	if token == "" || userID == 0 {
		return nil
	}

	user, err := s.storage.GetUserByID(ctx, userID)
	if err != nil || !user.IsActive {
		return nil
	}

	return &models.Session{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
	}
}
