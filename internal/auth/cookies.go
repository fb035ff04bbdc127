package auth

import (
	"context"
	"net/http"
	"strconv"

	"quantdash/internal/models"
)

const (
	// SessionCookie хранит непрозрачный токен сессии
	SessionCookie = "session_token"
	// UserIDCookie хранит ID пользователя для быстрого доступа
	UserIDCookie = "user_id"
)

// IssueSession выдает пару cookies сессии
func (s *Service) IssueSession(w http.ResponseWriter, userID int) error {
	token, err := NewSessionToken()
	if err != nil {
		return err
	}

	maxAge := int(s.cookieMaxAge.Seconds())

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     UserIDCookie,
		Value:    strconv.Itoa(userID),
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

// ClearSession удаляет пару cookies сессии. Серверного состояния у сессии
// нет, так что это весь signout
func (s *Service) ClearSession(w http.ResponseWriter) {
	for _, name := range []string{SessionCookie, UserIDCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   s.secureCookies,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// SessionFromRequest читает пару cookies и восстанавливает сессию
func (s *Service) SessionFromRequest(r *http.Request) *models.Session {
	token, userID := readSessionCookies(r)

	return s.GetSession(r.Context(), token, userID)
}

func readSessionCookies(r *http.Request) (string, int) {
	tokenCookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return "", 0
	}

	idCookie, err := r.Cookie(UserIDCookie)
	if err != nil {
		return "", 0
	}

	userID, err := strconv.Atoi(idCookie.Value)
	if err != nil {
		return "", 0
	}

	return tokenCookie.Value, userID
}

// HasSessionCookie проверяет только наличие токена. Это оптимизация для
// редиректов на уровне страниц, а не граница безопасности: настоящая
// проверка всегда идет через GetSession и таблицу users
func HasSessionCookie(r *http.Request) bool {
	_, err := r.Cookie(SessionCookie)
	return err == nil
}

type contextKey string

const sessionKey contextKey = "session"

// WithSession кладет сессию в контекст запроса
func WithSession(ctx context.Context, session *models.Session) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}

// SessionFromContext извлекает сессию из контекста
func SessionFromContext(ctx context.Context) (*models.Session, bool) {
	session, ok := ctx.Value(sessionKey).(*models.Session)
	return session, ok
}
