package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"quantdash/internal/auth"
)

// Префиксы страниц, требующих входа
var protectedPrefixes = []string{
	"/dashboard", "/strategies", "/history", "/analytics", "/settings", "/market-context",
}

// Страницы входа и регистрации
var authPages = []string{"/login", "/signup", "/forgot-password"}

// RequireSession пускает дальше только авторизованные запросы и кладет
// сессию в контекст. Это авторитетная проверка: пользователь каждый раз
// перечитывается из базы
func RequireSession(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := authService.SessionFromRequest(r)
			if session == nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "Not authenticated"})

				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), session)))
		})
	}
}

// PageGuard редиректит неавторизованных со страниц дашборда на /login,
// а авторизованных со страниц входа на /dashboard. Смотрит только на
// наличие cookie: это ускорение навигации, подделанная cookie все равно
// упрется в RequireSession на API
func PageGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		hasCookie := auth.HasSessionCookie(r)

		for _, prefix := range protectedPrefixes {
			if strings.HasPrefix(path, prefix) && !hasCookie {
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}
		}

		for _, page := range authPages {
			if path == page && hasCookie {
				http.Redirect(w, r, "/dashboard", http.StatusFound)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}
