package api

import (
	"errors"
	"net/http"

	"quantdash/internal/auth"
)

type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleSignUp регистрирует нового пользователя и сразу выдает сессию
func (h *Handler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.authService.SignUp(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			h.respondError(w, http.StatusBadRequest, "User already exists")
			return
		}

		h.logger.Error("Sign up failed", "email", req.Email, "error", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")

		return
	}

	if err := h.authService.IssueSession(w, user.ID); err != nil {
		h.logger.Error("Failed to issue session", "user_id", user.ID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")

		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{
		"user": map[string]any{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
		},
	})
}

// HandleSignIn проверяет учетные данные и выдает пару cookies сессии
func (h *Handler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.authService.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.respondError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}

		h.logger.Error("Sign in failed", "email", req.Email, "error", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")

		return
	}

	if err := h.authService.IssueSession(w, user.ID); err != nil {
		h.logger.Error("Failed to issue session", "user_id", user.ID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")

		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{
		"user": map[string]any{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
		},
	})
}

// HandleSignOut сбрасывает cookies сессии. Маршрут публичный: выход
// должен работать и с уже недействительной сессией
func (h *Handler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	h.authService.ClearSession(w)
	h.respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleMe возвращает текущего пользователя сессии
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	session, ok := h.sessionFrom(r)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{"user": session})
}
