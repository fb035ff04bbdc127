package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"quantdash/internal/auth"
	"quantdash/internal/backtest"
	"quantdash/internal/marketcontext"
	"quantdash/internal/models"
	"quantdash/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// Handler обрабатывает API запросы
type Handler struct {
	storage     *storage.Storage
	authService *auth.Service
	runner      *backtest.Runner
	market      *marketcontext.Provider
	hub         *Hub
	validate    *validator.Validate
	logger      *slog.Logger
}

func New(
	st *storage.Storage,
	authService *auth.Service,
	runner *backtest.Runner,
	market *marketcontext.Provider,
	hub *Hub,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		storage:     st,
		authService: authService,
		runner:      runner,
		market:      market,
		hub:         hub,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      logger,
	}
}

// Helper функции для JSON ответов

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func (h *Handler) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) respondError(w http.ResponseWriter, statusCode int, message string) {
	h.respondJSON(w, statusCode, ErrorResponse{Error: message})
}

func (h *Handler) respondSuccess(w http.ResponseWriter, message string, data any) {
	h.respondJSON(w, http.StatusOK, SuccessResponse{
		Message: message,
		Data:    data,
	})
}

// respondStorageError переводит ошибки хранилища в HTTP статусы
func (h *Handler) respondStorageError(w http.ResponseWriter, err error, notFoundMessage string) {
	if errors.Is(err, storage.ErrNotFound) {
		h.respondError(w, http.StatusNotFound, notFoundMessage)
		return
	}

	h.logger.Error("Storage error", "error", err)
	h.respondError(w, http.StatusInternalServerError, "Internal server error")
}

// decodeAndValidate читает JSON тело и проверяет его валидатором.
// При ошибке сам пишет 400 и возвращает false
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			h.respondError(w, http.StatusBadRequest, "Request body is required")
			return false
		}

		h.respondError(w, http.StatusBadRequest, "Invalid request body")

		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			field := validationErrors[0]
			h.respondError(w, http.StatusBadRequest, "Invalid field: "+field.Field())

			return false
		}

		h.respondError(w, http.StatusBadRequest, "Invalid request body")

		return false
	}

	return true
}

// sessionFrom достает сессию из контекста. Middleware гарантирует ее
// наличие на защищенных маршрутах
func (h *Handler) sessionFrom(r *http.Request) (*models.Session, bool) {
	return auth.SessionFromContext(r.Context())
}

// pathID парсит числовой {id} из пути. Роутер уже проверил формат
func pathID(r *http.Request) int {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	return id
}
