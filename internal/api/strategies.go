package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"quantdash/internal/models"
	"quantdash/internal/storage"
)

type CreateStrategyRequest struct {
	Name        string          `json:"name" validate:"required"`
	Type        string          `json:"type" validate:"required"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
	Status      string          `json:"status" validate:"omitempty,oneof=draft active paused archived"`
}

type UpdateStrategyRequest struct {
	Name        *string         `json:"name"`
	Type        *string         `json:"type"`
	Description *string         `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
	Status      *string         `json:"status" validate:"omitempty,oneof=draft active paused archived"`
}

// HandleGetStrategies возвращает все стратегии пользователя
func (h *Handler) HandleGetStrategies(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessionFrom(r)

	strategies, err := h.storage.GetStrategies(r.Context(), session.ID)
	if err != nil {
		h.logger.Error("Failed to get strategies", "user_id", session.ID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")

		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{"strategies": strategies})
}

// HandleGetStrategy возвращает одну стратегию пользователя
func (h *Handler) HandleGetStrategy(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessionFrom(r)

	strategy, err := h.storage.GetStrategy(r.Context(), session.ID, pathID(r))
	if err != nil {
		h.respondStorageError(w, err, "Strategy not found")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{"strategy": strategy})
}

// HandleCreateStrategy создает новую стратегию. Владелец всегда берется
// из сессии, а не из тела запроса
func (h *Handler) HandleCreateStrategy(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessionFrom(r)

	var req CreateStrategyRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	strategy, err := h.storage.CreateStrategy(r.Context(), models.Strategy{
		UserID:      session.ID,
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
		Parameters:  req.Parameters,
		Status:      req.Status,
	})
	if err != nil {
		h.logger.Error("Failed to create strategy", "user_id", session.ID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")

		return
	}

	h.logger.Info("✅ Strategy created",
		"user_id", session.ID,
		"strategy_id", strategy.ID,
		"name", strategy.Name)

	h.respondJSON(w, http.StatusCreated, map[string]any{"strategy": strategy})
}

// HandleUpdateStrategy применяет частичное обновление стратегии
func (h *Handler) HandleUpdateStrategy(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessionFrom(r)

	var req UpdateStrategyRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	strategy, err := h.storage.UpdateStrategy(r.Context(), session.ID, pathID(r), models.StrategyUpdate{
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
		Parameters:  req.Parameters,
		Status:      req.Status,
	})
	if err != nil {
		h.respondStorageError(w, err, "Strategy not found")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{"strategy": strategy})
}

// HandleDeleteStrategy удаляет стратегию пользователя
func (h *Handler) HandleDeleteStrategy(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessionFrom(r)

	if err := h.storage.DeleteStrategy(r.Context(), session.ID, pathID(r)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "Strategy not found")
			return
		}

		h.logger.Error("Failed to delete strategy", "user_id", session.ID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")

		return
	}

	h.respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
