package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"quantdash/internal/models"
	"quantdash/internal/storage"
)

type CreateAlertRequest struct {
	Type    string          `json:"type" validate:"required"`
	Title   string          `json:"title" validate:"required"`
	Message string          `json:"message" validate:"required"`
	Data    json.RawMessage `json:"data"`
}

type AlertSubscriptionRequest struct {
	Symbol     string          `json:"symbol" validate:"required"`
	AlertType  string          `json:"alert_type" validate:"required,oneof=price_threshold sentiment_flip volume_spike"`
	Conditions json.RawMessage `json:"conditions" validate:"required"`
	IsActive   *bool           `json:"is_active"`
}

// HandleGetAlerts возвращает уведомления пользователя.
// Query: unread_only, types (через запятую), limit, offset
func (h *Handler) HandleGetAlerts(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessionFrom(r)
	q := r.URL.Query()

	filter := storage.AlertFilter{
		UnreadOnly: q.Get("unread_only") == "true",
	}
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))

	if types := q.Get("types"); types != "" {
		filter.Types = strings.Split(types, ",")
	}

	alerts, err := h.storage.GetAlerts(r.Context(), session.ID, filter)
	if err != nil {
		h.logger.Error("Failed to get alerts", "user_id", session.ID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")

		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{"alerts": alerts})
}

// HandleCreateAlert создает уведомление и рассылает его по WebSocket
func (h *Handler) HandleCreateAlert(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessionFrom(r)

	var req CreateAlertRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	alert := models.Alert{
		UserID:  session.ID,
		Type:    req.Type,
		Title:   req.Title,
		Message: req.Message,
		Data:    req.Data,
	}

	id, err := h.storage.CreateAlert(r.Context(), alert)
	if err != nil {
		h.logger.Error("Failed to create alert", "user_id", session.ID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")

		return
	}

	alert.ID = id
	h.hub.NotifyAlert(session.ID, alert)

	h.respondJSON(w, http.StatusCreated, map[string]any{"id": id})
}

// HandleMarkAlertRead помечает уведомление прочитанным
func (h *Handler) HandleMarkAlertRead(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessionFrom(r)

	if err := h.storage.MarkAlertRead(r.Context(), session.ID, pathID(r)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "Alert not found")
			return
		}

		h.logger.Error("Failed to mark alert read", "user_id", session.ID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")

		return
	}

	h.respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleMarkAllAlertsRead помечает все уведомления прочитанными
func (h *Handler) HandleMarkAllAlertsRead(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessionFrom(r)

	updated, err := h.storage.MarkAllAlertsRead(r.Context(), session.ID)
	if err != nil {
		h.logger.Error("Failed to mark alerts read", "user_id", session.ID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")

		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{"updated": updated})
}

// HandleGetAlertSubscriptions возвращает подписки пользователя
func (h *Handler) HandleGetAlertSubscriptions(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessionFrom(r)

	subs, err := h.storage.GetAlertSubscriptions(r.Context(), session.ID)
	if err != nil {
		h.logger.Error("Failed to get subscriptions", "user_id", session.ID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")

		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{"subscriptions": subs})
}

// HandleCreateAlertSubscription создает подписку на ценовое условие
func (h *Handler) HandleCreateAlertSubscription(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessionFrom(r)

	var req AlertSubscriptionRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	id, err := h.storage.CreateAlertSubscription(r.Context(), models.AlertSubscription{
		UserID:     session.ID,
		Symbol:     req.Symbol,
		AlertType:  req.AlertType,
		Conditions: req.Conditions,
		IsActive:   isActive,
	})
	if err != nil {
		h.logger.Error("Failed to create subscription", "user_id", session.ID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")

		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]any{"id": id})
}

// HandleUpdateAlertSubscription обновляет подписку
func (h *Handler) HandleUpdateAlertSubscription(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessionFrom(r)

	var req AlertSubscriptionRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	err := h.storage.UpdateAlertSubscription(r.Context(), session.ID, pathID(r), models.AlertSubscription{
		Symbol:     req.Symbol,
		AlertType:  req.AlertType,
		Conditions: req.Conditions,
		IsActive:   isActive,
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "Subscription not found")
			return
		}

		h.logger.Error("Failed to update subscription", "user_id", session.ID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")

		return
	}

	h.respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleDeleteAlertSubscription удаляет подписку
func (h *Handler) HandleDeleteAlertSubscription(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessionFrom(r)

	if err := h.storage.DeleteAlertSubscription(r.Context(), session.ID, pathID(r)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "Subscription not found")
			return
		}

		h.logger.Error("Failed to delete subscription", "user_id", session.ID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")

		return
	}

	h.respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
