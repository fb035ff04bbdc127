package api

import (
	"net/http"

	"quantdash/internal/models"
)

type UpdateSettingsRequest struct {
	Timezone               *string   `json:"timezone"`
	Theme                  *string   `json:"theme" validate:"omitempty,oneof=dark light"`
	Language               *string   `json:"language"`
	Currency               *string   `json:"currency"`
	DateFormat             *string   `json:"date_format"`
	DefaultAssets          *[]string `json:"default_assets"`
	NotifyBacktestComplete *bool     `json:"notification_backtest_complete"`
	NotifyMarketAlerts     *bool     `json:"notification_market_alerts"`
	NotifySystemUpdates    *bool     `json:"notification_system_updates"`
	NotifyWeeklyReports    *bool     `json:"notification_weekly_reports"`
}

// HandleGetSettings возвращает настройки пользователя. ID в пути обязан
// совпадать с пользователем сессии, чужие настройки недоступны
func (h *Handler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessionFrom(r)

	if pathID(r) != session.ID {
		h.respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	settings, err := h.storage.GetUserSettings(r.Context(), session.ID)
	if err != nil {
		h.respondStorageError(w, err, "User not found")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{"settings": settings})
}

// HandleUpdateSettings применяет частичное обновление настроек
func (h *Handler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessionFrom(r)

	if pathID(r) != session.ID {
		h.respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req UpdateSettingsRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	err := h.storage.UpdateUserSettings(r.Context(), session.ID, models.UserSettingsUpdate{
		Timezone:               req.Timezone,
		Theme:                  req.Theme,
		Language:               req.Language,
		Currency:               req.Currency,
		DateFormat:             req.DateFormat,
		DefaultAssets:          req.DefaultAssets,
		NotifyBacktestComplete: req.NotifyBacktestComplete,
		NotifyMarketAlerts:     req.NotifyMarketAlerts,
		NotifySystemUpdates:    req.NotifySystemUpdates,
		NotifyWeeklyReports:    req.NotifyWeeklyReports,
	})
	if err != nil {
		h.respondStorageError(w, err, "User not found")
		return
	}

	settings, err := h.storage.GetUserSettings(r.Context(), session.ID)
	if err != nil {
		h.respondStorageError(w, err, "User not found")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{"settings": settings})
}
