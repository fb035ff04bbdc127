package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"quantdash/internal/models"
	"quantdash/internal/storage"
)

type RunBacktestRequest struct {
	StrategyID int             `json:"strategy_id" validate:"required"`
	Name       string          `json:"name" validate:"required"`
	Asset      string          `json:"asset" validate:"required"`
	StartDate  string          `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string          `json:"end_date" validate:"required,datetime=2006-01-02"`
	Parameters json.RawMessage `json:"parameters"`
}

// HandleGetBacktests возвращает бэктесты пользователя
func (h *Handler) HandleGetBacktests(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessionFrom(r)

	backtests, err := h.storage.GetBacktests(r.Context(), session.ID)
	if err != nil {
		h.logger.Error("Failed to get backtests", "user_id", session.ID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")

		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{"backtests": backtests})
}

// HandleGetBacktest возвращает один бэктест пользователя
func (h *Handler) HandleGetBacktest(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessionFrom(r)

	backtest, err := h.storage.GetBacktest(r.Context(), session.ID, pathID(r))
	if err != nil {
		h.respondStorageError(w, err, "Backtest not found")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{"backtest": backtest})
}

// HandleRunBacktest создает бэктест и запускает его в фоне. Ответ
// приходит сразу со статусом pending, за результатом клиент ходит
// отдельными запросами или получает его по WebSocket
func (h *Handler) HandleRunBacktest(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessionFrom(r)

	var req RunBacktestRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	startDate, _ := time.Parse("2006-01-02", req.StartDate)
	endDate, _ := time.Parse("2006-01-02", req.EndDate)

	if endDate.Before(startDate) {
		h.respondError(w, http.StatusBadRequest, "end_date must be after start_date")
		return
	}

	// Стратегия должна принадлежать пользователю
	if _, err := h.storage.GetStrategy(r.Context(), session.ID, req.StrategyID); err != nil {
		h.respondStorageError(w, err, "Strategy not found")
		return
	}

	backtest, err := h.storage.CreateBacktest(r.Context(), models.Backtest{
		UserID:     session.ID,
		StrategyID: req.StrategyID,
		Name:       req.Name,
		Asset:      req.Asset,
		StartDate:  startDate,
		EndDate:    endDate,
		Parameters: req.Parameters,
	})
	if err != nil {
		h.logger.Error("Failed to create backtest", "user_id", session.ID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")

		return
	}

	h.runner.Start(backtest)

	h.logger.Info("🚀 Backtest started",
		"user_id", session.ID,
		"backtest_id", backtest.ID,
		"asset", backtest.Asset)

	h.respondJSON(w, http.StatusCreated, map[string]any{"backtest": backtest})
}

// HandleDeleteBacktest удаляет бэктест пользователя
func (h *Handler) HandleDeleteBacktest(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessionFrom(r)

	if err := h.storage.DeleteBacktest(r.Context(), session.ID, pathID(r)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.respondError(w, http.StatusNotFound, "Backtest not found")
			return
		}

		h.logger.Error("Failed to delete backtest", "user_id", session.ID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")

		return
	}

	h.respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleBacktestResults возвращает бэктест вместе со сгенерированными сделками
func (h *Handler) HandleBacktestResults(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessionFrom(r)
	id := pathID(r)

	backtest, err := h.storage.GetBacktest(r.Context(), session.ID, id)
	if err != nil {
		h.respondStorageError(w, err, "Backtest not found")
		return
	}

	trades, err := h.storage.GetTrades(r.Context(), session.ID, storage.TradeFilter{BacktestID: id})
	if err != nil {
		h.logger.Error("Failed to get backtest trades", "backtest_id", id, "error", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")

		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{
		"backtest": backtest,
		"trades":   trades,
	})
}

// HandleBacktestSummary возвращает сводную статистику по бэктестам
func (h *Handler) HandleBacktestSummary(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessionFrom(r)

	summary, err := h.storage.GetBacktestSummary(r.Context(), session.ID)
	if err != nil {
		h.logger.Error("Failed to get backtest summary", "user_id", session.ID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")

		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{"summary": summary})
}
