package api

import (
	"net/http"
	"strconv"
	"time"

	"quantdash/internal/models"
	"quantdash/internal/storage"
)

type CreateTradeRequest struct {
	BacktestID *int     `json:"backtest_id"`
	StrategyID *int     `json:"strategy_id"`
	Symbol     string   `json:"symbol" validate:"required"`
	Action     string   `json:"action" validate:"required,oneof=BUY SELL"`
	Quantity   float64  `json:"quantity" validate:"required,gt=0"`
	Price      float64  `json:"price" validate:"required,gt=0"`
	Timestamp  string   `json:"timestamp"`
	PnL        *float64 `json:"pnl"`
	Commission *float64 `json:"commission"`
	IsLive     bool     `json:"is_live"`
}

func tradeFilterFromQuery(r *http.Request) storage.TradeFilter {
	q := r.URL.Query()

	filter := storage.TradeFilter{Symbol: q.Get("symbol")}
	filter.BacktestID, _ = strconv.Atoi(q.Get("backtest_id"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))
	filter.Offset, _ = strconv.Atoi(q.Get("offset"))

	if raw := q.Get("is_live"); raw != "" {
		isLive := raw == "true" || raw == "1"
		filter.IsLive = &isLive
	}

	return filter
}

// HandleGetTrades возвращает сделки пользователя с фильтрами из query
func (h *Handler) HandleGetTrades(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessionFrom(r)

	trades, err := h.storage.GetTrades(r.Context(), session.ID, tradeFilterFromQuery(r))
	if err != nil {
		h.logger.Error("Failed to get trades", "user_id", session.ID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")

		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{"trades": trades})
}

// HandleCreateTrade записывает сделку вручную
func (h *Handler) HandleCreateTrade(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessionFrom(r)

	var req CreateTradeRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	timestamp := time.Now().UTC()
	if req.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid field: timestamp")
			return
		}

		timestamp = parsed
	}

	// Ссылки на бэктест и стратегию должны принадлежать пользователю
	if req.BacktestID != nil {
		if _, err := h.storage.GetBacktest(r.Context(), session.ID, *req.BacktestID); err != nil {
			h.respondStorageError(w, err, "Backtest not found")
			return
		}
	}
	if req.StrategyID != nil {
		if _, err := h.storage.GetStrategy(r.Context(), session.ID, *req.StrategyID); err != nil {
			h.respondStorageError(w, err, "Strategy not found")
			return
		}
	}

	id, err := h.storage.CreateTrade(r.Context(), models.Trade{
		UserID:     session.ID,
		BacktestID: req.BacktestID,
		StrategyID: req.StrategyID,
		Symbol:     req.Symbol,
		Action:     req.Action,
		Quantity:   req.Quantity,
		Price:      req.Price,
		Timestamp:  timestamp,
		PnL:        req.PnL,
		Commission: req.Commission,
		IsLive:     req.IsLive,
	})
	if err != nil {
		h.logger.Error("Failed to create trade", "user_id", session.ID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")

		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]any{"id": id})
}

// HandleTradeStats возвращает агрегированную статистику по сделкам
func (h *Handler) HandleTradeStats(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessionFrom(r)

	stats, err := h.storage.GetTradeStats(r.Context(), session.ID, tradeFilterFromQuery(r))
	if err != nil {
		h.logger.Error("Failed to get trade stats", "user_id", session.ID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")

		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{"stats": stats})
}
