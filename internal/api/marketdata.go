package api

import (
	"net/http"
	"time"
)

// HandleGetMarketData возвращает свечи по символу за период.
// Query: symbol, startDate, endDate (YYYY-MM-DD) - все обязательные
func (h *Handler) HandleGetMarketData(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	symbol := q.Get("symbol")
	if symbol == "" {
		h.respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	startDate, err := time.Parse("2006-01-02", q.Get("startDate"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "startDate is required (YYYY-MM-DD)")
		return
	}

	endDate, err := time.Parse("2006-01-02", q.Get("endDate"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "endDate is required (YYYY-MM-DD)")
		return
	}

	data, err := h.storage.GetMarketData(r.Context(), symbol, startDate, endDate)
	if err != nil {
		h.logger.Error("Failed to get market data", "symbol", symbol, "error", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")

		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{"data": data})
}
