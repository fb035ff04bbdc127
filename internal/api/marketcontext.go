package api

import (
	"net/http"
	"strconv"
)

func contextLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return 20
	}

	return limit
}

// HandleGetNews возвращает новости. Query: symbol (подстрочный фильтр), limit
func (h *Handler) HandleGetNews(w http.ResponseWriter, r *http.Request) {
	news := h.market.News(r.URL.Query().Get("symbol"), contextLimit(r))

	h.respondJSON(w, http.StatusOK, map[string]any{"news": news})
}

// HandleGetSentiment возвращает посты с оценкой сентимента
func (h *Handler) HandleGetSentiment(w http.ResponseWriter, r *http.Request) {
	sentiment := h.market.Sentiment(r.URL.Query().Get("symbol"), contextLimit(r))

	h.respondJSON(w, http.StatusOK, map[string]any{"sentiment": sentiment})
}

// HandleRefreshMarketContext перечитывает данные из источника
func (h *Handler) HandleRefreshMarketContext(w http.ResponseWriter, r *http.Request) {
	if err := h.market.Refresh(r.Context()); err != nil {
		h.logger.Error("Failed to refresh market context", "error", err)
		h.respondError(w, http.StatusInternalServerError, "Internal server error")

		return
	}

	h.respondSuccess(w, "Market context refreshed", nil)
}
