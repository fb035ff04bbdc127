package api

import (
	"net/http"

	"quantdash/internal/middleware"

	"github.com/gorilla/mux"
)

// SetupRouter настраивает роутинг для API
func (h *Handler) SetupRouter(webDir string) *mux.Router {
	r := mux.NewRouter()

	// Применяем CORS и логирование ко всем маршрутам
	r.Use(middleware.CORS)
	r.Use(middleware.RequestLogger(h.logger))

	// Публичные маршруты (не требуют аутентификации)
	r.HandleFunc("/api/auth/signup", h.HandleSignUp).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/auth/signin", h.HandleSignIn).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/auth/signout", h.HandleSignOut).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/seed", h.HandleSeed).Methods("POST", "OPTIONS")
	r.HandleFunc("/health", h.HandleHealth).Methods("GET")

	// Защищенные маршруты (требуют аутентификации)
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.RequireSession(h.authService))

	// Auth
	api.HandleFunc("/auth/me", h.HandleMe).Methods("GET")

	// Strategies
	api.HandleFunc("/strategies", h.HandleGetStrategies).Methods("GET")
	api.HandleFunc("/strategies", h.HandleCreateStrategy).Methods("POST")
	api.HandleFunc("/strategies/{id:[0-9]+}", h.HandleGetStrategy).Methods("GET")
	api.HandleFunc("/strategies/{id:[0-9]+}", h.HandleUpdateStrategy).Methods("PUT")
	api.HandleFunc("/strategies/{id:[0-9]+}", h.HandleDeleteStrategy).Methods("DELETE")

	// Backtests
	api.HandleFunc("/backtests", h.HandleGetBacktests).Methods("GET")
	api.HandleFunc("/backtests", h.HandleRunBacktest).Methods("POST")
	api.HandleFunc("/backtests/summary", h.HandleBacktestSummary).Methods("GET")
	api.HandleFunc("/backtests/{id:[0-9]+}", h.HandleGetBacktest).Methods("GET")
	api.HandleFunc("/backtests/{id:[0-9]+}", h.HandleDeleteBacktest).Methods("DELETE")
	api.HandleFunc("/backtests/{id:[0-9]+}/results", h.HandleBacktestResults).Methods("GET")

	// Trades
	api.HandleFunc("/trades", h.HandleGetTrades).Methods("GET")
	api.HandleFunc("/trades", h.HandleCreateTrade).Methods("POST")
	api.HandleFunc("/trades/stats", h.HandleTradeStats).Methods("GET")

	// Alerts
	api.HandleFunc("/alerts", h.HandleGetAlerts).Methods("GET")
	api.HandleFunc("/alerts", h.HandleCreateAlert).Methods("POST")
	api.HandleFunc("/alerts/read-all", h.HandleMarkAllAlertsRead).Methods("PUT")
	api.HandleFunc("/alerts/{id:[0-9]+}/read", h.HandleMarkAlertRead).Methods("PUT")
	api.HandleFunc("/alerts/subscriptions", h.HandleGetAlertSubscriptions).Methods("GET")
	api.HandleFunc("/alerts/subscriptions", h.HandleCreateAlertSubscription).Methods("POST")
	api.HandleFunc("/alerts/subscriptions/{id:[0-9]+}", h.HandleUpdateAlertSubscription).Methods("PUT")
	api.HandleFunc("/alerts/subscriptions/{id:[0-9]+}", h.HandleDeleteAlertSubscription).Methods("DELETE")

	// Market Data
	api.HandleFunc("/market-data", h.HandleGetMarketData).Methods("GET")

	// Market Context
	api.HandleFunc("/market-context/news", h.HandleGetNews).Methods("GET")
	api.HandleFunc("/market-context/sentiment", h.HandleGetSentiment).Methods("GET")
	api.HandleFunc("/market-context/refresh", h.HandleRefreshMarketContext).Methods("POST")

	// Settings
	api.HandleFunc("/users/{id:[0-9]+}/settings", h.HandleGetSettings).Methods("GET")
	api.HandleFunc("/users/{id:[0-9]+}/settings", h.HandleUpdateSettings).Methods("PUT")

	// WebSocket
	api.HandleFunc("/ws", h.HandleWebSocket).Methods("GET")

	// Статические файлы (должны быть в конце)
	r.PathPrefix("/").Handler(middleware.PageGuard(http.FileServer(http.Dir(webDir))))

	return r
}

// HandleHealth возвращает статус здоровья сервиса
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.respondSuccess(w, "OK", map[string]string{
		"status": "healthy",
	})
}
