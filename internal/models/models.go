package models

import (
	"encoding/json"
	"time"
)

// User представляет зарегистрированного пользователя дашборда
type User struct {
	ID           int        `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Name         string     `json:"name"`
	AvatarURL    string     `json:"avatar_url,omitempty"`
	Timezone     string     `json:"timezone"`
	Theme        string     `json:"theme"`
	Language     string     `json:"language"`
	Currency     string     `json:"currency"`
	DateFormat   string     `json:"date_format"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// Session - минимальная проекция пользователя для авторизованных запросов
type Session struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Strategy - торговая стратегия пользователя
type Strategy struct {
	ID          int             `json:"id"`
	UserID      int             `json:"user_id"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters"`
	Status      string          `json:"status"` // draft, active, paused
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	LastRun     *time.Time      `json:"last_run,omitempty"`
}

// StrategyUpdate - частичное обновление стратегии (nil = поле не меняется)
type StrategyUpdate struct {
	Name        *string         `json:"name,omitempty"`
	Type        *string         `json:"type,omitempty"`
	Description *string         `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
	Status      *string         `json:"status,omitempty"`
}

// Backtest - запуск стратегии на исторических данных
type Backtest struct {
	ID           int             `json:"id"`
	UserID       int             `json:"user_id"`
	StrategyID   int             `json:"strategy_id"`
	Name         string          `json:"name"`
	Asset        string          `json:"asset"`
	StartDate    time.Time       `json:"start_date"`
	EndDate      time.Time       `json:"end_date"`
	Status       string          `json:"status"` // pending, running, completed, failed
	TotalReturn  *float64        `json:"total_return,omitempty"`
	SharpeRatio  *float64        `json:"sharpe_ratio,omitempty"`
	MaxDrawdown  *float64        `json:"max_drawdown,omitempty"`
	WinRate      *float64        `json:"win_rate,omitempty"`
	TotalTrades  *int            `json:"total_trades,omitempty"`
	Parameters   json.RawMessage `json:"parameters,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

// BacktestResult - итоговые метрики завершённого бэктеста
type BacktestResult struct {
	TotalReturn float64 `json:"total_return"`
	SharpeRatio float64 `json:"sharpe_ratio"`
	MaxDrawdown float64 `json:"max_drawdown"`
	WinRate     float64 `json:"win_rate"`
	TotalTrades int     `json:"total_trades"`
}

// BacktestSummary - агрегированная статистика по бэктестам пользователя
type BacktestSummary struct {
	TotalBacktests int     `json:"total_backtests"`
	AvgReturn      float64 `json:"avg_return"`
	BestSharpe     float64 `json:"best_sharpe"`
	SuccessRate    float64 `json:"success_rate"`
}

// Trade - исполненная (или симулированная) сделка
type Trade struct {
	ID         int       `json:"id"`
	UserID     int       `json:"user_id"`
	BacktestID *int      `json:"backtest_id,omitempty"`
	StrategyID *int      `json:"strategy_id,omitempty"`
	Symbol     string    `json:"symbol"`
	Action     string    `json:"action"` // BUY, SELL
	Quantity   float64   `json:"quantity"`
	Price      float64   `json:"price"`
	Timestamp  time.Time `json:"timestamp"`
	PnL        *float64  `json:"pnl,omitempty"`
	Commission *float64  `json:"commission,omitempty"`
	IsLive     bool      `json:"is_live"`
	CreatedAt  time.Time `json:"created_at"`
}

// TradeStats - агрегированная статистика по сделкам
type TradeStats struct {
	TotalTrades int     `json:"total_trades"`
	BuyCount    int     `json:"buy_count"`
	SellCount   int     `json:"sell_count"`
	TotalPnL    float64 `json:"total_pnl"`
	AvgPnL      float64 `json:"avg_pnl"`
	WinRate     float64 `json:"win_rate"`
}

// Alert - уведомление для пользователя
type Alert struct {
	ID        int             `json:"id"`
	UserID    int             `json:"user_id"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data,omitempty"`
	IsRead    bool            `json:"is_read"`
	CreatedAt time.Time       `json:"created_at"`
}

// AlertSubscription - подписка на ценовое условие по символу
type AlertSubscription struct {
	ID         int             `json:"id"`
	UserID     int             `json:"user_id"`
	Symbol     string          `json:"symbol"`
	AlertType  string          `json:"alert_type"`
	Conditions json.RawMessage `json:"conditions"`
	IsActive   bool            `json:"is_active"`
	CreatedAt  time.Time       `json:"created_at"`
}

// MarketData - дневная OHLCV свеча
type MarketData struct {
	ID            int       `json:"id"`
	Symbol        string    `json:"symbol"`
	Date          time.Time `json:"date"`
	OpenPrice     *float64  `json:"open_price,omitempty"`
	HighPrice     *float64  `json:"high_price,omitempty"`
	LowPrice      *float64  `json:"low_price,omitempty"`
	ClosePrice    *float64  `json:"close_price,omitempty"`
	Volume        *int64    `json:"volume,omitempty"`
	AdjustedClose *float64  `json:"adjusted_close,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewsItem - новость из внешнего источника (здесь источник - мок)
type NewsItem struct {
	ID              int       `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Content         string    `json:"content"`
	Source          string    `json:"source"`
	Author          string    `json:"author"`
	URL             string    `json:"url"`
	Timestamp       time.Time `json:"timestamp"`
	SentimentScore  float64   `json:"sentiment_score"`
	ConfidenceScore float64   `json:"confidence_score"`
	RelevanceScore  float64   `json:"relevance_score"`
}

// SentimentItem - пост из соцсетей с оценкой сентимента (мок)
type SentimentItem struct {
	ID              int       `json:"id"`
	Content         string    `json:"content"`
	Source          string    `json:"source"` // twitter, reddit
	Author          string    `json:"author"`
	Timestamp       time.Time `json:"timestamp"`
	SentimentScore  float64   `json:"sentiment_score"`
	ConfidenceScore float64   `json:"confidence_score"`
	RelevanceScore  float64   `json:"relevance_score"`
}

// UserSettings - настройки пользователя вместе с предпочтениями
type UserSettings struct {
	Timezone               string   `json:"timezone"`
	Theme                  string   `json:"theme"`
	Language               string   `json:"language"`
	Currency               string   `json:"currency"`
	DateFormat             string   `json:"date_format"`
	DefaultAssets          []string `json:"default_assets"`
	NotifyBacktestComplete bool     `json:"notification_backtest_complete"`
	NotifyMarketAlerts     bool     `json:"notification_market_alerts"`
	NotifySystemUpdates    bool     `json:"notification_system_updates"`
	NotifyWeeklyReports    bool     `json:"notification_weekly_reports"`
}

// UserSettingsUpdate - частичное обновление настроек (nil = без изменений)
type UserSettingsUpdate struct {
	Timezone               *string   `json:"timezone,omitempty"`
	Theme                  *string   `json:"theme,omitempty"`
	Language               *string   `json:"language,omitempty"`
	Currency               *string   `json:"currency,omitempty"`
	DateFormat             *string   `json:"date_format,omitempty"`
	DefaultAssets          *[]string `json:"default_assets,omitempty"`
	NotifyBacktestComplete *bool     `json:"notification_backtest_complete,omitempty"`
	NotifyMarketAlerts     *bool     `json:"notification_market_alerts,omitempty"`
	NotifySystemUpdates    *bool     `json:"notification_system_updates,omitempty"`
	NotifyWeeklyReports    *bool     `json:"notification_weekly_reports,omitempty"`
}
