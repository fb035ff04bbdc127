package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"quantdash/internal/models"
)

// TTL кэша по типам данных: чем чаще меняются, тем короче
const (
	ttlStrategies = 2 * time.Minute
	ttlBacktests  = time.Minute
	ttlTrades     = 30 * time.Second
	ttlAlerts     = 30 * time.Second
	ttlMarketData = 10 * time.Minute
	ttlNews       = 5 * time.Minute
	ttlSentiment  = 2 * time.Minute
	ttlSettings   = 10 * time.Minute
	ttlMe         = 5 * time.Minute
)

// SignUp регистрирует пользователя, cookie сессии остаются в jar
func (c *Client) SignUp(ctx context.Context, email, password, name string) (*models.Session, error) {
	var resp struct {
		User *models.Session `json:"user"`
	}

	body := map[string]string{"email": email, "password": password, "name": name}
	if err := c.post(ctx, "/api/auth/signup", body, &resp); err != nil {
		return nil, err
	}

	return resp.User, nil
}

// SignIn входит по email и паролю
func (c *Client) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	var resp struct {
		User *models.Session `json:"user"`
	}

	body := map[string]string{"email": email, "password": password}
	if err := c.post(ctx, "/api/auth/signin", body, &resp); err != nil {
		return nil, err
	}

	return resp.User, nil
}

// SignOut выходит и сбрасывает весь кэш: данные принадлежали сессии
func (c *Client) SignOut(ctx context.Context) error {
	if err := c.post(ctx, "/api/auth/signout", nil, nil); err != nil {
		return err
	}

	c.cache.Invalidate("")

	return nil
}

// Me возвращает текущего пользователя
func (c *Client) Me(ctx context.Context) (*models.Session, error) {
	var resp struct {
		User *models.Session `json:"user"`
	}

	if err := c.get(ctx, "/api/auth/me", ttlMe, &resp); err != nil {
		return nil, err
	}

	return resp.User, nil
}

// Strategies возвращает стратегии пользователя
func (c *Client) Strategies(ctx context.Context) ([]models.Strategy, error) {
	var resp struct {
		Strategies []models.Strategy `json:"strategies"`
	}

	if err := c.get(ctx, "/api/strategies", ttlStrategies, &resp); err != nil {
		return nil, err
	}

	return resp.Strategies, nil
}

// CreateStrategy создает стратегию и сбрасывает кэш списка
func (c *Client) CreateStrategy(ctx context.Context, strategy models.Strategy) (*models.Strategy, error) {
	var resp struct {
		Strategy *models.Strategy `json:"strategy"`
	}

	if err := c.post(ctx, "/api/strategies", strategy, &resp); err != nil {
		return nil, err
	}

	c.cache.Invalidate("/api/strategies")

	return resp.Strategy, nil
}

// UpdateStrategy применяет частичное обновление стратегии
func (c *Client) UpdateStrategy(ctx context.Context, id int, upd models.StrategyUpdate) (*models.Strategy, error) {
	var resp struct {
		Strategy *models.Strategy `json:"strategy"`
	}

	if err := c.put(ctx, fmt.Sprintf("/api/strategies/%d", id), upd, &resp); err != nil {
		return nil, err
	}

	c.cache.Invalidate("/api/strategies")

	return resp.Strategy, nil
}

// DeleteStrategy удаляет стратегию
func (c *Client) DeleteStrategy(ctx context.Context, id int) error {
	if err := c.delete(ctx, fmt.Sprintf("/api/strategies/%d", id)); err != nil {
		return err
	}

	c.cache.Invalidate("/api/strategies")

	return nil
}

// Backtests возвращает бэктесты пользователя
func (c *Client) Backtests(ctx context.Context) ([]models.Backtest, error) {
	var resp struct {
		Backtests []models.Backtest `json:"backtests"`
	}

	if err := c.get(ctx, "/api/backtests", ttlBacktests, &resp); err != nil {
		return nil, err
	}

	return resp.Backtests, nil
}

// RunBacktest запускает бэктест и сбрасывает кэш списка
func (c *Client) RunBacktest(ctx context.Context, req any) (*models.Backtest, error) {
	var resp struct {
		Backtest *models.Backtest `json:"backtest"`
	}

	if err := c.post(ctx, "/api/backtests", req, &resp); err != nil {
		return nil, err
	}

	c.cache.Invalidate("/api/backtests")

	return resp.Backtest, nil
}

// BacktestResults возвращает бэктест вместе со сделками
func (c *Client) BacktestResults(ctx context.Context, id int) (*models.Backtest, []models.Trade, error) {
	var resp struct {
		Backtest *models.Backtest `json:"backtest"`
		Trades   []models.Trade   `json:"trades"`
	}

	if err := c.get(ctx, fmt.Sprintf("/api/backtests/%d/results", id), ttlBacktests, &resp); err != nil {
		return nil, nil, err
	}

	return resp.Backtest, resp.Trades, nil
}

// Trades возвращает сделки с фильтрами из query
func (c *Client) Trades(ctx context.Context, query url.Values) ([]models.Trade, error) {
	var resp struct {
		Trades []models.Trade `json:"trades"`
	}

	path := "/api/trades"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	if err := c.get(ctx, path, ttlTrades, &resp); err != nil {
		return nil, err
	}

	return resp.Trades, nil
}

// TradeStats возвращает агрегированную статистику по сделкам
func (c *Client) TradeStats(ctx context.Context) (*models.TradeStats, error) {
	var resp struct {
		Stats *models.TradeStats `json:"stats"`
	}

	if err := c.get(ctx, "/api/trades/stats", ttlTrades, &resp); err != nil {
		return nil, err
	}

	return resp.Stats, nil
}

// Alerts возвращает уведомления пользователя
func (c *Client) Alerts(ctx context.Context, unreadOnly bool) ([]models.Alert, error) {
	var resp struct {
		Alerts []models.Alert `json:"alerts"`
	}

	path := "/api/alerts"
	if unreadOnly {
		path += "?unread_only=true"
	}

	if err := c.get(ctx, path, ttlAlerts, &resp); err != nil {
		return nil, err
	}

	return resp.Alerts, nil
}

// MarkAlertRead помечает уведомление прочитанным
func (c *Client) MarkAlertRead(ctx context.Context, id int) error {
	if err := c.put(ctx, fmt.Sprintf("/api/alerts/%d/read", id), nil, nil); err != nil {
		return err
	}

	c.cache.Invalidate("/api/alerts")

	return nil
}

// MarkAllAlertsRead помечает все уведомления прочитанными
func (c *Client) MarkAllAlertsRead(ctx context.Context) error {
	if err := c.put(ctx, "/api/alerts/read-all", nil, nil); err != nil {
		return err
	}

	c.cache.Invalidate("/api/alerts")

	return nil
}

// MarketData возвращает свечи по символу за период
func (c *Client) MarketData(ctx context.Context, symbol string, startDate, endDate time.Time) ([]models.MarketData, error) {
	var resp struct {
		Data []models.MarketData `json:"data"`
	}

	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("startDate", startDate.Format("2006-01-02"))
	query.Set("endDate", endDate.Format("2006-01-02"))

	if err := c.get(ctx, "/api/market-data?"+query.Encode(), ttlMarketData, &resp); err != nil {
		return nil, err
	}

	return resp.Data, nil
}

// News возвращает новости, symbol "" или "ALL" - без фильтра
func (c *Client) News(ctx context.Context, symbol string, limit int) ([]models.NewsItem, error) {
	var resp struct {
		News []models.NewsItem `json:"news"`
	}

	if err := c.get(ctx, contextPath("/api/market-context/news", symbol, limit), ttlNews, &resp); err != nil {
		return nil, err
	}

	return resp.News, nil
}

// Sentiment возвращает посты с оценкой сентимента
func (c *Client) Sentiment(ctx context.Context, symbol string, limit int) ([]models.SentimentItem, error) {
	var resp struct {
		Sentiment []models.SentimentItem `json:"sentiment"`
	}

	if err := c.get(ctx, contextPath("/api/market-context/sentiment", symbol, limit), ttlSentiment, &resp); err != nil {
		return nil, err
	}

	return resp.Sentiment, nil
}

// RefreshMarketContext заставляет сервер перечитать фиды
func (c *Client) RefreshMarketContext(ctx context.Context) error {
	if err := c.post(ctx, "/api/market-context/refresh", nil, nil); err != nil {
		return err
	}

	c.cache.Invalidate("/api/market-context")

	return nil
}

// Settings возвращает настройки пользователя
func (c *Client) Settings(ctx context.Context, userID int) (*models.UserSettings, error) {
	var resp struct {
		Settings *models.UserSettings `json:"settings"`
	}

	if err := c.get(ctx, fmt.Sprintf("/api/users/%d/settings", userID), ttlSettings, &resp); err != nil {
		return nil, err
	}

	return resp.Settings, nil
}

// UpdateSettings применяет частичное обновление настроек
func (c *Client) UpdateSettings(ctx context.Context, userID int, upd models.UserSettingsUpdate) (*models.UserSettings, error) {
	var resp struct {
		Settings *models.UserSettings `json:"settings"`
	}

	if err := c.put(ctx, fmt.Sprintf("/api/users/%d/settings", userID), upd, &resp); err != nil {
		return nil, err
	}

	c.cache.Invalidate("/settings")

	return resp.Settings, nil
}

func contextPath(base, symbol string, limit int) string {
	query := url.Values{}
	if symbol != "" {
		query.Set("symbol", symbol)
	}
	if limit > 0 {
		query.Set("limit", fmt.Sprint(limit))
	}

	if len(query) == 0 {
		return base
	}

	return base + "?" + query.Encode()
}

// DecodeData раскодирует тело ошибки, если сервер прислал JSON
func (e *APIError) DecodeData(out any) error {
	if e.Data == nil {
		return nil
	}

	return json.Unmarshal(e.Data, out)
}
