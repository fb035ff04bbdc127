package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"quantdash/internal/api"
	"quantdash/internal/auth"
	"quantdash/internal/backtest"
	"quantdash/internal/marketcontext"
	"quantdash/internal/models"
	"quantdash/internal/storage"

	"github.com/gorilla/websocket"
)

type stubScorer struct{}

func (s *stubScorer) Score(_ context.Context, backtest *models.Backtest) (models.BacktestResult, []models.Trade, error) {
	return models.BacktestResult{
			TotalReturn: 10.0,
			SharpeRatio: 1.5,
			MaxDrawdown: -4.0,
			WinRate:     60.0,
			TotalTrades: 1,
		}, []models.Trade{
			{Symbol: backtest.Asset, Action: "BUY", Quantity: 5, Price: 100, Timestamp: backtest.StartDate},
		}, nil
}

type fixture struct {
	server *httptest.Server
	client *http.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := storage.New(filepath.Join(t.TempDir(), "test.db"), logger)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	authService := auth.NewService(st, 7*24*time.Hour, false, logger)
	hub := api.NewHub(logger)
	runner := backtest.NewRunner(st, &stubScorer{}, hub, 0, logger)
	market := marketcontext.NewProvider(0, logger)

	handler := api.New(st, authService, runner, market, hub, logger)
	server := httptest.NewServer(handler.SetupRouter(t.TempDir()))
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}

	return &fixture{
		server: server,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (f *fixture) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}

		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, f.server.URL+path, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}

	return resp, raw
}

func (f *fixture) signUp(t *testing.T, email string) {
	t.Helper()

	resp, raw := f.do(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"email":    email,
		"password": "secret123",
		"name":     "Test User",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sign up failed: %d %s", resp.StatusCode, raw)
	}
}

func TestSignUpSetsSessionCookies(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "cookie@example.com")

	serverURL, _ := url.Parse(f.server.URL)
	names := map[string]bool{}
	for _, cookie := range f.client.Jar.Cookies(serverURL) {
		names[cookie.Name] = true
	}

	if !names["session_token"] || !names["user_id"] {
		t.Errorf("expected session cookie pair, got %v", names)
	}

	resp, raw := f.do(t, http.MethodGet, "/api/auth/me", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me failed: %d %s", resp.StatusCode, raw)
	}

	var me struct {
		User models.Session `json:"user"`
	}
	if err := json.Unmarshal(raw, &me); err != nil {
		t.Fatalf("failed to decode me: %v", err)
	}
	if me.User.Email != "cookie@example.com" {
		t.Errorf("unexpected user: %+v", me.User)
	}
}

func TestSignUpDuplicate(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "dup@example.com")

	resp, raw := f.do(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"email":    "dup@example.com",
		"password": "other456",
		"name":     "Again",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(raw), "User already exists") {
		t.Errorf("unexpected body: %s", raw)
	}
}

func TestSignInInvalidCredentials(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "login@example.com")

	for _, body := range []map[string]string{
		{"email": "login@example.com", "password": "wrong1234"},
		{"email": "nobody@example.com", "password": "secret123"},
	} {
		resp, raw := f.do(t, http.MethodPost, "/api/auth/signin", body)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
		// Один и тот же ответ для неизвестного email и неверного пароля
		if !strings.Contains(string(raw), "Invalid email or password") {
			t.Errorf("unexpected body: %s", raw)
		}
	}
}

func TestSignOutClearsSession(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "out@example.com")

	resp, _ := f.do(t, http.MethodPost, "/api/auth/signout", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sign out failed: %d", resp.StatusCode)
	}

	resp, _ = f.do(t, http.MethodGet, "/api/auth/me", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 after sign out, got %d", resp.StatusCode)
	}
}

func TestProtectedRouteWithoutSession(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.do(t, http.MethodGet, "/api/strategies", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

func TestForgedCookieRejected(t *testing.T) {
	f := newFixture(t)

	req, _ := http.NewRequest(http.MethodGet, f.server.URL+"/api/strategies", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: "deadbeef"})
	req.AddCookie(&http.Cookie{Name: "user_id", Value: "999"})

	resp, err := f.client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for forged cookies, got %d", resp.StatusCode)
	}
}

func TestStrategiesCRUD(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "crud@example.com")

	resp, raw := f.do(t, http.MethodPost, "/api/strategies", map[string]any{
		"name":       "Momentum Breakout",
		"type":       "Momentum",
		"parameters": map[string]any{"maWindow": 20},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create failed: %d %s", resp.StatusCode, raw)
	}

	var created struct {
		Strategy models.Strategy `json:"strategy"`
	}
	if err := json.Unmarshal(raw, &created); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if created.Strategy.Status != "draft" {
		t.Errorf("expected draft status, got %q", created.Strategy.Status)
	}

	resp, raw = f.do(t, http.MethodGet, "/api/strategies", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list failed: %d", resp.StatusCode)
	}

	var list struct {
		Strategies []models.Strategy `json:"strategies"`
	}
	json.Unmarshal(raw, &list)
	if len(list.Strategies) != 1 {
		t.Fatalf("expected 1 strategy, got %d", len(list.Strategies))
	}

	path := fmt.Sprintf("/api/strategies/%d", created.Strategy.ID)

	resp, raw = f.do(t, http.MethodPut, path, map[string]any{"status": "active"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update failed: %d %s", resp.StatusCode, raw)
	}

	var updated struct {
		Strategy models.Strategy `json:"strategy"`
	}
	json.Unmarshal(raw, &updated)
	if updated.Strategy.Status != "active" {
		t.Errorf("expected active, got %q", updated.Strategy.Status)
	}
	if updated.Strategy.Name != "Momentum Breakout" {
		t.Errorf("expected name unchanged, got %q", updated.Strategy.Name)
	}

	resp, _ = f.do(t, http.MethodDelete, path, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete failed: %d", resp.StatusCode)
	}

	resp, _ = f.do(t, http.MethodGet, path, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestCreateStrategyValidation(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "valid@example.com")

	// name обязателен
	resp, _ := f.do(t, http.MethodPost, "/api/strategies", map[string]any{"type": "Momentum"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for missing name, got %d", resp.StatusCode)
	}

	// пустое тело
	resp, _ = f.do(t, http.MethodPost, "/api/strategies", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for empty body, got %d", resp.StatusCode)
	}
}

func TestBacktestRunToCompletion(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "run@example.com")

	_, raw := f.do(t, http.MethodPost, "/api/strategies", map[string]any{
		"name": "Momentum", "type": "Momentum",
	})
	var created struct {
		Strategy models.Strategy `json:"strategy"`
	}
	json.Unmarshal(raw, &created)

	resp, raw := f.do(t, http.MethodPost, "/api/backtests", map[string]any{
		"strategy_id": created.Strategy.ID,
		"name":        "Spring run",
		"asset":       "AAPL",
		"start_date":  "2025-01-01",
		"end_date":    "2025-03-01",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("run failed: %d %s", resp.StatusCode, raw)
	}

	var started struct {
		Backtest models.Backtest `json:"backtest"`
	}
	json.Unmarshal(raw, &started)

	// Прогон асинхронный, дожидаемся терминального статуса
	path := fmt.Sprintf("/api/backtests/%d", started.Backtest.ID)
	deadline := time.Now().Add(5 * time.Second)

	var final models.Backtest
	for time.Now().Before(deadline) {
		_, raw = f.do(t, http.MethodGet, path, nil)

		var current struct {
			Backtest models.Backtest `json:"backtest"`
		}
		json.Unmarshal(raw, &current)
		final = current.Backtest

		if final.Status == "completed" || final.Status == "failed" {
			break
		}

		time.Sleep(10 * time.Millisecond)
	}

	if final.Status != "completed" {
		t.Fatalf("expected completed backtest, got %q (%s)", final.Status, final.ErrorMessage)
	}
	if final.TotalReturn == nil || *final.TotalReturn != 10.0 {
		t.Errorf("unexpected total return: %v", final.TotalReturn)
	}

	_, raw = f.do(t, http.MethodGet, path+"/results", nil)

	var results struct {
		Backtest models.Backtest `json:"backtest"`
		Trades   []models.Trade  `json:"trades"`
	}
	json.Unmarshal(raw, &results)

	if len(results.Trades) != 1 {
		t.Errorf("expected 1 trade in results, got %d", len(results.Trades))
	}
}

func TestBacktestInvalidDates(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "dates@example.com")

	_, raw := f.do(t, http.MethodPost, "/api/strategies", map[string]any{"name": "M", "type": "Momentum"})
	var created struct {
		Strategy models.Strategy `json:"strategy"`
	}
	json.Unmarshal(raw, &created)

	resp, _ := f.do(t, http.MethodPost, "/api/backtests", map[string]any{
		"strategy_id": created.Strategy.ID,
		"name":        "Backwards",
		"asset":       "AAPL",
		"start_date":  "2025-03-01",
		"end_date":    "2025-01-01",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for reversed dates, got %d", resp.StatusCode)
	}
}

func TestBacktestForeignStrategy(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "first@example.com")

	_, raw := f.do(t, http.MethodPost, "/api/strategies", map[string]any{"name": "M", "type": "Momentum"})
	var created struct {
		Strategy models.Strategy `json:"strategy"`
	}
	json.Unmarshal(raw, &created)

	// Второй пользователь не может запускать чужую стратегию
	other := newFixtureSameServer(t, f)
	other.signUp(t, "second@example.com")

	resp, _ := other.do(t, http.MethodPost, "/api/backtests", map[string]any{
		"strategy_id": created.Strategy.ID,
		"name":        "Steal",
		"asset":       "AAPL",
		"start_date":  "2025-01-01",
		"end_date":    "2025-02-01",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for foreign strategy, got %d", resp.StatusCode)
	}
}

// newFixtureSameServer дает второй клиент с отдельной сессией к тому же серверу
func newFixtureSameServer(t *testing.T, f *fixture) *fixture {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}

	return &fixture{
		server: f.server,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func TestCreateTradeForeignReferences(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "trader@example.com")

	_, raw := f.do(t, http.MethodPost, "/api/strategies", map[string]any{"name": "M", "type": "Momentum"})
	var created struct {
		Strategy models.Strategy `json:"strategy"`
	}
	json.Unmarshal(raw, &created)

	// Своя стратегия принимается
	resp, raw := f.do(t, http.MethodPost, "/api/trades", map[string]any{
		"strategy_id": created.Strategy.ID,
		"symbol":      "AAPL",
		"action":      "BUY",
		"quantity":    10,
		"price":       170,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create failed: %d %s", resp.StatusCode, raw)
	}

	// Чужая стратегия и несуществующий бэктест отклоняются
	other := newFixtureSameServer(t, f)
	other.signUp(t, "outsider@example.com")

	resp, _ = other.do(t, http.MethodPost, "/api/trades", map[string]any{
		"strategy_id": created.Strategy.ID,
		"symbol":      "AAPL",
		"action":      "BUY",
		"quantity":    10,
		"price":       170,
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for foreign strategy reference, got %d", resp.StatusCode)
	}

	resp, _ = other.do(t, http.MethodPost, "/api/trades", map[string]any{
		"backtest_id": 999,
		"symbol":      "AAPL",
		"action":      "SELL",
		"quantity":    5,
		"price":       240,
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown backtest reference, got %d", resp.StatusCode)
	}
}

func TestMarketDataRequiresParams(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "md@example.com")

	for _, query := range []string{
		"",
		"?symbol=AAPL",
		"?symbol=AAPL&startDate=2025-01-01",
		"?startDate=2025-01-01&endDate=2025-02-01",
	} {
		resp, _ := f.do(t, http.MethodGet, "/api/market-data"+query, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400 for query %q, got %d", query, resp.StatusCode)
		}
	}
}

func TestSettingsOwnershipCheck(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "own@example.com")

	_, raw := f.do(t, http.MethodGet, "/api/auth/me", nil)
	var me struct {
		User models.Session `json:"user"`
	}
	json.Unmarshal(raw, &me)

	resp, _ := f.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d/settings", me.User.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected own settings to be readable, got %d", resp.StatusCode)
	}

	resp, _ = f.do(t, http.MethodGet, fmt.Sprintf("/api/users/%d/settings", me.User.ID+1), nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for foreign settings, got %d", resp.StatusCode)
	}
}

func TestSettingsPartialUpdate(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "part@example.com")

	_, raw := f.do(t, http.MethodGet, "/api/auth/me", nil)
	var me struct {
		User models.Session `json:"user"`
	}
	json.Unmarshal(raw, &me)

	path := fmt.Sprintf("/api/users/%d/settings", me.User.ID)

	resp, raw := f.do(t, http.MethodPut, path, map[string]any{"theme": "light"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update failed: %d %s", resp.StatusCode, raw)
	}

	var updated struct {
		Settings models.UserSettings `json:"settings"`
	}
	json.Unmarshal(raw, &updated)

	if updated.Settings.Theme != "light" {
		t.Errorf("expected light theme, got %q", updated.Settings.Theme)
	}
	if updated.Settings.Currency != "USD" {
		t.Errorf("expected untouched currency, got %q", updated.Settings.Currency)
	}
}

func TestAlertsFlow(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "al@example.com")

	resp, raw := f.do(t, http.MethodPost, "/api/alerts", map[string]any{
		"type":    "system",
		"title":   "Test alert",
		"message": "Something happened",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create failed: %d %s", resp.StatusCode, raw)
	}

	_, raw = f.do(t, http.MethodGet, "/api/alerts?unread_only=true", nil)
	var list struct {
		Alerts []models.Alert `json:"alerts"`
	}
	json.Unmarshal(raw, &list)
	if len(list.Alerts) != 1 {
		t.Fatalf("expected 1 unread alert, got %d", len(list.Alerts))
	}

	resp, _ = f.do(t, http.MethodPut, fmt.Sprintf("/api/alerts/%d/read", list.Alerts[0].ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("mark read failed: %d", resp.StatusCode)
	}

	_, raw = f.do(t, http.MethodGet, "/api/alerts?unread_only=true", nil)
	list.Alerts = nil
	json.Unmarshal(raw, &list)
	if len(list.Alerts) != 0 {
		t.Errorf("expected no unread alerts, got %d", len(list.Alerts))
	}
}

func TestMarketContextEndpoints(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "ctx@example.com")

	_, raw := f.do(t, http.MethodGet, "/api/market-context/news?symbol=AAPL", nil)
	var news struct {
		News []models.NewsItem `json:"news"`
	}
	json.Unmarshal(raw, &news)
	if len(news.News) != 1 {
		t.Errorf("expected 1 AAPL news item, got %d", len(news.News))
	}

	_, raw = f.do(t, http.MethodGet, "/api/market-context/sentiment", nil)
	var sentiment struct {
		Sentiment []models.SentimentItem `json:"sentiment"`
	}
	json.Unmarshal(raw, &sentiment)
	if len(sentiment.Sentiment) != 4 {
		t.Errorf("expected 4 sentiment items, got %d", len(sentiment.Sentiment))
	}

	resp, _ := f.do(t, http.MethodPost, "/api/market-context/refresh", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("refresh failed: %d", resp.StatusCode)
	}
}

func TestPageGuardRedirects(t *testing.T) {
	f := newFixture(t)

	// Без cookie защищенные страницы отправляют на /login
	resp, _ := f.do(t, http.MethodGet, "/dashboard", nil)
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/login" {
		t.Errorf("expected redirect to /login, got %q", loc)
	}

	// С cookie страницы входа отправляют на /dashboard
	f.signUp(t, "guard@example.com")

	resp, _ = f.do(t, http.MethodGet, "/login", nil)
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/dashboard" {
		t.Errorf("expected redirect to /dashboard, got %q", loc)
	}
}

func TestSeedAndDemoSignIn(t *testing.T) {
	f := newFixture(t)

	resp, raw := f.do(t, http.MethodPost, "/api/seed", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("seed failed: %d %s", resp.StatusCode, raw)
	}

	resp, raw = f.do(t, http.MethodPost, "/api/auth/signin", map[string]string{
		"email":    "demo@example.com",
		"password": "demo123",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("demo sign in failed: %d %s", resp.StatusCode, raw)
	}

	_, raw = f.do(t, http.MethodGet, "/api/strategies", nil)
	var list struct {
		Strategies []models.Strategy `json:"strategies"`
	}
	json.Unmarshal(raw, &list)
	if len(list.Strategies) != 3 {
		t.Errorf("expected 3 seeded strategies, got %d", len(list.Strategies))
	}
}

func TestWebSocketReceivesAlert(t *testing.T) {
	f := newFixture(t)
	f.signUp(t, "ws@example.com")

	serverURL, _ := url.Parse(f.server.URL)
	wsURL := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/api/ws"

	header := http.Header{}
	for _, cookie := range f.client.Jar.Cookies(serverURL) {
		header.Add("Cookie", cookie.String())
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	defer conn.Close()

	f.do(t, http.MethodPost, "/api/alerts", map[string]any{
		"type":    "system",
		"title":   "WS alert",
		"message": "Pushed over websocket",
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var event struct {
		Type string       `json:"type"`
		Data models.Alert `json:"data"`
	}
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("failed to read event: %v", err)
	}

	if event.Type != "alert" {
		t.Errorf("expected alert event, got %q", event.Type)
	}
	if event.Data.Title != "WS alert" {
		t.Errorf("unexpected alert: %+v", event.Data)
	}
}
