package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"
)

// APIError - ошибка запроса к API. Status 0 означает сетевую ошибку,
// до сервера запрос не дошел
type APIError struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return e.Message
	}

	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Client - HTTP клиент дашборда с cookie-сессией и кэшированием GET
// запросов. Ключ кэша - метод, URL и тело запроса
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *Cache
}

func NewClient(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
		cache: NewCache(),
	}, nil
}

// Invalidate сбрасывает записи кэша по подстроке ключа
func (c *Client) Invalidate(pattern string) {
	c.cache.Invalidate(pattern)
}

func cacheKey(method, url string, body []byte) string {
	return method + ":" + url + ":" + string(body)
}

// Request выполняет запрос и декодирует ответ в out. GET запросы с
// ttl > 0 кэшируются; остальные методы всегда идут на сервер
func (c *Client) Request(ctx context.Context, method, path string, body any, ttl time.Duration, out any) error {
	url := c.baseURL + path

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return &APIError{Status: 0, Message: "failed to encode request body"}
		}
	}

	key := cacheKey(method, url, payload)

	if method == http.MethodGet && ttl > 0 {
		if cached, ok := c.cache.Get(key); ok {
			if out == nil {
				return nil
			}

			return json.Unmarshal(cached, out)
		}
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return &APIError{Status: 0, Message: err.Error()}
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Status: 0, Message: "Network error - please check your connection"}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Status: 0, Message: "failed to read response"}
	}

	// Ошибкой считается любой не-2xx: редиректы, которые http.Client не
	// разрешил сам, не должны оседать в кэше как успешный ответ
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: resp.Status, Data: raw}

		var envelope struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &envelope) == nil && envelope.Error != "" {
			apiErr.Message = envelope.Error
		}

		return apiErr
	}

	if method == http.MethodGet && ttl > 0 {
		c.cache.Set(key, raw, ttl)
	}

	if out == nil {
		return nil
	}

	return json.Unmarshal(raw, out)
}

func (c *Client) get(ctx context.Context, path string, ttl time.Duration, out any) error {
	return c.Request(ctx, http.MethodGet, path, nil, ttl, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.Request(ctx, http.MethodPost, path, body, 0, out)
}

func (c *Client) put(ctx context.Context, path string, body, out any) error {
	return c.Request(ctx, http.MethodPut, path, body, 0, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.Request(ctx, http.MethodDelete, path, nil, 0, nil)
}
