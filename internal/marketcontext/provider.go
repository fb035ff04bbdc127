package marketcontext

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"quantdash/internal/models"
)

// Provider отдает новости и сентимент. Источник - статический мок:
// настоящие фиды (NewsAPI, Twitter) подключаются заменой newsFeed и
// sentimentFeed на результаты внешних запросов
type Provider struct {
	mu           sync.RWMutex
	news         []models.NewsItem
	sentiment    []models.SentimentItem
	refreshedAt  time.Time
	refreshDelay time.Duration
	logger       *slog.Logger
}

func NewProvider(refreshDelay time.Duration, logger *slog.Logger) *Provider {
	p := &Provider{
		refreshDelay: refreshDelay,
		logger:       logger,
	}

	p.news = newsFeed(time.Now())
	p.sentiment = sentimentFeed(time.Now())
	p.refreshedAt = time.Now()

	return p
}

// News возвращает новости, отфильтрованные по вхождению символа.
// Символ "ALL" или пустой отключает фильтр, limit <= 0 - без ограничения
func (p *Provider) News(symbol string, limit int) []models.NewsItem {
	p.mu.RLock()
	defer p.mu.RUnlock()

	filter := symbol != "" && symbol != "ALL"

	items := make([]models.NewsItem, 0, len(p.news))
	for _, item := range p.news {
		if filter && !containsFold(item.Title+" "+item.Content, symbol) {
			continue
		}

		items = append(items, item)
		if limit > 0 && len(items) >= limit {
			break
		}
	}

	return items
}

// Sentiment возвращает посты, отфильтрованные по вхождению символа
func (p *Provider) Sentiment(symbol string, limit int) []models.SentimentItem {
	p.mu.RLock()
	defer p.mu.RUnlock()

	filter := symbol != "" && symbol != "ALL"

	items := make([]models.SentimentItem, 0, len(p.sentiment))
	for _, item := range p.sentiment {
		if filter && !containsFold(item.Content, symbol) {
			continue
		}

		items = append(items, item)
		if limit > 0 && len(items) >= limit {
			break
		}
	}

	return items
}

// Refresh перечитывает фиды. Задержка имитирует поход во внешний API
func (p *Provider) Refresh(ctx context.Context) error {
	if p.refreshDelay > 0 {
		select {
		case <-time.After(p.refreshDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	now := time.Now()

	p.mu.Lock()
	p.news = newsFeed(now)
	p.sentiment = sentimentFeed(now)
	p.refreshedAt = now
	p.mu.Unlock()

	p.logger.Info("Market context refreshed", "news", len(p.news), "sentiment", len(p.sentiment))

	return nil
}

// RefreshedAt возвращает время последнего обновления фидов
func (p *Provider) RefreshedAt() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.refreshedAt
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
