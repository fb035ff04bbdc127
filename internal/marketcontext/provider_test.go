package marketcontext

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()

	return NewProvider(0, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestNewsSymbolFilter(t *testing.T) {
	provider := newTestProvider(t)

	all := provider.News("", 0)
	if len(all) != 3 {
		t.Fatalf("expected 3 news items, got %d", len(all))
	}

	// "ALL" отключает фильтр так же, как пустой символ
	if got := provider.News("ALL", 0); len(got) != len(all) {
		t.Errorf("expected ALL to match everything, got %d", len(got))
	}

	aapl := provider.News("AAPL", 0)
	if len(aapl) != 1 {
		t.Fatalf("expected 1 AAPL news item, got %d", len(aapl))
	}
	if aapl[0].Author != "Reuters" {
		t.Errorf("unexpected item: %+v", aapl[0])
	}

	// Регистр символа не важен
	if got := provider.News("tsla", 0); len(got) != 1 {
		t.Errorf("expected case-insensitive match, got %d items", len(got))
	}

	if got := provider.News("ZZZZ", 0); len(got) != 0 {
		t.Errorf("expected no matches, got %d", len(got))
	}
}

func TestNewsLimit(t *testing.T) {
	provider := newTestProvider(t)

	if got := provider.News("", 2); len(got) != 2 {
		t.Errorf("expected limit 2, got %d", len(got))
	}
}

func TestSentimentSymbolFilter(t *testing.T) {
	provider := newTestProvider(t)

	all := provider.Sentiment("", 0)
	if len(all) != 4 {
		t.Fatalf("expected 4 sentiment items, got %d", len(all))
	}

	googl := provider.Sentiment("GOOGL", 0)
	if len(googl) != 1 {
		t.Fatalf("expected 1 GOOGL post, got %d", len(googl))
	}
	if googl[0].Source != "reddit" {
		t.Errorf("unexpected source %q", googl[0].Source)
	}
}

func TestRefreshUpdatesTimestamps(t *testing.T) {
	provider := newTestProvider(t)

	before := provider.RefreshedAt()

	if err := provider.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	if !provider.RefreshedAt().After(before) {
		t.Error("expected refreshed_at to advance")
	}

	if len(provider.News("", 0)) != 3 {
		t.Error("expected news feed to survive refresh")
	}
}

func TestRefreshCancelled(t *testing.T) {
	provider := NewProvider(time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := provider.Refresh(ctx); err == nil {
		t.Error("expected context error")
	}
}
