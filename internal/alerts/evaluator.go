package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"quantdash/internal/models"
	"quantdash/internal/storage"
)

// Notifier рассылает созданные уведомления (реализуется WebSocket хабом)
type Notifier interface {
	NotifyAlert(userID int, alert models.Alert)
}

// priceConditions - условия подписки типа price_threshold
type priceConditions struct {
	Above *float64 `json:"above"`
	Below *float64 `json:"below"`
}

// Evaluator периодически проверяет активные подписки по последним ценам
// и создает уведомления при срабатывании условий
type Evaluator struct {
	storage  *storage.Storage
	notifier Notifier
	interval time.Duration
	logger   *slog.Logger
}

func NewEvaluator(st *storage.Storage, notifier Notifier, interval time.Duration, logger *slog.Logger) *Evaluator {
	return &Evaluator{
		storage:  st,
		notifier: notifier,
		interval: interval,
		logger:   logger,
	}
}

// Run крутит цикл проверки до отмены контекста
func (e *Evaluator) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.logger.Info("🚀 Alert evaluator started", "interval", e.interval)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Alert evaluator stopped")
			return
		case <-ticker.C:
			if err := e.Evaluate(ctx); err != nil {
				e.logger.Error("Alert evaluation failed", "error", err)
			}
		}
	}
}

// Evaluate выполняет один проход по активным подпискам
func (e *Evaluator) Evaluate(ctx context.Context) error {
	subs, err := e.storage.GetActiveSubscriptions(ctx)
	if err != nil {
		return err
	}

	for _, sub := range subs {
		// Оцениваются только ценовые подписки: сентимент и объем
		// приходят из мок-фидов без истории
		if sub.AlertType != "price_threshold" {
			continue
		}

		if err := e.evaluatePrice(ctx, sub); err != nil {
			e.logger.Warn("Failed to evaluate subscription",
				"subscription_id", sub.ID,
				"symbol", sub.Symbol,
				"error", err)
		}
	}

	return nil
}

func (e *Evaluator) evaluatePrice(ctx context.Context, sub models.AlertSubscription) error {
	var cond priceConditions
	if err := json.Unmarshal(sub.Conditions, &cond); err != nil {
		return fmt.Errorf("invalid conditions: %w", err)
	}

	latest, err := e.storage.GetLatestMarketData(ctx, sub.Symbol)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}

		return err
	}

	if latest.ClosePrice == nil {
		return nil
	}
	price := *latest.ClosePrice

	var message string
	switch {
	case cond.Above != nil && price > *cond.Above:
		message = fmt.Sprintf("%s closed at %.2f, above your threshold of %.2f", sub.Symbol, price, *cond.Above)
	case cond.Below != nil && price < *cond.Below:
		message = fmt.Sprintf("%s closed at %.2f, below your threshold of %.2f", sub.Symbol, price, *cond.Below)
	default:
		return nil
	}

	// Пока прошлое срабатывание не прочитано, новое не создается
	exists, err := e.storage.HasUnreadAlert(ctx, sub.UserID, "price_threshold", sub.Symbol)
	if err != nil || exists {
		return err
	}

	data, _ := json.Marshal(map[string]any{
		"subscription_id": sub.ID,
		"symbol":          sub.Symbol,
		"price":           price,
	})

	alert := models.Alert{
		UserID:  sub.UserID,
		Type:    "price_threshold",
		Title:   "Price alert: " + sub.Symbol,
		Message: message,
		Data:    data,
	}

	id, err := e.storage.CreateAlert(ctx, alert)
	if err != nil {
		return err
	}

	alert.ID = id
	e.notifier.NotifyAlert(sub.UserID, alert)

	e.logger.Info("✅ Price alert triggered",
		"user_id", sub.UserID,
		"symbol", sub.Symbol,
		"price", price)

	return nil
}
