package backtest

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"quantdash/internal/models"
	"quantdash/internal/storage"
)

// Notifier получает обновления статуса бэктеста (реализуется WebSocket хабом)
type Notifier interface {
	NotifyBacktest(userID int, backtest *models.Backtest)
	NotifyAlert(userID int, alert models.Alert)
}

// Runner прогоняет бэктесты в фоне: pending -> running -> completed/failed
type Runner struct {
	storage  *storage.Storage
	scorer   Scorer
	notifier Notifier
	delay    time.Duration
	logger   *slog.Logger
}

func NewRunner(st *storage.Storage, scorer Scorer, notifier Notifier, delay time.Duration, logger *slog.Logger) *Runner {
	return &Runner{
		storage:  st,
		scorer:   scorer,
		notifier: notifier,
		delay:    delay,
		logger:   logger,
	}
}

// Start запускает бэктест в отдельной горутине и сразу возвращается.
// Контекст запроса не используется: прогон должен пережить HTTP запрос
func (r *Runner) Start(backtest *models.Backtest) {
	go r.run(context.Background(), backtest)
}

// Run прогоняет бэктест синхронно (для тестов и CLI)
func (r *Runner) Run(ctx context.Context, backtest *models.Backtest) error {
	return r.run(ctx, backtest)
}

func (r *Runner) run(ctx context.Context, backtest *models.Backtest) error {
	if err := r.storage.UpdateBacktestStatus(ctx, backtest.UserID, backtest.ID, "running", nil, ""); err != nil {
		r.logger.Error("Failed to mark backtest running", "backtest_id", backtest.ID, "error", err)
		return err
	}

	backtest.Status = "running"
	r.notifier.NotifyBacktest(backtest.UserID, backtest)

	// Симуляция вычислений
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return r.fail(backtest, ctx.Err().Error())
		}
	}

	result, trades, err := r.scorer.Score(ctx, backtest)
	if err != nil {
		r.logger.Error("Backtest scoring failed", "backtest_id", backtest.ID, "error", err)
		return r.fail(backtest, err.Error())
	}

	for i := range trades {
		trades[i].UserID = backtest.UserID
		trades[i].BacktestID = &backtest.ID
		trades[i].StrategyID = &backtest.StrategyID
	}

	if _, err := r.storage.BulkInsertTrades(ctx, trades); err != nil {
		r.logger.Error("Failed to insert backtest trades", "backtest_id", backtest.ID, "error", err)
		return r.fail(backtest, "failed to record trades")
	}

	if err := r.storage.UpdateBacktestStatus(ctx, backtest.UserID, backtest.ID, "completed", &result, ""); err != nil {
		r.logger.Error("Failed to complete backtest", "backtest_id", backtest.ID, "error", err)
		return err
	}

	if err := r.storage.UpdateStrategyLastRun(ctx, backtest.UserID, backtest.StrategyID); err != nil {
		r.logger.Warn("Failed to update strategy last run", "strategy_id", backtest.StrategyID, "error", err)
	}

	updated, err := r.storage.GetBacktest(ctx, backtest.UserID, backtest.ID)
	if err != nil {
		return err
	}

	r.notifier.NotifyBacktest(updated.UserID, updated)
	r.notifyCompletion(ctx, updated, result)

	r.logger.Info("✅ Backtest completed",
		"backtest_id", updated.ID,
		"total_return", result.TotalReturn,
		"trades", result.TotalTrades)

	return nil
}

func (r *Runner) fail(backtest *models.Backtest, message string) error {
	// Отдельный контекст: исходный мог быть уже отменен
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.storage.UpdateBacktestStatus(ctx, backtest.UserID, backtest.ID, "failed", nil, message); err != nil {
		r.logger.Error("Failed to mark backtest failed", "backtest_id", backtest.ID, "error", err)
		return err
	}

	backtest.Status = "failed"
	backtest.ErrorMessage = message
	r.notifier.NotifyBacktest(backtest.UserID, backtest)

	r.logger.Warn("⚠️ Backtest failed", "backtest_id", backtest.ID, "error", message)

	return nil
}

// notifyCompletion создает уведомление о завершении, если пользователь их не отключил
func (r *Runner) notifyCompletion(ctx context.Context, backtest *models.Backtest, result models.BacktestResult) {
	settings, err := r.storage.GetUserSettings(ctx, backtest.UserID)
	if err == nil && !settings.NotifyBacktestComplete {
		return
	}

	data, _ := json.Marshal(map[string]any{
		"backtest_id":  backtest.ID,
		"total_return": result.TotalReturn,
	})

	alert := models.Alert{
		UserID:  backtest.UserID,
		Type:    "backtest_complete",
		Title:   "Backtest completed: " + backtest.Name,
		Message: "Backtest for " + backtest.Asset + " finished",
		Data:    data,
	}

	id, err := r.storage.CreateAlert(ctx, alert)
	if err != nil {
		r.logger.Warn("Failed to create completion alert", "backtest_id", backtest.ID, "error", err)
		return
	}

	alert.ID = id
	r.notifier.NotifyAlert(backtest.UserID, alert)
}
